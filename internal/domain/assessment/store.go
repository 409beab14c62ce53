package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `
    id, employee_name, employee_email, manager_name, program_manager_name,
    objective_rating, objective_comment, technical_rating, project_rating, methodology_rating,
    abilities_comment, efficiency_collaboration, efficiency_ownership, efficiency_resourcefulness, efficiency_comment,
    conduct_mutual_trust, conduct_proactivity, conduct_leadership, conduct_comment,
    general_comments, feedback_received,
    manager_objective_comment, manager_abilities_comment, manager_efficiency_comment,
    next_cycle_goals, manager_general_comments,
    workflow_status, version, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeName, &rec.EmployeeEmail, &rec.ManagerName, &rec.ProgramManagerName,
		&rec.ObjectiveRating, &rec.ObjectiveComment, &rec.TechnicalRating, &rec.ProjectRating, &rec.MethodologyRating,
		&rec.AbilitiesComment, &rec.EfficiencyCollaboration, &rec.EfficiencyOwnership, &rec.EfficiencyResourcefulness, &rec.EfficiencyComment,
		&rec.ConductMutualTrust, &rec.ConductProactivity, &rec.ConductLeadership, &rec.ConductComment,
		&rec.GeneralComments, &rec.FeedbackReceived,
		&rec.ManagerObjectiveComment, &rec.ManagerAbilitiesComment, &rec.ManagerEfficiencyComment,
		&rec.NextCycleGoals, &rec.ManagerGeneralComments,
		&rec.Status, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (s *Store) Insert(ctx context.Context, rec Record) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO assessments (
      id, employee_name, employee_email, manager_name, program_manager_name,
      objective_rating, objective_comment, technical_rating, project_rating, methodology_rating,
      abilities_comment, efficiency_collaboration, efficiency_ownership, efficiency_resourcefulness, efficiency_comment,
      conduct_mutual_trust, conduct_proactivity, conduct_leadership, conduct_comment,
      general_comments, feedback_received,
      manager_objective_comment, manager_abilities_comment, manager_efficiency_comment,
      next_cycle_goals, manager_general_comments,
      workflow_status, version
    ) VALUES (
      $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,1
    )
    RETURNING `+recordColumns,
		rec.ID, rec.EmployeeName, rec.EmployeeEmail, rec.ManagerName, rec.ProgramManagerName,
		rec.ObjectiveRating, rec.ObjectiveComment, rec.TechnicalRating, rec.ProjectRating, rec.MethodologyRating,
		rec.AbilitiesComment, rec.EfficiencyCollaboration, rec.EfficiencyOwnership, rec.EfficiencyResourcefulness, rec.EfficiencyComment,
		rec.ConductMutualTrust, rec.ConductProactivity, rec.ConductLeadership, rec.ConductComment,
		rec.GeneralComments, rec.FeedbackReceived,
		rec.ManagerObjectiveComment, rec.ManagerAbilitiesComment, rec.ManagerEfficiencyComment,
		rec.NextCycleGoals, rec.ManagerGeneralComments,
		string(rec.Status),
	)
	inserted, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			existing, found, lookupErr := s.FindByEmployee(ctx, rec.EmployeeName)
			if lookupErr == nil && found {
				return Record{}, &DuplicateError{ExistingID: existing.ID}
			}
			return Record{}, &DuplicateError{}
		}
		return Record{}, err
	}
	return inserted, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, "SELECT"+recordColumns+" FROM assessments WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *Store) FindByEmployee(ctx context.Context, name string) (Record, bool, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx,
		"SELECT"+recordColumns+" FROM assessments WHERE lower(employee_name) = lower($1)",
		strings.TrimSpace(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *Store) ListByManager(ctx context.Context, managerName string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+recordColumns+`
    FROM assessments
    WHERE lower(manager_name) = lower($1) AND lower(employee_name) <> lower($1)
    ORDER BY created_at DESC
  `, strings.TrimSpace(managerName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *Store) ListByProgramManager(ctx context.Context, name string, statuses []Status) ([]Record, error) {
	query := "SELECT" + recordColumns + " FROM assessments WHERE lower(program_manager_name) = lower($1)"
	args := []any{strings.TrimSpace(name)}
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		query += fmt.Sprintf(" AND workflow_status = ANY($%d)", len(args)+1)
		args = append(args, values)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *Store) Update(ctx context.Context, rec Record) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE assessments SET
      manager_name = $3, program_manager_name = $4,
      objective_rating = $5, objective_comment = $6, technical_rating = $7, project_rating = $8, methodology_rating = $9,
      abilities_comment = $10, efficiency_collaboration = $11, efficiency_ownership = $12, efficiency_resourcefulness = $13, efficiency_comment = $14,
      conduct_mutual_trust = $15, conduct_proactivity = $16, conduct_leadership = $17, conduct_comment = $18,
      general_comments = $19, feedback_received = $20,
      manager_objective_comment = $21, manager_abilities_comment = $22, manager_efficiency_comment = $23,
      next_cycle_goals = $24, manager_general_comments = $25,
      workflow_status = $26,
      version = version + 1,
      updated_at = now()
    WHERE id = $1 AND version = $2
    RETURNING `+recordColumns,
		rec.ID, rec.Version, rec.ManagerName, rec.ProgramManagerName,
		rec.ObjectiveRating, rec.ObjectiveComment, rec.TechnicalRating, rec.ProjectRating, rec.MethodologyRating,
		rec.AbilitiesComment, rec.EfficiencyCollaboration, rec.EfficiencyOwnership, rec.EfficiencyResourcefulness, rec.EfficiencyComment,
		rec.ConductMutualTrust, rec.ConductProactivity, rec.ConductLeadership, rec.ConductComment,
		rec.GeneralComments, rec.FeedbackReceived,
		rec.ManagerObjectiveComment, rec.ManagerAbilitiesComment, rec.ManagerEfficiencyComment,
		rec.NextCycleGoals, rec.ManagerGeneralComments,
		string(rec.Status),
	)
	updated, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row missing or version moved on under us; tell the two apart.
		var exists bool
		if checkErr := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM assessments WHERE id = $1)", rec.ID).Scan(&exists); checkErr != nil {
			return Record{}, checkErr
		}
		if exists {
			return Record{}, ErrConflict
		}
		return Record{}, ErrNotFound
	}
	return updated, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM assessments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
