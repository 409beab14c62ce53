package assessment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"dialogue/internal/domain/identity"
)

// Service is the workflow engine: it owns every transition guard, composes
// the role predicate with the status guard (role first, so a caller without
// the role never learns workflow state), and never writes on a failed guard.
type Service struct {
	store StoreAPI

	// pmSeesAll widens the program-manager queue to every status instead of
	// Submitted/Approved only.
	pmSeesAll bool
}

func NewService(store StoreAPI, pmSeesAll bool) *Service {
	return &Service{store: store, pmSeesAll: pmSeesAll}
}

// Create inserts the caller's self assessment for the current cycle.
func (s *Service) Create(ctx context.Context, ident identity.Snapshot, fields EmployeeFields) (Record, error) {
	v := &validator{}
	v.required("name", ident.Name)
	v.required("email", ident.Email)
	if err := v.err(); err != nil {
		return Record{}, err
	}

	fields = TrimEmployeeFields(fields)
	if err := ValidateEmployeeFields(fields); err != nil {
		return Record{}, err
	}

	if existing, found, err := s.store.FindByEmployee(ctx, ident.Name); err != nil {
		return Record{}, err
	} else if found {
		return Record{}, &DuplicateError{ExistingID: existing.ID}
	}

	rec := Record{
		ID:             uuid.NewString(),
		EmployeeName:   strings.TrimSpace(ident.Name),
		EmployeeEmail:  strings.TrimSpace(ident.Email),
		ManagerName:    strings.TrimSpace(ident.ManagerName),
		EmployeeFields: fields,
		Status:         StatusCreated,
	}
	return s.store.Insert(ctx, rec)
}

// Edit replaces the employee-authored fields while the record is still in
// Created. expectedVersion guards against concurrent edits when non-zero.
func (s *Service) Edit(ctx context.Context, id string, expectedVersion int64, ident identity.Snapshot, fields EmployeeFields) (Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !IsOwner(rec, ident) {
		return Record{}, &PermissionError{Need: "owner"}
	}
	if err := CheckTransition(rec.Status, ActionEdit); err != nil {
		return Record{}, err
	}
	if expectedVersion != 0 && expectedVersion != rec.Version {
		return Record{}, ErrConflict
	}

	fields = TrimEmployeeFields(fields)
	if err := ValidateEmployeeFields(fields); err != nil {
		return Record{}, err
	}

	if manager := strings.TrimSpace(ident.ManagerName); manager != "" {
		rec.ManagerName = manager
	}
	rec.EmployeeFields = fields
	return s.store.Update(ctx, rec)
}

// Delete removes the caller's own record; only legal while Created.
func (s *Service) Delete(ctx context.Context, id string, ident identity.Snapshot) error {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !IsOwner(rec, ident) {
		return &PermissionError{Need: "owner"}
	}
	if err := CheckTransition(rec.Status, ActionDelete); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// Finalize moves a record from Created to Finalized and pins the program
// manager resolved from the caller's directory chain. Finalizing an already
// finalized record is a no-op so a manager double-click cannot fail.
func (s *Service) Finalize(ctx context.Context, id string, ident identity.Snapshot) (Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !IsManager(rec, ident) {
		return Record{}, &PermissionError{Need: "manager"}
	}
	if rec.Status == StatusFinalized {
		return rec, nil
	}
	if err := CheckTransition(rec.Status, ActionFinalize); err != nil {
		return Record{}, err
	}

	rec.Status = NextStatus(rec.Status, ActionFinalize)
	rec.ProgramManagerName = strings.TrimSpace(ident.ProgramManagerName)
	return s.store.Update(ctx, rec)
}

// EditManagerFields updates the manager-authored fields; legal only between
// finalize and submit.
func (s *Service) EditManagerFields(ctx context.Context, id string, expectedVersion int64, ident identity.Snapshot, fields ManagerFields) (Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !IsManager(rec, ident) {
		return Record{}, &PermissionError{Need: "manager"}
	}
	if err := CheckTransition(rec.Status, ActionEditManagerFields); err != nil {
		return Record{}, err
	}
	if expectedVersion != 0 && expectedVersion != rec.Version {
		return Record{}, ErrConflict
	}

	fields = TrimManagerFields(fields)
	if err := ValidateManagerFields(fields); err != nil {
		return Record{}, err
	}

	rec.ManagerFields = fields
	return s.store.Update(ctx, rec)
}

// Submit hands a finalized record to the program manager and locks it for
// manager edits.
func (s *Service) Submit(ctx context.Context, id string, ident identity.Snapshot) (Record, error) {
	return s.transition(ctx, id, ident, ActionSubmit)
}

// Approve completes the workflow; Approved is terminal.
func (s *Service) Approve(ctx context.Context, id string, ident identity.Snapshot) (Record, error) {
	return s.transition(ctx, id, ident, ActionApprove)
}

func (s *Service) transition(ctx context.Context, id string, ident identity.Snapshot, action Action) (Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	switch action {
	case ActionApprove:
		if !IsProgramManager(rec, ident) {
			return Record{}, &PermissionError{Need: "program manager"}
		}
	default:
		if !IsManager(rec, ident) {
			return Record{}, &PermissionError{Need: "manager"}
		}
	}
	if err := CheckTransition(rec.Status, action); err != nil {
		return Record{}, err
	}

	rec.Status = NextStatus(rec.Status, action)
	return s.store.Update(ctx, rec)
}

// Get returns a record the caller is allowed to read: the owner and the
// manager always, the program manager according to the visibility policy.
func (s *Service) Get(ctx context.Context, id string, ident identity.Snapshot) (Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if IsOwner(rec, ident) || IsManager(rec, ident) {
		return rec, nil
	}
	if IsProgramManager(rec, ident) && s.programManagerSees(rec.Status) {
		return rec, nil
	}
	return Record{}, &PermissionError{Need: "owner, manager or program manager"}
}

func (s *Service) programManagerSees(status Status) bool {
	if s.pmSeesAll {
		return true
	}
	return status == StatusSubmitted || status == StatusApproved
}

// BuildDashboard assembles the caller's own-record state and one row per
// direct report from the session roster plus any stale managed records.
func (s *Service) BuildDashboard(ctx context.Context, ident identity.Snapshot) (Dashboard, error) {
	var own *Record
	if rec, found, err := s.store.FindByEmployee(ctx, ident.Name); err != nil {
		return Dashboard{}, err
	} else if found {
		own = &rec
	}

	managed, err := s.store.ListByManager(ctx, ident.Name)
	if err != nil {
		return Dashboard{}, err
	}

	ownStatus := recordStatus(own)
	return Dashboard{
		Own:         own,
		OwnStatus:   ownStatus,
		OwnFacets:   ownStatus.Facets(),
		Team:        BuildTeamRows(ident.DirectReports, managed),
		RefreshedAt: ident.RefreshedAt,
	}, nil
}

// Queue lists the records awaiting the caller as program manager, filtered by
// the visibility policy.
func (s *Service) Queue(ctx context.Context, ident identity.Snapshot) ([]Record, error) {
	var statuses []Status
	if !s.pmSeesAll {
		statuses = []Status{StatusSubmitted, StatusApproved}
	}
	return s.store.ListByProgramManager(ctx, ident.Name, statuses)
}
