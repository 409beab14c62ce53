package assessment

import (
	"sort"
	"strings"
	"time"

	"dialogue/internal/domain/identity"
)

// Row is one dashboard line: a direct report with or without a record, or a
// managed record the directory no longer lists.
type Row struct {
	MemberName  string       `json:"memberName"`
	MemberEmail string       `json:"memberEmail"`
	MemberOID   string       `json:"memberOid,omitempty"`
	RecordID    string       `json:"recordId,omitempty"`
	Status      Status       `json:"status"`
	Facets      StatusFacets `json:"facets"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty"`
}

// Dashboard is the view a signed-in user gets of their own record and, when
// they manage people, of their team.
type Dashboard struct {
	Own         *Record      `json:"own,omitempty"`
	OwnStatus   Status       `json:"ownStatus"`
	OwnFacets   StatusFacets `json:"ownFacets"`
	Team        []Row        `json:"team"`
	RefreshedAt time.Time    `json:"teamRefreshedAt,omitzero"`
}

func recordStatus(rec *Record) Status {
	if rec == nil {
		return StatusNotCreated
	}
	if rec.Status.Known() {
		return rec.Status
	}
	return StatusCreated
}

func rowFor(member identity.Report, rec *Record) Row {
	status := recordStatus(rec)
	row := Row{
		MemberName:  member.Name,
		MemberEmail: member.Email,
		MemberOID:   member.OID,
		Status:      status,
		Facets:      status.Facets(),
	}
	if rec != nil {
		row.RecordID = rec.ID
		updated := rec.UpdatedAt
		row.UpdatedAt = &updated
	}
	return row
}

// BuildTeamRows assembles the manager dashboard. Every direct report gets
// exactly one row whether or not a record exists; managed records the roster
// does not know about (directory staleness) are appended with their real
// status. Rows are sorted by member name, case-insensitive.
func BuildTeamRows(reports []identity.Report, managed []Record) []Row {
	byEmail := make(map[string]*Record, len(managed))
	byName := make(map[string]*Record, len(managed))
	for i := range managed {
		rec := &managed[i]
		if email := strings.ToLower(strings.TrimSpace(rec.EmployeeEmail)); email != "" {
			byEmail[email] = rec
		}
		if name := strings.ToLower(strings.TrimSpace(rec.EmployeeName)); name != "" {
			byName[name] = rec
		}
	}

	rows := make([]Row, 0, len(reports))
	seen := make(map[string]bool, len(reports))
	for _, report := range reports {
		rec := byEmail[strings.ToLower(strings.TrimSpace(report.Email))]
		if rec == nil {
			rec = byName[strings.ToLower(strings.TrimSpace(report.Name))]
		}
		if rec != nil {
			seen[rec.ID] = true
		}
		rows = append(rows, rowFor(report, rec))
	}

	for i := range managed {
		rec := &managed[i]
		if seen[rec.ID] {
			continue
		}
		rows = append(rows, rowFor(identity.Report{Name: rec.EmployeeName, Email: rec.EmployeeEmail}, rec))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].MemberName) < strings.ToLower(rows[j].MemberName)
	})
	return rows
}
