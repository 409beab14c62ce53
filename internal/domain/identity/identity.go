package identity

import "time"

// Report is one directory-sourced direct report of the signed-in user.
type Report struct {
	OID   string `json:"oid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Snapshot is the caller identity resolved at sign-in. It lives server-side in
// the sessions table and is refreshed only by signing in again.
type Snapshot struct {
	OID                string    `json:"oid"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	ManagerName        string    `json:"managerName"`
	ProgramManagerName string    `json:"programManagerName"`
	DirectReports      []Report  `json:"directReports,omitempty"`
	RefreshedAt        time.Time `json:"refreshedAt"`
}
