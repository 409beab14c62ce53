package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "dialogue/internal/domain/assessment"
	"dialogue/internal/domain/identity"
	"dialogue/internal/transport/http/middleware"
)

type memStore struct {
	records map[string]domain.Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.Record)}
}

func (m *memStore) Insert(ctx context.Context, rec domain.Record) (domain.Record, error) {
	rec.Version = 1
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (domain.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) FindByEmployee(ctx context.Context, name string) (domain.Record, bool, error) {
	for _, rec := range m.records {
		if strings.EqualFold(rec.EmployeeName, strings.TrimSpace(name)) {
			return rec, true, nil
		}
	}
	return domain.Record{}, false, nil
}

func (m *memStore) ListByManager(ctx context.Context, name string) ([]domain.Record, error) {
	var out []domain.Record
	for _, rec := range m.records {
		if strings.EqualFold(rec.ManagerName, name) && !strings.EqualFold(rec.EmployeeName, name) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) ListByProgramManager(ctx context.Context, name string, statuses []domain.Status) ([]domain.Record, error) {
	var out []domain.Record
	for _, rec := range m.records {
		if !strings.EqualFold(rec.ProgramManagerName, name) {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, status := range statuses {
				if rec.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, rec domain.Record) (domain.Record, error) {
	stored, ok := m.records[rec.ID]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	if stored.Version != rec.Version {
		return domain.Record{}, domain.ErrConflict
	}
	rec.Version++
	rec.UpdatedAt = time.Now()
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func identityInjector(ident identity.Snapshot) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), ident)))
		})
	}
}

func newTestRouter(store *memStore, ident identity.Snapshot) http.Handler {
	svc := domain.NewService(store, false)
	handlers := New(svc, nil, nil)

	router := chi.NewRouter()
	router.Use(identityInjector(ident))
	router.Route("/api/v1", func(r chi.Router) {
		handlers.RegisterRoutes(r)
	})
	return router
}

var testEmployee = identity.Snapshot{
	Name:               "Alice Example",
	Email:              "alice@example.com",
	ManagerName:        "Bob Boss",
	ProgramManagerName: "Carol Chief",
}

var testManager = identity.Snapshot{
	Name:               "Bob Boss",
	Email:              "bob@example.com",
	ManagerName:        "Carol Chief",
	ProgramManagerName: "Carol Chief",
}

func fullEmployeePayload() map[string]string {
	return map[string]string{
		"objectiveRating":           "Achieved objective",
		"objectiveComment":          "Delivered the migration on time.",
		"technicalRating":           "Meets expectations",
		"projectRating":             "Exceeds expectations",
		"methodologyRating":         "Mostly in line",
		"abilitiesComment":          "Solid across the board.",
		"efficiencyCollaboration":   "Meets expectations",
		"efficiencyOwnership":       "Exceeds expectations",
		"efficiencyResourcefulness": "Meets expectations",
		"efficiencyComment":         "Works well with the platform team.",
		"conductMutualTrust":        "Meets expectations",
		"conductProactivity":        "Meets expectations",
		"conductLeadership":         "N/A",
		"conductComment":            "Reliable and trusted.",
		"generalComments":           "Good cycle overall.",
		"feedbackReceived":          "Positive peer feedback.",
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope (%d): %v: %s", rec.Code, err, rec.Body.String())
	}
	return rec, env
}

func TestCreateReturnsRecord(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store, testEmployee)

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/assessments", fullEmployeePayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", rec.Code, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope: %s", rec.Body.String())
	}

	var created domain.Record
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if created.Status != domain.StatusCreated || created.ManagerName != "Bob Boss" {
		t.Fatalf("created record: %+v", created)
	}
}

func TestCreateValidationErrorListsFields(t *testing.T) {
	router := newTestRouter(newMemStore(), testEmployee)

	payload := fullEmployeePayload()
	payload["objectiveRating"] = ""
	payload["technicalRating"] = "Outstanding"

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/assessments", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "validation_error" {
		t.Fatalf("error: %+v", env.Error)
	}

	var details struct {
		Fields []domain.ValidationIssue `json:"fields"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if len(details.Fields) != 2 {
		t.Fatalf("expected 2 field issues, got %+v", details.Fields)
	}
}

func TestDuplicateCreateConflicts(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store, testEmployee)

	if rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/assessments", fullEmployeePayload()); rec.Code != http.StatusCreated {
		t.Fatalf("first create: %d", rec.Code)
	}

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/assessments", fullEmployeePayload())
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "duplicate_entry" {
		t.Fatalf("error: %+v", env.Error)
	}
}

func TestFinalizeForbiddenForNonManager(t *testing.T) {
	store := newMemStore()
	employeeRouter := newTestRouter(store, testEmployee)

	_, env := doJSON(t, employeeRouter, http.MethodPost, "/api/v1/assessments", fullEmployeePayload())
	var created domain.Record
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec, env := doJSON(t, employeeRouter, http.MethodPost, "/api/v1/assessments/"+created.ID+"/finalize", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "forbidden" {
		t.Fatalf("error: %+v", env.Error)
	}
}

func TestManagerFinalizesAndSubmits(t *testing.T) {
	store := newMemStore()
	employeeRouter := newTestRouter(store, testEmployee)
	managerRouter := newTestRouter(store, testManager)

	_, env := doJSON(t, employeeRouter, http.MethodPost, "/api/v1/assessments", fullEmployeePayload())
	var created domain.Record
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec, env := doJSON(t, managerRouter, http.MethodPost, "/api/v1/assessments/"+created.ID+"/finalize", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize: %d %s", rec.Code, rec.Body.String())
	}

	managerFields := map[string]any{
		"managerObjectiveComment":  "Agree with the self assessment.",
		"managerAbilitiesComment":  "Strong technical contributor.",
		"managerEfficiencyComment": "Consistently effective.",
		"nextCycleGoals":           "Lead the next platform migration.",
		"managerGeneralComments":   "Keep it up.",
	}
	rec, _ = doJSON(t, managerRouter, http.MethodPut, "/api/v1/assessments/"+created.ID+"/manager", managerFields)
	if rec.Code != http.StatusOK {
		t.Fatalf("manager edit: %d %s", rec.Code, rec.Body.String())
	}

	rec, env = doJSON(t, managerRouter, http.MethodPost, "/api/v1/assessments/"+created.ID+"/submit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d", rec.Code)
	}
	var submitted domain.Record
	if err := json.Unmarshal(env.Data, &submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if submitted.Status != domain.StatusSubmitted {
		t.Fatalf("status: %q", submitted.Status)
	}

	// Submitted records are locked for manager edits.
	rec, env = doJSON(t, managerRouter, http.MethodPut, "/api/v1/assessments/"+created.ID+"/manager", managerFields)
	if rec.Code != http.StatusConflict {
		t.Fatalf("locked edit: %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "invalid_transition" {
		t.Fatalf("error: %+v", env.Error)
	}
}

func TestEditVersionConflictMapsTo409(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store, testEmployee)

	_, env := doJSON(t, router, http.MethodPost, "/api/v1/assessments", fullEmployeePayload())
	var created domain.Record
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	payload := map[string]any{"version": created.Version}
	for k, v := range fullEmployeePayload() {
		payload[k] = v
	}
	if rec, _ := doJSON(t, router, http.MethodPut, "/api/v1/assessments/"+created.ID, payload); rec.Code != http.StatusOK {
		t.Fatalf("first edit: %d", rec.Code)
	}

	// Same stale version again.
	rec, env := doJSON(t, router, http.MethodPut, "/api/v1/assessments/"+created.ID, payload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "version_conflict" {
		t.Fatalf("error: %+v", env.Error)
	}
}

func TestGetUnknownRecordIs404(t *testing.T) {
	router := newTestRouter(newMemStore(), testEmployee)
	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/assessments/does-not-exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "not_found" {
		t.Fatalf("error: %+v", env.Error)
	}
}

func TestDashboardShowsOwnAndTeam(t *testing.T) {
	store := newMemStore()
	employeeRouter := newTestRouter(store, testEmployee)
	doJSON(t, employeeRouter, http.MethodPost, "/api/v1/assessments", fullEmployeePayload())

	manager := testManager
	manager.DirectReports = []identity.Report{
		{OID: "1", Name: "Alice Example", Email: "alice@example.com"},
		{OID: "2", Name: "Evan Eng", Email: "evan@example.com"},
	}
	managerRouter := newTestRouter(store, manager)

	rec, env := doJSON(t, managerRouter, http.MethodGet, "/api/v1/assessments/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(env.Data, &dashboard); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dashboard.OwnStatus != domain.StatusNotCreated {
		t.Fatalf("own status: %q", dashboard.OwnStatus)
	}
	if len(dashboard.Team) != 2 {
		t.Fatalf("team rows: %d", len(dashboard.Team))
	}
}
