// Package reports renders a finished review dialogue as a PDF document.
package reports

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"dialogue/internal/domain/assessment"
	"dialogue/internal/transport/http/api"
	"dialogue/internal/transport/http/middleware"
)

type Handlers struct {
	Service *assessment.Service
}

func New(service *assessment.Service) *Handlers {
	return &Handlers{Service: service}
}

// HandleExport streams the record as a PDF. Read access follows the same rule
// as the JSON endpoint; records still being drafted are not exportable.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "sign-in required", reqID)
		return
	}

	rec, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"), ident)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	if rec.Status == assessment.StatusCreated {
		api.Fail(w, http.StatusConflict, "invalid_transition", "the assessment must be finalized before export", reqID)
		return
	}

	var buf bytes.Buffer
	if err := render(rec, &buf); err != nil {
		slog.Error("pdf render failed", "id", rec.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "could not render the document", reqID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "dialogue-"+rec.ID+".pdf"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("pdf write failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, reqID string, err error) {
	var permissionErr *assessment.PermissionError
	switch {
	case errors.Is(err, assessment.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "assessment not found", reqID)
	case errors.As(err, &permissionErr):
		api.Fail(w, http.StatusForbidden, "forbidden", permissionErr.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
	}
}

func render(rec assessment.Record, buf *bytes.Buffer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Employee Dialogue", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().UTC().Format("2006-01-02 15:04 MST")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	facets := rec.Status.Facets()
	kv(pdf, "Employee", rec.EmployeeName)
	kv(pdf, "Email", rec.EmployeeEmail)
	kv(pdf, "Manager", rec.ManagerName)
	kv(pdf, "Program manager", rec.ProgramManagerName)
	kv(pdf, "Status", facets.Label)
	pdf.Ln(4)

	section(pdf, "Objectives")
	kv(pdf, "Rating", rec.ObjectiveRating)
	paragraph(pdf, "Comment", rec.ObjectiveComment)

	section(pdf, "Abilities")
	kv(pdf, "Technical knowledge", rec.TechnicalRating)
	kv(pdf, "Project knowledge", rec.ProjectRating)
	kv(pdf, "Methodology", rec.MethodologyRating)
	paragraph(pdf, "Comment", rec.AbilitiesComment)

	section(pdf, "Efficiency")
	kv(pdf, "Collaboration", rec.EfficiencyCollaboration)
	kv(pdf, "Ownership", rec.EfficiencyOwnership)
	kv(pdf, "Resourcefulness", rec.EfficiencyResourcefulness)
	paragraph(pdf, "Comment", rec.EfficiencyComment)

	section(pdf, "Conduct")
	kv(pdf, "Mutual trust", rec.ConductMutualTrust)
	kv(pdf, "Proactivity", rec.ConductProactivity)
	kv(pdf, "Leadership", rec.ConductLeadership)
	paragraph(pdf, "Comment", rec.ConductComment)

	section(pdf, "General")
	paragraph(pdf, "Comments", rec.GeneralComments)
	paragraph(pdf, "Feedback received", rec.FeedbackReceived)

	section(pdf, "Manager review")
	paragraph(pdf, "Objectives", rec.ManagerObjectiveComment)
	paragraph(pdf, "Abilities", rec.ManagerAbilitiesComment)
	paragraph(pdf, "Efficiency", rec.ManagerEfficiencyComment)
	paragraph(pdf, "Goals for the next cycle", rec.NextCycleGoals)
	paragraph(pdf, "General comments", rec.ManagerGeneralComments)

	return pdf.Output(buf)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Ln(1)
}

func kv(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, value, "", "L", false)
}

func paragraph(pdf *gofpdf.Fpdf, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, label, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, value, "", "L", false)
	pdf.Ln(1)
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/assessments/{id}/pdf", h.HandleExport)
}
