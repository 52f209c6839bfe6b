package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mkiprop/loanbook/internal/pdfgen"
	"github.com/mkiprop/loanbook/internal/service"
	"github.com/mkiprop/loanbook/pkg/response"
)

const dateLayout = "2006-01-02"

type DashboardHandler struct {
	service *service.DashboardService
	pdf     *pdfgen.Generator
}

func NewDashboardHandler(service *service.DashboardService, pdf *pdfgen.Generator) *DashboardHandler {
	return &DashboardHandler{service: service, pdf: pdf}
}

func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Metrics(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, metrics)
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *DashboardHandler) Trends(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months", 3)

	trends, err := h.service.Trends(r.Context(), months)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, trends)
}

func (h *DashboardHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)

	activities, err := h.service.RecentActivity(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, activities)
}

// PaymentsReport streams a payments summary PDF for the requested date range.
// The range defaults to the trailing 30 days.
func (h *DashboardHandler) PaymentsReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.BadRequest(w, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			response.BadRequest(w, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		response.BadRequest(w, "to must not be before from")
		return
	}

	report, err := h.service.PaymentsReport(r.Context(), from, to)
	if err != nil {
		respondError(w, err)
		return
	}

	filename := fmt.Sprintf("payments_report_%s_%s.pdf",
		report.From.Format(dateLayout), report.To.Format(dateLayout))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.pdf.WritePaymentsReport(w, report); err != nil {
		response.InternalServerError(w, "Failed to generate report")
	}
}
