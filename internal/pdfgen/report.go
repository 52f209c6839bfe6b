package pdfgen

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/mkiprop/loanbook/internal/domain"
)

// WritePaymentsReport renders the weekly/monthly payment totals to w.
func (g *Generator) WritePaymentsReport(w io.Writer, report *domain.PaymentsReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 15, 20)
	pdf.AddPage()

	pdf.SetFillColor(14, 47, 82)
	pdf.Rect(0, 0, 210, 30, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(0, 9, "Payments Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(20)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s to %s",
		report.From.Format("02 Jan 2006"), report.To.Format("02 Jan 2006")), "", 1, "L", false, 0, "")

	pdf.SetY(36)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Total Collected: "+currency(report.Total), "", 1, "L", false, 0, "")

	bucketTable(pdf, "By Week (Sunday start)", report.Weekly)
	bucketTable(pdf, "By Month", report.Monthly)

	return pdf.Output(w)
}

func bucketTable(pdf *fpdf.Fpdf, title string, buckets []domain.PaymentBucket) {
	sectionHeader(pdf, title)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(243, 246, 250)
	pdf.CellFormat(90, 7, "Period", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Payments", "1", 0, "R", true, 0, "")
	pdf.CellFormat(50, 7, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	if len(buckets) == 0 {
		pdf.CellFormat(170, 7, "No payments in this period", "1", 1, "L", false, 0, "")
		return
	}

	for _, bucket := range buckets {
		pdf.CellFormat(90, 7, bucket.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", bucket.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, currency(bucket.Total), "1", 1, "R", false, 0, "")
	}
}
