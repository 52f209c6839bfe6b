package pdfgen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/mkiprop/loanbook/internal/domain"
)

// Generator renders loan documents. Receipts written at issuance land in
// Dir; on-demand copies stream straight to the response.
type Generator struct {
	dir string
}

func New(dir string) *Generator {
	return &Generator{dir: dir}
}

// SaveReceipt writes the issuance receipt for a loan to disk and returns
// the file path.
func (g *Generator) SaveReceipt(loan *domain.Loan, customer *domain.Customer, guarantor *domain.Guarantor) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(g.dir, fmt.Sprintf("loan_receipt_%s.pdf", loan.ID))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := g.WriteReceipt(f, loan, customer, guarantor); err != nil {
		return "", err
	}

	return path, nil
}

// WriteReceipt renders the receipt PDF to w.
func (g *Generator) WriteReceipt(w io.Writer, loan *domain.Loan, customer *domain.Customer, guarantor *domain.Guarantor) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 15, 20)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(14, 47, 82)
	pdf.Rect(0, 0, 210, 38, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(20, 10)
	pdf.CellFormat(0, 10, "Loan Issuance Receipt", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(20)
	pdf.CellFormat(0, 6, "Issued on "+time.Now().Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8.5)
	pdf.SetX(20)
	pdf.CellFormat(0, 5, "Thank you for choosing our services. Please retain this document for records.", "", 1, "L", false, 0, "")

	progress := domain.ComputeWeeklyProgress(loan, time.Now())

	// Highlighted stats panel
	pdf.SetY(44)
	panel := [][2]string{
		{"Loan Number", shortID(loan.ID.String())},
		{"Principal", currency(loan.Amount)},
		{"Total Payable", currency(loan.TotalAmount)},
		{"Weekly Installment", currency(progress.WeeklyDueAmount)},
	}
	drawPanel(pdf, panel)

	sectionHeader(pdf, "Customer Details")
	keyValue(pdf, "Name", customer.Name)
	keyValue(pdf, "National ID", customer.IDNumber)
	keyValue(pdf, "Phone", customer.Phone)
	keyValue(pdf, "Location", orNA(customer.Location))

	sectionHeader(pdf, "Loan Summary")
	keyValue(pdf, "Start Date", loan.StartDate.Format("2006-01-02"))
	keyValue(pdf, "Due Date", loan.DueDate.Format("2006-01-02"))
	keyValue(pdf, "Interest Rate", loan.InterestRate.StringFixed(2)+"%")
	keyValue(pdf, "Outstanding Balance", currency(loan.RemainingAmount))

	sectionHeader(pdf, "Repayment Schedule")
	keyValue(pdf, fmt.Sprintf("Weekly Installment (%d weeks)", domain.RepaymentWeeks), currency(progress.WeeklyDueAmount))
	keyValue(pdf, "Expected Paid So Far", currency(progress.ExpectedPaid))
	keyValue(pdf, "Actual Paid So Far", currency(progress.ActualPaid))
	keyValue(pdf, "Arrears / Outstanding", currency(progress.ArrearsAmount))

	if guarantor != nil {
		sectionHeader(pdf, "Guarantor")
		keyValue(pdf, "Name", guarantor.Name)
		keyValue(pdf, "ID Number", guarantor.IDNumber)
		keyValue(pdf, "Phone", guarantor.Phone)
		keyValue(pdf, "Relationship", orNA(guarantor.Relationship))
		keyValue(pdf, "Location", orNA(guarantor.Location))
	}

	pdf.SetY(-25)
	pdf.SetTextColor(107, 114, 128)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, "This receipt is system-generated and valid without signature.", "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func drawPanel(pdf *fpdf.Fpdf, entries [][2]string) {
	y := pdf.GetY()
	pdf.SetFillColor(16, 37, 65)
	pdf.Rect(20, y, 170, 17, "F")

	segment := 170.0 / float64(len(entries))
	for i, entry := range entries {
		x := 20 + float64(i)*segment + 3
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Text(x, y+7, entry[1])
		pdf.SetTextColor(179, 197, 234)
		pdf.SetFont("Helvetica", "", 7)
		pdf.Text(x, y+13, strings.ToUpper(entry[0]))
	}

	pdf.SetY(y + 22)
}

func sectionHeader(pdf *fpdf.Fpdf, label string) {
	pdf.Ln(2)
	pdf.SetFillColor(243, 246, 250)
	pdf.SetTextColor(23, 64, 100)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "  "+strings.ToUpper(label), "", 1, "L", true, 0, "")
	pdf.Ln(1)
}

func keyValue(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetTextColor(80, 80, 80)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(0, 4, strings.ToUpper(label), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, value, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func currency(amount decimal.Decimal) string {
	return "KSh " + groupThousands(amount.StringFixed(2))
}

// groupThousands inserts comma separators into a fixed-point decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}
