package invoice

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studiodesk/internal/config"
	"studiodesk/internal/finance"
	"studiodesk/internal/models"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Renderer draws single-page A4 invoices for bookings.
type Renderer struct {
	cfg config.InvoiceConfig
	now func() time.Time
}

func NewRenderer(cfg config.InvoiceConfig) *Renderer {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Renderer{cfg: cfg, now: time.Now}
}

// FileName is the download name of a booking's invoice.
func FileName(b models.Booking) string {
	return fmt.Sprintf("Invoice-%s.pdf", b.BookingNumber)
}

// Render builds the invoice PDF. logoPath is optional; a missing or
// unreadable file is skipped.
func (r *Renderer) Render(b models.Booking, v finance.View, logoPath string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(FileName(b), false)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 12, "INVOICE")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{r.cfg.BusinessName, r.cfg.Address, r.cfg.BusinessPhone, r.cfg.BusinessEmail} {
		if line == "" {
			continue
		}
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	r.drawLogo(pdf, logoPath)

	pdf.SetY(max(pdf.GetY(), 50))
	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(6)

	// billed to + QR
	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 48, "F")
	pdf.SetXY(20, yStart+5)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "BILLED TO")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	rows := []string{
		tr(b.Name),
		tr(b.Address),
		"Mobile: " + b.Mobile,
		"Booking #: " + b.BookingNumber,
		"Invoice date: " + r.now().Format(models.DateLayout),
	}
	for _, line := range rows {
		pdf.SetX(20)
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}

	if err := r.drawQR(pdf, b, yStart); err != nil {
		return nil, err
	}

	pdf.SetY(yStart + 56)

	// service line
	drawSectionTitle(pdf, "SERVICE")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 8, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(100, 8, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	date := "-"
	if !b.Date.IsZero() {
		date = b.Date.Format(models.DateLayout)
	}
	pdf.CellFormat(40, 8, date, "", 0, "L", false, 0, "")
	pdf.CellFormat(100, 8, tr(b.ServiceDescription), "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, r.money(b.Total), "", 1, "R", false, 0, "")
	if b.Notes != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, tr(b.Notes), "", "L", false)
	}
	pdf.Ln(6)

	// totals
	drawSectionTitle(pdf, "PAYMENT")
	r.totalLine(pdf, "Total", r.money(b.Total), false)
	r.totalLine(pdf, "Advance paid", r.money(b.Advance), false)
	balance := v.DueAmount
	if balance < 0 {
		balance = 0
	}
	r.totalLine(pdf, "Balance due", r.money(balance), true)
	r.totalLine(pdf, "Payment", strings.ToUpper(v.PaymentState), false)
	r.totalLine(pdf, "Booking status", strings.ToUpper(v.Status), false)

	// footer
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 280, 195, 280)
	pdf.SetY(283)
	pdf.SetFont("Helvetica", "I", 9)
	footer := "Thank you for your business."
	if r.cfg.BusinessName != "" {
		footer = tr(r.cfg.BusinessName) + " - " + footer
	}
	pdf.CellFormat(0, 6, footer, "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", b.BookingNumber, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) money(v float64) string {
	return fmt.Sprintf("%s %.2f", r.cfg.Currency, v)
}

func (r *Renderer) totalLine(pdf *gofpdf.Fpdf, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 12)
	pdf.SetX(95)
	pdf.CellFormat(50, 8, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, value, "", 1, "R", false, 0, "")
}

func (r *Renderer) drawLogo(pdf *gofpdf.Fpdf, logoPath string) {
	if logoPath == "" {
		return
	}
	if _, err := os.Stat(logoPath); err != nil {
		return
	}
	imageType := strings.TrimPrefix(strings.ToLower(filepath.Ext(logoPath)), ".")
	switch imageType {
	case "png", "jpg", "jpeg":
	default:
		// gofpdf cannot embed svg or webp
		return
	}
	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptions(logoPath, opts)
	if pdf.Err() || info == nil {
		pdf.ClearError()
		return
	}
	w, h := info.Extent()
	maxW, maxH := 35.0, 28.0
	scale := 1.0
	if w > maxW {
		scale = maxW / w
	}
	if h*scale > maxH {
		scale = maxH / h
	}
	pdf.ImageOptions(logoPath, 195-w*scale, 14, w*scale, h*scale, false, opts, 0, "")
}

func (r *Renderer) drawQR(pdf *gofpdf.Fpdf, b models.Booking, y float64) error {
	target := b.BookingNumber
	if r.cfg.QRBaseURL != "" {
		target = strings.TrimRight(r.cfg.QRBaseURL, "/") + "/" + b.ID
	}
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode invoice qr: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 147, y, 42, 0, false, opts, 0, "")
	return nil
}

func drawSectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(2)
}
