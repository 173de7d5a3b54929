package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"studiodesk/internal/finance"
	"studiodesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var headers = []string{
	"Booking #", "Client", "Mobile", "Address", "Service", "Date",
	"Total", "Advance", "Due", "Payment", "Urgency", "Days Overdue", "Status", "Notes",
}

// Row fills by urgency; paid rows are green.
var urgencyFills = map[string]string{
	finance.UrgencyOverdue:  "#FFC7CE",
	finance.UrgencyDueToday: "#FFEB9C",
	finance.UrgencyUpcoming: "#FFFFFF",
	finance.PaymentPaid:     "#C6EFCE",
}

// Exporter writes booking spreadsheets into a directory.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{dir: dir, logger: logger}
}

// Bookings writes one row per booking with its financials as of today and
// returns the file path.
func (e *Exporter) Bookings(ctx context.Context, bookings []models.Booking, today time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	from, to := period(bookings, today)
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s (as of %s)",
		from.Format(models.DateLayout), to.Format(models.DateLayout), today.Format(models.DateLayout)))
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	if err := writeHeader(f); err != nil {
		return "", err
	}

	styles := make(map[string]int, len(urgencyFills))
	for key, color := range urgencyFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		})
		if err != nil {
			return "", fmt.Errorf("create row style: %w", err)
		}
		styles[key] = id
	}

	for i, b := range bookings {
		row := i + 3
		v := finance.Derive(b, today)
		date := ""
		if !b.Date.IsZero() {
			date = b.Date.Format(models.DateLayout)
		}
		values := []any{
			b.BookingNumber, b.Name, b.Mobile, b.Address, b.ServiceDescription, date,
			b.Total, b.Advance, v.DueAmount, v.PaymentState, v.Urgency, v.DaysOverdue, v.Status, b.Notes,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return "", fmt.Errorf("write row %d: %w", row, err)
		}

		key := v.Urgency
		if v.PaymentState == finance.PaymentPaid {
			key = finance.PaymentPaid
		}
		end, _ := excelize.CoordinatesToCellName(len(headers), row)
		_ = f.SetCellStyle(sheetName, cell, end, styles[key])
	}

	_ = f.SetColWidth(sheetName, "A", "A", 20)
	_ = f.SetColWidth(sheetName, "B", "E", 24)
	_ = f.SetColWidth(sheetName, "F", lastCol, 14)
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 2, TopLeftCell: "A3", ActivePane: "bottomLeft"})

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx", from.Format(models.DateLayout), to.Format(models.DateLayout))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save %s: %w", fileName, err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(bookings)).Msg("bookings exported")
	return filePath, nil
}

func writeHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A2", &values); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	end, _ := excelize.CoordinatesToCellName(len(headers), 2)
	return f.SetCellStyle(sheetName, "A2", end, style)
}

// period spans the service dates of bookings; undated or empty input
// collapses to today.
func period(bookings []models.Booking, today time.Time) (from, to time.Time) {
	for _, b := range bookings {
		if b.Date.IsZero() {
			continue
		}
		if from.IsZero() || b.Date.Before(from) {
			from = b.Date
		}
		if to.IsZero() || b.Date.After(to) {
			to = b.Date
		}
	}
	if from.IsZero() {
		day := finance.CalendarDay(today)
		return day, day
	}
	return from, to
}
