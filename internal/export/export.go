// Package export renders notification history as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/models"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

const (
	SheetName      = "Notification History"
	dateTimeLayout = "02/01/2006 15:04"
	headerFill     = "366092"
	headerFont     = "FFFFFF"
)

var headers = []string{
	"ID", "Type", "Channel", "Recipient", "Title", "Status",
	"Attempts", "Event", "Sent at", "Created at",
}

// ParseFormat accepts the two supported export formats.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatExcel:
		return Format(s), nil
	}
	return "", errors.NewInvalidExportFormatError(s)
}

// ContentType is the response media type for f.
func (f Format) ContentType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is the attachment name for f.
func (f Format) Filename() string {
	if f == FormatExcel {
		return "notifications.xlsx"
	}
	return "notifications.csv"
}

// Write renders rows in format f to w.
func Write(w io.Writer, f Format, rows []models.SentNotification) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatExcel:
		return WriteXLSX(w, rows)
	}
	return errors.NewInvalidExportFormatError(string(f))
}

func record(n models.SentNotification) []string {
	return []string{
		n.ID,
		string(n.NotificationType),
		string(n.Channel),
		n.Recipient,
		deref(n.Title),
		string(n.Status),
		strconv.Itoa(n.Attempts),
		deref(n.EventName),
		formatTime(n.SentAt),
		n.CreatedAt.Format(dateTimeLayout),
	}
}

func WriteCSV(w io.Writer, rows []models.SentNotification) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return errors.NewExportFailedError(err)
	}
	for _, n := range rows {
		if err := cw.Write(record(n)); err != nil {
			return errors.NewExportFailedError(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.NewExportFailedError(err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with a styled header row.
func WriteXLSX(w io.Writer, rows []models.SentNotification) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return errors.NewExportFailedError(err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: headerFont},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
	})
	if err != nil {
		return errors.NewExportFailedError(err)
	}

	for col, h := range headers {
		if err := setCell(f, col+1, 1, h); err != nil {
			return errors.NewExportFailedError(err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return errors.NewExportFailedError(err)
	}

	for i, n := range rows {
		row := i + 2
		values := record(n)
		for col, v := range values {
			var cell interface{} = v
			if col == 6 {
				cell = n.Attempts
			}
			if err := setCell(f, col+1, row, cell); err != nil {
				return errors.NewExportFailedError(err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return errors.NewExportFailedError(fmt.Errorf("write workbook: %w", err))
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(SheetName, name, value)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateTimeLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
