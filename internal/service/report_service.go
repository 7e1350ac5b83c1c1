package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Passes"

var reportHeader = []string{
	"Pass ID",
	"Student ID",
	"Student Name",
	"Room",
	"Station",
	"Period",
	"Status",
	"Override",
	"Requested",
	"Checked Out",
	"Checked In",
	"Total",
	"Station Time",
	"Hallway Time",
	"Note",
}

// ReportService exports today's passes as a spreadsheet.
type ReportService struct {
	projector *Projector
	location  *time.Location
}

func NewReportService(projector *Projector, location *time.Location) *ReportService {
	if location == nil {
		location = time.Local
	}
	return &ReportService{projector: projector, location: location}
}

// TodayWorkbook renders today's passes into an xlsx file.
func (s *ReportService) TodayWorkbook() ([]byte, error) {
	return s.workbook(s.projector.TodayPasses())
}

func (s *ReportService) workbook(rows []PassView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(reportHeader))
	for i, h := range reportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetRowStyle(reportSheet, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		values := []interface{}{
			row.ID,
			row.StudentID,
			row.StudentName,
			row.Room,
			row.Station,
			derefString(row.Period),
			row.Status,
			row.IsOverride,
			s.clockTime(&row.CreatedAt),
			s.clockTime(row.CheckoutTime),
			s.clockTime(row.CompletedTime),
			row.Elapsed,
			row.StationTime,
			row.HallwayTime,
			row.Note,
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(reportSheet, "A", "O", 16); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func (s *ReportService) clockTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(s.location).Format("15:04:05")
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
