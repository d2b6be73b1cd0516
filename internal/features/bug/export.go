package bug

import (
	"context"
	"fmt"
	"io"
	"time"

	"issue-tracker/internal/common/errs"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	exportSheet = "Bugs"
	exportLimit = 10000
)

var exportHeader = []interface{}{
	"ID", "Title", "Classification", "Closed", "Assigned To", "Created By",
	"Created On", "Closed On", "Comments", "Test Cases", "Passing Tests",
}

// Exporter renders filtered bug lists as spreadsheets.
type Exporter struct {
	BugRepo BugRepository
	now     func() time.Time
}

func NewExporter(bugRepo BugRepository) *Exporter {
	return &Exporter{BugRepo: bugRepo, now: func() time.Time { return time.Now().UTC() }}
}

// WriteXLSX writes every bug matching q (ignoring paging) to w.
func (e *Exporter) WriteXLSX(ctx context.Context, q ListQuery, w io.Writer) error {
	filter, err := buildListFilter(q, e.now())
	if err != nil {
		return err
	}
	bugs, err := e.BugRepo.List(ctx, filter, options.Find().SetSort(sortFor(q)).SetLimit(exportLimit))
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return errs.Storage(err, "prepare workbook")
	}
	if err := writeRows(f, bugs); err != nil {
		return errs.Storage(err, "write workbook")
	}
	if _, err := f.WriteTo(w); err != nil {
		return errs.Storage(err, "stream workbook")
	}
	return nil
}

func writeRows(f *excelize.File, bugs []Bug) error {
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, b := range bugs {
		passing := 0
		for _, tc := range b.TestCases {
			if tc.Passed {
				passing++
			}
		}
		row := []interface{}{
			b.ID.Hex(), b.Title, string(b.Classification), b.Closed, b.AssignedToUserName,
			b.CreatedBy.DisplayName(), formatTime(&b.CreatedOn), formatTime(b.ClosedOn),
			len(b.Comments), len(b.TestCases), passing,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(exportSheet, "B", "B", 48)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func exportFilename(now time.Time) string {
	return fmt.Sprintf("bugs-%s.xlsx", now.Format("20060102-150405"))
}
