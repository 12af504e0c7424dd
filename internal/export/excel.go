package export

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/talent-screener/internal/candidate"
)

const (
	SummarySheet    = "Summary"
	CandidatesSheet = "Candidates"
)

var candidateHeaders = []string{
	"ID", "File", "Name", "Email", "Classification", "Matched Role",
	"Match Score", "Score", "Final Score", "Email Sent", "Email Status", "Rejection Reason",
}

// Report describes a workbook with the results of one task.
type Report struct {
	TaskID    string
	Generated time.Time
	Items     []*candidate.Item
}

// Excel writes the report to path and returns the written file name. The
// .xlsx extension is appended when missing.
func Excel(path string, r Report) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	if r.Generated.IsZero() {
		r.Generated = time.Now()
	}

	items := make([]*candidate.Item, 0, len(r.Items))
	for _, item := range r.Items {
		if item != nil {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FinalScore > items[j].FinalScore
	})

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(CandidatesSheet); err != nil {
		return "", err
	}

	if err := writeSummary(f, r, items); err != nil {
		return "", fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeCandidates(f, items); err != nil {
		return "", fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

func writeSummary(f *excelize.File, r Report, items []*candidate.Item) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 40); err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	var sent int
	var total float64
	roles := make(map[string]int)
	for _, item := range items {
		if item.EmailSent {
			sent++
		}
		total += item.FinalScore
		roles[item.MatchedRole]++
	}
	average := 0.0
	if len(items) > 0 {
		average = total / float64(len(items))
	}

	rows := [][]any{
		{"Task ID", r.TaskID},
		{"Generated", r.Generated.Format(time.DateTime)},
		{"Candidates", len(items)},
		{"Sent to HR", sent},
		{"Not sent", len(items) - sent},
		{"Average final score", fmt.Sprintf("%.2f", average)},
		{},
		{"Matched role", "Candidates"},
	}

	names := make([]string, 0, len(roles))
	for role := range roles {
		names = append(names, role)
	}
	sort.Strings(names)
	for _, role := range names {
		rows = append(rows, []any{role, roles[role]})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, cell, cell, labelStyle); err != nil {
			return err
		}
	}
	return nil
}

func writeCandidates(f *excelize.File, items []*candidate.Item) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	sentStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(candidateHeaders))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(CandidatesSheet, "A", lastCol, 18); err != nil {
		return err
	}

	if err := f.SetSheetRow(CandidatesSheet, "A1", &candidateHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(CandidatesSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, item := range items {
		row := i + 2
		values := []any{
			item.ID,
			item.FileName,
			item.Fields.Name,
			item.Fields.Email,
			item.Classification,
			item.MatchedRole,
			round(item.MatchScore),
			round(item.Score),
			round(item.FinalScore),
			item.EmailSent,
			item.EmailStatus,
			item.RejectionReason,
		}

		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(CandidatesSheet, cell, &values); err != nil {
			return err
		}
		if item.EmailSent {
			if err := f.SetCellStyle(CandidatesSheet, cell, fmt.Sprintf("%s%d", lastCol, row), sentStyle); err != nil {
				return err
			}
		}
	}

	if len(items) > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, len(items)+1)
		if err := f.AutoFilter(CandidatesSheet, ref, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}

	return f.SetPanes(CandidatesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
