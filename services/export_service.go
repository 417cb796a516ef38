package services

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cv-screening-platform/models"
)

// ExportService renders a computed ranking as an Excel workbook.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// BuildRankingWorkbook writes one sheet with the ranked candidates and one
// with summary figures, and returns the workbook bytes.
func (es *ExportService) BuildRankingWorkbook(ranking []models.RankedCandidate) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Ranking"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Rank", "Candidate ID", "Name", "Email", "Matched Skills", "Match Score"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, candidate := range ranking {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rowIdx+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), candidate.CandidateID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), candidate.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), candidate.Email)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), strings.Join(candidate.MatchedSkills, ", "))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), candidate.MatchScore)
	}

	for i := range headers {
		col := fmt.Sprintf("%c:%c", 'A'+i, 'A'+i)
		f.SetColWidth(sheetName, col, col, 20)
	}

	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	skillCounts := make(map[string]int)
	topScore := 0.0
	for _, candidate := range ranking {
		for _, skill := range candidate.MatchedSkills {
			skillCounts[skill]++
		}
		if candidate.MatchScore > topScore {
			topScore = candidate.MatchScore
		}
	}

	summaryData := [][]interface{}{
		{"Export Date", time.Now().Format("2006-01-02 15:04:05")},
		{"Ranked Candidates", len(ranking)},
		{"Distinct Matched Skills", len(skillCounts)},
		{"Top Score", topScore},
	}
	for i, row := range summaryData {
		for j, cell := range row {
			cellRef := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(summarySheet, cellRef, cell)
		}
	}

	if len(skillCounts) > 0 {
		row := len(summaryData) + 2
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Skill")
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), "Candidates Matching")
		row++
		for _, skill := range sortedKeys(skillCounts) {
			f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), skill)
			f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), skillCounts[skill])
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
