// Package excel reads timetable workbooks into an import tree.
//
// The first sheet is used. Row 1 holds "Hour", "Time" and then one weekday
// name per column. Every later row is one lesson hour: column A is the hour
// number, column B the time range ("08:00-08:45"), and each weekday cell reads
// "Subject\nTeacher\nRoom\nGroups" where groups are comma separated numbers.
// A merged cell counts for every hour and day it covers.
package excel

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/in-nis/classplan/internal/timetable"
)

var ErrInvalidWorkbook = errors.New("invalid workbook")

type Parser struct {
	log *logrus.Logger
}

func NewParser(log *logrus.Logger) *Parser {
	return &Parser{log: log}
}

// sheet wraps the raw rows with merged-cell lookups.
type sheet struct {
	rows   [][]string
	merged map[string]string
}

func (s *sheet) cell(rowIndex, colIndex int) string {
	name, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+1)
	if err == nil {
		if v, ok := s.merged[name]; ok {
			return v
		}
	}
	if rowIndex < len(s.rows) && colIndex < len(s.rows[rowIndex]) {
		return s.rows[rowIndex][colIndex]
	}
	return ""
}

// Parse reads a workbook and returns its timetable tree.
func (p *Parser) Parse(r io.Reader) (timetable.Tree, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidWorkbook)
	}
	name := sheets[0]

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", ErrInvalidWorkbook, name)
	}

	merged, err := mergedValues(f, name)
	if err != nil {
		return nil, err
	}
	s := &sheet{rows: rows, merged: merged}

	colToDay := make(map[int]timetable.Day)
	for colIndex := 2; colIndex < len(rows[0]); colIndex++ {
		header := strings.TrimSpace(s.cell(0, colIndex))
		if header == "" {
			continue
		}
		day, ok := timetable.ParseDay(header)
		if !ok {
			p.log.WithField("header", header).Warn("Skipping column with unknown weekday")
			continue
		}
		colToDay[colIndex] = day
	}
	if len(colToDay) == 0 {
		return nil, fmt.Errorf("%w: header row has no weekday columns", ErrInvalidWorkbook)
	}

	tree := make(timetable.Tree)
	lessons := 0
	for rowIndex := 1; rowIndex < len(rows); rowIndex++ {
		hourCell := strings.TrimSpace(s.cell(rowIndex, 0))
		hour, err := strconv.Atoi(hourCell)
		if err != nil {
			if hourCell != "" {
				p.log.WithFields(logrus.Fields{"row": rowIndex + 1, "value": hourCell}).Warn("Skipping row without hour number")
			}
			continue
		}
		start, end := splitTimeRange(s.cell(rowIndex, 1))

		for colIndex := 2; colIndex < len(rows[0]); colIndex++ {
			day, ok := colToDay[colIndex]
			if !ok {
				continue
			}
			axis, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+1)
			lesson, ok, err := parseCell(s.cell(rowIndex, colIndex))
			if err != nil {
				return nil, fmt.Errorf("%w: cell %s: %v", ErrInvalidWorkbook, axis, err)
			}
			if !ok {
				continue
			}
			lesson.StartTime, lesson.EndTime = start, end

			if tree[string(day)] == nil {
				tree[string(day)] = make(map[string][]timetable.Lesson)
			}
			key := strconv.Itoa(hour)
			tree[string(day)][key] = append(tree[string(day)][key], lesson)
			lessons++
		}
	}

	p.log.WithFields(logrus.Fields{"sheet": name, "lessons": lessons}).Info("Parsed workbook")
	return tree, nil
}

// mergedValues maps every cell inside a merged range to the range's value.
func mergedValues(f *excelize.File, sheetName string) (map[string]string, error) {
	mergedCells, err := f.GetMergeCells(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	out := make(map[string]string)
	for _, mc := range mergedCells {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
		}
		for col := startCol; col <= endCol; col++ {
			for row := startRow; row <= endRow; row++ {
				name, _ := excelize.CoordinatesToCellName(col, row)
				out[name] = mc.GetCellValue()
			}
		}
	}
	return out, nil
}

func splitTimeRange(v string) (string, string) {
	parts := strings.Split(v, "-")
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// parseCell returns ok=false for blank cells.
func parseCell(v string) (timetable.Lesson, bool, error) {
	lines := strings.Split(v, "\n")
	subject := strings.TrimSpace(lines[0])
	if subject == "" {
		return timetable.Lesson{}, false, nil
	}

	lesson := timetable.Lesson{Subject: subject}
	if len(lines) >= 2 {
		lesson.Teacher = strings.TrimSpace(lines[1])
	}
	if len(lines) >= 3 {
		lesson.Room = strings.TrimSpace(lines[2])
	}
	if len(lines) >= 4 {
		for _, part := range strings.Split(lines[3], ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			g, err := strconv.Atoi(part)
			if err != nil {
				return timetable.Lesson{}, false, fmt.Errorf("group %q is not a number", part)
			}
			lesson.Specialization = append(lesson.Specialization, g)
		}
	}
	return lesson, true, nil
}
