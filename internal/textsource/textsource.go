// Package textsource turns user input into the flat line list the layout
// engine consumes: pasted text or the first column of a spreadsheet.
package textsource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	apperrors "labelcli/internal/errors"
)

// ParseText splits pasted text into lines. Leading and trailing blank lines
// of the whole text are dropped, trailing whitespace is trimmed from every
// line and interior blank lines are kept.
func ParseText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return lines
}

// ReadWorkbook returns the first column of the active sheet. Empty cells are
// skipped and values are trimmed.
func ReadWorkbook(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnsupportedWorkbook, err)
	}
	defer f.Close()

	return firstColumn(f)
}

// ReadWorkbookFile is ReadWorkbook for a file on disk
func ReadWorkbookFile(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnsupportedWorkbook, err)
	}
	defer f.Close()

	return firstColumn(f)
}

func firstColumn(f *excelize.File) ([]string, error) {
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.ErrNoData
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", apperrors.ErrUnsupportedWorkbook, sheet, err)
	}

	var lines []string
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		lines = append(lines, strings.TrimSpace(row[0]))
	}

	if len(lines) == 0 {
		return nil, apperrors.ErrNoData
	}
	return lines, nil
}

// IsWorkbook reports whether path names a spreadsheet by extension
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// ReadFile loads lines from a workbook or a plain text file
func ReadFile(path string) ([]string, error) {
	if IsWorkbook(path) {
		return ReadWorkbookFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseText(string(data)), nil
}
