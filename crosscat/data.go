package crosscat

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// RowContainer holds numeric rows read from a text file, one row per line,
// values whitespace-separated.
type RowContainer struct {
	Rows [][]float64
	Size int
}

// NewRowContainer reads rows from filePath. Every non-empty line must carry
// the same number of values.
func NewRowContainer(filePath string) (*RowContainer, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open filePath (%v): %w", filePath, err)
	}
	defer f.Close()

	rowContainer := new(RowContainer)
	sc := bufio.NewScanner(f)
	width := -1
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if width == -1 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, fmt.Errorf("line %v of %v has %v values, want %v", rowContainer.Size+1, filePath, len(fields), width)
		}
		row := make([]float64, 0, len(fields))
		for _, field := range fields {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %v of %v: %w", rowContainer.Size+1, filePath, err)
			}
			row = append(row, value)
		}
		rowContainer.Rows = append(rowContainer.Rows, row)
		rowContainer.Size++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read error in filePath (%v): %w", filePath, err)
	}
	return rowContainer, nil
}
