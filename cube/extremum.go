package cube

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Mode selects which temporal extremum ExtremeDOY looks for.
type Mode string

const (
	ModeMax Mode = "max"
	ModeMin Mode = "min"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeMax, ModeMin:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (want max or min)", ErrInvalidMode, s)
}

// ExtremeDOY returns, for every column (pixel) of tbl, the day of year of
// the date at which the column reaches its maximum or minimum. Row i of tbl
// corresponds to dates[i]. NaN entries are skipped; a column with no valid
// entry yields NaN. When several rows hold the extreme value the earliest
// row wins.
func ExtremeDOY(tbl *Table, dates []time.Time, mode Mode) ([]float64, error) {
	if mode != ModeMax && mode != ModeMin {
		return nil, fmt.Errorf("extreme doy: %w: %q", ErrInvalidMode, string(mode))
	}
	if tbl.Rows() != len(dates) {
		return nil, fmt.Errorf("extreme doy: %w: %d rows, %d dates", ErrShape, tbl.Rows(), len(dates))
	}

	cols := tbl.Cols()
	bestIdx := make([]int, cols)
	bestVal := make([]float64, cols)
	for j := range bestIdx {
		bestIdx[j] = -1
	}

	for i := 0; i < tbl.Rows(); i++ {
		row := tbl.Row(i)
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if bestIdx[j] < 0 || (mode == ModeMax && v > bestVal[j]) || (mode == ModeMin && v < bestVal[j]) {
				bestIdx[j] = i
				bestVal[j] = v
			}
		}
	}

	out := make([]float64, cols)
	for j, idx := range bestIdx {
		if idx < 0 {
			out[j] = math.NaN()
			continue
		}
		out[j] = float64(DayOfYear(dates[idx]))
	}
	return out, nil
}

// MaskNoData returns a copy of tbl with every nodata entry replaced by NaN.
func MaskNoData(tbl *Table, nodata float64) *Table {
	masked := tbl.Clone()
	if math.IsNaN(nodata) {
		return masked
	}
	for i := 0; i < masked.Rows(); i++ {
		row := masked.Row(i)
		for j, v := range row {
			if v == nodata {
				row[j] = math.NaN()
			}
		}
	}
	return masked
}
