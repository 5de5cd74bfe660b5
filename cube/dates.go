package cube

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	safeMarker    = ".SAFE"
	filenameDate  = "20060102"
	sidecarLayout = "2006-01-02"
)

// ExtractDate returns the acquisition date embedded in a Sentinel-2 style
// path: the first eight characters of the last underscore-separated token
// before ".SAFE", read as YYYYMMDD.
func ExtractDate(path string) (time.Time, error) {
	idx := strings.Index(path, safeMarker)
	if idx < 0 {
		return time.Time{}, fmt.Errorf("%w: no %s segment in %q", ErrFormat, safeMarker, path)
	}
	head := path[:idx]
	token := head[strings.LastIndex(head, "_")+1:]
	if len(token) < len(filenameDate) {
		return time.Time{}, fmt.Errorf("%w: no date token in %q", ErrFormat, path)
	}
	digits := token[:len(filenameDate)]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("%w: date token %q in %q", ErrFormat, digits, path)
		}
	}
	t, err := time.ParseInLocation(filenameDate, digits, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date token %q in %q: %v", ErrFormat, digits, path, err)
	}
	return t, nil
}

// SortByDate returns a copy of paths ordered by acquisition date together
// with the aligned dates. The sort is stable for equal dates.
func SortByDate(paths []string) ([]string, []time.Time, error) {
	type dated struct {
		path string
		date time.Time
	}
	items := make([]dated, len(paths))
	for i, p := range paths {
		d, err := ExtractDate(p)
		if err != nil {
			return nil, nil, err
		}
		items[i] = dated{p, d}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].date.Before(items[j].date) })

	sorted := make([]string, len(items))
	dates := make([]time.Time, len(items))
	for i, it := range items {
		sorted[i] = it.path
		dates[i] = it.date
	}
	return sorted, dates, nil
}

// DayOfYear returns 1..366.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// SidecarPath is the date list written next to a cube: same base name,
// ".txt" extension.
func SidecarPath(destDir, name string) string {
	return filepath.Join(destDir, name+".txt")
}

// WriteDateSidecar writes one ISO date per line in band order. The file is
// written under a temporary name and renamed into place.
func WriteDateSidecar(path string, dates []time.Time) error {
	tmp, err := stageDateSidecar(path, dates)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("date sidecar: %v", err)
	}
	return nil
}

// stageDateSidecar writes the date list next to path under a temporary name
// and returns that name.
func stageDateSidecar(path string, dates []time.Time) (string, error) {
	lines := make([]string, len(dates))
	for i, d := range dates {
		lines[i] = d.Format(sidecarLayout)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString())
	if err := os.WriteFile(tmp, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("date sidecar: %v", err)
	}
	return tmp, nil
}

// ReadDateSidecar parses a file written by WriteDateSidecar. Blank lines
// are ignored.
func ReadDateSidecar(path string) ([]time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("date sidecar %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("date sidecar %s: %v", path, err)
	}
	defer f.Close()

	var dates []time.Time
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		d, err := time.ParseInLocation(sidecarLayout, text, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("date sidecar %s:%d: %w: %q", path, line, ErrFormat, text)
		}
		dates = append(dates, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("date sidecar %s: %v", path, err)
	}
	return dates, nil
}
