// Package discovery locates satellite scene directories and files on disk
// and orders them by the acquisition date embedded in their names.
package discovery

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	goeval "github.com/edisonguo/govaluate"
	"github.com/nci/gcube/cube"
	"github.com/sirupsen/logrus"
)

// Mode selects what a search returns.
type Mode int

const (
	Dirs Mode = iota + 1
	Files
)

func (m Mode) String() string {
	switch m {
	case Dirs:
		return "dirs"
	case Files:
		return "files"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Query matches entry base names that start with Prefix, contain Contains
// and end with Suffix. Empty fields match everything.
type Query struct {
	Mode     Mode
	Prefix   string
	Contains string
	Suffix   string
	// Sort orders the results by cube.ExtractDate.
	Sort bool
}

func (q Query) match(name string) bool {
	return strings.HasPrefix(name, q.Prefix) && strings.HasSuffix(name, q.Suffix) && strings.Contains(name, q.Contains)
}

type Searcher struct {
	log logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Searcher {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	return &Searcher{log: log}
}

// Find walks root and returns the full paths of the entries matching q.
func (s *Searcher) Find(root string, q Query) ([]string, error) {
	if q.Mode != Dirs && q.Mode != Files {
		return nil, fmt.Errorf("find: %w: %v", cube.ErrInvalidMode, q.Mode)
	}

	found, err := walk(root, func(path string, d fs.DirEntry) (bool, error) {
		if d.IsDir() != (q.Mode == Dirs) {
			return false, nil
		}
		return q.match(d.Name()), nil
	})
	if err != nil {
		return nil, err
	}

	if q.Sort {
		if found, _, err = cube.SortByDate(found); err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
	}
	s.log.Infof("find: pattern '%s'*'%s'*'%s', found %d results", q.Prefix, q.Contains, q.Suffix, len(found))
	return found, nil
}

// FindExpr walks root and returns the entries for which the boolean
// expression holds. The expression sees the variables path, name and type
// ("d" or "f"), e.g. `type == "f" && name =~ "^T34.*B04.*\\.jp2$"`.
func (s *Searcher) FindExpr(root, expression string, sortByDate bool) ([]string, error) {
	expr, err := parsePatternExpression(expression)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	found, err := walk(root, func(path string, d fs.DirEntry) (bool, error) {
		return evaluatePatternExpression(expr, path, d)
	})
	if err != nil {
		return nil, err
	}

	if sortByDate {
		if found, _, err = cube.SortByDate(found); err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
	}
	s.log.Infof("find: expression %q, found %d results", expression, len(found))
	return found, nil
}

func parsePatternExpression(pattern string) (*goeval.EvaluableExpression, error) {
	if len(strings.TrimSpace(pattern)) == 0 {
		return nil, fmt.Errorf("empty pattern expression")
	}

	expr, err := goeval.NewEvaluableExpression(pattern)
	if err != nil {
		return nil, err
	}

	validVariables := map[string]struct{}{"path": {}, "name": {}, "type": {}}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
			}
			if _, found := validVariables[varName]; !found {
				return nil, fmt.Errorf("variable %v is not supported. Valid variables are path, name and type", varName)
			}
		}
	}
	return expr, nil
}

func evaluatePatternExpression(expr *goeval.EvaluableExpression, path string, d fs.DirEntry) (bool, error) {
	fileType := "f"
	if d.IsDir() {
		fileType = "d"
	}

	parameters := map[string]interface{}{"type": fileType, "path": path, "name": d.Name()}
	result, err := expr.Evaluate(parameters)
	if err != nil {
		return false, fmt.Errorf("pattern expression: %v", err)
	}

	val, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("pattern expression: result '%v' is not boolean", result)
	}
	return val, nil
}

// walk visits every directory and regular file below root, excluding root
// itself, in lexical order.
func walk(root string, keep func(path string, d fs.DirEntry) (bool, error)) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		ok, err := keep(path, d)
		if err != nil {
			return err
		}
		if ok {
			found = append(found, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("find %s: %w", root, cube.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", root, err)
	}
	return found, nil
}
