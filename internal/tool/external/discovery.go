// Package external registers executables found in a tools directory as
// registry tools. Each executable becomes a tool of the same name (without
// extension) that runs the file with the caller's arguments and stdin.
package external

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Entry is a discovered executable.
type Entry struct {
	Name            string   `json:"name"`
	Path            string   `json:"path"`
	Interpreter     string   `json:"interpreter,omitempty"`      // empty for binaries
	InterpreterArgs []string `json:"interpreter_args,omitempty"` // shebang arguments after the interpreter
}

// DuplicateNameError is returned when two files in a tools directory map to
// the same tool name.
type DuplicateNameError struct {
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

// Error returns the error message for the DuplicateNameError
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool with name %s already exists (%s)", e.Name, strings.Join(e.Paths, ", "))
}

// Interface guard for DuplicateNameError
var _ error = &DuplicateNameError{}

// Scan walks dir and returns every executable or shebang script below it,
// sorted by name. Hidden files and directories are skipped.
func Scan(dir string) ([]Entry, error) {
	byName := make(map[string]Entry)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		interpreter, interpreterArgs, err := ParseShebang(path)
		if err != nil {
			var readErr *ShebangFileReadError
			if errors.As(err, &readErr) {
				zap.L().Error("Failed to read file", zap.String("path", path), zap.Error(err))
			} else {
				zap.L().Debug("No shebang (could be a binary executable)", zap.String("path", path), zap.Error(err))
			}
		}

		if interpreter == "" && info.Mode().Perm()&0o111 == 0 {
			zap.L().Debug("Skipping non-executable file", zap.String("path", path))
			return nil
		}

		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if existing, ok := byName[name]; ok {
			return &DuplicateNameError{Name: name, Paths: []string{existing.Path, path}}
		}

		byName[name] = Entry{
			Name:            name,
			Path:            path,
			Interpreter:     interpreter,
			InterpreterArgs: interpreterArgs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}
