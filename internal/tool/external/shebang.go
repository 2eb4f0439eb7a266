package external

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ShebangFileReadError is returned when an executable cannot be opened for
// shebang inspection.
type ShebangFileReadError struct {
	Path string `json:"path"`
}

// Error returns the error message for the ShebangFileReadError
func (e *ShebangFileReadError) Error() string {
	return fmt.Sprintf("failed to read shebang file: %s", e.Path)
}

// Interface guard for ShebangFileReadError
var _ error = &ShebangFileReadError{}

// ShebangInvalidPrefixError is returned when the first line is not a shebang.
// Binary executables produce it.
type ShebangInvalidPrefixError struct {
	Path string `json:"path"`
	Line string `json:"line"`
}

// Error returns the error message for the ShebangInvalidPrefixError
func (e *ShebangInvalidPrefixError) Error() string {
	return fmt.Sprintf("invalid shebang prefix: %s", e.Line)
}

// Interface guard for ShebangInvalidPrefixError
var _ error = &ShebangInvalidPrefixError{}

// ShebangEmptyError is returned for a bare "#!" line.
type ShebangEmptyError struct {
	Path string `json:"path"`
}

// Error returns the error message for the ShebangEmptyError
func (e *ShebangEmptyError) Error() string {
	return fmt.Sprintf("empty shebang in %s", e.Path)
}

// Interface guard for ShebangEmptyError
var _ error = &ShebangEmptyError{}

// ParseShebang returns the interpreter named on the first line of the file at
// path, followed by any interpreter arguments. "#!/usr/bin/env python3"
// yields ("/usr/bin/env", ["python3"]).
func ParseShebang(path string) (string, []string, error) {
	// #nosec G304 -- path comes from scanning the configured tools directory
	file, err := os.Open(path)
	if err != nil {
		return "", nil, &ShebangFileReadError{Path: path}
	}
	defer func() {
		_ = file.Close() // read only
	}()

	scanner := bufio.NewScanner(file)
	scanner.Scan()
	line := strings.TrimSpace(scanner.Text())

	if !strings.HasPrefix(line, "#!") {
		return "", nil, &ShebangInvalidPrefixError{Path: path, Line: line}
	}

	parts := strings.Fields(line[2:])
	if len(parts) == 0 {
		return "", nil, &ShebangEmptyError{Path: path}
	}

	return parts[0], parts[1:], nil
}
