package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NewReadTool returns the file reader. Output lines keep their own
// newlines and are numbered from offset+1 in a fixed-width gutter.
func NewReadTool(cwd string) Tool {
	return Tool{
		Def: Definition{
			Name:        "read",
			Description: "Read file with line numbers (file path, not directory)",
			Params: []Param{
				{Name: "path", Type: TypeString},
				{Name: "offset", Type: TypeInteger, Optional: true},
				{Name: "limit", Type: TypeInteger, Optional: true},
			},
		},
		Exec: func(ctx context.Context, args Args) (string, error) {
			path, err := args.String("path")
			if err != nil {
				return "", err
			}
			data, err := os.ReadFile(resolvePath(cwd, path))
			if err != nil {
				return "", err
			}
			if isBinaryData(data) {
				return "", fmt.Errorf("cannot read binary file %s", path)
			}

			lines := splitKeepEnds(string(data))
			offset, err := args.OptInt("offset", 0)
			if err != nil {
				return "", err
			}
			limit, err := args.OptInt("limit", len(lines))
			if err != nil {
				return "", err
			}

			if offset < 0 {
				offset = 0
			}
			if offset > len(lines) {
				offset = len(lines)
			}
			end := len(lines)
			if limit >= 0 && limit < end-offset {
				end = offset + limit
			}

			var b strings.Builder
			for i, line := range lines[offset:end] {
				fmt.Fprintf(&b, "%4d| %s", offset+i+1, line)
			}
			return b.String(), nil
		},
	}
}

// resolvePath joins relative paths against the session working directory.
func resolvePath(cwd, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}

// splitKeepEnds splits text into lines that keep their newline, the way
// a line-by-line reader yields them. A trailing newline does not produce
// an extra empty line.
func splitKeepEnds(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// isBinaryData reports whether content looks binary, via a NUL probe of
// the leading bytes.
func isBinaryData(data []byte) bool {
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
