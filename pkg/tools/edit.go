package tools

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// NewEditTool returns the search-and-replace editor. The old string must
// occur exactly once unless all is set; on a failed precondition the
// file is left untouched and the precise failure is the result text.
func NewEditTool(cwd string) Tool {
	return Tool{
		Def: Definition{
			Name:        "edit",
			Description: "Replace old with new in file (old must be unique unless all=true)",
			Params: []Param{
				{Name: "path", Type: TypeString},
				{Name: "old", Type: TypeString},
				{Name: "new", Type: TypeString},
				{Name: "all", Type: TypeBoolean, Optional: true},
			},
		},
		Exec: func(ctx context.Context, args Args) (string, error) {
			path, err := args.String("path")
			if err != nil {
				return "", err
			}
			old, err := args.String("old")
			if err != nil {
				return "", err
			}
			replacement, err := args.String("new")
			if err != nil {
				return "", err
			}
			all, err := args.OptBool("all", false)
			if err != nil {
				return "", err
			}

			full := resolvePath(cwd, path)
			data, err := os.ReadFile(full)
			if err != nil {
				return "", err
			}
			text := string(data)

			if !strings.Contains(text, old) {
				return "error: old_string not found", nil
			}
			if count := strings.Count(text, old); !all && count > 1 {
				return fmt.Sprintf("error: old_string appears %d times, must be unique (use all=true)", count), nil
			}

			var edited string
			if all {
				edited = strings.ReplaceAll(text, old, replacement)
			} else {
				edited = strings.Replace(text, old, replacement, 1)
			}
			if err := os.WriteFile(full, []byte(edited), 0644); err != nil {
				return "", err
			}
			return "ok", nil
		},
	}
}
