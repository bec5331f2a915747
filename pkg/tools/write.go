package tools

import (
	"context"
	"os"
)

// NewWriteTool returns the whole-file writer.
func NewWriteTool(cwd string) Tool {
	return Tool{
		Def: Definition{
			Name:        "write",
			Description: "Write content to file",
			Params: []Param{
				{Name: "path", Type: TypeString},
				{Name: "content", Type: TypeString},
			},
		},
		Exec: func(ctx context.Context, args Args) (string, error) {
			path, err := args.String("path")
			if err != nil {
				return "", err
			}
			content, err := args.String("content")
			if err != nil {
				return "", err
			}
			if err := os.WriteFile(resolvePath(cwd, path), []byte(content), 0644); err != nil {
				return "", err
			}
			return "ok", nil
		},
	}
}
