package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxGrepHits     = 50
	maxGrepFileSize = 10 * 1024 * 1024
)

// NewGrepTool returns the regex searcher. It walks regular files under
// the search path, skipping hidden entries, binaries, unreadable files,
// and anything over the size cap.
func NewGrepTool() Tool {
	return Tool{
		Def: Definition{
			Name:        "grep",
			Description: "Search files for regex pattern",
			Params: []Param{
				{Name: "pat", Type: TypeString},
				{Name: "path", Type: TypeString, Optional: true},
			},
		},
		Exec: func(ctx context.Context, args Args) (string, error) {
			pat, err := args.String("pat")
			if err != nil {
				return "", err
			}
			dir, err := args.OptString("path", ".")
			if err != nil {
				return "", err
			}
			rx, err := regexp.Compile(pat)
			if err != nil {
				return "", err
			}

			var hits []string
			filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if p != dir && strings.HasPrefix(d.Name(), ".") {
					if d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}
				if d.IsDir() {
					return nil
				}
				if info, err := d.Info(); err != nil || info.Size() > maxGrepFileSize {
					return nil
				}
				data, err := os.ReadFile(p)
				if err != nil || len(data) == 0 || isBinaryData(data) {
					return nil
				}

				display := p
				if dir == "." {
					display = "./" + p
				}
				lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
				for i, line := range lines {
					if rx.MatchString(line) {
						content := strings.TrimRightFunc(line, unicode.IsSpace)
						hits = append(hits, fmt.Sprintf("%s:%d:%s", display, i+1, content))
						if len(hits) >= maxGrepHits {
							return fs.SkipAll
						}
					}
				}
				return nil
			})

			if len(hits) == 0 {
				return "none", nil
			}
			return strings.Join(hits, "\n"), nil
		},
	}
}
