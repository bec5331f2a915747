package tools

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NewGlobTool returns the pattern matcher. Matches sort newest first;
// anything that is not a regular file carries a zero mtime and so sorts
// last.
func NewGlobTool() Tool {
	return Tool{
		Def: Definition{
			Name:        "glob",
			Description: "Find files by pattern, sorted by mtime",
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

			pattern := strings.ReplaceAll(dir+"/"+pat, "//", "/")
			matches := expandGlob(pattern)

			type entry struct {
				path  string
				mtime int64
			}
			entries := make([]entry, len(matches))
			for i, m := range matches {
				entries[i] = entry{path: m, mtime: fileMtime(m)}
			}
			sort.SliceStable(entries, func(i, j int) bool {
				return entries[i].mtime > entries[j].mtime
			})

			if len(entries) == 0 {
				return "none", nil
			}
			out := make([]string, len(entries))
			for i, e := range entries {
				out[i] = e.path
			}
			return strings.Join(out, "\n"), nil
		},
	}
}

// fileMtime returns the ordering key for a match. Only regular files
// count; directories and stat failures are treated as oldest.
func fileMtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0
	}
	return info.ModTime().UnixNano()
}

// expandGlob matches pattern against the filesystem. Unlike
// filepath.Glob, a ** segment spans any number of directories, including
// none, and hidden entries require an explicit leading dot. Bad pattern
// syntax simply matches nothing.
func expandGlob(pattern string) []string {
	segs := strings.Split(pattern, "/")

	// The walk starts at the literal prefix before the first wildcard
	// segment; matched paths keep that prefix spelling.
	base := 0
	for base < len(segs) && !strings.ContainsAny(segs[base], "*?[") {
		base++
	}
	prefix := strings.Join(segs[:base], "/")
	baseDir := prefix
	if baseDir == "" {
		if strings.HasPrefix(pattern, "/") {
			baseDir, prefix = "/", "/"
		} else {
			baseDir = "."
		}
	}
	patSegs := segs[base:]
	if len(patSegs) == 0 {
		// Fully literal pattern: a bare existence check.
		if _, err := os.Lstat(baseDir); err != nil {
			return nil
		}
		return []string{prefix}
	}

	maxDepth := -1
	if !containsDoublestar(patSegs) {
		maxDepth = len(patSegs)
	}

	var matches []string
	filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || p == baseDir {
			return nil
		}
		var rel string
		if baseDir == "." {
			rel = p
		} else {
			rel = strings.TrimPrefix(p, baseDir)
			rel = strings.TrimPrefix(rel, "/")
		}
		relSegs := strings.Split(rel, "/")
		if matchSegments(patSegs, relSegs) {
			matches = append(matches, joinPattern(prefix, rel))
		}
		if d.IsDir() && maxDepth >= 0 && len(relSegs) >= maxDepth {
			return fs.SkipDir
		}
		return nil
	})
	return matches
}

func containsDoublestar(segs []string) bool {
	for _, s := range segs {
		if s == "**" {
			return true
		}
	}
	return false
}

// matchSegments reports whether path segments satisfy pattern segments.
// A ** pattern segment spans zero or more path segments but never
// crosses a hidden directory.
func matchSegments(pat, path []string) bool {
	if len(pat) == 0 {
		return len(path) == 0
	}
	if pat[0] == "**" {
		for skip := 0; skip <= len(path); skip++ {
			if matchSegments(pat[1:], path[skip:]) {
				return true
			}
			if skip < len(path) && strings.HasPrefix(path[skip], ".") {
				break
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	if !segmentMatches(pat[0], path[0]) {
		return false
	}
	return matchSegments(pat[1:], path[1:])
}

// segmentMatches matches one path segment. Hidden names need an explicit
// leading dot in the pattern, per shell glob convention.
func segmentMatches(pat, name string) bool {
	if strings.HasPrefix(name, ".") && !strings.HasPrefix(pat, ".") {
		return false
	}
	ok, err := filepath.Match(pat, name)
	return err == nil && ok
}

func joinPattern(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	if strings.HasSuffix(prefix, "/") {
		return prefix + rel
	}
	return prefix + "/" + rel
}
