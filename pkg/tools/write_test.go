package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteCreatesFile(t *testing.T) {
	cwd := t.TempDir()
	tool := NewWriteTool(cwd)

	got, err := tool.Exec(context.Background(), Args{"path": "out.txt", "content": "hello\n"})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if got != "ok" {
		t.Errorf("result = %q, want ok", got)
	}

	data, err := os.ReadFile(filepath.Join(cwd, "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("file = %q, want %q", data, "hello\n")
	}
}

func TestWriteOverwrites(t *testing.T) {
	cwd := t.TempDir()
	path := filepath.Join(cwd, "o.txt")
	if err := os.WriteFile(path, []byte("before"), 0644); err != nil {
		t.Fatal(err)
	}

	tool := NewWriteTool(cwd)
	if _, err := tool.Exec(context.Background(), Args{"path": "o.txt", "content": "after"}); err != nil {
		t.Fatalf("exec: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "after" {
		t.Errorf("file = %q, want %q", data, "after")
	}
}

func TestWriteMissingContent(t *testing.T) {
	tool := NewWriteTool(t.TempDir())
	_, err := tool.Exec(context.Background(), Args{"path": "x.txt"})
	if err == nil {
		t.Fatal("expected error for missing content argument")
	}
}
