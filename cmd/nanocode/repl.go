package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/tiancaiamao/nanocode/pkg/agent"
	"github.com/tiancaiamao/nanocode/pkg/config"
	"github.com/tiancaiamao/nanocode/pkg/console"
	"github.com/tiancaiamao/nanocode/pkg/llm"
	"github.com/tiancaiamao/nanocode/pkg/session"
	"github.com/tiancaiamao/nanocode/pkg/tools"
)

// repl owns the interactive loop: the prompt, slash commands, and one
// agent turn per input line.
type repl struct {
	cfg     *config.Config
	cwd     string
	system  string
	line    *liner.State
	history string
	console *console.Console
	loop    *agent.Loop
	sess    *session.Session
}

func newREPL(cfg *config.Config) (*repl, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot determine working directory: %w", err)
	}

	cons := console.New(os.Stdout)
	registry := tools.NewRegistry()
	if err := registerTools(registry, cwd, cons); err != nil {
		return nil, err
	}

	system := fmt.Sprintf("Concise assistant with coding and search capabilities. cwd: %s", cwd)
	client := llm.NewClient(cfg.BaseURL, cfg.APIKey)

	r := &repl{
		cfg:     cfg,
		cwd:     cwd,
		system:  system,
		console: cons,
		loop:    agent.NewLoop(client, registry, cons),
		sess:    session.NewSession(cfg.Model, system, session.DefaultProfile()),
	}

	r.line = liner.NewLiner()
	r.line.SetCtrlCAborts(true)
	if path, err := config.HistoryPath(); err == nil {
		r.history = path
		r.loadHistory()
	}
	return r, nil
}

// registerTools wires the local tools in their advertised order.
func registerTools(registry *tools.Registry, cwd string, cons *console.Console) error {
	all := []tools.Tool{
		tools.NewReadTool(cwd),
		tools.NewWriteTool(cwd),
		tools.NewEditTool(cwd),
		tools.NewGlobTool(),
		tools.NewGrepTool(),
		tools.NewBashTool(cwd, cons.BashLine),
	}
	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// Run is the main REPL loop. It returns when the user quits, interrupts
// at the prompt, or closes stdin.
func (r *repl) Run() error {
	r.console.Banner(r.cfg.Model, r.cwd)
	slog.Info("[repl] session started", "session", r.sess.ID(), "model", r.cfg.Model)

	for {
		r.console.Separator()
		input, err := r.line.Prompt(r.console.Prompt())
		if err != nil {
			// Ctrl+C at the prompt and Ctrl+D both end the run.
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		r.console.Separator()

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		switch input {
		case "/q", "exit":
			return nil
		case "/c":
			r.reset()
			continue
		}

		r.runTurn(input)
	}
}

// runTurn executes one agent turn. Ctrl+C during the turn abandons it and
// returns control to the prompt.
func (r *repl) runTurn(input string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := r.loop.RunTurn(ctx, r.sess, input)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		r.console.Interrupted()
		return
	}
	r.console.TurnError(err)
	slog.Error("[repl] turn failed", "error", err)
}

// reset discards the conversation wholesale and starts over with the
// expanded capability profile.
func (r *repl) reset() {
	r.sess = session.NewSession(r.cfg.Model, r.system, session.ExpandedProfile())
	r.console.Cleared()
	slog.Info("[repl] conversation cleared", "session", r.sess.ID())
}

func (r *repl) loadHistory() {
	f, err := os.Open(r.history)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.ReadHistory(f)
}

func (r *repl) saveHistory() {
	if r.history == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.history), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(r.history, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

// Close persists input history and restores the terminal.
func (r *repl) Close() {
	r.saveHistory()
	r.line.Close()
}
