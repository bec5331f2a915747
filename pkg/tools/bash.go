package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const defaultBashTimeout = 30 * time.Second

// NewBashTool returns the shell executor. Combined stdout and stderr are
// forwarded line by line to echo as they are produced; the command is
// killed at the wall-clock ceiling and the partial output kept. A nil
// echo disables forwarding.
func NewBashTool(cwd string, echo func(line string)) Tool {
	return newBashTool(cwd, echo, defaultBashTimeout)
}

func newBashTool(cwd string, echo func(string), timeout time.Duration) Tool {
	return Tool{
		Def: Definition{
			Name:        "bash",
			Description: "Run shell command",
			Params:      []Param{{Name: "cmd", Type: TypeString}},
		},
		Exec: func(ctx context.Context, args Args) (string, error) {
			command, err := args.String("cmd")
			if err != nil {
				return "", err
			}

			execCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", command)
			cmd.Dir = cwd

			r, w, err := os.Pipe()
			if err != nil {
				return "", err
			}
			cmd.Stdout = w
			cmd.Stderr = w

			if err := cmd.Start(); err != nil {
				r.Close()
				w.Close()
				return "", err
			}
			// The child holds its own copy of the write end; ours must
			// close or the reader never sees EOF.
			w.Close()

			var out strings.Builder
			reader := bufio.NewReader(r)
			for {
				line, err := reader.ReadString('\n')
				if line != "" {
					out.WriteString(line)
					if echo != nil {
						echo(strings.TrimRight(line, "\r\n"))
					}
				}
				if err != nil {
					break
				}
			}
			r.Close()
			cmd.Wait()

			output := out.String()
			if execCtx.Err() == context.DeadlineExceeded {
				output += fmt.Sprintf("\n(timed out after %s)", timeout)
			}
			output = strings.TrimSpace(output)
			if output == "" {
				output = "(empty)"
			}
			return output, nil
		},
	}
}
