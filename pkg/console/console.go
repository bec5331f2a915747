// Package console renders the interactive surface: banner, separators,
// streamed assistant text, tool call and result lines, and the loading
// indicator. All output flows through a single writer so that line order
// is exactly call order.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	maxRuleWidth       = 80
	argPreviewWidth    = 50
	resultPreviewWidth = 60
)

// Styles holds the lipgloss styles for every console element. The zero
// value renders everything unstyled, which keeps test output plain.
type Styles struct {
	Bold   lipgloss.Style
	Dim    lipgloss.Style
	Green  lipgloss.Style
	Red    lipgloss.Style
	Prompt lipgloss.Style
}

// NewStyles builds the palette bound to a renderer, so colors degrade
// automatically when the writer is not a terminal.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Bold:   r.NewStyle().Bold(true),
		Dim:    r.NewStyle().Faint(true),
		Green:  r.NewStyle().Foreground(lipgloss.Color("2")),
		Red:    r.NewStyle().Foreground(lipgloss.Color("1")),
		Prompt: r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
	}
}

// Console writes the interactive output of the agent.
type Console struct {
	out    io.Writer
	styles Styles
}

// New creates a Console writing to out, with styles matched to out's
// terminal capabilities.
func New(out io.Writer) *Console {
	return NewWithStyles(out, NewStyles(lipgloss.NewRenderer(out)))
}

// NewWithStyles creates a Console with an explicit style set.
func NewWithStyles(out io.Writer, styles Styles) *Console {
	return &Console{out: out, styles: styles}
}

// Banner prints the startup line: program name in bold, then the model and
// working directory dimmed, followed by a blank line.
func (c *Console) Banner(model, cwd string) {
	fmt.Fprintf(c.out, "%s | %s\n\n",
		c.styles.Bold.Render("nanocode"),
		c.styles.Dim.Render(fmt.Sprintf("%s (xAI) | %s", model, cwd)))
}

// Separator prints a dim horizontal rule sized to the terminal, capped at
// 80 columns.
func (c *Console) Separator() {
	fmt.Fprintln(c.out, c.styles.Dim.Render(strings.Repeat("─", c.ruleWidth())))
}

func (c *Console) ruleWidth() int {
	if f, ok := c.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && w < maxRuleWidth {
			return w
		}
	}
	return maxRuleWidth
}

// Prompt returns the styled input prompt.
func (c *Console) Prompt() string {
	return c.styles.Prompt.Render("❯") + " "
}

// Text echoes a streamed content delta as-is, without a trailing newline.
func (c *Console) Text(delta string) {
	fmt.Fprint(c.out, delta)
}

// ToolCall prints the header line for a dispatched tool: a green marker
// with the capitalized name and a dim preview of the first argument value.
func (c *Console) ToolCall(name, argsJSON string) {
	fmt.Fprintf(c.out, "\n%s(%s)\n",
		c.styles.Green.Render("⏺ "+capitalize(name)),
		c.styles.Dim.Render(argPreview(argsJSON)))
}

// ToolResult prints the one-line summary of a tool result.
func (c *Console) ToolResult(result string) {
	fmt.Fprintf(c.out, "  %s\n", c.styles.Dim.Render("⎿  "+resultPreview(result)))
}

// UnknownTool prints the marker line for a tool name the registry does not
// know.
func (c *Console) UnknownTool(name string) {
	fmt.Fprintf(c.out, "\n%s\n", c.styles.Green.Render("⏺ Unknown tool: "+name))
}

// BashLine prints one line of live shell output.
func (c *Console) BashLine(line string) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	fmt.Fprintf(c.out, "  %s\n", c.styles.Dim.Render("│ "+line))
}

// TurnError reports a fault that aborted the current turn.
func (c *Console) TurnError(err error) {
	fmt.Fprintln(c.out, c.styles.Red.Render(fmt.Sprintf("⏺ Error: %v", err)))
}

// Interrupted reports that the current turn was abandoned by the user.
func (c *Console) Interrupted() {
	fmt.Fprintln(c.out, c.styles.Red.Render("⏺ Interrupted"))
}

// Cleared confirms a conversation reset.
func (c *Console) Cleared() {
	fmt.Fprintln(c.out, c.styles.Green.Render("⏺ Cleared conversation"))
}

// Newline ends the current turn's output block.
func (c *Console) Newline() {
	fmt.Fprintln(c.out)
}

// StartIndicator begins the loading animation on this console's writer.
func (c *Console) StartIndicator() *Indicator {
	return StartIndicator(c.out)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}

// argPreview extracts the first argument value, in wire order, from a JSON
// object and truncates it for display. Malformed or empty argument text
// previews as empty.
func argPreview(argsJSON string) string {
	dec := json.NewDecoder(strings.NewReader(argsJSON))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}
	if !dec.More() {
		return ""
	}
	if _, err := dec.Token(); err != nil {
		return ""
	}
	var value any
	if err := dec.Decode(&value); err != nil {
		return ""
	}
	return runewidth.Truncate(previewString(value), argPreviewWidth, "")
}

func previewString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return "null"
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// resultPreview reduces a tool result to one display line: the first line
// truncated to 60 cells, annotated with the count of remaining lines, or
// an ellipsis when the line itself was cut.
func resultPreview(result string) string {
	lines := strings.Split(result, "\n")
	preview := runewidth.Truncate(lines[0], resultPreviewWidth, "")
	if len(lines) > 1 {
		preview += fmt.Sprintf(" ... +%d lines", len(lines)-1)
	} else if preview != lines[0] {
		preview += "..."
	}
	return preview
}
