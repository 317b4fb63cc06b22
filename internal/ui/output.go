// Package ui prints CLI status lines and assistant replies. Output to a
// terminal is colored and replies are rendered as markdown; anything else
// gets plain text.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/petasbytes/go-assistant/processor"
)

const wrapWidth = 100

type Printer struct {
	out  io.Writer
	rich bool
	md   *glamour.TermRenderer
}

// New returns a printer for w. Rich output is used when w is a terminal.
func New(w io.Writer) *Printer {
	rich := false
	if f, ok := w.(*os.File); ok {
		rich = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return NewWithMode(w, rich)
}

// NewWithMode returns a printer with rich output forced on or off.
func NewWithMode(w io.Writer, rich bool) *Printer {
	p := &Printer{out: w, rich: rich}
	if rich {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrapWidth),
			glamour.WithStylesFromJSONBytes([]byte(`{"document":{"margin":0}}`)),
		)
		if err == nil {
			p.md = r
		}
	}
	return p
}

func (p *Printer) line(c *color.Color, mark, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.rich {
		c.Fprintf(p.out, "%s %s\n", mark, msg)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", mark, msg)
}

func (p *Printer) Success(format string, args ...any) { p.line(successColor, "✓", format, args...) }
func (p *Printer) Error(format string, args ...any)   { p.line(errorColor, "✗", format, args...) }
func (p *Printer) Warning(format string, args ...any) { p.line(warningColor, "⚠", format, args...) }
func (p *Printer) Info(format string, args ...any)    { p.line(infoColor, "ℹ", format, args...) }

// Banner prints title in a rounded box.
func (p *Printer) Banner(title string) {
	if !p.rich {
		fmt.Fprintf(p.out, "== %s ==\n", title)
		return
	}
	fmt.Fprintln(p.out, bannerStyle.Render(title))
}

// ErrorBox prints a failure with its detail.
func (p *Printer) ErrorBox(title string, err error) {
	if !p.rich {
		fmt.Fprintf(p.out, "✗ %s: %v\n", title, err)
		return
	}
	fmt.Fprintln(p.out, errorBoxStyle.Render(errorColor.Sprint(title)+"\n\n"+err.Error()))
}

// Prompt prints the chat input prompt.
func (p *Printer) Prompt() {
	if p.rich {
		userColor.Fprint(p.out, "You")
		fmt.Fprint(p.out, ": ")
		return
	}
	fmt.Fprint(p.out, "You: ")
}

// Reply prints an assistant message, rendering markdown on terminals.
func (p *Printer) Reply(name string, m *processor.Message) {
	text := m.Text()
	if p.md != nil {
		if out, err := p.md.Render(text); err == nil {
			replyColor.Fprintf(p.out, "%s:\n", name)
			fmt.Fprint(p.out, out)
			return
		}
	}
	if p.rich {
		replyColor.Fprintf(p.out, "%s", name)
		fmt.Fprintf(p.out, ": %s\n", text)
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", name, text)
}

// Transcript prints every message of a thread, oldest first.
func (p *Printer) Transcript(msgs []processor.Message) {
	if len(msgs) == 0 {
		p.Info("thread is empty")
		return
	}
	for _, m := range msgs {
		stamp := m.CreatedAt.Local().Format("2006-01-02 15:04:05")
		text := strings.TrimSpace(m.Text())
		if p.rich {
			c := userColor
			if m.Role == processor.RoleAssistant {
				c = replyColor
			}
			fmt.Fprintf(p.out, "[%s] %s: %s\n", stamp, c.Sprint(m.Role), text)
			continue
		}
		fmt.Fprintf(p.out, "[%s] %s: %s\n", stamp, m.Role, text)
	}
}
