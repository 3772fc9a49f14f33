package format

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// lineWidth is the column the dotted message of an End line is padded to.
const lineWidth = 75

// defaultPart is hidden from End lines.
const defaultPart = "DefaultPart"

var (
	startStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	endStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	durationStyle = lipgloss.NewStyle().Bold(true)
	padStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// Printer writes indented, optionally colored trace lines.
// Writes are serialized so concurrent timers do not interleave within a line.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	styled bool
}

// NewPrinter returns a Printer writing to w. Styling is enabled only when w is
// a terminal and CLICOLOR is not 0.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: w, styled: isTerminal(w) && !ColorDisabled()}
}

// SetStyled forces styling on or off.
func (p *Printer) SetStyled(on bool) {
	p.mu.Lock()
	p.styled = on
	p.mu.Unlock()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) render(st lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return st.Render(s)
}

func (p *Printer) indent(depth int) string {
	return p.render(padStyle, Indent(2*depth))
}

// Start writes the line announcing a timer at depth.
func (p *Printer) Start(depth int, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s%s %s\n", p.indent(depth), p.render(startStyle, fmt.Sprintf("%-8s", "Start:")), msg)
}

// End writes the line closing a timer at depth, padding the message with dots
// so durations line up.
func (p *Printer) End(depth int, msg, part string, d time.Duration) {
	if part == defaultPart {
		part = ""
	}
	message := msg + " " + part
	if pad, width := lineWidth-2*depth, lipgloss.Width(message); width < pad {
		message += strings.Repeat(".", pad-width)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s%s %s%s\n",
		p.indent(depth),
		p.render(endStyle, fmt.Sprintf("%-8s", "End:")),
		message,
		p.render(durationStyle, Duration(d)))
}

// Trace writes a titled multi-line message at depth.
func (p *Printer) Trace(depth int, title, msg string) {
	msgIndent := Whitespace(2*depth + 2)
	var b strings.Builder
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimSuffix(msg, "\n"), "\n") {
		b.WriteString(msgIndent + line + "\n")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s%s: %s\n", p.indent(depth), p.render(startStyle, "StartMsg"), title)
	fmt.Fprintf(p.out, "%s%s\n", msgIndent, b.String())
	fmt.Fprintf(p.out, "%s%s: %s\n", p.indent(depth), p.render(endStyle, "EndMsg"), title)
}

// PartPercent writes "work->part: pct% total".
func (p *Printer) PartPercent(work, part string, pct float64, total time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s->%s: %.3f%% %s\n", work, part, pct, Duration(total))
}

// JobPercent writes "work->part->job: pct% total".
func (p *Printer) JobPercent(work, part, job string, pct float64, total time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s->%s->%s: %.3f%% %s\n", work, part, job, pct, Duration(total))
}
