package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	titleColor   = color.New(color.FgMagenta, color.Bold)
)

// printer writes colored status lines to a command's output.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) Success(format string, args ...any) {
	successColor.Fprintf(p.w, "✔ "+format+"\n", args...)
}

func (p *printer) Error(format string, args ...any) {
	errorColor.Fprintf(p.w, "✖ "+format+"\n", args...)
}

func (p *printer) Warning(format string, args ...any) {
	warningColor.Fprintf(p.w, "! "+format+"\n", args...)
}

func (p *printer) Info(format string, args ...any) {
	infoColor.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Title(format string, args ...any) {
	titleColor.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Separator() {
	fmt.Fprintln(p.w, strings.Repeat("─", 60))
}
