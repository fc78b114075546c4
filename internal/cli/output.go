package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	skipColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	infoColor = color.New(color.FgCyan)
	dimColor  = color.New(color.Faint)
	boldColor = color.New(color.Bold)
)

func success(w io.Writer, format string, a ...interface{}) {
	okColor.Fprintf(w, "✓ "+format+"\n", a...)
}

func skipped(w io.Writer, format string, a ...interface{}) {
	skipColor.Fprintf(w, "~ "+format+"\n", a...)
}

func failure(w io.Writer, format string, a ...interface{}) {
	failColor.Fprintf(w, "✗ "+format+"\n", a...)
}

func heading(w io.Writer, format string, a ...interface{}) {
	boldColor.Fprintf(w, format+"\n", a...)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
