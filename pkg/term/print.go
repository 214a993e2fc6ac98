package term

import (
	"os"

	"github.com/mitchellh/colorstring"
)

// PrintTask announces a top-level step on stdout.
func PrintTask(msg string) {
	colorstring.Printf("[cyan]==> %s\n", msg)
}

// PrintSubtask announces a nested step on stdout.
func PrintSubtask(msg string) {
	colorstring.Printf("[blue]--> %s\n", msg)
}

// PrintError writes msg to stderr in red.
func PrintError(msg string) {
	colorstring.Fprintf(os.Stderr, "[red]%s\n", msg)
}
