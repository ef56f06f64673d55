package ui

import (
	"fmt"
	"io"
	"os"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════════════════╗
    ║ ██╗ ██████╗  ██████╗██████╗  █████╗ ██╗    ██╗██╗     ███████╗██████╗  ║
    ║ ██║██╔════╝ ██╔════╝██╔══██╗██╔══██╗██║    ██║██║     ██╔════╝██╔══██╗ ║
    ║ ██║██║  ███╗██║     ██████╔╝███████║██║ █╗ ██║██║     █████╗  ██████╔╝ ║
    ║ ██║██║   ██║██║     ██╔══██╗██╔══██║██║███╗██║██║     ██╔══╝  ██╔══██╗ ║
    ║ ██║╚██████╔╝╚██████╗██║  ██║██║  ██║╚███╔███╔╝███████╗███████╗██║  ██║ ║
    ║ ╚═╝ ╚═════╝  ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝ ╚══╝╚══╝ ╚══════╝╚══════╝╚═╝  ╚═╝ ║
    ║            SOCIAL GRAPH CARTOGRAPHY - FOLLOW THE FOLLOWEES             ║
    ╚═══════════════════════════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = ansi(36)
	Yellow  = ansi(33)
	Red     = ansi(31)
	Green   = ansi(32)
	Magenta = ansi(35)
	Dim     = ansi(2)
)

// Stdout and Stderr receive the Print helpers' output
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func ansi(code int) func(string) string {
	return func(text string) string {
		return fmt.Sprintf("\033[%dm%s\033[0m", code, text)
	}
}

// DisableColor makes the color functions return their input unchanged
func DisableColor() {
	plain := func(text string) string { return text }
	Cyan, Yellow, Red, Green, Magenta, Dim = plain, plain, plain, plain, plain, plain
}

func PrintLogo() {
	fmt.Fprint(Stdout, Cyan(ASCIILogo))
}

// PrintError writes msg to Stderr, followed by the first detail if any
func PrintError(msg string, detail ...interface{}) {
	fmt.Fprintln(Stderr, Red(withDetail(msg, detail)))
}

func PrintWarning(msg string, detail ...interface{}) {
	fmt.Fprintln(Stderr, Yellow(withDetail(msg, detail)))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(Stdout, Green(msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Stdout, "%s: %s\n", Cyan(label), Yellow(value))
}

func withDetail(msg string, detail []interface{}) string {
	if len(detail) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, detail[0])
}
