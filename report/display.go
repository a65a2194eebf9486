package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightCyan
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
)

// PrintErrorMessage prints a standard Go error to the console with a tag.
func PrintErrorMessage(tag string, err error) {
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintInfoMessage prints an informational message to the user.
func PrintInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// -----------------------------------------------------------------------------

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	ErrorStyleBG.Print("internal compiler error")
	ErrorColorFG.Println(" " + message)
	fmt.Print("This error was not supposed to happen: please open an issue.\n\n")
}

// displayPhase displays a verbose phase message.
func displayPhase(phase, message string) {
	SuccessStyleBG.Print(phase)
	fmt.Println(" " + message)
}

// displayStdError displays a standard Go error.
func displayStdError(err error) {
	PrintErrorMessage("error", err)
}

// displayCompileMessage displays a compilation error or warning: a banner
// naming the kind and file, the message, and the offending source text if the
// file can be read.
func displayCompileMessage(ce *CompileError, isError bool) {
	displayBanner(ce, isError)

	if pos := ce.Span.Position(); pos.Known() {
		fmt.Printf("%s: %s\n", pos, ce.Message)
	} else {
		fmt.Println(ce.Message)
	}

	if ce.Span != nil && ce.File != "" {
		displaySourceText(ce.File, ce.Span)
	}

	fmt.Println()
}

// displayBanner displays the banner on top of all compilation messages.
func displayBanner(ce *CompileError, isError bool) {
	fmt.Print("\n-- ")

	kindStr := ce.Kind.String()
	kindLen := len(kindStr)
	if isError {
		ErrorStyleBG.Print(kindStr + " Error")
		kindLen += 6
	} else {
		WarnStyleBG.Print(kindStr + " Warning")
		kindLen += 8
	}

	fmt.Print(" ")

	fileName := filepath.Base(ce.File)
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}

	dashCount := bannerLen - len(fileName) - kindLen - 1
	if dashCount < 2 {
		dashCount = 2
	}

	fmt.Print(strings.Repeat("-", dashCount) + " ")
	InfoColorFG.Println(fileName)
}

// displaySourceText displays a segment of source text defined by a text span.
// Files that cannot be read are silently skipped: the message itself already
// carries the position.
func displaySourceText(path string, span *TextSpan) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	// Collect all the source lines containing the given source text.
	var lines []string
	sc := bufio.NewScanner(file)
	for ln := 0; sc.Scan(); ln++ {
		if span.StartLine <= ln && ln <= span.EndLine {
			lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
		}
	}

	if sc.Err() != nil || len(lines) == 0 {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt
	for _, line := range lines {
		lineIndent := len(line) - len(strings.TrimLeft(line, " "))
		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	fmt.Println()
	for i, line := range lines {
		fmt.Printf(lineNumFmtStr, i+span.StartLine+1)
		fmt.Println(line[minIndent:])

		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		// Underlining starts at the start column on the first line and at the
		// trimmed indentation on every other line.
		prefix := 0
		if i == 0 {
			prefix = span.StartCol - minIndent
		}

		// Underlining stops after the end column on the last line.
		end := len(line) - minIndent
		if i == len(lines)-1 && span.EndCol+1-minIndent < end {
			end = span.EndCol + 1 - minIndent
		}

		if prefix < 0 {
			prefix = 0
		}

		if end > prefix {
			fmt.Print(strings.Repeat(" ", prefix))
			ErrorColorFG.Println(strings.Repeat("^", end-prefix))
		} else {
			fmt.Println()
		}
	}
}
