// cmd/shotc/main.go
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"

	"shotcompile/internal/compileerr"
	"shotcompile/internal/device"
	"shotcompile/internal/shot"
	"shotcompile/internal/shotfile"
	"shotcompile/internal/typedexpr"
)

const VERSION = "0.1.0"

// Command aliases mapping, same shape as the teacher's cmd/sentra
// dispatch table.
var commandAliases = map[string]string{
	"c": "compile",
	"k": "check",
	"v": "version",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "compile":
		runCompile(args[1:])
	case "check":
		runCheck(args[1:])
	default:
		suggestCommand(cmd)
	}
}

func showUsage() {
	fmt.Println("shotc - laboratory shot-sequence compiler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  shotc compile <shot.json> [device]   Compile a shot file          (alias: c)")
	fmt.Println("  shotc check <expr>                   Type-check one expression    (alias: k)")
	fmt.Println("  shotc version                         Show version                 (alias: v)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  shotc compile experiment.json")
	fmt.Println("  shotc compile experiment.json ttl_card")
	fmt.Println(`  shotc check "2 * (1 MHz + f_rabi)"`)
}

func showVersion() {
	fmt.Printf("shotc %s\n", VERSION)
}

// runCompile reads a shot file and compiles it, either in full (printing
// a summary per device) or for a single named device when one is given.
func runCompile(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: shotc compile <shot.json> [device]")
		os.Exit(1)
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	doc, err := shotfile.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	s, err := shotfile.Build(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args) >= 2 {
		compiled, err := shot.CompileDevice(args[1], s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		describeDevice(args[1], compiled)
		return
	}

	report, err := shot.Compile(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("run %s: %d device(s) compiled\n", report.RunID, len(report.Devices))
	names := make([]string, 0, len(report.Devices))
	for name := range report.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		describeDevice(name, report.Devices[name])
	}
}

// describeDevice prints one compiled device's sequence length and
// per-channel tick count, the way cmd/sentra's "--version" banner
// reports its own VM performance figures in human-readable form.
func describeDevice(name string, c *device.Compiled) {
	fmt.Printf("  %s: %s, %s\n", name, formatTicks(c.Sequence.Len()), triggerLabel(c.Trigger))
	fieldNames := make([]string, 0, len(c.Fields))
	for field := range c.Fields {
		fieldNames = append(fieldNames, field)
	}
	sort.Strings(fieldNames)
	for _, field := range fieldNames {
		fmt.Printf("    %s: %s\n", field, formatTicks(c.Fields[field].Len()))
	}
}

func triggerLabel(t device.Trigger) string {
	switch v := t.(type) {
	case device.SoftwareTrigger:
		return "software trigger"
	case device.ExternalTriggerStart:
		return fmt.Sprintf("external trigger start (%s edge)", v.Edge)
	case device.ExternalClock:
		return fmt.Sprintf("external clock (%s edge)", v.Edge)
	case device.ExternalClockOnChange:
		return fmt.Sprintf("external clock on change (%s edge)", v.Edge)
	default:
		return "unknown trigger"
	}
}

// runCheck parses and type-checks a single expression with no parameter
// schema beyond the reserved "t" identifier, reporting its inferred type
// (spec.md §6's grammar, exercised the same way cmd/sentra's "check"
// exercises the lexer/parser without running anything).
func runCheck(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, `Usage: shotc check "<expression>"`)
		os.Exit(1)
	}
	source := args[0]
	schema := typedexpr.NewSchema()
	expr, err := typedexpr.Compile(source, schema, true)
	if err != nil {
		if ce, ok := err.(*compileerr.Error); ok {
			fmt.Fprintf(os.Stderr, "%s\n", ce.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("%s: %s", source, expr.Kind())
	if expr.Kind() == typedexpr.KindQuantity {
		fmt.Printf(" (%s)", expr.Dim().Symbol())
	}
	if expr.ContainsTime() {
		fmt.Print(", time-dependent")
	}
	fmt.Println()
}

// formatTicks renders a tick count with its thousands-grouped form, the
// way SPEC_FULL.md's ambient logging section calls for
// (github.com/dustin/go-humanize, listed unused in the teacher's go.mod).
func formatTicks(n int64) string {
	return fmt.Sprintf("%s ticks", humanize.Comma(n))
}

// suggestCommand suggests similar commands when an unknown one is
// entered, adapted from cmd/sentra/main.go's Levenshtein-based lookup.
func suggestCommand(cmd string) {
	allCommands := []string{"compile", "check", "version", "help"}

	fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)

	var suggestions []string
	for _, c := range allCommands {
		if levenshteinDistance(cmd, c) <= 3 {
			suggestions = append(suggestions, c)
		}
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(os.Stderr, "\nDid you mean one of these?")
		for _, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  shotc %s\n", s)
		}
	}
	fmt.Fprintln(os.Stderr, "\nRun 'shotc help' to see all available commands")
	os.Exit(1)
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}
	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}
	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			matrix[i][j] = minInt(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(s1)][len(s2)]
}

func minInt(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
