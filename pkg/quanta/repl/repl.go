package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/sambeau/quanta/pkg/quanta/errors"
	"github.com/sambeau/quanta/pkg/quanta/metric"
	"github.com/sambeau/quanta/pkg/quanta/symbolic"
)

const PROMPT = ">> "
const PROMPT_STRICT = "!> "

const QUANTA_LOGO = `
█▀█ █░█ ▄▀█ █▄░█ ▀█▀ ▄▀█
▀▀█ █▄█ █▀█ █░▀█ ░█░ █▀█ `

// completionWords seeds tab completion with common unit symbols,
// quantity names, and REPL commands. Quantity names load lazily on
// first completion because the reference tables are not needed until
// then.
var completionWords = []string{
	// Commands
	":help", ":systems", ":quantities", ":units", ":strict",
	// Conversion keywords
	"to", "as", "mks", "cgs",
	// Common unit symbols
	"m", "cm", "km", "au", "s", "min", "h", "d", "kg", "g", "nuc",
	"J", "erg", "eV", "MeV", "GeV", "N", "dyn", "Pa", "W", "Hz", "K",
	"T", "G", "A", "V", "C", "rad", "deg", "sr",
}

var quantityCompletions []string

// Start runs the interactive loop with line editing, history, and tab
// completion.
func Start(in io.Reader, out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	line.SetCompleter(func(line string) []string {
		return filterCompletions(line)
	})

	// Load command history from file
	historyFile := filepath.Join(os.TempDir(), ".quanta_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history on exit
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "%s", QUANTA_LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	strict := false
	prompt := PROMPT

	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Fprintln(out, "^C")
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "exit" || trimmed == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			strict = handleCommand(trimmed, out, strict)
			if strict {
				prompt = PROMPT_STRICT
			} else {
				prompt = PROMPT
			}
			continue
		}

		line.AppendHistory(trimmed)
		Eval(out, trimmed, strict)
	}
}

// Eval evaluates one line of input: a conversion request, a dimension
// query, or a bare unit or symbolic expression.
func Eval(out io.Writer, input string, strict bool) {
	if source, target, quantity, ok := splitConversion(input); ok {
		evalConversion(out, source, target, quantity)
		return
	}
	if rest, ok := strings.CutPrefix(input, "dim "); ok {
		evalDimension(out, strings.TrimSpace(rest))
		return
	}
	evalExpression(out, input, strict)
}

// splitConversion recognizes 'SOURCE to TARGET [as QUANTITY]'. The
// target may be a unit or a metric system.
func splitConversion(input string) (source, target, quantity string, ok bool) {
	i := strings.Index(input, " to ")
	if i < 0 {
		return "", "", "", false
	}
	source = strings.TrimSpace(input[:i])
	rest := strings.TrimSpace(input[i+len(" to "):])
	if j := strings.Index(rest, " as "); j >= 0 {
		quantity = strings.TrimSpace(rest[j+len(" as "):])
		rest = strings.TrimSpace(rest[:j])
	}
	target = rest
	return source, target, quantity, source != "" && target != ""
}

func evalConversion(out io.Writer, source, target, quantity string) {
	conversion, err := metric.Convert(metric.Standardize(source), target, quantity)
	if err != nil {
		printError(out, err)
		return
	}
	fmt.Fprintf(out, "%s = %g %s\n", conversion.U0, conversion.Factor, conversion.U1)
}

func evalDimension(out io.Writer, input string) {
	unit, err := metric.NewUnit(metric.Standardize(input))
	if err != nil {
		printError(out, err)
		return
	}
	for _, system := range metric.Systems {
		dimension := unit.Dimensions()[system]
		if dimension == nil {
			fmt.Fprintf(out, "  %s: undefined\n", system)
			continue
		}
		fmt.Fprintf(out, "  %s: %s\n", system, dimension.Format())
	}
}

func evalExpression(out io.Writer, input string, strict bool) {
	// Try the input as a unit first so 'kg m^2 / s^2' reports its
	// physical quantity; fall back to plain symbolic reduction.
	if unit, err := metric.NewUnit(metric.Standardize(input)); err == nil {
		fmt.Fprintf(out, "%s\n", unit.Format())
		if quantity, err := unit.Quantity(); err == nil {
			name := strings.ReplaceAll(quantity.Format(), "_", " ")
			fmt.Fprintf(out, "  quantity: %s\n", name)
		}
		return
	}
	order := symbolic.OrderIgnore
	if strict {
		order = symbolic.OrderError
	}
	expr, err := symbolic.NewExpressionWith(input, order)
	if err != nil {
		printError(out, err)
		return
	}
	fmt.Fprintf(out, "%s\n", expr.Format())
}

// handleCommand handles REPL meta-commands that start with ':'.
// Returns the new strict-mode setting.
func handleCommand(cmd string, out io.Writer, strict bool) bool {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :systems        List the known metric systems")
		fmt.Fprintln(out, "  :quantities     List the known physical quantities")
		fmt.Fprintln(out, "  :units          List the known base units")
		fmt.Fprintln(out, "  :strict         Toggle strict operator ordering")
		fmt.Fprintln(out, "  exit, quit      Exit the REPL")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Input:")
		fmt.Fprintln(out, "  km / h              Reduce a unit expression")
		fmt.Fprintln(out, "  km / h to m / s     Convert between units")
		fmt.Fprintln(out, "  cm / s to mks as velocity")
		fmt.Fprintln(out, "                      Convert to a metric system")
		fmt.Fprintln(out, "  dim J               Show a unit's dimensions")
		return strict

	case ":systems":
		for _, system := range metric.Systems {
			fmt.Fprintf(out, "  %s\n", system)
		}
		return strict

	case ":quantities":
		for _, name := range metric.QuantityNames() {
			fmt.Fprintf(out, "  %s\n", name)
		}
		return strict

	case ":units":
		for _, unit := range metric.BaseUnits() {
			fmt.Fprintf(out, "  %-6s %s\n", unit.Symbol, unit.Name)
		}
		return strict

	case ":strict":
		if !strict {
			fmt.Fprintln(out, "Strict mode ON ('a / b / c' is now an error)")
		} else {
			fmt.Fprintln(out, "Strict mode OFF")
		}
		return !strict

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
		return strict
	}
}

// filterCompletions returns completion suggestions based on the last
// word of the current input.
func filterCompletions(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}
	words := strings.Fields(line)
	lastWord := words[len(words)-1]

	if quantityCompletions == nil {
		quantityCompletions = metric.QuantityNames()
	}
	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, word)
		}
	}
	for _, word := range quantityCompletions {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, word)
		}
	}
	return matches
}

// printError prints a structured error with hints, or a plain error
// otherwise.
func printError(out io.Writer, err error) {
	var qe *errors.QuantaError
	if ok := errorAs(err, &qe); ok {
		io.WriteString(out, qe.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}

func errorAs(err error, target **errors.QuantaError) bool {
	for err != nil {
		if qe, ok := err.(*errors.QuantaError); ok {
			*target = qe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
