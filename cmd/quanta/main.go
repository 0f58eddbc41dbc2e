package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sambeau/quanta/pkg/quanta/metric"
	"github.com/sambeau/quanta/pkg/quanta/repl"
	"github.com/sambeau/quanta/pkg/quanta/symbolic"
)

// Version is set at compile time via -ldflags
var Version = "0.3.0"

var (
	// Display flags
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	// Evaluation flags
	evalFlag       = flag.String("e", "", "Evaluate a unit or symbolic expression")
	evalLongFlag   = flag.String("eval", "", "Evaluate a unit or symbolic expression")
	strictFlag     = flag.Bool("strict", false, "Reject ambiguous operator sequences like 'a / b / c'")
	dimensionsFlag = flag.Bool("d", false, "Show dimensions of the evaluated unit")
	dimLongFlag    = flag.Bool("dimensions", false, "Show dimensions of the evaluated unit")
)

func main() {
	// Check for subcommands first (before flag parsing)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "convert":
			convertCommand(os.Args[2:])
			return
		case "units":
			unitsCommand()
			return
		case "quantities":
			quantitiesCommand()
			return
		}
	}

	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag || *versionLongFlag {
		fmt.Printf("quanta version %s\n", Version)
		os.Exit(0)
	}

	evalCode := *evalFlag
	if evalCode == "" {
		evalCode = *evalLongFlag
	}

	switch {
	case evalCode != "":
		executeInline(evalCode, *strictFlag, *dimensionsFlag || *dimLongFlag)
	case len(flag.Args()) > 0:
		// Treat a bare argument as an expression to evaluate
		executeInline(flag.Args()[0], *strictFlag, *dimensionsFlag || *dimLongFlag)
	default:
		repl.Start(os.Stdin, os.Stdout, Version)
	}
}

func printHelp() {
	fmt.Printf(`quanta - symbolic unit algebra and metric conversions version %s

Usage:
  quanta [options] [expression]
  quanta -e "expression"
  quanta convert <source> <target> [-q quantity]
  quanta units
  quanta quantities

Commands:
  convert               Convert between units, or to a metric system
  units                 List the known base units
  quantities            List the known physical quantities

Display Options:
  -h, --help            Show this help message
  -V, --version         Show version information

Evaluation Options:
  -e, --eval <expr>     Evaluate a unit or symbolic expression
  -d, --dimensions      Also show the unit's dimension in each system
  --strict              Reject ambiguous operator sequences ('a / b / c')

Examples:
  quanta                          Start the interactive REPL
  quanta "kg * m^2 / s^2"         Reduce an expression (outputs: m^2 kg s^-2)
  quanta -d "J"                   Show the joule and its dimensions
  quanta convert km/h "m / s"     Convert between units
  quanta convert eV erg           Use a defined conversion (1.6022e-12)
  quanta convert "cm / s" mks -q velocity
                                  Convert to a metric system
  quanta units                    List base units
  quanta quantities               List physical quantities

For more information, visit: https://github.com/sambeau/quanta
`, Version)
}

// convertCommand implements 'quanta convert <source> <target>'.
func convertCommand(args []string) {
	convertFlags := flag.NewFlagSet("convert", flag.ExitOnError)
	quantityFlag := convertFlags.String("q", "", "Physical quantity of the source unit")
	quantityLong := convertFlags.String("quantity", "", "Physical quantity of the source unit")

	convertFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, `quanta convert - convert between units or metric systems

Usage:
  quanta convert <source> <target> [options]

The target may be a unit expression or the name of a metric system
('mks' or 'cgs'). Converting to a system infers the physical quantity
from the source unit; pass -q when the unit is ambiguous.

Options:
  -q, --quantity <name>   Physical quantity of the source unit

Examples:
  quanta convert km m                 1000
  quanta convert eV erg               1.6022e-12
  quanta convert "cm / s" "m / s"     0.01
  quanta convert G mks                0.0001 (to tesla)
  quanta convert "cm / s" mks -q velocity
`)
	}

	positional, flagArgs := splitConvertArgs(args)
	if err := convertFlags.Parse(flagArgs); err != nil {
		os.Exit(1)
	}
	if len(positional) != 2 {
		fmt.Fprintln(os.Stderr, "Error: convert requires a source and a target")
		convertFlags.Usage()
		os.Exit(2)
	}

	quantity := *quantityFlag
	if quantity == "" {
		quantity = *quantityLong
	}

	source := metric.Standardize(positional[0])
	conversion, err := metric.Convert(source, positional[1], quantity)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	fmt.Printf("%g\n", conversion.Factor)
}

// splitConvertArgs separates positional arguments from -q/--quantity
// and its value, so both 'convert a b -q x' and 'convert -q x a b'
// work.
func splitConvertArgs(args []string) (positional, flagArgs []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "-q" || arg == "--quantity" {
			flagArgs = append(flagArgs, arg)
			if i+1 < len(args) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
			continue
		}
		positional = append(positional, arg)
	}
	return positional, flagArgs
}

// unitsCommand lists the base units.
func unitsCommand() {
	for _, unit := range metric.BaseUnits() {
		fmt.Printf("%-6s %-20s %s\n", unit.Symbol, unit.Name, unit.Quantity)
	}
}

// quantitiesCommand lists the defined physical quantities with their
// canonical units.
func quantitiesCommand() {
	for _, name := range metric.QuantityNames() {
		mks, err := metric.CanonicalUnit("mks", name)
		if err != nil {
			continue
		}
		cgs, err := metric.CanonicalUnit("cgs", name)
		if err != nil {
			continue
		}
		fmt.Printf("%-24s mks: %-12s cgs: %s\n", name, mks, cgs)
	}
}

// executeInline evaluates an expression provided via -e or as a bare
// argument.
func executeInline(code string, strict, dimensions bool) {
	input := metric.Standardize(code)
	if unit, err := metric.NewUnit(input); err == nil {
		fmt.Println(unit.Format())
		if dimensions {
			for _, system := range metric.Systems {
				dimension := unit.Dimensions()[system]
				if dimension == nil {
					fmt.Printf("  %s: undefined\n", system)
					continue
				}
				fmt.Printf("  %s: %s\n", system, dimension.Format())
			}
		}
		return
	}

	order := symbolic.OrderIgnore
	if strict {
		order = symbolic.OrderError
	}
	expr, err := symbolic.NewExpressionWith(input, order)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	fmt.Println(expr.Format())
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, err)
}
