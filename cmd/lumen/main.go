// Command lumen is the CLI front end for the Lumen scripting language:
// it loads source from a file or stdin and either runs it, or (under
// debug_tokens/debug_expr) inspects the scanner/parser output. The CLI
// itself sits outside the interpreter core; its only contract with it is
// "here is a source string, scan+parse+run it (or just tokenize it, or
// just parse one expression)".
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/opalscript/lumen/internal/ast"
	"github.com/opalscript/lumen/internal/interp"
	"github.com/opalscript/lumen/internal/lexer"
	"github.com/opalscript/lumen/internal/parser"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "lumen [script]",
		Short:         "Run Lumen scripts",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				return err
			}
			return runSource(cmd, source, debug)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "print token stream and timing to stderr before running")

	root.AddCommand(newDebugTokensCmd())
	root.AddCommand(newDebugExprCmd())
	return root
}

func newDebugTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "debug_tokens [script]",
		Short:         "Scan the script and print its token stream",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				return err
			}
			tokens, err := lexer.New(source).Scan()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				return err
			}
			for _, t := range tokens {
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
			}
			return nil
		},
	}
}

func newDebugExprCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "debug_expr [script]",
		Short:         "Parse a single expression and print its pretty form",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				return err
			}
			tokens, err := lexer.New(source).Scan()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				return err
			}
			expr, err := parser.ParseExpression(tokens)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ast.Print(expr))
			return nil
		},
	}
}

func runSource(cmd *cobra.Command, source string, debug bool) error {
	scanStart := time.Now()
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	scanTime := time.Since(scanStart)
	if debug {
		for _, t := range tokens {
			fmt.Fprintln(os.Stderr, t.String())
		}
	}

	parseStart := time.Now()
	stmts, err := parser.ParseProgram(tokens)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	if debug {
		fmt.Fprintf(os.Stderr, "scan: %v, parse: %v\n", scanTime, time.Since(parseStart))
	}

	i := interp.New(cmd.OutOrStdout())
	if err := i.Run(stmts); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

// readSource reads script text from args[0] as a path, or from stdin
// when no path is given (spec.md §6).
func readSource(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
