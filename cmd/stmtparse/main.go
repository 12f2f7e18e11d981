package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"spendbook/internal/categorize"
	"spendbook/internal/logger"
	"spendbook/internal/merchant"
	"spendbook/internal/parser"
	"spendbook/internal/version"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow, color.Bold)
	bold   = color.New(color.Bold)
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		extractor string
		rulesPath string
		debug     bool
	)

	cmd := &cobra.Command{
		Use:     "stmtparse <statement.csv|statement.pdf>",
		Short:   "Parse a bank statement offline and print the transactions found",
		Version: version.Get().String(),
		Args:    cobra.ExactArgs(1),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if debug {
				level = "debug"
			}
			ctx := logger.WithLogger(context.Background(), logger.New(os.Stderr, level))

			ext, err := parser.ExtractorByName(extractor)
			if err != nil {
				return err
			}
			rules, err := categorize.Load(rulesPath)
			if err != nil {
				return err
			}
			return run(ctx, args[0], parser.DefaultRegistry(ext), rules)
		},
	}

	cmd.Flags().StringVar(&extractor, "extractor", "native", "PDF text extractor: native or pdftotext")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "additional category rules YAML file")
	cmd.Flags().BoolVar(&debug, "debug", false, "log parser decisions to stderr")
	return cmd
}

func run(ctx context.Context, path string, registry *parser.Registry, rules *categorize.Engine) error {
	p, ok := registry.ForFile(path)
	if !ok {
		return fmt.Errorf("unsupported file type %q (want .csv or .pdf)", filepath.Ext(path))
	}

	result, err := p.Parse(ctx, path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	bold.Printf("File:   %s (%s parser)\n", filepath.Base(path), p.Name())
	if result.Period != nil {
		fmt.Printf("Period: %s to %s\n", result.Period.Start.Format("2006-01-02"), result.Period.End.Format("2006-01-02"))
	}
	if result.Warning != "" {
		yellow.Printf("Warning: %s\n", result.Warning)
	}
	fmt.Printf("Transactions: %d   Unmatched lines: %d\n\n", len(result.Transactions), result.UnmatchedLines)

	var debits, credits decimal.Decimal
	for _, txn := range result.Transactions {
		category := categorize.Rule{Category: "Uncategorized"}
		if rule, ok := rules.Match(txn.Merchant); ok {
			category = rule
		}

		amount := fmt.Sprintf("%10s", txn.Amount.StringFixed(2))
		fmt.Printf("  %s | ", txn.PostedDate)
		if txn.Amount.IsNegative() {
			red.Print(amount)
			debits = debits.Add(txn.Amount)
		} else {
			green.Print(amount)
			credits = credits.Add(txn.Amount)
		}
		fmt.Printf(" | %-14s | %-25s | %s\n", truncate(category.Category, 14), truncate(merchant.RefineName(txn.Merchant), 25), txn.Merchant)
	}

	fmt.Println()
	fmt.Printf("  Total debits:  %s\n", red.Sprint(debits.StringFixed(2)))
	fmt.Printf("  Total credits: %s\n", green.Sprint(credits.StringFixed(2)))
	fmt.Printf("  Net:           %s\n", debits.Add(credits).StringFixed(2))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
