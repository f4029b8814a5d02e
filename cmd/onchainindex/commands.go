package main

import (
	"fmt"
	"io"

	"onchain-index/internal/domain"
	"onchain-index/internal/report"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type renderFunc func(io.Writer, domain.IndicatorSnapshot) error

type outputOptions struct {
	path   string
	format string
}

func newRootCmd() *cobra.Command {
	opts := &outputOptions{}

	root := &cobra.Command{
		Use:   "onchainindex",
		Short: "Fetch Bitcoin on-chain indicators and compute the on-chain index",
		Long: `onchainindex fetches BTC price, fear & greed, Puell Multiple, NUPL, MVRV and
the UPDI short/medium/long readings, combines five of them into a single
on-chain index in [0, 1], prints the table and writes it to a CSV file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, opts)
		},
	}
	addOutputFlags(root, opts)

	root.AddCommand(newRunCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func addOutputFlags(cmd *cobra.Command, opts *outputOptions) {
	cmd.Flags().StringVarP(&opts.path, "output", "o", "", "CSV destination (defaults to OUTPUT_PATH)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "console format: csv or pretty")
}

func newRunCmd() *cobra.Command {
	opts := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch all indicators once and write the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, opts)
		},
	}
	addOutputFlags(cmd, opts)
	return cmd
}

func newShowCmd() *cobra.Command {
	var input, format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a previously written report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			render, err := rendererFor(format)
			if err != nil {
				return err
			}
			if input == "" {
				input = loadSettings().OutputPath
			}
			rows, err := report.ReadCSV(input)
			if err != nil {
				return err
			}
			snap, err := report.SnapshotFromRows(rows)
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}
			return render(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV report to read (defaults to OUTPUT_PATH)")
	cmd.Flags().StringVarP(&format, "format", "f", "pretty", "console format: csv or pretty")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "onchainindex %s\n", version)
		},
	}
}

func rendererFor(format string) (renderFunc, error) {
	switch format {
	case "", "csv":
		return report.RenderTable, nil
	case "pretty":
		return report.RenderPretty, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want csv or pretty)", format)
	}
}

// runCollect performs one full collection: fetch, print, write CSV.
func runCollect(cmd *cobra.Command, opts *outputOptions) error {
	render, err := rendererFor(opts.format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	path := opts.path
	if path == "" {
		path = a.cfg.OutputPath
	}

	snap, err := a.service.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect indicators: %w", err)
	}

	if err := render(cmd.OutOrStdout(), *snap); err != nil {
		return fmt.Errorf("print report: %w", err)
	}
	if err := report.WriteCSV(path, *snap); err != nil {
		return err
	}

	log.Info("report written", "path", path, "onchain_index", snap.OnChainIndex)
	return nil
}
