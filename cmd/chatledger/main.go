package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yurifrl/chatledger/pkg/config"
	"github.com/yurifrl/chatledger/pkg/parser"
	"github.com/yurifrl/chatledger/pkg/plan"
	"github.com/yurifrl/chatledger/pkg/prompt"
	"github.com/yurifrl/chatledger/pkg/service"
	"github.com/yurifrl/chatledger/pkg/source"
	"github.com/yurifrl/chatledger/pkg/task"
)

var (
	cfgFile    string
	startDate  string
	endDate    string
	inspectMax int
)

var rootCmd = &cobra.Command{
	Use:          "chatledger",
	Short:        "Build an expense ledger from an exported chat transcript",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the ledger workbook for a date range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		start, end, err := prompt.DateRange(startDate, endDate, cfg.Dates.RangeLayout, bufio.NewReader(os.Stdin), os.Stdout)
		if err != nil {
			return err
		}

		extractor, closeEngines, err := newExtractor(cfg, afero.NewOsFs(), logger)
		if err != nil {
			return err
		}
		defer closeEngines()

		processor := service.NewProcessor(cfg, afero.NewOsFs(), extractor, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		t := task.Start(ctx, func(ctx context.Context) (*service.Result, error) {
			return processor.Process(ctx, start, end)
		})
		logger.Debug("report task started", "task", t.ID())

		res, err := t.Await(ctx, time.Second, func(elapsed time.Duration) {
			renderProgress(os.Stderr, elapsed, processor.Processed())
		})
		clearProgress(os.Stderr)
		if err != nil {
			if ctx.Err() != nil {
				// Let the worker observe cancellation before exiting.
				_, _ = t.Wait(context.Background())
				return fmt.Errorf("report canceled")
			}
			return err
		}

		renderResult(os.Stdout, res)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [transcript]",
	Short: "Dump the parsed transcript records and line counters",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		path := ""
		if len(args) == 1 {
			path = args[0]
		} else if path, err = source.Find(afero.NewOsFs(), cfg.DataDir, cfg.Pattern); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read transcript: %w", err)
		}

		records, stats, err := parser.New(logger).ProcessBytes(data)
		if err != nil {
			return err
		}

		type inspected struct {
			Line    int
			Date    string
			Sender  string
			Kind    string
			Message string
		}
		for i, r := range records {
			if inspectMax > 0 && i >= inspectMax {
				fmt.Printf("... %d more\n", len(records)-inspectMax)
				break
			}
			pp.Println(inspected{
				Line:    r.Line,
				Date:    r.Date,
				Sender:  r.Sender,
				Kind:    parser.Classify(r.Message).String(),
				Message: r.Message,
			})
		}
		fmt.Printf("\n%s: %d lines, %d records, %d dropped\n", path, stats.Lines, stats.Records, stats.Dropped)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Build one report per period listed in a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planPath := args[0]

		p, err := plan.Load(planPath)
		if err != nil {
			return err
		}

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		fmt.Printf("Plan %s\n", planPath)
		p.Print(os.Stdout)

		extractor, closeEngines, err := newExtractor(cfg, afero.NewOsFs(), logger)
		if err != nil {
			return err
		}
		defer closeEngines()

		processor := service.NewProcessor(cfg, afero.NewOsFs(), extractor, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results, err := processor.ProcessPlan(ctx, p)
		for i := range results {
			fmt.Println()
			fmt.Println(headerStyle.Render(results[i].Name))
			renderResult(os.Stdout, &results[i])
		}
		return err
	},
}

func newLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "chatledger",
		Level:           cfg.Level(),
	})
}

func init() {
	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Config file (default is ./chatledger.yaml)")
	pf.String("data-dir", source.DefaultDir, "Directory holding the transcript and its attachments")
	pf.String("pattern", source.DefaultPattern, "Glob used to find the transcript in the data dir")
	pf.StringP("output", "o", "expenses/chat_whatsapp.xlsx", "Output file")
	pf.String("format", "xlsx", "Output format: xlsx or csv")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("range-layout", parser.DefaultRangeLayout, "Go time layout of --start/--end")
	pf.String("transcript-order", string(parser.OrderMonthDay), "Transcript date order: mdy or dmy")
	pf.String("plain-text", "locale", "Plain message number policy: locale or legacy")
	pf.String("attachments", "extract", "Attachment policy: extract or zero")
	pf.String("missing", "flag", "Missing attachment policy: flag or zero")
	pf.StringSlice("ocr-lang", []string{"eng"}, "Tesseract languages")

	// Flags specific to the report subcommand
	reportCmd.Flags().StringVar(&startDate, "start", "", "Start date (prompted when empty)")
	reportCmd.Flags().StringVar(&endDate, "end", "", "End date (prompted when empty)")

	inspectCmd.Flags().IntVarP(&inspectMax, "limit", "n", 0, "Print at most n records (0 = all)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
