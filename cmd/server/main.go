package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/yurifrl/chatledger/pkg/config"
	"github.com/yurifrl/chatledger/pkg/extract"
	"github.com/yurifrl/chatledger/pkg/ocr"
	"github.com/yurifrl/chatledger/pkg/pdftext"
	"github.com/yurifrl/chatledger/pkg/server"
	"github.com/yurifrl/chatledger/pkg/service"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "chatledger",
	})

	flags := pflag.NewFlagSet("chatledger-server", pflag.ExitOnError)
	cfgFile := flags.StringP("config", "c", "", "Config file (default is ./chatledger.yaml)")
	flags.String("addr", "0.0.0.0:3000", "Listen address")
	flags.String("data-dir", "expenses/data", "Directory holding attachments referenced by uploads")
	flags.String("log-level", "info", "Log level")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Build(*cfgFile, flags)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Fatal("server error", "err", err)
	}
}

// run serves until ctx is canceled.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	opts := cfg.ExtractOptions()
	var images extract.ImageReader
	if opts.Attachments != extract.AttachmentsZero {
		engine, err := ocr.New(ocr.Options{Languages: cfg.OCR.Languages, Preprocess: cfg.OCR.Preprocess}, logger)
		if err != nil {
			logger.Warn("ocr unavailable, image amounts will need verification", "err", err)
		} else {
			defer engine.Close()
			images = engine
		}
	}

	fs := afero.NewOsFs()
	extractor, err := extract.New(opts, fs, images, pdftext.New(logger), logger)
	if err != nil {
		return fmt.Errorf("invalid extraction settings: %w", err)
	}

	srv := server.New(cfg, service.NewProcessor(cfg, fs, extractor, logger), logger)

	logger.Info("starting server", "addr", cfg.Server.Addr)
	return srv.Start(ctx, cfg.Server.Addr)
}
