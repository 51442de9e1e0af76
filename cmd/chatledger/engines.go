package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/yurifrl/chatledger/pkg/config"
	"github.com/yurifrl/chatledger/pkg/extract"
	"github.com/yurifrl/chatledger/pkg/ocr"
	"github.com/yurifrl/chatledger/pkg/pdftext"
)

// newExtractor wires the OCR and PDF engines into an Extractor. When OCR
// cannot start, images are still listed but flagged for verification.
func newExtractor(cfg *config.Config, fs afero.Fs, logger *log.Logger) (*extract.Extractor, func(), error) {
	opts := cfg.ExtractOptions()
	closeFn := func() {}

	var (
		images extract.ImageReader
		pdfs   extract.PDFReader
	)
	if opts.Attachments != extract.AttachmentsZero {
		engine, err := ocr.New(ocr.Options{Languages: cfg.OCR.Languages, Preprocess: cfg.OCR.Preprocess}, logger)
		if err != nil {
			logger.Warn("ocr unavailable, image amounts will need verification", "err", err)
		} else {
			images = engine
			closeFn = func() {
				if err := engine.Close(); err != nil {
					logger.Warn("failed to close ocr engine", "err", err)
				}
			}
		}
		pdfs = pdftext.New(logger)
	}

	ex, err := extract.New(opts, fs, images, pdfs, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return ex, closeFn, nil
}
