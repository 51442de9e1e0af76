package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/yurifrl/chatledger/pkg/models"
	"github.com/yurifrl/chatledger/pkg/parser"
)

var (
	// ErrAttachmentUnavailable means the referenced file is not in the data dir.
	ErrAttachmentUnavailable = errors.New("attachment unavailable")
	// ErrExtraction means an engine failed or its text held no amount.
	ErrExtraction = errors.New("amount extraction failed")
)

// ImageReader recognizes the text of an image file.
type ImageReader interface {
	ReadImage(ctx context.Context, path string) (string, error)
}

// PDFReader returns the concatenated page text of a PDF file.
type PDFReader interface {
	ReadPDF(ctx context.Context, path string) (string, error)
}

// Result is the outcome of extracting one message. Err records why an amount
// was flagged and is informational only.
type Result struct {
	Amount  models.Amount
	Message string
	Path    string
	Err     error
}

// Extractor derives amounts from plain messages and attachment files.
type Extractor struct {
	opts   Options
	fs     afero.Fs
	images ImageReader
	pdfs   PDFReader
	logger *log.Logger
}

// New builds an Extractor. fs is used to check that attachments exist; the
// engines receive the resolved path.
func New(opts Options, fs afero.Fs, images ImageReader, pdfs PDFReader, logger *log.Logger) (*Extractor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Extractor{
		opts:   opts,
		fs:     fs,
		images: images,
		pdfs:   pdfs,
		logger: logger,
	}, nil
}

// Resolve maps the message's attachment name into the data directory.
func (e *Extractor) Resolve(message string) string {
	name := parser.AttachmentName(message)
	if name == "" {
		return ""
	}
	return filepath.Join(e.opts.DataDir, name)
}

// Extract returns the amount of a classified message. It never fails: engine
// errors and missing files become NeedsVerification.
func (e *Extractor) Extract(ctx context.Context, kind models.AttachmentKind, message string) Result {
	switch kind {
	case models.AttachmentImage, models.AttachmentPdf:
		return e.extractAttachment(ctx, kind, message)
	default:
		return Result{Amount: e.plainAmount(message), Message: message}
	}
}

func (e *Extractor) plainAmount(message string) models.Amount {
	raw := FindPlainAmount(message, e.opts.PlainText)
	if raw == "" {
		return models.Zero()
	}
	v, err := Normalize(raw)
	if err != nil {
		e.logger.Debug("plain text number did not normalize", "raw", raw, "err", err)
		return models.Zero()
	}
	return models.Numeric(v)
}

func (e *Extractor) extractAttachment(ctx context.Context, kind models.AttachmentKind, message string) Result {
	path := e.Resolve(message)
	res := Result{Message: message, Path: path}

	if e.opts.Attachments == AttachmentsZero {
		res.Amount = models.Zero()
		return res
	}

	if ok, _ := afero.Exists(e.fs, path); !ok {
		res.Err = fmt.Errorf("%w: %s", ErrAttachmentUnavailable, path)
		if e.opts.Missing == MissingZero {
			res.Amount = models.Zero()
		} else {
			res.Amount = models.NeedsVerification()
		}
		e.logger.Warn("attachment not found", "path", path, "amount", res.Amount.Kind())
		return res
	}

	text, err := e.read(ctx, kind, path)
	if err != nil {
		res.Amount = models.NeedsVerification()
		res.Err = fmt.Errorf("%w: %s: %v", ErrExtraction, path, err)
		e.logger.Warn("error processing attachment", "path", path, "err", err)
		return res
	}

	text = strings.Join(strings.Fields(text), " ")
	res.Message = fmt.Sprintf("%s OCR: %s (Image path: %s)", message, text, path)

	raw := FindCurrencyAmount(text)
	if raw == "" {
		res.Amount = models.NeedsVerification()
		res.Err = fmt.Errorf("%w: no currency amount in %s", ErrExtraction, path)
		e.logger.Debug("no currency amount recognized", "path", path)
		return res
	}
	v, err := Normalize(raw)
	if err != nil {
		res.Amount = models.NeedsVerification()
		res.Err = fmt.Errorf("%w: %v", ErrExtraction, err)
		return res
	}
	res.Amount = models.Numeric(v)
	return res
}

// read calls the engine for kind, turning engine panics into errors.
func (e *Extractor) read(ctx context.Context, kind models.AttachmentKind, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch kind {
	case models.AttachmentPdf:
		if e.pdfs == nil {
			return "", errors.New("no pdf reader configured")
		}
		return e.pdfs.ReadPDF(ctx, path)
	default:
		if e.images == nil {
			return "", errors.New("no image reader configured")
		}
		return e.images.ReadImage(ctx, path)
	}
}
