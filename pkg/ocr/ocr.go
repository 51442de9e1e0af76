// Package ocr recognizes text in payment screenshots with Tesseract.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// minHeight is the image height below which screenshots are upscaled before
// recognition.
const minHeight = 800

type Options struct {
	Languages  []string
	Preprocess bool
}

// Engine wraps one long-lived Tesseract client. Tesseract clients are not safe
// for concurrent use, so calls are serialized.
type Engine struct {
	mu         sync.Mutex
	client     *gosseract.Client
	preprocess bool
	logger     *log.Logger
}

// New initializes the Tesseract client once for the whole run.
func New(opts Options, logger *log.Logger) (*Engine, error) {
	client := gosseract.NewClient()
	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set ocr languages %v: %w", langs, err)
	}
	return &Engine{
		client:     client,
		preprocess: opts.Preprocess,
		logger:     logger,
	}, nil
}

// ReadImage returns the recognized text of the image at path.
func (e *Engine) ReadImage(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.preprocess {
		data, err := preprocess(path)
		if err != nil {
			return "", err
		}
		if err := e.client.SetImageFromBytes(data); err != nil {
			return "", fmt.Errorf("ocr set image: %w", err)
		}
	} else if err := e.client.SetImage(path); err != nil {
		return "", fmt.Errorf("ocr set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	e.logger.Debug("image recognized", "path", path, "chars", len(text))
	return text, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

// preprocess converts the image to grayscale and upscales small screenshots,
// which noticeably improves recognition of receipt digits.
func preprocess(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minHeight {
		gray = imaging.Resize(gray, 0, 1200, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
