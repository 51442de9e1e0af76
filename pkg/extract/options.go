package extract

import (
	"fmt"
	"strings"
)

// PlainTextPolicy selects how numbers are found in plain messages.
type PlainTextPolicy string

const (
	// PlainTextLocale matches locale-shaped numbers, so "150,00" is 150.
	PlainTextLocale PlainTextPolicy = "locale"
	// PlainTextLegacy matches `\d+(\.\d{2})?` before normalizing, so "12.50"
	// becomes 1250.
	PlainTextLegacy PlainTextPolicy = "legacy"
)

// AttachmentPolicy selects whether attachments are read at all.
type AttachmentPolicy string

const (
	AttachmentsExtract AttachmentPolicy = "extract"
	// AttachmentsZero records attachment messages with a Zero amount
	// without reading the file.
	AttachmentsZero AttachmentPolicy = "zero"
)

// MissingPolicy selects the amount of an entry whose attachment file is absent.
type MissingPolicy string

const (
	MissingFlag MissingPolicy = "flag"
	MissingZero MissingPolicy = "zero"
)

// Options configures an Extractor.
type Options struct {
	DataDir     string
	PlainText   PlainTextPolicy
	Attachments AttachmentPolicy
	Missing     MissingPolicy
}

// DefaultOptions flags missing attachments and reads locale numbers.
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:     dataDir,
		PlainText:   PlainTextLocale,
		Attachments: AttachmentsExtract,
		Missing:     MissingFlag,
	}
}

// Validate fills empty policies with defaults and rejects unknown ones.
func (o *Options) Validate() error {
	o.PlainText = PlainTextPolicy(strings.ToLower(string(o.PlainText)))
	o.Attachments = AttachmentPolicy(strings.ToLower(string(o.Attachments)))
	o.Missing = MissingPolicy(strings.ToLower(string(o.Missing)))

	switch o.PlainText {
	case "":
		o.PlainText = PlainTextLocale
	case PlainTextLocale, PlainTextLegacy:
	default:
		return fmt.Errorf("unknown plain text policy %q", o.PlainText)
	}
	switch o.Attachments {
	case "":
		o.Attachments = AttachmentsExtract
	case AttachmentsExtract, AttachmentsZero:
	default:
		return fmt.Errorf("unknown attachment policy %q", o.Attachments)
	}
	switch o.Missing {
	case "":
		o.Missing = MissingFlag
	case MissingFlag, MissingZero:
	default:
		return fmt.Errorf("unknown missing attachment policy %q", o.Missing)
	}
	return nil
}
