package parser

import (
	"path/filepath"
	"strings"

	"github.com/yurifrl/chatledger/pkg/models"
)

var (
	skipMarkers  = []string{"STK-", "PTT-"}
	imageMarkers = []string{"IMG-", "Comprobante_"}
)

// Classify decides the attachment kind of a message body. Stickers and voice
// notes win over image markers so that they never reach extraction.
func Classify(message string) models.AttachmentKind {
	if containsAny(message, skipMarkers) {
		return models.AttachmentSkip
	}
	if containsAny(message, imageMarkers) {
		if strings.EqualFold(filepath.Ext(AttachmentName(message)), ".pdf") {
			return models.AttachmentPdf
		}
		return models.AttachmentImage
	}
	return models.AttachmentNone
}

// AttachmentName is the first whitespace-delimited token of a message, which
// exports use as the attached file name.
func AttachmentName(message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
