package models

// RawRecord is one transcript line matched by the line pattern.
type RawRecord struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
	Line    int    `json:"line"`
}

// AttachmentKind classifies a message body by its attachment markers.
type AttachmentKind int

const (
	AttachmentNone AttachmentKind = iota
	AttachmentImage
	AttachmentPdf
	// AttachmentSkip marks stickers and voice notes, which never produce an entry.
	AttachmentSkip
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentImage:
		return "image"
	case AttachmentPdf:
		return "pdf"
	case AttachmentSkip:
		return "skip"
	default:
		return "none"
	}
}

// IsFile reports whether the kind references an attachment file.
func (k AttachmentKind) IsFile() bool {
	return k == AttachmentImage || k == AttachmentPdf
}
