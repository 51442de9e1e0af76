package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yurifrl/chatledger/pkg/models"
)

// lineRegex matches `<date>, <time> - <sender>: <message>`.
var lineRegex = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}), (\d{1,2}:\d{2}(?:\s?[AaPp]\.?\s?[Mm]\.?)?) - ([^:]+): (.*)$`)

// maxLineSize caps the bytes kept of one line. Longer lines are read to their
// end and dropped.
const maxLineSize = 1024 * 1024

// Scanner yields one RawRecord per matching transcript line. It reads lazily
// and cannot be restarted. Lines that do not match are dropped and counted;
// continuation lines of multi-line messages are lost this way.
type Scanner struct {
	rd      *bufio.Reader
	err     error
	record  models.RawRecord
	lines   int
	dropped int
	onDrop  func(line int, text string)
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{rd: bufio.NewReaderSize(r, 64*1024)}
}

// OnDrop registers a callback invoked for every non-blank line that does not
// match the transcript pattern.
func (s *Scanner) OnDrop(fn func(line int, text string)) {
	s.onDrop = fn
}

// Scan advances to the next matching line.
func (s *Scanner) Scan() bool {
	for {
		raw, tooLong, ok := s.readLine()
		if !ok {
			return false
		}
		s.lines++
		if tooLong {
			s.drop(fmt.Sprintf("%.80s... (line longer than %d bytes)", raw, maxLineSize))
			continue
		}
		text := cleanLine(raw)
		m := lineRegex.FindStringSubmatch(text)
		if m == nil {
			if strings.TrimSpace(text) != "" {
				s.drop(text)
			}
			continue
		}
		s.record = models.RawRecord{
			Date:    m[1],
			Time:    strings.TrimSpace(m[2]),
			Sender:  strings.TrimSpace(m[3]),
			Message: m[4],
			Line:    s.lines,
		}
		return true
	}
}

func (s *Scanner) drop(text string) {
	s.dropped++
	if s.onDrop != nil {
		s.onDrop(s.lines, text)
	}
}

// readLine returns the next line without its terminator. Bytes past
// maxLineSize are consumed and discarded, and tooLong is set.
func (s *Scanner) readLine() (line string, tooLong bool, ok bool) {
	if s.err != nil {
		return "", false, false
	}

	var buf []byte
	read := false
	for {
		chunk, isPrefix, err := s.rd.ReadLine()
		if err != nil {
			s.err = err
			if read && err == io.EOF {
				return string(buf), tooLong, true
			}
			return "", false, false
		}
		read = true
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
				buf = append(buf, chunk[:maxLineSize-len(buf)]...)
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, true
		}
	}
}

// Record returns the record produced by the last successful Scan.
func (s *Scanner) Record() models.RawRecord {
	return s.record
}

// Err returns the first read error, if any. End of input is not an error.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Lines is the number of lines read so far.
func (s *Scanner) Lines() int {
	return s.lines
}

// Dropped is the number of non-blank lines that did not match.
func (s *Scanner) Dropped() int {
	return s.dropped
}

// ParseAll collects every record in text.
func ParseAll(text string) ([]models.RawRecord, error) {
	var records []models.RawRecord
	sc := NewScanner(strings.NewReader(text))
	for sc.Scan() {
		records = append(records, sc.Record())
	}
	return records, sc.Err()
}
