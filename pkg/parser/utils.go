package parser

import "strings"

// cleanLine strips what chat exports commonly wrap around a line: a UTF-8 BOM,
// a trailing carriage return, directional marks, and the narrow no-break space
// some phones put between the time and the AM/PM marker.
func cleanLine(line string) string {
	line = strings.TrimPrefix(line, "\ufeff")
	line = strings.TrimRight(line, "\r")
	line = strings.ReplaceAll(line, "\u200e", "")
	line = strings.ReplaceAll(line, "\u200f", "")
	line = strings.ReplaceAll(line, "\u202f", " ")
	line = strings.ReplaceAll(line, "\u00a0", " ")
	return line
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
