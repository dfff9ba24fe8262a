package gedcom

import (
	"strconv"
	"strings"
)

// Line is one "LEVEL [XREF] TAG [VALUE]" record line.
type Line struct {
	Level int
	XRef  string
	Tag   string
	Value string
}

// maxLevel bounds the level number; GEDCOM limits it to two digits.
const maxLevel = 99

// ParseLine tokenizes a single line. It reports false for blank or
// malformed lines.
func ParseLine(s string) (Line, bool) {
	level, rest, ok := splitLevel(s)
	if !ok {
		return Line{}, false
	}
	rest = strings.TrimLeft(rest, " ")

	var l Line
	l.Level = level

	if strings.HasPrefix(rest, "@") {
		end := strings.Index(rest[1:], "@")
		if end < 0 {
			return Line{}, false
		}
		l.XRef = rest[:end+2]
		rest = strings.TrimLeft(rest[end+2:], " ")
	}

	tag, value, _ := strings.Cut(rest, " ")
	if !validTag(tag) {
		return Line{}, false
	}
	l.Tag = strings.ToUpper(tag)
	l.Value = strings.TrimSpace(value)
	return l, true
}

// LeadingLevel returns the level number a line starts with, even when the
// rest of the line is malformed.
func LeadingLevel(s string) (int, bool) {
	level, _, ok := splitLevel(s)
	return level, ok
}

func splitLevel(s string) (int, string, bool) {
	s = strings.TrimLeft(s, " \t\uFEFF")
	s = strings.TrimRight(s, "\r\n")
	levelStr, rest, _ := strings.Cut(s, " ")
	level, err := strconv.Atoi(levelStr)
	if err != nil || level < 0 || level > maxLevel {
		return 0, "", false
	}
	return level, rest, true
}

func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}

// SplitLines splits decoded file content on any of CRLF, LF or CR.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
