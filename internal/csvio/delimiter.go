package csvio

import "strings"

// Delimiter is the logical separator selector stored on a table.
type Delimiter string

const (
	Comma     Delimiter = "comma"
	Tab       Delimiter = "tab"
	Semicolon Delimiter = "semicolon"
	Pipe      Delimiter = "pipe"
)

func ResolveDelimiter(d Delimiter) (rune, error) {
	switch d {
	case Comma:
		return ',', nil
	case Tab:
		return '\t', nil
	case Semicolon:
		return ';', nil
	case Pipe:
		return '|', nil
	}
	return 0, &InvalidDelimiterError{Delimiter: string(d)}
}

// ParseDelimiter normalises a selector received from a client.
func ParseDelimiter(s string) (Delimiter, error) {
	d := Delimiter(strings.ToLower(strings.TrimSpace(s)))
	if _, err := ResolveDelimiter(d); err != nil {
		return "", &InvalidDelimiterError{Delimiter: s}
	}
	return d, nil
}
