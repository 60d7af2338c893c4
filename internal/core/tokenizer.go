package core

import (
	"strings"
	"unicode"
)

type scanState int

const (
	stateNormal scanState = iota // between arguments
	stateInWord                  // inside an unquoted run of an argument
	stateQuoted                  // inside "..."
)

// Tokenize splits a command line into program and arguments.
//
// Whitespace separates arguments. A double quote starts a verbatim run that
// ends at the next double quote; quoted and unquoted runs without whitespace
// between them form a single argument. Outside quotes a backslash takes the
// following character literally. Tokenize never fails: an unterminated quote
// yields whatever was collected, and empty input yields no tokens.
func Tokenize(line string) []string {
	tokens := make([]string, 0)
	runes := []rune(line)

	var current strings.Builder
	state := stateNormal

	emit := func() {
		tokens = append(tokens, current.String())
		current.Reset()
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch state {
		case stateNormal:
			switch {
			case unicode.IsSpace(c):
			case c == '"':
				state = stateQuoted
			case c == '\\':
				i = escapeInto(&current, runes, i)
				state = stateInWord
			default:
				current.WriteRune(c)
				state = stateInWord
			}

		case stateInWord:
			switch {
			case unicode.IsSpace(c):
				emit()
				state = stateNormal
			case c == '"':
				state = stateQuoted
			case c == '\\':
				i = escapeInto(&current, runes, i)
			default:
				current.WriteRune(c)
			}

		case stateQuoted:
			if c == '"' {
				// the argument stays open until whitespace so that
				// `a"b c"d` stays one token
				state = stateInWord
				continue
			}
			current.WriteRune(c)
		}
	}

	if state != stateNormal {
		emit()
	}

	return tokens
}

// escapeInto writes the character following the backslash at runes[i] into
// sb and returns the index of the last consumed rune. A trailing backslash is
// kept as is.
func escapeInto(sb *strings.Builder, runes []rune, i int) int {
	if i+1 >= len(runes) {
		sb.WriteRune('\\')
		return i
	}
	sb.WriteRune(runes[i+1])
	return i + 1
}
