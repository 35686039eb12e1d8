package pipeline

import (
	"strconv"
	"strings"
)

// Mention is one parsed mention token: a target handle and an optional rank
// offset (0 = the author's most recent prior comment). A nil offset means the
// default aggregation window applies.
type Mention struct {
	Handle string
	Offset *int
}

// ParseMentions scans a comment's text for mention tokens of the form
// "@handle", optionally followed by "+<integer>". The bot's own handle is
// excluded case-insensitively. The accepted grammar is deliberately small:
// handles are ASCII letters, digits, underscores and hyphens; the offset may
// be separated from the handle by whitespace.
func ParseMentions(text, selfHandle string) []Mention {
	var mentions []Mention

	runes := []rune(text)

	for i := 0; i < len(runes); {
		if runes[i] != '@' {
			i++
			continue
		}

		end := i + 1
		for end < len(runes) && isHandleRune(runes[end]) {
			end++
		}

		if end == i+1 {
			// Bare '@' with no handle body.
			i++
			continue
		}

		handle := string(runes[i:end])

		offset, next := parseOffset(runes, end)

		if !strings.EqualFold(handle, selfHandle) {
			mentions = append(mentions, Mention{Handle: handle, Offset: offset})
		}

		i = next
	}

	return mentions
}

// parseOffset reads an optional "+<digits>" suffix starting at pos, skipping
// leading whitespace. It returns the parsed offset (nil when absent) and the
// position scanning should resume from.
func parseOffset(runes []rune, pos int) (*int, int) {
	cursor := pos
	for cursor < len(runes) && isSpaceRune(runes[cursor]) {
		cursor++
	}

	if cursor >= len(runes) || runes[cursor] != '+' {
		return nil, pos
	}

	digitsStart := cursor + 1
	digitsEnd := digitsStart

	for digitsEnd < len(runes) && runes[digitsEnd] >= '0' && runes[digitsEnd] <= '9' {
		digitsEnd++
	}

	if digitsEnd == digitsStart {
		// '+' with no digits is not an offset.
		return nil, pos
	}

	n, err := strconv.Atoi(string(runes[digitsStart:digitsEnd]))
	if err != nil {
		return nil, pos
	}

	return &n, digitsEnd
}

func isHandleRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}

func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
