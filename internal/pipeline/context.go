package pipeline

import (
	"sort"
	"strings"

	"github.com/checktube/check-bot/internal/core/domain"
)

const contextSeparator = "\n\n"

// gatherContext selects the fact text to check for one mention, out of the
// thread replies written by the mentioned author. Only comments the requester
// could have seen qualify: published at or before the trigger. Returns
// ("", false) when no qualifying comment exists, including an explicit offset
// that points past the end of the candidate list.
func (p *Pipeline) gatherContext(trigger domain.Comment, mention Mention, replies []domain.Comment) (string, bool) {
	candidates := make([]domain.Comment, 0, len(replies))

	for _, reply := range replies {
		if reply.ID == trigger.ID {
			continue
		}

		if !authorMatches(reply.AuthorHandle, mention.Handle) {
			continue
		}

		if reply.PublishedAt.After(trigger.PublishedAt) {
			continue
		}

		candidates = append(candidates, reply)
	}

	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	if mention.Offset != nil {
		rank := *mention.Offset
		if rank < 0 || rank >= len(candidates) {
			return "", false
		}

		return candidates[rank].Text, true
	}

	return p.aggregate(candidates), true
}

// aggregate concatenates the candidate texts newest-first, keeping only
// comments within the context window of the most recent one and stopping
// before a comment that would push the cumulative length past the cap. An
// oversized piece is never partially appended.
func (p *Pipeline) aggregate(candidates []domain.Comment) string {
	windowStart := candidates[0].PublishedAt.Add(-p.cfg.ContextWindow)

	var b strings.Builder

	for _, candidate := range candidates {
		if candidate.PublishedAt.Before(windowStart) {
			break
		}

		if b.Len()+len(candidate.Text) > p.cfg.ContextMaxChars {
			break
		}

		b.WriteString(candidate.Text)
		b.WriteString(contextSeparator)
	}

	return strings.TrimSuffix(b.String(), contextSeparator)
}

// authorMatches reports whether a reply author corresponds to a parsed
// handle. Display names rarely equal the bare handle, so matching is a
// case-insensitive substring check with the '@' stripped.
func authorMatches(author, handle string) bool {
	needle := strings.ToLower(strings.TrimPrefix(handle, "@"))
	if needle == "" {
		return false
	}

	return strings.Contains(strings.ToLower(author), needle)
}
