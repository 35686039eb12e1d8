package pipeline

import (
	"context"
	"strings"
	"unicode"

	"github.com/checktube/check-bot/internal/llm"
	"github.com/checktube/check-bot/internal/platform/observability"
)

// ProcessPendingRequests runs the relevance gate over every pending request.
// A classifier failure is not retried and fails closed to rejected; each
// request is its own error boundary so one failure never stalls the batch.
func (p *Pipeline) ProcessPendingRequests(ctx context.Context) error {
	requests, err := p.repo.ListRequestsByState(ctx, requestPending)
	if err != nil {
		return err
	}

	for _, request := range requests {
		verdict, err := p.llm.ClassifyRelevance(ctx, request.Text)
		if err != nil {
			p.logger.Error().Err(err).Str("request_id", request.ID).Msg("Relevance classification failed")

			if err := p.repo.RejectRequest(ctx, request.ID, reasonClassifierError); err != nil {
				p.logger.Error().Err(err).Str("request_id", request.ID).Msg("Reject transition failed")
				continue
			}

			observability.RequestTransitions.WithLabelValues(observability.OutcomeRejected).Inc()

			continue
		}

		if err := p.applyVerdict(ctx, request.ID, verdict); err != nil {
			p.logger.Error().Err(err).Str("request_id", request.ID).Msg("Verdict transition failed")
		}
	}

	return nil
}

func (p *Pipeline) applyVerdict(ctx context.Context, requestID, verdict string) error {
	affirmative, justification := parseVerdict(verdict)

	if affirmative {
		if err := p.repo.ApproveRequest(ctx, requestID, justification); err != nil {
			return err
		}

		observability.RequestTransitions.WithLabelValues(observability.OutcomeApproved).Inc()

		p.logger.Info().Str("request_id", requestID).Str("relevance", justification).Msg("Request approved")

		return nil
	}

	if justification == "" {
		justification = reasonNotRelevant
	}

	if err := p.repo.RejectRequest(ctx, requestID, justification); err != nil {
		return err
	}

	observability.RequestTransitions.WithLabelValues(observability.OutcomeRejected).Inc()

	p.logger.Info().Str("request_id", requestID).Str("reason", justification).Msg("Request rejected")

	return nil
}

// parseVerdict splits a classifier response into its verdict and the
// justification that follows. The contract is an affirmative or negative
// token prefix; anything that does not start with the affirmative token is
// treated as negative, so the gate fails closed on malformed output.
func parseVerdict(verdict string) (bool, string) {
	trimmed := strings.TrimSpace(verdict)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, llm.VerdictAffirmative):
		return true, trimJustification(trimmed[len(llm.VerdictAffirmative):])
	case strings.HasPrefix(upper, llm.VerdictNegative):
		return false, trimJustification(trimmed[len(llm.VerdictNegative):])
	default:
		return false, trimJustification(trimmed)
	}
}

func trimJustification(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}
