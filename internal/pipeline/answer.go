package pipeline

import (
	"context"
	"fmt"

	"github.com/checktube/check-bot/internal/core/domain"
	coreerrors "github.com/checktube/check-bot/internal/core/errors"
	"github.com/checktube/check-bot/internal/platform/observability"
)

// ProcessApprovedRequests composes and publishes an answer for every approved
// request. A request whose comment has vanished is orphaned and deleted. A
// failed publish leaves the request approved, so the next cycle retries it;
// publishing is at-least-once by design of the state machine.
func (p *Pipeline) ProcessApprovedRequests(ctx context.Context) error {
	requests, err := p.repo.ListRequestsByState(ctx, requestApproved)
	if err != nil {
		return err
	}

	for _, request := range requests {
		if err := p.answerRequest(ctx, request); err != nil {
			p.logger.Error().Err(err).Str("request_id", request.ID).Msg("Answering failed, will retry")
		}
	}

	return nil
}

func (p *Pipeline) answerRequest(ctx context.Context, request domain.Request) error {
	var justification string
	if request.Relevance != nil {
		justification = *request.Relevance
	}

	answer, err := p.llm.ComposeAnswer(ctx, request.Text, justification)
	if err != nil {
		return fmt.Errorf("compose answer: %w", err)
	}

	comment, err := p.repo.GetComment(ctx, request.CommentID)
	if err != nil {
		if coreerrors.Is(err, coreerrors.ErrCommentNotFound) {
			return p.removeOrphan(ctx, request)
		}

		return fmt.Errorf("load comment: %w", err)
	}

	reply := fmt.Sprintf("%s %s\n%s", request.Handle, comment.AuthorHandle, answer)

	if err := p.platform.PublishReply(ctx, comment.ParentID, reply); err != nil {
		observability.PublishAttempts.WithLabelValues(observability.PublishStatusError).Inc()

		return fmt.Errorf("publish reply: %w", err)
	}

	observability.PublishAttempts.WithLabelValues(observability.PublishStatusOK).Inc()

	if err := p.repo.CompleteRequest(ctx, request.ID, answer); err != nil {
		return fmt.Errorf("complete request: %w", err)
	}

	observability.RequestTransitions.WithLabelValues(observability.OutcomeAnswered).Inc()

	p.logger.Info().
		Str("request_id", request.ID).
		Str("handle", request.Handle).
		Msg("Answer published")

	return nil
}

func (p *Pipeline) removeOrphan(ctx context.Context, request domain.Request) error {
	if err := p.repo.DeleteRequest(ctx, request.ID); err != nil {
		return fmt.Errorf("delete orphaned request: %w", err)
	}

	observability.RequestTransitions.WithLabelValues(observability.OutcomeRemoved).Inc()

	p.logger.Warn().
		Str("request_id", request.ID).
		Str("comment_id", request.CommentID).
		Msg("Comment gone, orphaned request removed")

	return nil
}
