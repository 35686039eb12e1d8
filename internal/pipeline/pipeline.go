// Package pipeline turns stored mention comments into fact-check requests and
// drives each request through classification, answer composition, and
// publication. Every per-item failure is logged at the item boundary and the
// batch continues; only stage-level failures (storage unavailable) propagate.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/checktube/check-bot/internal/core/domain"
	"github.com/checktube/check-bot/internal/platform/config"
	"github.com/checktube/check-bot/internal/platform/observability"
)

// Fixed rejection reasons for the expected, non-exceptional outcomes.
const (
	reasonNoHandle        = "no target handle found"
	reasonNoContext       = "no comments found for target handle"
	reasonClassifierError = "relevance check failed"
	reasonNotRelevant     = "not relevant"
)

const (
	requestPending  = domain.RequestPending
	requestApproved = domain.RequestApproved
)

type Repository interface {
	ListPendingComments(ctx context.Context) ([]domain.Comment, error)
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	CreateRequest(ctx context.Context, commentID, handle, text string) (*domain.Request, error)
	CreateRejectedRequest(ctx context.Context, commentID, handle, reason string) error
	ListRequestsByState(ctx context.Context, state domain.RequestState) ([]domain.Request, error)
	ApproveRequest(ctx context.Context, id, relevance string) error
	RejectRequest(ctx context.Context, id, reason string) error
	CompleteRequest(ctx context.Context, id, answer string) error
	DeleteRequest(ctx context.Context, id string) error
}

type Platform interface {
	ListRepliesByAuthors(ctx context.Context, parentID string, handles []string) ([]domain.Comment, error)
	PublishReply(ctx context.Context, parentID, text string) error
}

type LLMClient interface {
	ClassifyRelevance(ctx context.Context, text string) (string, error)
	ComposeAnswer(ctx context.Context, text, justification string) (string, error)
}

type Pipeline struct {
	repo     Repository
	platform Platform
	llm      LLMClient
	cfg      *config.Config
	logger   *zerolog.Logger
}

func New(repo Repository, platform Platform, llmClient LLMClient, cfg *config.Config, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{
		repo:     repo,
		platform: platform,
		llm:      llmClient,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes the three pipeline stages in order: parse pending comments
// into requests, classify pending requests, answer approved requests.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.ProcessPendingComments(ctx); err != nil {
		return fmt.Errorf("process pending comments: %w", err)
	}

	if err := p.ProcessPendingRequests(ctx); err != nil {
		return fmt.Errorf("process pending requests: %w", err)
	}

	if err := p.ProcessApprovedRequests(ctx); err != nil {
		return fmt.Errorf("process approved requests: %w", err)
	}

	return nil
}

// ProcessPendingComments parses every comment that no request references yet.
// A comment with a transport failure stays pending and is retried next cycle;
// a comment with no usable mention gets a synthesized rejected request so it
// leaves the pending set for good.
func (p *Pipeline) ProcessPendingComments(ctx context.Context) error {
	comments, err := p.repo.ListPendingComments(ctx)
	if err != nil {
		return err
	}

	for _, comment := range comments {
		if err := p.processComment(ctx, comment); err != nil {
			p.logger.Error().Err(err).Str("comment_id", comment.ID).Msg("Comment processing failed")
		}
	}

	return nil
}

func (p *Pipeline) processComment(ctx context.Context, comment domain.Comment) error {
	mentions := ParseMentions(comment.Text, p.cfg.SelfHandle)

	if len(mentions) == 0 {
		return p.rejectComment(ctx, comment.ID, "", reasonNoHandle)
	}

	handles := make([]string, 0, len(mentions))
	for _, mention := range mentions {
		handles = append(handles, mention.Handle)
	}

	replies, err := p.platform.ListRepliesByAuthors(ctx, comment.ParentID, handles)
	if err != nil {
		return fmt.Errorf("list thread replies: %w", err)
	}

	for _, mention := range mentions {
		text, ok := p.gatherContext(comment, mention, replies)
		if !ok {
			if err := p.rejectComment(ctx, comment.ID, mention.Handle, reasonNoContext); err != nil {
				return err
			}

			continue
		}

		request, err := p.repo.CreateRequest(ctx, comment.ID, mention.Handle, text)
		if err != nil {
			return fmt.Errorf("create request for %s: %w", mention.Handle, err)
		}

		p.logger.Info().
			Str("request_id", request.ID).
			Str("comment_id", comment.ID).
			Str("handle", mention.Handle).
			Msg("Fact-check request created")
	}

	return nil
}

func (p *Pipeline) rejectComment(ctx context.Context, commentID, handle, reason string) error {
	if err := p.repo.CreateRejectedRequest(ctx, commentID, handle, reason); err != nil {
		return fmt.Errorf("synthesize rejected request: %w", err)
	}

	observability.RequestTransitions.WithLabelValues(observability.OutcomeRejected).Inc()

	p.logger.Info().
		Str("comment_id", commentID).
		Str("reason", reason).
		Msg("Comment rejected without request")

	return nil
}
