package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/checktube/check-bot/internal/core/domain"
	coreerrors "github.com/checktube/check-bot/internal/core/errors"
	"github.com/checktube/check-bot/internal/platform/config"
)

const testSelfHandle = "@CheckBot"

type fakeRepo struct {
	comments map[string]domain.Comment
	requests map[string]*domain.Request
	nextID   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		comments: make(map[string]domain.Comment),
		requests: make(map[string]*domain.Request),
	}
}

func (f *fakeRepo) addComment(c domain.Comment) {
	f.comments[c.ID] = c
}

func (f *fakeRepo) ListPendingComments(_ context.Context) ([]domain.Comment, error) {
	var pending []domain.Comment

	for _, c := range f.comments {
		referenced := false

		for _, r := range f.requests {
			if r.CommentID == c.ID {
				referenced = true
				break
			}
		}

		if !referenced {
			pending = append(pending, c)
		}
	}

	return pending, nil
}

func (f *fakeRepo) GetComment(_ context.Context, id string) (*domain.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, coreerrors.ErrCommentNotFound
	}

	return &c, nil
}

func (f *fakeRepo) CreateRequest(_ context.Context, commentID, handle, text string) (*domain.Request, error) {
	f.nextID++
	req := &domain.Request{
		ID:        fmt.Sprintf("req-%d", f.nextID),
		CommentID: commentID,
		Handle:    handle,
		Text:      text,
		State:     domain.RequestPending,
	}
	f.requests[req.ID] = req

	return req, nil
}

func (f *fakeRepo) CreateRejectedRequest(_ context.Context, commentID, handle, reason string) error {
	f.nextID++
	f.requests[fmt.Sprintf("req-%d", f.nextID)] = &domain.Request{
		ID:        fmt.Sprintf("req-%d", f.nextID),
		CommentID: commentID,
		Handle:    handle,
		State:     domain.RequestRejected,
		Relevance: &reason,
	}

	return nil
}

func (f *fakeRepo) ListRequestsByState(_ context.Context, state domain.RequestState) ([]domain.Request, error) {
	var out []domain.Request

	for _, r := range f.requests {
		if r.State == state {
			out = append(out, *r)
		}
	}

	return out, nil
}

func (f *fakeRepo) transition(id string, from, to domain.RequestState) (*domain.Request, error) {
	r, ok := f.requests[id]
	if !ok || r.State != from {
		return nil, coreerrors.ErrRequestNotFound
	}

	r.State = to

	return r, nil
}

func (f *fakeRepo) ApproveRequest(_ context.Context, id, relevance string) error {
	r, err := f.transition(id, domain.RequestPending, domain.RequestApproved)
	if err != nil {
		return err
	}

	r.Relevance = &relevance

	return nil
}

func (f *fakeRepo) RejectRequest(_ context.Context, id, reason string) error {
	r, err := f.transition(id, domain.RequestPending, domain.RequestRejected)
	if err != nil {
		return err
	}

	r.Relevance = &reason

	return nil
}

func (f *fakeRepo) CompleteRequest(_ context.Context, id, answer string) error {
	r, err := f.transition(id, domain.RequestApproved, domain.RequestAnswered)
	if err != nil {
		return err
	}

	r.Answer = &answer

	return nil
}

func (f *fakeRepo) DeleteRequest(_ context.Context, id string) error {
	delete(f.requests, id)

	return nil
}

func (f *fakeRepo) single(t *testing.T) *domain.Request {
	t.Helper()

	if len(f.requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(f.requests))
	}

	for _, r := range f.requests {
		return r
	}

	return nil
}

type fakePlatform struct {
	replies    []domain.Comment
	published  []string
	publishErr error
}

func (f *fakePlatform) ListRepliesByAuthors(_ context.Context, _ string, _ []string) ([]domain.Comment, error) {
	return f.replies, nil
}

func (f *fakePlatform) PublishReply(_ context.Context, _, text string) error {
	if f.publishErr != nil {
		return f.publishErr
	}

	f.published = append(f.published, text)

	return nil
}

type fakeLLM struct {
	verdicts map[string]string
	err      error
	answer   string
	calls    int
}

func (f *fakeLLM) ClassifyRelevance(_ context.Context, text string) (string, error) {
	f.calls++

	if f.err != nil {
		return "", f.err
	}

	return f.verdicts[text], nil
}

func (f *fakeLLM) ComposeAnswer(_ context.Context, _, _ string) (string, error) {
	return f.answer, nil
}

func testPipeline(repo Repository, platform Platform, llmClient LLMClient) *Pipeline {
	logger := zerolog.Nop()

	return New(repo, platform, llmClient, &config.Config{
		SelfHandle:      testSelfHandle,
		ContextWindow:   24 * time.Hour,
		ContextMaxChars: 800,
	}, &logger)
}

func TestPipelineEndToEnd(t *testing.T) {
	now := time.Now()

	repo := newFakeRepo()
	repo.addComment(domain.Comment{
		ID:           "c-trigger",
		ParentID:     "thread-1",
		VideoID:      "v-1",
		AuthorHandle: "@Alice",
		Text:         "@CheckBot can you check @Bob",
		PublishedAt:  now,
	})

	platform := &fakePlatform{replies: []domain.Comment{
		{
			ID:           "c-bob",
			ParentID:     "thread-1",
			VideoID:      "v-1",
			AuthorHandle: "@Bob",
			Text:         "X happened in 1990",
			PublishedAt:  now.Add(-time.Hour),
		},
	}}

	llmClient := &fakeLLM{
		verdicts: map[string]string{"X happened in 1990": "OUI pertinent"},
		answer:   "X is false because Y.",
	}

	p := testPipeline(repo, platform, llmClient)

	require.NoError(t, p.Run(context.Background()))

	req := repo.single(t)
	require.Equal(t, domain.RequestAnswered, req.State)
	require.Equal(t, "c-trigger", req.CommentID)
	require.Equal(t, "@Bob", req.Handle)
	require.Equal(t, "X happened in 1990", req.Text)
	require.NotNil(t, req.Relevance)
	require.Equal(t, "pertinent", *req.Relevance)
	require.NotNil(t, req.Answer)
	require.Equal(t, "X is false because Y.", *req.Answer)

	require.Len(t, platform.published, 1)
	require.Equal(t, "@Bob @Alice\nX is false because Y.", platform.published[0])
}

func TestPipelineRejectsCommentWithoutHandles(t *testing.T) {
	repo := newFakeRepo()
	repo.addComment(domain.Comment{
		ID:          "c-1",
		ParentID:    "thread-1",
		Text:        "@CheckBot what do you think",
		PublishedAt: time.Now(),
	})

	p := testPipeline(repo, &fakePlatform{}, &fakeLLM{})

	require.NoError(t, p.ProcessPendingComments(context.Background()))

	req := repo.single(t)
	require.Equal(t, domain.RequestRejected, req.State)
	require.Equal(t, reasonNoHandle, *req.Relevance)

	// The synthesized rejection takes the comment out of the pending set.
	pending, err := repo.ListPendingComments(context.Background())
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestPipelinePublishFailureLeavesRequestApproved(t *testing.T) {
	now := time.Now()

	repo := newFakeRepo()
	repo.addComment(domain.Comment{
		ID:           "c-trigger",
		ParentID:     "thread-1",
		AuthorHandle: "@Alice",
		Text:         "check @Bob",
		PublishedAt:  now,
	})

	platform := &fakePlatform{
		replies: []domain.Comment{
			{ID: "c-bob", AuthorHandle: "@Bob", Text: "claim", PublishedAt: now.Add(-time.Minute)},
		},
		publishErr: errors.New("quota exceeded"),
	}

	llmClient := &fakeLLM{
		verdicts: map[string]string{"claim": "OUI pertinent"},
		answer:   "no",
	}

	p := testPipeline(repo, platform, llmClient)

	require.NoError(t, p.Run(context.Background()))

	req := repo.single(t)
	require.Equal(t, domain.RequestApproved, req.State)
	require.Nil(t, req.Answer)
}

func TestPipelineDeletesOrphanedRequest(t *testing.T) {
	repo := newFakeRepo()

	relevance := "pertinent"
	repo.requests["req-1"] = &domain.Request{
		ID:        "req-1",
		CommentID: "c-gone",
		Handle:    "@Bob",
		Text:      "claim",
		State:     domain.RequestApproved,
		Relevance: &relevance,
	}

	platform := &fakePlatform{}
	p := testPipeline(repo, platform, &fakeLLM{answer: "no"})

	require.NoError(t, p.ProcessApprovedRequests(context.Background()))

	require.Empty(t, repo.requests)
	require.Empty(t, platform.published)
}
