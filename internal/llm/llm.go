// Package llm provides the language-model client used to classify fact-check
// requests and compose rebuttals.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/checktube/check-bot/internal/platform/config"
)

// Client is the language-model collaborator of the request pipeline.
type Client interface {
	// ClassifyRelevance returns the raw verdict string for a fact text. The
	// contract is that the response begins with the affirmative or negative
	// verdict token followed by a short free-text justification.
	ClassifyRelevance(ctx context.Context, text string) (string, error)

	// ComposeAnswer writes the public rebuttal for an approved request,
	// steered by the stored relevance justification.
	ComposeAnswer(ctx context.Context, text, justification string) (string, error)
}

const llmAPIKeyMock = "mock"

// New returns the configured client, or a deterministic mock when no real
// API key is set. The mock keeps local runs and tests off the network.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == llmAPIKeyMock {
		return &mockClient{}
	}

	return newOpenAI(cfg, logger)
}

type mockClient struct{}

func (c *mockClient) ClassifyRelevance(_ context.Context, text string) (string, error) {
	if len(text) == 0 {
		return VerdictNegative + " rien à vérifier", nil
	}

	return VerdictAffirmative + " affirmation factuelle vérifiable", nil
}

func (c *mockClient) ComposeAnswer(_ context.Context, text, justification string) (string, error) {
	return fmt.Sprintf("Après vérification (%s) : cette affirmation est inexacte. (%d caractères analysés)",
		justification, len(text)), nil
}
