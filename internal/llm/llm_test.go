package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/checktube/check-bot/internal/platform/config"
)

func TestNewSelectsMockWithoutRealKey(t *testing.T) {
	logger := zerolog.Nop()

	for _, key := range []string{"", "mock"} {
		client := New(&config.Config{LLMAPIKey: key}, &logger)

		if _, ok := client.(*mockClient); !ok {
			t.Fatalf("expected mock client for key %q, got %T", key, client)
		}
	}

	client := New(&config.Config{LLMAPIKey: "sk-real"}, &logger)
	if _, ok := client.(*mockClient); ok {
		t.Fatal("expected real client for a real key")
	}
}

func TestMockClientVerdictContract(t *testing.T) {
	client := &mockClient{}

	verdict, err := client.ClassifyRelevance(context.Background(), "la terre est plate")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if !strings.HasPrefix(verdict, VerdictAffirmative) {
		t.Fatalf("expected affirmative prefix, got %q", verdict)
	}

	verdict, err = client.ClassifyRelevance(context.Background(), "")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if !strings.HasPrefix(verdict, VerdictNegative) {
		t.Fatalf("expected negative prefix for empty text, got %q", verdict)
	}
}

func TestMockClientComposesAnswer(t *testing.T) {
	client := &mockClient{}

	answer, err := client.ComposeAnswer(context.Background(), "claim", "pertinent")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	if answer == "" {
		t.Fatal("expected a non-empty answer")
	}
}
