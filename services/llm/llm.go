package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/semaphore"

	"henbot/clients"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 1 * time.Second
)

// UsageRecorder receives token usage after each successful completion.
type UsageRecorder interface {
	RecordUsage(model string, inputTokens, outputTokens int)
}

// CompletionService is the single gateway to the LLM collaborator. It bounds
// the number of outstanding calls with a counting semaphore and retries
// rate-limited calls with doubling backoff before giving up.
type CompletionService struct {
	llmClient      clients.LLMClient
	usage          UsageRecorder
	gate           *semaphore.Weighted
	maxAttempts    int
	initialBackoff time.Duration
}

func NewCompletionService(
	llmClient clients.LLMClient,
	usage UsageRecorder,
	maxConcurrency int64,
) *CompletionService {
	return newCompletionService(llmClient, usage, maxConcurrency, defaultMaxAttempts, defaultInitialBackoff)
}

func newCompletionService(
	llmClient clients.LLMClient,
	usage UsageRecorder,
	maxConcurrency int64,
	maxAttempts int,
	initialBackoff time.Duration,
) *CompletionService {
	return &CompletionService{
		llmClient:      llmClient,
		usage:          usage,
		gate:           semaphore.NewWeighted(maxConcurrency),
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
	}
}

func (s *CompletionService) CreateCompletion(
	ctx context.Context,
	req clients.CompletionRequest,
) (*clients.CompletionResult, error) {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire completion slot: %w", err)
	}
	defer s.gate.Release(1)

	backoff := s.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err := s.llmClient.CreateCompletion(ctx, req)
		if err == nil {
			if s.usage != nil {
				s.usage.RecordUsage(result.Model, result.InputTokens, result.OutputTokens)
			}
			return result, nil
		}

		lastErr = err
		if !errors.Is(err, clients.ErrRateLimited) || attempt == s.maxAttempts {
			break
		}

		log.Printf("⚠️ LLM rate limited, retrying in %s (attempt %d/%d)", backoff, attempt, s.maxAttempts)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("completion cancelled during backoff: %w", ctx.Err())
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("failed to create completion: %w", lastErr)
}
