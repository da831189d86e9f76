// Package ai holds the language-model collaborators. Both clients treat a
// missing credential as "stage disabled": callers check Enabled and skip,
// so an unconfigured deployment still tracks chapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrDisabled is returned when the credential for a stage is absent.
var ErrDisabled = errors.New("ai: stage disabled, no credential configured")

const summarySystemPrompt = "You summarize web novel chapters for readers " +
	"catching up on a series. Write a compact spoiler-complete summary of " +
	"the given chapter text in 3-5 sentences. Plain prose, no headings."

const digestSystemPrompt = "You write a single flowing daily digest " +
	"covering new chapters across several web novels. Weave the per-book " +
	"notes into one short narrative, one paragraph per book."

// Summarizer produces natural-language summaries of chapter text.
type Summarizer struct {
	client *openai.Client
	model  string
}

// NewSummarizer builds a summarizer. With an empty key the summarizer is
// disabled, not broken.
func NewSummarizer(apiKey string) *Summarizer {
	s := &Summarizer{model: openai.GPT4oMini}
	if apiKey != "" {
		s.client = openai.NewClient(apiKey)
	}
	return s
}

// Enabled reports whether a credential was configured.
func (s *Summarizer) Enabled() bool { return s.client != nil }

// SummarizeChapter summarizes one chapter's body text.
func (s *Summarizer) SummarizeChapter(ctx context.Context, bookTitle, chapterTitle, text string) (string, error) {
	if s.client == nil {
		return "", ErrDisabled
	}

	user := fmt.Sprintf("Book: %s\nChapter: %s\n\n%s", bookTitle, chapterTitle, text)
	return s.complete(ctx, summarySystemPrompt, user)
}

// CombineDigest merges per-book chapter summaries into one cross-book
// narrative for the daily digest.
func (s *Summarizer) CombineDigest(ctx context.Context, sections []string) (string, error) {
	if s.client == nil {
		return "", ErrDisabled
	}
	return s.complete(ctx, digestSystemPrompt, strings.Join(sections, "\n\n---\n\n"))
}

func (s *Summarizer) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("chat completion: blank summary")
	}
	return out, nil
}
