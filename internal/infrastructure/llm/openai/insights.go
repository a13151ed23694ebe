package openai

import (
	"context"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

// Insights implements ports.InsightGenerator.
type Insights struct {
	client *Client
}

func NewInsights(client *Client) *Insights {
	return &Insights{client: client}
}

func (i *Insights) GenerateChat(ctx context.Context, systemContext string, history []domain.ChatMessage, message string) (string, error) {
	messages := make([]chatRequestMessage, 0, len(history)+2)
	messages = append(messages, chatRequestMessage{
		Role:    "system",
		Content: buildChatSystemPrompt(systemContext),
	})

	for _, turn := range history {
		role := turn.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, chatRequestMessage{Role: role, Content: turn.Content})
	}

	messages = append(messages, chatRequestMessage{Role: "user", Content: message})

	answer, _, err := i.client.chatCompletion(ctx, "chat", messages, 0.7, false)
	return answer, err
}

// GenerateAnalysis runs a one-shot analysis over a prepared data summary.
// The analysis type selects the prompt; unknown types fall back to the
// general one.
func (i *Insights) GenerateAnalysis(ctx context.Context, analysisType, dataSummary string) (domain.AnalysisResult, error) {
	messages := []chatRequestMessage{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: buildAnalysisUserPrompt(analysisType, dataSummary)},
	}

	result, tokens, err := i.client.chatCompletion(ctx, "analyze_document", messages, 0.5, false)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return domain.AnalysisResult{Result: result, TokensUsed: tokens}, nil
}
