package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

// Classifier implements ports.FieldClassifier over a chat completion.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) AnalyzeFields(ctx context.Context, sample []domain.RawRow, columns []string, filename string) (domain.FieldAnalysis, error) {
	messages := []chatRequestMessage{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: buildClassifierUserPrompt(sample, columns, filename)},
	}

	respText, _, err := c.client.chatCompletion(ctx, "analyze_fields", messages, 0.1, true)
	if err != nil {
		return domain.FieldAnalysis{}, err
	}

	analysis, err := parseFieldAnalysis(respText)
	if err != nil {
		return domain.FieldAnalysis{}, fmt.Errorf("parse field analysis: %w", err)
	}
	if analysis.DetectedFields == nil {
		analysis.DetectedFields = map[string]domain.FieldMapping{}
	}
	return analysis, nil
}

// parseFieldAnalysis is tolerant of markdown fences and truncated JSON: the
// raw text is repaired before the strict unmarshal.
func parseFieldAnalysis(raw string) (domain.FieldAnalysis, error) {
	var analysis domain.FieldAnalysis

	candidate := extractJSONObject(raw)
	if err := json.Unmarshal([]byte(candidate), &analysis); err == nil {
		return analysis, nil
	}

	repaired, err := jsonrepair.RepairJSON(candidate)
	if err != nil {
		return domain.FieldAnalysis{}, err
	}
	if err := json.Unmarshal([]byte(repaired), &analysis); err != nil {
		return domain.FieldAnalysis{}, err
	}
	return analysis, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
