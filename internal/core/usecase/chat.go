package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
	"github.com/ciclopsmx/franchise-reports/internal/core/ports"
)

const (
	chatHistoryTurns  = 6
	chatDocumentLimit = 10
	chatSummaryLimit  = 5
)

// ChatUseCase assembles vault context (recent confirmed documents plus the
// latest monthly summaries) and forwards the conversation to the insight
// generator. Chat is read-only over pipeline state.
type ChatUseCase struct {
	repo      ports.DocumentRepository
	summaries ports.SummaryRepository
	generator ports.InsightGenerator
}

func NewChatUseCase(repo ports.DocumentRepository, summaries ports.SummaryRepository, generator ports.InsightGenerator) *ChatUseCase {
	return &ChatUseCase{repo: repo, summaries: summaries, generator: generator}
}

func (uc *ChatUseCase) Chat(ctx context.Context, message string, history []domain.ChatMessage, storeID string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "chat", fmt.Errorf("empty message"))
	}

	systemContext, err := uc.buildContext(ctx, storeID)
	if err != nil {
		return "", err
	}

	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}

	answer, err := uc.generator.GenerateChat(ctx, systemContext, history, message)
	if err != nil {
		return "", fmt.Errorf("generate chat answer: %w", err)
	}
	return answer, nil
}

func (uc *ChatUseCase) buildContext(ctx context.Context, storeID string) (string, error) {
	docs, err := uc.repo.List(ctx, domain.StatusConfirmed, storeID, chatDocumentLimit)
	if err != nil {
		return "", fmt.Errorf("list confirmed documents: %w", err)
	}
	summaries, err := uc.summaries.ListRecent(ctx, chatSummaryLimit)
	if err != nil {
		return "", fmt.Errorf("list recent summaries: %w", err)
	}

	var b strings.Builder
	if len(docs) > 0 {
		b.WriteString("Documentos en el vault:\n")
		for _, d := range docs {
			name := d.StoreName
			if name == "" {
				name = "Sin sucursal"
			}
			period := d.Period
			if period == "" {
				period = "Sin periodo"
			}
			fmt.Fprintf(&b, "- %s: %s, %s, %d filas\n", d.Filename, name, period, d.RowCount)
		}
	}
	if len(summaries) > 0 {
		b.WriteString("\nResumenes mensuales:\n")
		for _, s := range summaries {
			fmt.Fprintf(&b, "- %s (%s): Ventas $%s, Utilidad $%s, Margen neto %.1f%%\n",
				s.StoreName, s.Period, formatPesos(s.TotalSales), formatPesos(s.NetProfit), s.NetMargin)
		}
	}
	if b.Len() == 0 {
		b.WriteString("El vault no tiene documentos confirmados todavia.\n")
	}
	return b.String(), nil
}

var pesoPrinter = message.NewPrinter(language.MustParse("es-MX"))

// formatPesos renders an amount with es-MX grouping and two decimals, the
// way the dashboard presents currency.
func formatPesos(v float64) string {
	return pesoPrinter.Sprint(number.Decimal(v, number.Scale(2)))
}
