package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/okanon/oracle/internal/rag"
)

// generator adapts Genkit generation to the assistant's Generator interface.
type generator struct {
	g         *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

func newGenerator(g *genkit.Genkit, modelName string, logger *slog.Logger) *generator {
	return &generator{g: g, modelName: modelName, logger: logger}
}

// Generate runs one model call. Retrieved passages travel as documents so
// the provider grounds on them; prior turns become the message history with
// the current question appended as the final user message.
func (gen *generator) Generate(ctx context.Context, system string, history []rag.Turn, message string, contextPassages []string) (string, error) {
	messages := make([]*ai.Message, 0, len(history)+1)
	for _, turn := range history {
		if turn.Role == "assistant" {
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(turn.Content)))
			continue
		}
		messages = append(messages, ai.NewUserMessage(ai.NewTextPart(turn.Content)))
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(message)))

	opts := []ai.GenerateOption{
		ai.WithModelName(gen.modelName),
		ai.WithSystem(system),
		ai.WithMessages(messages...),
	}
	if len(contextPassages) > 0 {
		docs := make([]*ai.Document, len(contextPassages))
		for i, p := range contextPassages {
			docs[i] = ai.DocumentFromText(p, nil)
		}
		opts = append(opts, ai.WithDocs(docs...))
	}

	resp, err := genkit.Generate(ctx, gen.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}

	text := resp.Text()
	gen.logger.Debug("model response",
		"model", gen.modelName, "passages", len(contextPassages), "length", len(text))
	return text, nil
}
