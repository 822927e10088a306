// Package answer turns a retrieved context block and a user query into a
// model-generated answer with bracketed citations. The upstream model is an
// optional dependency: when it is unreachable or misconfigured, callers still
// get the retrieved context and mappings, just no answer.
package answer

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrUnavailable reports that the upstream model could not produce an answer.
// The query flow treats this as a degraded success, not a failure: retrieval
// results are still returned to the caller.
var ErrUnavailable = errors.New("answer: upstream model unavailable")

// systemPrompt instructs the model to ground its answer in the numbered
// context blocks and cite them by their bracketed IDs. The IDs match the
// local chunk IDs in the retrieval mapping, so citations resolve to source
// documents client-side.
const systemPrompt = "You are a helpful assistant that answers questions using only the provided context. " +
	"Each context passage is labeled with an ID in square brackets, like [0] or [1]. " +
	"When you use information from a passage, cite it by appending its bracketed ID, e.g. [0]. " +
	"If the context does not contain the answer, say you do not know. Do not invent citations."

// Generator produces answers from a chat model.
type Generator struct {
	model model.ToolCallingChatModel
}

// NewGenerator wraps the given chat model. The model must not be nil.
func NewGenerator(m model.ToolCallingChatModel) (*Generator, error) {
	if m == nil {
		return nil, fmt.Errorf("answer: chat model must not be nil")
	}
	return &Generator{model: m}, nil
}

// BuildPrompt assembles the message sequence sent to the model: the citation
// system prompt, then a single user message embedding the labeled context and
// the question.
func BuildPrompt(query, contextBlock string) []*schema.Message {
	user := fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBlock, query)
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(user),
	}
}

// Generate asks the model to answer the query against the given context
// block. Any model failure is reported as ErrUnavailable with the cause
// attached; callers inspect it with errors.Is.
func (g *Generator) Generate(ctx context.Context, query, contextBlock string) (string, error) {
	msg, err := g.model.Generate(ctx, BuildPrompt(query, contextBlock))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if msg == nil || msg.Content == "" {
		return "", fmt.Errorf("%w: model returned an empty response", ErrUnavailable)
	}
	return msg.Content, nil
}
