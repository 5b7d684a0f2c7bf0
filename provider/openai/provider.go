// Package openai adapts the OpenAI chat completion API to the coauthor
// provider contract. Deployments that run without the editor backend's
// relay endpoint can point a generation surface straight at OpenAI.
package openai

import (
	"context"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/underline-app/coauthor/pkg/uuidx"
	"github.com/underline-app/coauthor/provider"
)

// systemInstructions frames the model for editing work; the composed prompt
// carries the per-request context.
const systemInstructions = "You are a writing assistant embedded in a rich-text document editor. Apply the user's instruction and return only the resulting text, with no preamble or commentary."

var _ provider.Provider = (*Provider)(nil)

type Provider struct {
	client *openai.Client
	model  string
}

// New creates a direct OpenAI provider. An empty model selects GPT-4o mini.
func New(model string, options ...option.RequestOption) *Provider {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &Provider{
		client: openai.NewClient(options...),
		model:  model,
	}
}

func (p *Provider) buildRequest(req provider.Request) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstructions),
			openai.UserMessageParts(openai.TextPart(req.Prompt)),
		}),
		Model:       openai.F(p.model),
		N:           openai.Int(1),
		Temperature: openai.Float(0.1),
	}
}

// Generate starts a streamed completion and converts SDK chunks into
// coauthor stream events carrying cumulative text.
func (p *Provider) Generate(ctx context.Context, req provider.Request) (<-chan provider.StreamEvent, error) {
	if req.RunID == uuid.Nil {
		req.RunID = uuidx.New()
	}

	params := p.buildRequest(req)
	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		p.runStream(ctx, params, req, events)
	}()
	return events, nil
}

func (p *Provider) runStream(ctx context.Context, params openai.ChatCompletionNewParams, req provider.Request, events chan<- provider.StreamEvent) {
	strm := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer strm.Close()

	if strm.Err() != nil {
		events <- provider.Error{
			RunID:     req.RunID,
			Err:       strm.Err(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}

	var assembled strings.Builder
	var notFirst bool

	for strm.Next() {
		if ctx.Err() != nil {
			return
		}

		chunk := strm.Current()
		if strm.Err() != nil {
			events <- provider.Error{
				RunID:     req.RunID,
				Err:       strm.Err(),
				Timestamp: strfmt.DateTime(time.Now()),
			}
			return
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		if !notFirst {
			notFirst = true
			events <- provider.Delim{RunID: req.RunID, Delim: "start"}
		}

		assembled.WriteString(delta)
		events <- provider.Chunk{
			RunID:     req.RunID,
			Delta:     delta,
			Content:   assembled.String(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
	}

	if ctx.Err() != nil {
		return
	}
	if err := strm.Err(); err != nil {
		events <- provider.Error{
			RunID:     req.RunID,
			Err:       err,
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}

	if notFirst {
		events <- provider.Delim{RunID: req.RunID, Delim: "end"}
	}
	events <- provider.Response{
		RunID:     req.RunID,
		Content:   assembled.String(),
		Timestamp: strfmt.DateTime(time.Now()),
	}
}
