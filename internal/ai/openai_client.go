package ai

import (
	"context"

	"github.com/openai/openai-go/v3"
)

// suggestionTemperature — низкая температура для режима подсказки,
// чтобы продолжение было коротким и предсказуемым.
const suggestionTemperature = 0.2

// OpenAIEngine отправляет текст в OpenAI Chat Completions.
type OpenAIEngine struct {
	client *openai.Client
	model  openai.ChatModel
}

func NewOpenAIEngine(client *openai.Client, model string) *OpenAIEngine {
	m := openai.ChatModelGPT4o
	if model != "" {
		m = openai.ChatModel(model)
	}
	return &OpenAIEngine{client: client, model: m}
}

// Warmup для удалённого API ничего не делает: клиент без состояния,
// ключ проверится первым же запросом.
func (e *OpenAIEngine) Warmup(_ context.Context) error { return nil }

func (e *OpenAIEngine) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    e.model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	switch {
	case req.Temperature > 0:
		params.Temperature = openai.Float(req.Temperature)
	case req.SystemPrompt == "":
		params.Temperature = openai.Float(suggestionTemperature)
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
