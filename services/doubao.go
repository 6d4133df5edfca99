package services

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DoubaoClient 豆包（火山方舟）客户端，走OpenAI兼容的chat-completion接口
type DoubaoClient struct {
	Chat  llms.Model
	Model string
}

func NewDoubaoClient(apiKey, apiEndpoint, model string) (*DoubaoClient, error) {
	chat, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(apiEndpoint),
		openai.WithModel(model),
		openai.WithResponseFormat(&openai.ResponseFormat{
			Type: "json_object",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Doubao client: %w", err)
	}

	return &DoubaoClient{
		Chat:  chat,
		Model: model,
	}, nil
}
