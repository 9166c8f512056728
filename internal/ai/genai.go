// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIBackend calls Gemini through the official Google GenAI SDK.
type GenAIBackend struct {
	client *genai.Client
	model  string
}

// NewGenAIBackend creates the SDK-backed client.
func NewGenAIBackend(ctx context.Context, apiKey, model string) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}
	return &GenAIBackend{client: client, model: model}, nil
}

// Generate sends the prompt and returns the response text.
func (b *GenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenAI returned empty text")
	}
	return text, nil
}
