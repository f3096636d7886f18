package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (s *Service) chat(ctx context.Context, system, user string, maxTokens int) (string, error) {
	messages := []chatMessage{}
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	var response chatResponse
	err := s.post(ctx, "/chat/completions", chatRequest{
		Model:     s.config.ChatModel,
		Messages:  messages,
		MaxTokens: maxTokens,
	}, &response)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty completion: no choices returned")
	}
	if response.Choices[0].FinishReason == "content_filter" {
		return "", fmt.Errorf("completion blocked by content filter")
	}

	return response.Choices[0].Message.Content, nil
}

func (s *Service) image(ctx context.Context, prompt string) (string, error) {
	var response imageResponse
	err := s.post(ctx, "/images/generations", imageRequest{
		Model:  s.config.ImageModel,
		Prompt: prompt,
		N:      1,
		Size:   "1792x1024",
	}, &response)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}

	if len(response.Data) == 0 || response.Data[0].URL == "" {
		return "", fmt.Errorf("image generation returned no data")
	}
	return response.Data[0].URL, nil
}

func (s *Service) post(ctx context.Context, path string, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
