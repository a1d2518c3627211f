package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"autovid-worker/config"
)

// Client talks to an OpenAI-compatible API: chat completions for the script
// analysis prompts and the audio transcription endpoint for speech-to-text.
type Client struct {
	baseURL      string
	apiKey       string
	chatModel    string
	whisperModel string
	http         *http.Client
}

var ErrEmptyResponse = errors.New("empty response from model")

func NewClient(cfg config.OpenAI) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		chatModel:    cfg.ChatModel,
		whisperModel: cfg.WhisperModel,
		http:         &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatComplete sends one system+user exchange and returns the trimmed answer.
func (c *Client) ChatComplete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   1500,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("chat completion failed: status %d: %s", resp.StatusCode, snippet(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	answer := strings.TrimSpace(out.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyResponse
	}
	return answer, nil
}

// Transcribe posts an audio stream to the transcription endpoint and returns
// the plain-text transcript.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", err
	}
	if err := mw.WriteField("model", c.whisperModel); err != nil {
		return "", err
	}
	if err := mw.WriteField("response_format", "text"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("transcription failed: status %d: %s", resp.StatusCode, snippet(raw))
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func snippet(raw []byte) string {
	const max = 200
	s := string(raw)
	if len(s) > max {
		return s[:max]
	}
	return s
}
