package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autovid-worker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(config.OpenAI{
		BaseURL:      url,
		APIKey:       "test-key",
		ChatModel:    "gpt-4o-mini",
		WhisperModel: "whisper-1",
	})
}

func TestChatComplete(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  Comedy / Sketch\n"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	answer, err := client.ChatComplete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "Comedy / Sketch", answer)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "user prompt", captured.Messages[1].Content)
}

func TestChatCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ChatComplete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestChatCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ChatComplete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limit")
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "text", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "talk.mp3", header.Filename)

		w.Write([]byte("hello from the transcript\n"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	text, err := client.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "talk.mp3")
	require.NoError(t, err)
	assert.Equal(t, "hello from the transcript", text)
}

func TestTranscribeEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("   \n"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Transcribe(context.Background(), strings.NewReader("x"), "a.mp3")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
