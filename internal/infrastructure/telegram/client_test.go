package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.TelegramConfig{
		BotToken:    "123:secret",
		APIBaseURL:  server.URL + "/",
		SendTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("token required", func(t *testing.T) {
		_, err := NewClient(&config.TelegramConfig{})
		assert.ErrorIs(t, err, ErrBotTokenRequired)

		_, err = NewClient(nil)
		assert.ErrorIs(t, err, ErrBotTokenRequired)
	})

	t.Run("defaults", func(t *testing.T) {
		client, err := NewClient(&config.TelegramConfig{BotToken: "t"})
		require.NoError(t, err)
		assert.Equal(t, defaultAPIBaseURL, client.baseURL)
		assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	})
}

func TestClient_SendMessage(t *testing.T) {
	var got sendMessageRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot123:secret/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	})

	err := client.SendMessage(context.Background(), "998877", "Pembayaran diterima", ParseModeMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "998877", got.ChatID)
	assert.Equal(t, "Pembayaran diterima", got.Text)
	assert.Equal(t, "Markdown", got.ParseMode)
}

func TestClient_SendDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:secret/sendDocument", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "998877", r.FormValue("chat_id"))
		assert.Equal(t, "*No. Inv SINV-1*", r.FormValue("caption"))
		assert.Equal(t, "Markdown", r.FormValue("parse_mode"))

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "SINV-1.pdf", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.4", string(data))

		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	err := client.SendDocument(context.Background(), "998877", "SINV-1.pdf", []byte("%PDF-1.4"), "*No. Inv SINV-1*", ParseModeMarkdown)
	require.NoError(t, err)
}

func TestClient_SendDocument_NoCaption(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, present := r.MultipartForm.Value["caption"]
		assert.False(t, present)
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	require.NoError(t, client.SendDocument(context.Background(), "1", "a.pdf", []byte("x"), "", ""))
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	err := client.SendMessage(context.Background(), "1", "hi", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestClient_NonJSONResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	err := client.SendMessage(context.Background(), "1", "hi", "")
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestClient_TransportErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := NewClient(&config.TelegramConfig{BotToken: "123:secret", APIBaseURL: baseURL})
	require.NoError(t, err)

	err = client.SendMessage(context.Background(), "1", "hi", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotContains(t, err.Error(), "secret")
}
