package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rtmanagement/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

// Envelope is the decoded API response with the data left raw
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *dto.ErrorInfo  `json:"error"`
}

// DecodeEnvelope parses the response envelope
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// DecodeData parses the envelope data into T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	env := DecodeEnvelope(t, w)
	require.True(t, env.OK, "expected success, got %s", w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// Request sends a request through engine
func Request(engine *gin.Engine, method, path, contentType string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	engine.ServeHTTP(w, req)
	return w
}

// PostJSON posts v as a JSON body
func PostJSON(t *testing.T, engine *gin.Engine, path string, v any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return Request(engine, http.MethodPost, path, "application/json", bytes.NewReader(body), headers)
}

// PostForm posts urlencoded fields
func PostForm(engine *gin.Engine, path string, fields url.Values) *httptest.ResponseRecorder {
	return Request(engine, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(fields.Encode()), nil)
}

// PostMultipart posts fields plus one file part
func PostMultipart(t *testing.T, engine *gin.Engine, path string, fields map[string]string, fileField, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return Request(engine, http.MethodPost, path, mw.FormDataContentType(), &body, nil)
}
