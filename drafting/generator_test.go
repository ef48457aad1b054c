package drafting_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/inbox-assist/drafting"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerator_Generate(t *testing.T) {
	var gotPath, gotKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "SUBJECT: Re: Hi\nBODY:\nHello"}},
				},
			}},
		})
	}))
	defer srv.Close()

	gen, err := drafting.NewGeminiGenerator(context.Background(), "test-key", "gemini-2.0-flash",
		drafting.WithBaseURL(srv.URL+"/"), drafting.WithGeminiHTTPClient(srv.Client()))
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "write a reply")
	require.NoError(t, err)
	require.Equal(t, "SUBJECT: Re: Hi\nBODY:\nHello", text)

	require.True(t, strings.HasSuffix(gotPath, "models/gemini-2.0-flash:generateContent"), gotPath)
	require.Equal(t, "test-key", gotKey)
	require.Contains(t, gotBody, "write a reply")
}

func TestGeminiGenerator_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	gen, err := drafting.NewGeminiGenerator(context.Background(), "k", "m",
		drafting.WithBaseURL(srv.URL+"/"), drafting.WithGeminiHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "x")
	require.Error(t, err)
}
