package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini()
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestGeminiVision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "g-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}

		var body struct {
			Contents []struct {
				Parts []struct {
					Text       string `json:"text"`
					InlineData struct {
						MimeType string `json:"mime_type"`
						Data     string `json:"data"`
					} `json:"inline_data"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				MaxOutputTokens int `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		if len(body.Contents) != 1 || len(body.Contents[0].Parts) != 2 {
			t.Fatalf("unexpected contents: %+v", body.Contents)
		}
		if body.Contents[0].Parts[1].InlineData.MimeType != "image/jpeg" || body.Contents[0].Parts[1].InlineData.Data == "" {
			t.Error("missing inline image")
		}
		if body.GenerationConfig.MaxOutputTokens != 50 {
			t.Errorf("maxOutputTokens = %d", body.GenerationConfig.MaxOutputTokens)
		}

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"NON-PRODUCTIVE: video site"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":250,"candidatesTokenCount":7,"totalTokenCount":257}}`))
	}))
	defer server.Close()

	g, err := NewGemini(WithAPIKey("g-key"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	defer g.Close()

	resp, err := g.Vision(context.Background(), &VisionRequest{Image: testImage(32, 32), Prompt: "classify"})
	if err != nil {
		t.Fatalf("Vision: %v", err)
	}
	if resp.Content != "NON-PRODUCTIVE: video site" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.Total != 257 {
		t.Errorf("total tokens = %d", resp.Usage.Total)
	}
}

func TestGeminiEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	g, _ := NewGemini(WithAPIKey("k"), WithBaseURL(server.URL))
	_, err := g.Vision(context.Background(), &VisionRequest{Image: testImage(8, 8)})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestGeminiAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","code":429}}`))
	}))
	defer server.Close()

	g, _ := NewGemini(WithAPIKey("k"), WithBaseURL(server.URL))
	_, err := g.Vision(context.Background(), &VisionRequest{Image: testImage(8, 8)})

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests || !apiErr.Retryable() {
		t.Fatalf("err = %v, want rate-limited APIError", err)
	}
	if apiErr.Message != "quota exceeded" || apiErr.Code != "429" {
		t.Errorf("message = %q code = %q", apiErr.Message, apiErr.Code)
	}
}

func TestGeminiHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash") {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"name":"models/gemini-2.0-flash"}`))
	}))
	defer server.Close()

	g, _ := NewGemini(WithAPIKey("k"), WithBaseURL(server.URL))
	if err := g.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}
