package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient()

	if c.host != DefaultHost {
		t.Errorf("host = %s, want %s", c.host, DefaultHost)
	}
	if c.llmModel != DefaultLLMModel {
		t.Errorf("llmModel = %s, want %s", c.llmModel, DefaultLLMModel)
	}
	if c.embedModel != DefaultEmbedModel {
		t.Errorf("embedModel = %s, want %s", c.embedModel, DefaultEmbedModel)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}

func TestNewClientWithOptions(t *testing.T) {
	c := NewClient(
		WithHost("http://custom:8080/"),
		WithLLMModel("custom-llm"),
		WithEmbedModel("custom-embed"),
		WithTimeout(30*time.Second),
	)

	if c.host != "http://custom:8080" {
		t.Errorf("host = %s, want trailing slash stripped", c.host)
	}
	if c.LLMModel() != "custom-llm" {
		t.Errorf("LLMModel() = %s", c.LLMModel())
	}
	if c.EmbedModel() != "custom-embed" {
		t.Errorf("EmbedModel() = %s", c.EmbedModel())
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", c.httpClient.Timeout)
	}
}

func TestGenerate(t *testing.T) {
	t.Run("sends the expected payload and trims the response", func(t *testing.T) {
		var got generateRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/generate" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			json.NewEncoder(w).Encode(generateResponse{Response: "  a gentle word  \n"})
		}))
		defer srv.Close()

		c := NewClient(WithHost(srv.URL), WithLLMModel("m1"))
		out, err := c.Generate(context.Background(), "be reverent", "write on Psalm 23")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if out != "a gentle word" {
			t.Errorf("response = %q, want trimmed", out)
		}
		if got.Model != "m1" || got.System != "be reverent" || got.Prompt != "write on Psalm 23" {
			t.Errorf("unexpected request: %+v", got)
		}
		if got.Stream {
			t.Error("stream must be false")
		}
	})

	t.Run("empty response is legitimate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(generateResponse{Response: ""})
		}))
		defer srv.Close()

		out, err := NewClient(WithHost(srv.URL)).Generate(context.Background(), "s", "p")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if out != "" {
			t.Errorf("expected empty response, got %q", out)
		}
	})

	t.Run("non-success status is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewClient(WithHost(srv.URL)).Generate(context.Background(), "s", "p")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "status 500") {
			t.Errorf("error should carry the status, got: %v", err)
		}
		if !strings.Contains(err.Error(), "model not loaded") {
			t.Errorf("error should carry the body, got: %v", err)
		}
	})
}

func TestEmbed(t *testing.T) {
	t.Run("returns the embedding vector", func(t *testing.T) {
		var got embedRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/embeddings" {
				t.Errorf("path = %s", r.URL.Path)
			}
			json.NewDecoder(r.Body).Decode(&got)
			json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
		}))
		defer srv.Close()

		c := NewClient(WithHost(srv.URL), WithEmbedModel("e1"))
		vec, err := c.Embed(context.Background(), "some text")
		if err != nil {
			t.Fatalf("Embed failed: %v", err)
		}

		if len(vec) != 3 {
			t.Fatalf("expected 3 components, got %d", len(vec))
		}
		if got.Model != "e1" || got.Prompt != "some text" {
			t.Errorf("unexpected request: %+v", got)
		}
	})

	t.Run("missing embedding payload is a configuration error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := NewClient(WithHost(srv.URL)).Embed(context.Background(), "text")
		if !errors.Is(err, ErrNoEmbedding) {
			t.Errorf("expected ErrNoEmbedding, got %v", err)
		}
	})

	t.Run("non-success status is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such model", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewClient(WithHost(srv.URL)).Embed(context.Background(), "text")
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.Is(err, ErrNoEmbedding) {
			t.Error("transport errors must be distinct from ErrNoEmbedding")
		}
	})
}

func TestIsAvailable(t *testing.T) {
	t.Run("running server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(tagsResponse{})
		}))
		defer srv.Close()

		if err := NewClient(WithHost(srv.URL)).IsAvailable(context.Background()); err != nil {
			t.Errorf("IsAvailable failed: %v", err)
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		c := NewClient(WithHost("http://127.0.0.1:1"), WithTimeout(time.Second))
		if err := c.IsAvailable(context.Background()); err == nil {
			t.Error("expected error for unreachable server")
		}
	})
}

func TestHasModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tagsResponse{Models: []modelInfo{
			{Name: "nomic-embed-text:latest"},
			{Name: "llama3:8b"},
		}})
	}))
	defer srv.Close()

	c := NewClient(WithHost(srv.URL))

	tests := []struct {
		model string
		want  bool
	}{
		{"llama3:8b", true},
		{"nomic-embed-text:latest", true},
		{"nomic-embed-text", true},
		{"mistral", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := c.HasModel(context.Background(), tt.model)
			if err != nil {
				t.Fatalf("HasModel failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasModel(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}
