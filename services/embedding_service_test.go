package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ichakraborty/docquery/models"
)

func newEmbedServer(t *testing.T, calls *int32, reverse bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		var req models.OpenAIEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := models.OpenAIEmbedResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, models.OpenAIEmbedding{
				Index:     i,
				Embedding: []float32{float32(i), float32(len(req.Input[i]))},
			})
		}
		if reverse {
			for i, j := 0, len(resp.Data)-1; i < j; i, j = i+1, j-1 {
				resp.Data[i], resp.Data[j] = resp.Data[j], resp.Data[i]
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbedBatchPreservesInputOrder(t *testing.T) {
	var calls int32
	// The server replies with its items reversed; the index field must
	// still put every vector back at its input position.
	server := newEmbedServer(t, &calls, true)
	defer server.Close()

	e := NewOpenAIEmbedder(server.URL, "test-key", "test-model")
	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vector %d has index marker %v", i, v[0])
		}
		if v[1] != float32(i+1) {
			t.Errorf("vector %d has length marker %v, want %d", i, v[1], i+1)
		}
	}
}

func TestEmbedBatchSplitsLargeInput(t *testing.T) {
	var calls int32
	server := newEmbedServer(t, &calls, false)
	defer server.Close()

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "text"
	}

	e := NewOpenAIEmbedder(server.URL, "test-key", "test-model")
	vectors, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != 250 {
		t.Fatalf("got %d vectors, want 250", len(vectors))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("made %d api calls, want 3", got)
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	var calls int32
	server := newEmbedServer(t, &calls, false)
	defer server.Close()

	e := NewOpenAIEmbedder(server.URL, "test-key", "test-model")
	vectors, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("got %d vectors, want 0", len(vectors))
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("made %d api calls, want 0", got)
	}
}

func TestEmbedBatchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	e := NewOpenAIEmbedder(server.URL, "test-key", "test-model")
	if _, err := e.EmbedBatch(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.OpenAIEmbedResponse{
			Data: []models.OpenAIEmbedding{{Index: 0, Embedding: []float32{1}}},
		})
	}))
	defer server.Close()

	e := NewOpenAIEmbedder(server.URL, "test-key", "test-model")
	if _, err := e.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error when response count does not match input")
	}
}

func TestEmbedQuery(t *testing.T) {
	var calls int32
	server := newEmbedServer(t, &calls, false)
	defer server.Close()

	e := NewOpenAIEmbedder(server.URL, "test-key", "test-model")
	vector, err := e.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vector) != 2 {
		t.Fatalf("got vector of length %d, want 2", len(vector))
	}
}
