package services

import (
	"context"
	"hash/fnv"
	"io"
	"strings"

	"github.com/ichakraborty/docquery/models"
)

// stubEmbedder produces deterministic unit vectors without network calls.
// Each text maps to a one-hot vector chosen by hashing, unless an explicit
// vector is registered for it.
type stubEmbedder struct {
	dim     int
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) vectorFor(text string) []float32 {
	if v, ok := s.vectors[text]; ok {
		return v
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	v := make([]float32, s.dim)
	v[int(h.Sum32())%s.dim] = 1
	return v
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = s.vectorFor(text)
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectorFor(text), nil
}

type generatorCall struct {
	system string
	user   string
}

// stubGenerator replays scripted replies and records every call.
type stubGenerator struct {
	replies []string
	tokens  int
	err     error
	calls   []generatorCall
}

func (g *stubGenerator) Generate(ctx context.Context, system, user string) (string, int, error) {
	g.calls = append(g.calls, generatorCall{system: system, user: user})
	if g.err != nil {
		return "", 0, g.err
	}
	reply := "ok"
	if n := len(g.calls) - 1; n < len(g.replies) {
		reply = g.replies[n]
	}
	return reply, g.tokens, nil
}

func openString(content string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}
}

func embeddedChunk(text, source string, page, index int, vector []float32) models.EmbeddedChunk {
	return models.EmbeddedChunk{
		Chunk: models.Chunk{
			Text:       text,
			Source:     source,
			Page:       page,
			ChunkIndex: index,
		},
		Vector: vector,
	}
}
