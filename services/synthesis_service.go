package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ichakraborty/docquery/models"
)

// noRelevantInformationAnswer is returned when retrieval finds nothing.
const noRelevantInformationAnswer = "I couldn't find any relevant information in the uploaded documents. " +
	"Please make sure you've uploaded documents related to your query."

const (
	// maxSourcesInPrompt bounds how many source names the synthesis prompt
	// lists.
	maxSourcesInPrompt = 5
	// sourcePreviewChars bounds the text snippet attached to each citation.
	sourcePreviewChars = 300
	// maxAnalysisChunks bounds how many chunks feed a document summary.
	maxAnalysisChunks = 5
)

// Generator runs one LLM completion and reports the text plus the total
// tokens consumed.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, int, error)
}

// GeminiGenerator is a Generator backed by the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator for the given model.
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

// Generate sends one completion request with the persona as the system
// instruction.
func (g *GeminiGenerator) Generate(ctx context.Context, system, user string) (string, int, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: 2000,
	}
	if system != "" {
		config.SystemInstruction = genai.Text(system)[0]
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), config)
	if err != nil {
		return "", 0, fmt.Errorf("gemini api call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", 0, fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	tokens := 0
	if result.UsageMetadata != nil {
		tokens = int(result.UsageMetadata.TotalTokenCount)
	}
	return text.String(), tokens, nil
}

// AnswerResult is the outcome of answering one query. Success is false when
// no relevant chunks were found; Answer then carries a fixed notice.
type AnswerResult struct {
	Answer     string
	Sources    []models.SourceRef
	Success    bool
	TokensUsed int
}

// Synthesizer turns retrieved chunks into cited answers through a two-stage
// pipeline. Stage one analyzes the retrieved context against the query;
// stage two writes the final response from that analysis.
type Synthesizer struct {
	generator Generator
}

// NewSynthesizer creates a synthesizer using the given generator.
func NewSynthesizer(generator Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Answer produces the final response for a query from its retrieved chunks.
func (s *Synthesizer) Answer(ctx context.Context, query string, hits []models.SearchHit) (*AnswerResult, error) {
	if len(hits) == 0 {
		return &AnswerResult{
			Answer:  noRelevantInformationAnswer,
			Sources: []models.SourceRef{},
			Success: false,
		}, nil
	}

	analysis, analysisTokens, err := s.generator.Generate(ctx, retrievalPersona.System(), analysisTask(query, hits))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze retrieved chunks: %w", err)
	}

	sourceNames := make([]string, 0, maxSourcesInPrompt)
	for _, hit := range hits {
		if len(sourceNames) == maxSourcesInPrompt {
			break
		}
		sourceNames = append(sourceNames, hit.Source)
	}

	answer, synthesisTokens, err := s.generator.Generate(ctx, responsePersona.System(),
		synthesisTask(query, analysis, strings.Join(sourceNames, ", ")))
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize answer: %w", err)
	}

	return &AnswerResult{
		Answer:     answer,
		Sources:    sourceRefs(hits),
		Success:    true,
		TokensUsed: analysisTokens + synthesisTokens,
	}, nil
}

// Rephrase expands a terse query into a full retrieval instruction. Blank
// input is returned unchanged without an LLM call.
func (s *Synthesizer) Rephrase(ctx context.Context, query string) (string, int, error) {
	if strings.TrimSpace(query) == "" {
		return query, 0, nil
	}
	rephrased, tokens, err := s.generator.Generate(ctx, rephraseSystemPrompt, query)
	if err != nil {
		return "", 0, fmt.Errorf("failed to rephrase query: %w", err)
	}
	return strings.TrimSpace(rephrased), tokens, nil
}

// AnalyzeDocument summarizes one document from its leading chunks.
func (s *Synthesizer) AnalyzeDocument(ctx context.Context, source string, chunkTexts []string) (string, int, error) {
	if len(chunkTexts) > maxAnalysisChunks {
		chunkTexts = chunkTexts[:maxAnalysisChunks]
	}
	summary, tokens, err := s.generator.Generate(ctx, analyzerPersona.System(), analyzeDocumentTask(source, chunkTexts))
	if err != nil {
		return "", 0, fmt.Errorf("failed to analyze document %s: %w", source, err)
	}
	return summary, tokens, nil
}

// sourceRefs converts hits into citations with truncated text previews.
func sourceRefs(hits []models.SearchHit) []models.SourceRef {
	refs := make([]models.SourceRef, 0, len(hits))
	for _, hit := range hits {
		text := hit.Text
		if len(text) > sourcePreviewChars {
			text = text[:sourcePreviewChars] + "..."
		}
		refs = append(refs, models.SourceRef{
			Source: hit.Source,
			Page:   hit.Page,
			Score:  hit.Score,
			Text:   text,
		})
	}
	return refs
}
