package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ichakraborty/docquery/models"
	"github.com/ichakraborty/docquery/services"
)

// RAGController handles the HTTP requests for the document Q&A API. It wires
// the lifecycle, retrieval and synthesis services to Gin handlers.
type RAGController struct {
	lifecycle   *services.LifecycleManager
	retriever   *services.Retriever
	synthesizer *services.Synthesizer
	analytics   *services.SessionAnalytics
	index       services.VectorIndex
}

// NewRAGController is a constructor function that creates a new RAGController.
// This is called from main.go to inject the service dependencies.
func NewRAGController(lifecycle *services.LifecycleManager, retriever *services.Retriever, synthesizer *services.Synthesizer, analytics *services.SessionAnalytics, index services.VectorIndex) *RAGController {
	return &RAGController{
		lifecycle:   lifecycle,
		retriever:   retriever,
		synthesizer: synthesizer,
		analytics:   analytics,
		index:       index,
	}
}

// Register mounts all API routes on the given router group.
func (c *RAGController) Register(api *gin.RouterGroup) {
	api.POST("/documents", c.UploadDocuments)
	api.GET("/documents", c.ListDocuments)
	api.GET("/documents/:name/preview", c.PreviewDocument)
	api.POST("/documents/:name/summary", c.SummarizeDocument)
	api.DELETE("/documents/:name", c.DeleteDocument)
	api.POST("/query", c.Query)
	api.POST("/rephrase", c.Rephrase)
	api.GET("/analytics", c.Analytics)
	api.POST("/reset", c.Reset)
}

// UploadDocuments is the Gin handler for POST /api/v1/documents. It accepts
// a multipart form with one or more files under the "files" field and
// ingests each one independently.
func (c *RAGController) UploadDocuments(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No files provided under 'files'"})
		return
	}

	sources := make([]services.UploadSource, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		fh := fh
		sources = append(sources, services.UploadSource{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	response := models.UploadResponse{Files: make([]models.IngestFileResult, 0, len(sources))}
	c.lifecycle.IngestAll(ctx.Request.Context(), sources, func(p services.IngestProgress) {
		result := models.IngestFileResult{
			Name:        p.Name,
			ChunksAdded: p.ChunksAdded,
			Skipped:     p.Skipped,
		}
		if p.Err != nil {
			result.Error = p.Err.Error()
		}
		response.Files = append(response.Files, result)
		response.TotalChunksAdded += p.ChunksAdded
	})

	ctx.JSON(http.StatusOK, response)
}

// ListDocuments is the Gin handler for GET /api/v1/documents.
func (c *RAGController) ListDocuments(ctx *gin.Context) {
	files, err := c.lifecycle.ListFiles()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}
	ctx.JSON(http.StatusOK, models.FileListResponse{
		Count: len(files),
		Files: files,
	})
}

// PreviewDocument is the Gin handler for GET /api/v1/documents/:name/preview.
// It serves the raw uploaded file for inline display.
func (c *RAGController) PreviewDocument(ctx *gin.Context) {
	path, err := c.lifecycle.FilePath(ctx.Param("name"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.File(path)
}

// SummarizeDocument is the Gin handler for POST /api/v1/documents/:name/summary.
// It generates an LLM summary from the document's leading chunks.
func (c *RAGController) SummarizeDocument(ctx *gin.Context) {
	name := ctx.Param("name")

	texts, err := c.lifecycle.FirstChunkTexts(name, 5)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	summary, tokens, err := c.synthesizer.AnalyzeDocument(ctx.Request.Context(), name, texts)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize document"})
		return
	}
	c.analytics.RecordTokens(tokens)

	ctx.JSON(http.StatusOK, models.SummaryResponse{
		Source:  name,
		Summary: summary,
	})
}

// DeleteDocument is the Gin handler for DELETE /api/v1/documents/:name.
func (c *RAGController) DeleteDocument(ctx *gin.Context) {
	name := ctx.Param("name")

	deleted, err := c.lifecycle.Remove(ctx.Request.Context(), name)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, models.DeleteResponse{
		Name:          name,
		ChunksDeleted: deleted,
	})
}

// Query is the Gin handler for POST /api/v1/query. It runs the full
// retrieve-analyze-synthesize pipeline and returns a cited answer.
func (c *RAGController) Query(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	hits, err := c.retriever.Retrieve(ctx.Request.Context(), req.Query, req.TopK)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve documents"})
		return
	}

	result, err := c.synthesizer.Answer(ctx.Request.Context(), req.Query, hits)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate answer"})
		return
	}
	c.analytics.RecordQuery()
	c.analytics.RecordTokens(result.TokensUsed)

	ctx.JSON(http.StatusOK, models.QueryResponse{
		Answer:  result.Answer,
		Sources: result.Sources,
		Success: result.Success,
	})
}

// Rephrase is the Gin handler for POST /api/v1/rephrase. It expands a terse
// query into a fuller retrieval instruction without touching the index.
func (c *RAGController) Rephrase(ctx *gin.Context) {
	var req models.RephraseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rephrased, tokens, err := c.synthesizer.Rephrase(ctx.Request.Context(), req.Query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rephrase query"})
		return
	}
	c.analytics.RecordTokens(tokens)

	ctx.JSON(http.StatusOK, models.RephraseResponse{
		Original:  req.Query,
		Rephrased: rephrased,
	})
}

// Analytics is the Gin handler for GET /api/v1/analytics. It combines the
// session counters with the uploads directory and index views.
func (c *RAGController) Analytics(ctx *gin.Context) {
	files, err := c.lifecycle.ListFiles()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}

	ctx.JSON(http.StatusOK, models.AnalyticsResponse{
		AnalyticsSnapshot: c.analytics.Snapshot(),
		DocumentCount:     len(files),
		Index:             c.index.Stats(ctx.Request.Context()),
	})
}

// Reset is the Gin handler for POST /api/v1/reset. It clears the index,
// the uploads directory, and the session counters.
func (c *RAGController) Reset(ctx *gin.Context) {
	if err := c.lifecycle.Reset(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset knowledge base"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Knowledge base reset successfully"})
}
