package models

// OpenAIEmbedRequest is the request body for an OpenAI-compatible
// /embeddings call. Input is always sent as a batch, even for one text.
type OpenAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// OpenAIEmbedResponse parses the embeddings from the API response.
type OpenAIEmbedResponse struct {
	Data []OpenAIEmbedding `json:"data"`
}

// OpenAIEmbedding is a single embedding with its position in the input
// batch. The Index field is what guarantees positional correspondence.
type OpenAIEmbedding struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}
