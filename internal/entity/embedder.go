package entity

// Wire types for the external embedding service.

type EmbedRequest struct {
	Texts []string `json:"texts"`
}

type EmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model,omitempty"`
	Dimension  int         `json:"dimension,omitempty"`
}
