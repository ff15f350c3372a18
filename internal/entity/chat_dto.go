package entity

// QueryRequest is the chat surface's question payload. TopK is optional and
// clamped by the resolver's configured bounds.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}
