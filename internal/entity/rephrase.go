package entity

// Wire types for the optional rephrasing service. The resolver treats it as
// best-effort: any failure falls back to the verbatim matched answer.

type RephraseRequest struct {
	Question      string   `json:"question"`
	MatchedAnswer string   `json:"matched_answer"`
	Context       []string `json:"context,omitempty"`
}

type RephraseResponse struct {
	Answer string `json:"answer"`
}
