package domain

// TermWeight is a single query term with the weight the semantic backend
// assigned to it. Used to build human-readable match explanations.
type TermWeight struct {
	Term   string
	Weight float64
}

// SemanticResult is one scored candidate returned by the semantic backend.
// Score is normalized to [0,1] regardless of which wire field carried it.
type SemanticResult struct {
	ID                 string
	Score              float64
	TopTerms           []TermWeight
	AllKeywordsMatched bool
}
