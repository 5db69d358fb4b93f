package llm

import "context"

// DocumentFields is the normalized shape we want from the classifier.
// Every field is optional; absence never aborts the pipeline.
type DocumentFields struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Author      string   `json:"author"`
	Published   string   `json:"published"` // free text, often 和暦
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Summary     string   `json:"summary"`
}

// ClassifyRequest carries one prompt plus the page images to attach.
type ClassifyRequest struct {
	Prompt      string
	ImagePaths  []string
	Temperature float32
}

// Classifier is the interface the processors and the enhancer depend on.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (string, error)
}
