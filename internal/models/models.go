package models

// Chunk is one overlapping slice of a document's text, the unit of
// embedding and retrieval.
type Chunk struct {
	Text          string
	SequenceIndex int
	// SourcePage is the 1-based chunk ordinal. The extractor flattens the
	// document to a single text stream, so true page numbers are not
	// preserved.
	SourcePage int
}

// QuizQuestion is a single multiple-choice question generated from a
// document. Field names match the JSON the quiz prompt asks the model for.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}
