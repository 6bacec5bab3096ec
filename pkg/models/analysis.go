package models

// ContextMatch ties a prior turn to the current message: the keywords the two
// share and the lexical similarity between the message and the turn's user text.
type ContextMatch struct {
	Turn       Turn     `json:"turn"`
	Overlap    []string `json:"overlap"`
	Similarity float64  `json:"similarity"`
}

// Analysis is the per-message result of the analyzer. It is built for one
// incoming message, consumed by the composer and the persistence call, and
// never stored.
type Analysis struct {
	Topic        string         `json:"topic"`
	Mood         Mood           `json:"mood"`
	Keywords     []string       `json:"keywords"`
	Entities     []string       `json:"entities"`
	Matches      []ContextMatch `json:"matches"`
	ContextScore float64        `json:"context_score"`
}
