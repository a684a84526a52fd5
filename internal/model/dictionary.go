package model

// DictionaryEntry is one static term/definition pair.
type DictionaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// DictionaryMatch is a dictionary entry scored against a query.
type DictionaryMatch struct {
	Term       string  `json:"term"`
	Definition string  `json:"definition"`
	Score      float64 `json:"score"`
}
