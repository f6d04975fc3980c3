package searchdb

// Chunk is the unit of retrieval: a run of consecutive sentences from one document.
type Chunk struct {
	ID       string `json:"id"`
	Document string `json:"document"`
	Number   int    `json:"chunk"`
	Text     string `json:"text"`
}

type Hit struct {
	ID       string  `json:"id"`
	Document string  `json:"document"`
	Number   int     `json:"chunk"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}
