package searchdb

type DB interface {
	BuildIndex(chunks []Chunk) error
	Search(question string, limit int) ([]Hit, error)
	GetDocCount() (uint64, error)
	Close() error
}
