package kvdb

// DB is the upload catalog. The storage directory stays the source of truth; records here
// only describe what was uploaded and what the last build produced.
type DB interface {
	PutDocument(record DocumentRecord) error
	GetDocument(name string) (*DocumentRecord, error)
	ListDocuments() ([]DocumentRecord, error)
	PutIndexStatus(status IndexStatus) error
	GetIndexStatus() (*IndexStatus, error)
	Close() error
}
