package index

import "errors"

var (
	ErrNoDocuments = errors.New("No documents have been uploaded yet. Please upload a document first.")
	ErrNoQuestion  = errors.New("No question provided")
	ErrInvalidFile = errors.New("invalid file")
)
