package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/db/filestore"
	"github.com/meghashyamc/docquery/db/kvdb"
	"github.com/meghashyamc/docquery/db/searchdb"
	"github.com/meghashyamc/docquery/llm"
	"github.com/meghashyamc/docquery/logger"
	"github.com/meghashyamc/docquery/metrics"
)

// Store is the flat directory holding uploaded documents.
type Store interface {
	Save(name string, r io.Reader) (*filestore.SavedFile, error)
	List() ([]filestore.FileInfo, error)
	Read(name string) ([]byte, bool, error)
}

// Catalog records uploads and index builds. Failures there are logged, never fatal.
type Catalog interface {
	PutDocument(record kvdb.DocumentRecord) error
	GetDocument(name string) (*kvdb.DocumentRecord, error)
	ListDocuments() ([]kvdb.DocumentRecord, error)
	PutIndexStatus(status kvdb.IndexStatus) error
	GetIndexStatus() (*kvdb.IndexStatus, error)
}

type Status struct {
	Ready         bool       `json:"ready"`
	Generation    uint64     `json:"generation"`
	DocumentCount int        `json:"document_count"`
	ChunkCount    int        `json:"chunk_count"`
	BuiltAt       *time.Time `json:"built_at"`
}

type DocumentInfo struct {
	Name       string     `json:"name"`
	Size       int64      `json:"size"`
	ModTime    time.Time  `json:"mod_time"`
	UploadedAt *time.Time `json:"uploaded_at"`
}

type UploadResult struct {
	Name   string
	Size   int64
	SHA256 string
	// Replaced is set when a document with the same name had been uploaded before.
	Replaced bool
	Status   Status
}

// Service owns the current Index. Uploads and rebuilds are serialised by writeMu; the
// current pointer is guarded by mu so queries can take a snapshot without waiting for a
// rebuild in progress.
type Service struct {
	logger   logger.Logger
	store    Store
	catalog  Catalog
	answerer llm.Answerer
	chunker  *SentenceChunker
	metrics  *metrics.Metrics

	topK              int
	loaderConcurrency int

	writeMu    sync.Mutex
	mu         sync.RWMutex
	current    *Index
	generation uint64
}

func New(logger logger.Logger, cfg *config.Config, store Store, catalog Catalog, answerer llm.Answerer, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New()
	}

	service := &Service{
		logger:            logger,
		store:             store,
		catalog:           catalog,
		answerer:          answerer,
		chunker:           NewSentenceChunker(cfg.GetChunkSentences(), cfg.GetChunkOverlap()),
		metrics:           m,
		topK:              max(1, cfg.GetTopK()),
		loaderConcurrency: max(1, cfg.GetLoaderConcurrency()),
	}

	// Generations keep counting across restarts even though the index itself is not persisted.
	if status, err := catalog.GetIndexStatus(); err == nil {
		service.generation = status.Generation
	} else if !errors.Is(err, kvdb.ErrNotFound) {
		logger.Warn("could not read last index status", "err", err.Error())
	}

	return service
}

// Upload stores the document, then rebuilds the index from every stored document and
// makes it current. When the rebuild fails the file stays stored and the previous index
// remains current.
func (s *Service) Upload(ctx context.Context, name string, r io.Reader, contentType string) (*UploadResult, error) {
	log := logger.FromContext(ctx, s.logger)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	previous, err := s.catalog.GetDocument(name)
	if err != nil && !errors.Is(err, kvdb.ErrNotFound) && !errors.Is(err, kvdb.ErrInvalidKey) {
		log.Warn("could not look up previous upload", "name", name, "err", err.Error())
	}

	saved, err := s.store.Save(name, r)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues(metrics.StatusError).Inc()
		if errors.Is(err, filestore.ErrInvalidName) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFile, err.Error())
		}
		log.Error("failed to store document", "name", name, "err", err.Error())
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}
	log.Info("stored document", "name", saved.Name, "size", saved.Size, "replaced", previous != nil)

	record := kvdb.DocumentRecord{
		Name:        saved.Name,
		Size:        saved.Size,
		SHA256:      saved.SHA256,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.catalog.PutDocument(record); err != nil {
		log.Warn("could not record upload in catalog", "name", saved.Name, "err", err.Error())
	}

	status, err := s.rebuildLocked(ctx)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues(metrics.StatusError).Inc()
		log.Error("failed to index document", "name", saved.Name, "err", err.Error())
		return nil, err
	}

	s.metrics.UploadsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	return &UploadResult{Name: saved.Name, Size: saved.Size, SHA256: saved.SHA256, Replaced: previous != nil, Status: *status}, nil
}

// Rebuild indexes the storage directory as it currently is. With nothing stored it leaves
// the service without an index and returns ErrNoDocuments.
func (s *Service) Rebuild(ctx context.Context) (*Status, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.rebuildLocked(ctx)
}

func (s *Service) rebuildLocked(ctx context.Context) (*Status, error) {
	log := logger.FromContext(ctx, s.logger)
	start := time.Now()

	idx, err := s.build(ctx)
	if err != nil {
		s.metrics.IndexRebuildsTotal.WithLabelValues(metrics.StatusError).Inc()
		return nil, err
	}
	s.metrics.IndexRebuildsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	s.metrics.IndexRebuildDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	previous := s.current
	s.current = idx
	s.generation = idx.Generation
	s.mu.Unlock()

	if previous != nil {
		previous.retire(s.logger)
	}

	s.metrics.IndexedDocuments.Set(float64(idx.DocumentCount))
	s.metrics.IndexedChunks.Set(float64(idx.ChunkCount))

	if err := s.catalog.PutIndexStatus(kvdb.IndexStatus{
		Generation:    idx.Generation,
		BuiltAt:       idx.BuiltAt,
		DocumentCount: idx.DocumentCount,
		ChunkCount:    idx.ChunkCount,
	}); err != nil {
		log.Warn("could not persist index status", "generation", idx.Generation, "err", err.Error())
	}

	log.Info("rebuilt index", "generation", idx.Generation, "documents", idx.DocumentCount, "chunks", idx.ChunkCount, "took", time.Since(start).String())
	return statusOf(idx), nil
}

func (s *Service) build(ctx context.Context) (*Index, error) {
	files, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoDocuments
	}

	documents, err := s.loadDocuments(ctx, files)
	if err != nil {
		return nil, err
	}

	var chunks []searchdb.Chunk
	for _, doc := range documents {
		chunks = append(chunks, s.chunker.Chunk(doc)...)
	}

	db, err := searchdb.New(s.logger)
	if err != nil {
		return nil, err
	}
	if err := db.BuildIndex(chunks); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	return &Index{
		db:            db,
		Generation:    s.generation + 1,
		BuiltAt:       time.Now().UTC(),
		DocumentCount: len(documents),
		ChunkCount:    len(chunks),
	}, nil
}

// acquire returns the current index registered as in use, or nil when there is none.
// Callers must release a non-nil index.
func (s *Service) acquire() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	s.current.inflight.Add(1)
	return s.current
}

func (idx *Index) release() {
	idx.inflight.Done()
}

func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *Service) Query(ctx context.Context, question string) (*Answer, error) {
	idx := s.acquire()
	if idx == nil {
		return nil, ErrNoDocuments
	}
	defer idx.release()

	if strings.TrimSpace(question) == "" {
		return nil, ErrNoQuestion
	}

	answer, err := idx.QueryEngine(s.answerer, s.topK).Query(ctx, question)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("query failed", "generation", idx.Generation, "err", err.Error())
		return nil, err
	}
	return answer, nil
}

func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Status{Generation: s.generation}
	}
	return *statusOf(s.current)
}

func statusOf(idx *Index) *Status {
	builtAt := idx.BuiltAt
	return &Status{
		Ready:         true,
		Generation:    idx.Generation,
		DocumentCount: idx.DocumentCount,
		ChunkCount:    idx.ChunkCount,
		BuiltAt:       &builtAt,
	}
}

// ListDocuments lists the storage directory, enriched with upload times from the catalog.
func (s *Service) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	files, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	uploadedAt := map[string]time.Time{}
	records, err := s.catalog.ListDocuments()
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("could not read upload catalog", "err", err.Error())
	}
	for _, record := range records {
		uploadedAt[record.Name] = record.UploadedAt
	}

	documents := make([]DocumentInfo, len(files))
	for i, file := range files {
		documents[i] = DocumentInfo{Name: file.Name, Size: file.Size, ModTime: file.ModTime}
		if t, ok := uploadedAt[file.Name]; ok {
			documents[i].UploadedAt = &t
		}
	}
	return documents, nil
}

// Close drops the current index once its in-flight queries finish.
func (s *Service) Close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		current.retire(s.logger)
	}
}
