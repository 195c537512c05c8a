package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// RecordStore holds named collections of records on a Medium. Each collection
// is a JSON array stored under one key.
//
// Writes through Mutate are serialized within the process. Two processes
// sharing a medium still race: the last writer wins.
type RecordStore struct {
	medium  Medium
	logger  *telemetry.Logger
	metrics *telemetry.Metrics

	writeMu sync.Mutex
}

// Option configures a RecordStore.
type Option func(*RecordStore)

// WithLogger sets the logger used for corruption warnings.
func WithLogger(l *telemetry.Logger) Option {
	return func(s *RecordStore) {
		s.logger = l.NewComponentLogger("stores")
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *RecordStore) {
		s.metrics = m
	}
}

// NewRecordStore creates a store over medium. Init must be called before use.
func NewRecordStore(medium Medium, opts ...Option) *RecordStore {
	s := &RecordStore{
		medium: medium,
		logger: telemetry.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init prepares the underlying medium.
func (s *RecordStore) Init(ctx context.Context) error {
	if err := s.medium.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize medium: %w", err)
	}
	return nil
}

// Close releases the underlying medium.
func (s *RecordStore) Close() error {
	return s.medium.Close()
}

// Medium returns the medium the store writes to.
func (s *RecordStore) Medium() Medium {
	return s.medium
}

// Has reports whether a collection exists under key.
func (s *RecordStore) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.medium.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Remove deletes a collection.
func (s *RecordStore) Remove(ctx context.Context, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.medium.Delete(ctx, key)
}

// HealthCheck verifies the medium is reachable.
func (s *RecordStore) HealthCheck(ctx context.Context) error {
	if hc, ok := s.medium.(interface{ HealthCheck(context.Context) error }); ok {
		return hc.HealthCheck(ctx)
	}
	_, _, err := s.medium.Get(ctx, KeyUsers)
	return err
}

// GetRaw returns the raw stored value under key.
func (s *RecordStore) GetRaw(ctx context.Context, key string) (string, bool, error) {
	return s.medium.Get(ctx, key)
}

// SetRaw stores a raw value under key without decoding it.
func (s *RecordStore) SetRaw(ctx context.Context, key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.medium.Set(ctx, key, value)
}

// GetTable returns every record of a collection. An absent collection is
// empty. A collection that cannot be decoded is logged, counted and treated
// as empty; only medium failures are returned as errors.
func GetTable[T any](ctx context.Context, s *RecordStore, key string) ([]T, error) {
	raw, ok, err := s.medium.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", key, err)
	}
	if !ok {
		return []T{}, nil
	}
	records, err := decodeTable[T](raw)
	if err != nil {
		s.reportCorrupt(key, err)
		return []T{}, nil
	}
	return records, nil
}

// SaveTable replaces the whole collection in a single write.
func SaveTable[T any](ctx context.Context, s *RecordStore, key string, records []T) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return saveTable(ctx, s, key, records)
}

// Mutate reads a collection, applies fn and writes the result back while
// holding the store's write lock. If fn returns an error nothing is written.
func Mutate[T any](ctx context.Context, s *RecordStore, key string, fn func([]T) ([]T, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := GetTable[T](ctx, s, key)
	if err != nil {
		return err
	}

	updated, err := fn(records)
	if err != nil {
		return err
	}

	return saveTable(ctx, s, key, updated)
}

func saveTable[T any](ctx context.Context, s *RecordStore, key string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", key, err)
	}
	if err := s.medium.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", key, err)
	}
	s.metrics.SetCollectionSize(key, len(records))
	return nil
}

func decodeTable[T any](raw string) ([]T, error) {
	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, err
	}
	if records == nil {
		// "null" decodes to a nil slice
		records = []T{}
	}
	return records, nil
}

func (s *RecordStore) reportCorrupt(key string, err error) {
	s.logger.WithCollection(key).WithError(err).Warn("collection is corrupt, treating as empty")
	s.metrics.RecordCorruptCollection(key)
}
