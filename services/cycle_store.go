package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"go.uber.org/zap"
)

// CycleStore persists one owner's whole record map. Load never fails on bad
// stored data; it logs and returns an empty map instead.
type CycleStore interface {
	Load(ctx context.Context, owner string) (models.RecordMap, error)
	Save(ctx context.Context, owner string, records models.RecordMap) error
}

const recordDocumentVersion = 1

type recordDocument struct {
	Version int              `json:"version"`
	Records models.RecordMap `json:"records"`
}

func encodeRecords(records models.RecordMap) ([]byte, error) {
	if records == nil {
		records = models.RecordMap{}
	}
	return json.Marshal(recordDocument{Version: recordDocumentVersion, Records: records})
}

// decodeRecords reads a versioned document, or a bare date->record map written
// before documents carried a version.
func decodeRecords(data []byte) (models.RecordMap, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return models.RecordMap{}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if _, tagged := probe["version"]; tagged {
		var doc recordDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc.Version > recordDocumentVersion {
			return nil, fmt.Errorf("record document version %d is newer than %d", doc.Version, recordDocumentVersion)
		}
		if doc.Records == nil {
			doc.Records = models.RecordMap{}
		}
		return doc.Records, nil
	}

	legacy := models.RecordMap{}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	return legacy, nil
}

// decodeOrEmpty is the cold-start policy shared by every backend.
func decodeOrEmpty(log *zap.Logger, owner string, data []byte) models.RecordMap {
	records, err := decodeRecords(data)
	if err != nil {
		log.Warn("discarding unreadable cycle records", zap.String("owner", owner), zap.Error(err))
		return models.RecordMap{}
	}
	clean, bad := canonicalKeys(records)
	for _, k := range bad {
		log.Warn("dropping record with bad date key", zap.String("owner", owner), zap.String("key", k))
	}
	return clean
}

// canonicalKeys rebuilds records under FormatDate keys and returns the keys
// that do not parse as dates. When several keys name the same day the one
// already in canonical form wins, otherwise the first in sorted order.
func canonicalKeys(records models.RecordMap) (models.RecordMap, []string) {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clean := make(models.RecordMap, len(records))
	var bad []string
	for _, k := range keys {
		day, err := models.ParseDate(k)
		if err != nil {
			bad = append(bad, k)
			continue
		}
		canon := models.FormatDate(day)
		if _, taken := clean[canon]; taken && k != canon {
			continue
		}
		clean[canon] = records[k]
	}
	return clean, bad
}

// MemoryCycleStore keeps documents in process memory.
type MemoryCycleStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	log  *zap.Logger
}

func NewMemoryCycleStore(log *zap.Logger) *MemoryCycleStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryCycleStore{docs: map[string][]byte{}, log: log}
}

func (s *MemoryCycleStore) Load(_ context.Context, owner string) (models.RecordMap, error) {
	s.mu.Lock()
	data := s.docs[owner]
	s.mu.Unlock()
	return decodeOrEmpty(s.log, owner, data), nil
}

func (s *MemoryCycleStore) Save(_ context.Context, owner string, records models.RecordMap) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[owner] = data
	s.mu.Unlock()
	return nil
}

// Raw exposes the stored document, mostly for tests.
func (s *MemoryCycleStore) Raw(owner string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.docs[owner]...)
}

// Put stores a raw document as if written by an older client.
func (s *MemoryCycleStore) Put(owner string, data []byte) {
	s.mu.Lock()
	s.docs[owner] = append([]byte(nil), data...)
	s.mu.Unlock()
}

// ParseRecordDocument decodes an exported or stored document into canonical
// date keys and rejects unparseable ones. Unlike Load it reports bad data
// instead of starting cold.
func ParseRecordDocument(data []byte) (models.RecordMap, error) {
	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	clean, bad := canonicalKeys(records)
	if len(bad) > 0 {
		_, err := models.ParseDate(bad[0])
		return nil, err
	}
	return clean, nil
}
