package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"go.uber.org/zap"
)

var ownerKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// FileCycleStore writes one JSON document per owner under Dir.
type FileCycleStore struct {
	Dir string
	log *zap.Logger
}

func NewFileCycleStore(dir string, log *zap.Logger) (*FileCycleStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("cycle store dir: %w", err)
	}
	return &FileCycleStore{Dir: dir, log: log}, nil
}

func (s *FileCycleStore) path(owner string) (string, error) {
	if !ownerKeyPattern.MatchString(owner) {
		return "", fmt.Errorf("invalid owner key %q", owner)
	}
	return filepath.Join(s.Dir, owner+".json"), nil
}

func (s *FileCycleStore) Load(_ context.Context, owner string) (models.RecordMap, error) {
	p, err := s.path(owner)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return models.RecordMap{}, nil
	}
	if err != nil {
		s.log.Warn("cycle records unreadable", zap.String("owner", owner), zap.Error(err))
		return models.RecordMap{}, nil
	}
	return decodeOrEmpty(s.log, owner, data), nil
}

// Save replaces the owner's file atomically: readers see the old or the new
// document, never a partial one.
func (s *FileCycleStore) Save(_ context.Context, owner string, records models.RecordMap) error {
	p, err := s.path(owner)
	if err != nil {
		return err
	}
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, owner+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}
