package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DefaultSaveDebounce = 500 * time.Millisecond
	saveTimeout         = 5 * time.Second
)

// CycleTracker is the record repository used by the HTTP layer. It caches each
// owner's map after the first load and writes it back through a per-owner
// debounce, so a burst of edits to one day costs a single store write.
type CycleTracker struct {
	store    CycleStore
	log      *zap.Logger
	debounce time.Duration
	validate *validator.Validate

	mu        sync.Mutex
	cache     map[string]models.RecordMap
	pending   map[string]*pendingSave
	saveLocks map[string]*sync.Mutex
}

// NewCycleTracker builds a tracker. A debounce of zero or less saves
// synchronously on every mutation.
func NewCycleTracker(store CycleStore, debounce time.Duration, log *zap.Logger) *CycleTracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &CycleTracker{
		store:    store,
		log:      log.Named("tracker"),
		debounce: debounce,
		validate: validator.New(),
		cache:    map[string]models.RecordMap{},
		pending:  map[string]*pendingSave{},

		saveLocks: map[string]*sync.Mutex{},
	}
}

func (t *CycleTracker) load(ctx context.Context, owner string) (models.RecordMap, error) {
	t.mu.Lock()
	m, ok := t.cache[owner]
	t.mu.Unlock()
	if ok {
		return m, nil
	}

	loaded, err := t.store.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if loaded == nil {
		loaded = models.RecordMap{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.cache[owner]; ok {
		return m, nil
	}
	t.cache[owner] = loaded
	return loaded, nil
}

// ownerMap returns the cached map for owner, installing loaded when the cache
// has none yet. Callers hold t.mu.
func (t *CycleTracker) ownerMap(owner string, loaded models.RecordMap) models.RecordMap {
	if m, ok := t.cache[owner]; ok {
		return m
	}
	t.cache[owner] = loaded
	return loaded
}

// Records returns a copy of the owner's map.
func (t *CycleTracker) Records(ctx context.Context, owner string) (models.RecordMap, error) {
	loaded, err := t.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ownerMap(owner, loaded).Clone(), nil
}

// Upsert merges patch into the record for date, creating it on first save.
func (t *CycleTracker) Upsert(ctx context.Context, owner, date string, patch models.CycleRecordPatch) (models.CycleRecord, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return models.CycleRecord{}, err
	}
	if err := t.validate.Struct(patch); err != nil {
		return models.CycleRecord{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	loaded, err := t.load(ctx, owner)
	if err != nil {
		return models.CycleRecord{}, err
	}

	key := models.FormatDate(day)
	t.mu.Lock()
	m := t.ownerMap(owner, loaded)
	rec := m[key].Apply(patch)
	m[key] = rec
	t.mu.Unlock()

	recordUpsertsTotal.Inc()
	return rec, t.scheduleSave(ctx, owner)
}

// Delete removes the record for date and reports whether it existed.
func (t *CycleTracker) Delete(ctx context.Context, owner, date string) (bool, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return false, err
	}
	loaded, err := t.load(ctx, owner)
	if err != nil {
		return false, err
	}

	key := models.FormatDate(day)
	t.mu.Lock()
	m := t.ownerMap(owner, loaded)
	_, existed := m[key]
	delete(m, key)
	t.mu.Unlock()

	if !existed {
		return false, nil
	}
	return true, t.scheduleSave(ctx, owner)
}

// Import folds a previously exported document (versioned or a bare map) into
// the owner's records. With replace set the imported map becomes the whole
// history; otherwise imported days overwrite matching days only.
func (t *CycleTracker) Import(ctx context.Context, owner string, data []byte, replace bool) (int, error) {
	incoming, err := ParseRecordDocument(data)
	if err != nil {
		return 0, err
	}
	loaded, err := t.load(ctx, owner)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	if replace {
		t.cache[owner] = incoming
	} else {
		m := t.ownerMap(owner, loaded)
		for k, r := range incoming {
			m[k] = r
		}
	}
	t.mu.Unlock()
	return len(incoming), t.scheduleSave(ctx, owner)
}

func (t *CycleTracker) Prediction(ctx context.Context, owner string) (*Prediction, error) {
	records, err := t.Records(ctx, owner)
	if err != nil {
		return nil, err
	}
	p, err := PredictCycle(records)
	switch {
	case errors.Is(err, ErrInsufficientData):
		predictionsTotal.WithLabelValues("insufficient").Inc()
	case err == nil:
		predictionsTotal.WithLabelValues("ok").Inc()
	}
	return p, err
}

func (t *CycleTracker) Insights(ctx context.Context, owner string, topN int) (*Insights, error) {
	records, err := t.Records(ctx, owner)
	if err != nil {
		return nil, err
	}
	return ComputeInsights(records, topN), nil
}

// scheduleSave persists synchronously when the debounce is off. A failed
// synchronous write drops the owner's cached map so the next read reloads
// what the store actually holds.
func (t *CycleTracker) scheduleSave(ctx context.Context, owner string) error {
	if t.debounce <= 0 {
		err := t.persistLatest(ctx, owner)
		if err != nil {
			t.mu.Lock()
			delete(t.cache, owner)
			t.mu.Unlock()
		}
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.pending[owner]; ok {
		p.timer.Reset(t.debounce)
		return nil
	}
	p := &pendingSave{}
	p.timer = time.AfterFunc(t.debounce, func() { t.fire(owner, p) })
	t.pending[owner] = p
	return nil
}

// fire runs when a debounce elapses. Whoever removes an entry from pending
// owns writing it, so a save already claimed by Flush is skipped here.
func (t *CycleTracker) fire(owner string, p *pendingSave) {
	t.mu.Lock()
	if t.pending[owner] != p {
		t.mu.Unlock()
		return
	}
	delete(t.pending, owner)
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := t.persistLatest(ctx, owner); err != nil {
		t.log.Error("debounced save failed", zap.String("owner", owner), zap.Error(err))
	}
}

// claim takes over a pending save. Callers hold t.mu.
func (t *CycleTracker) claim(owner string) bool {
	p, ok := t.pending[owner]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(t.pending, owner)
	return true
}

// ownerSaveLock returns the mutex that orders store writes for owner.
func (t *CycleTracker) ownerSaveLock(owner string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.saveLocks[owner]
	if !ok {
		l = &sync.Mutex{}
		t.saveLocks[owner] = l
	}
	return l
}

// persistLatest writes the owner's current map. The snapshot is taken while
// the owner's save lock is held, so writes land in the order their snapshots
// were taken and a slow save can never overwrite a newer one.
func (t *CycleTracker) persistLatest(ctx context.Context, owner string) error {
	l := t.ownerSaveLock(owner)
	l.Lock()
	defer l.Unlock()

	t.mu.Lock()
	snapshot := t.cache[owner].Clone()
	t.mu.Unlock()

	if err := t.store.Save(ctx, owner, snapshot); err != nil {
		storeWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("save records: %w", err)
	}
	storeWritesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Flush writes every owner with a pending debounced save. It runs on shutdown.
func (t *CycleTracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	var owners []string
	for owner := range t.pending {
		if t.claim(owner) {
			owners = append(owners, owner)
		}
	}
	t.mu.Unlock()

	var errs []error
	for _, owner := range owners {
		if err := t.persistLatest(ctx, owner); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type pendingSave struct{ timer *time.Timer }
