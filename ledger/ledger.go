// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger owns the mapping between the external key/value store and
// the in-memory campaign list, and enforces the two-phase campaign lifecycle
// (submit -> compute).
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/database"
	"github.com/shopspring/decimal"

	"github.com/greenadx/carbonledger/pkg/log"
	"github.com/greenadx/carbonledger/pkg/metric"
	"github.com/greenadx/carbonledger/storage"
)

var (
	ErrLedgerUnavailable = errors.New("ledger store unavailable")
	ErrNotFound          = errors.New("campaign not found")
	ErrUnauthorized      = errors.New("caller is not the campaign owner")
	ErrAlreadyCompleted  = errors.New("campaign already completed")
	ErrRecordFailed      = errors.New("campaign is in error state")
)

// Estimator is the confidential-computation capability. The shipped
// implementations live in the fhe package; the lifecycle logic here never
// depends on how the estimate is produced.
type Estimator interface {
	Estimate(m Metrics) (decimal.Decimal, error)
}

// Sealer produces the opaque encryptedPayload blob stored alongside a
// record's plaintext fields. The ledger never interprets the payload.
type Sealer interface {
	Seal(m Metrics) (string, error)
}

// Ledger synchronizes campaign records against an external key/value store.
//
// The index update in SubmitCampaign is a read-modify-write with no
// compare-and-swap: two concurrent submits can race and one append can be
// lost (last write wins on the index blob). That matches the store contract
// and is deliberate; see AuditOrphans for the recovery hook.
type Ledger struct {
	store     storage.Store
	estimator Estimator
	sealer    Sealer
	metrics   *metric.Metrics
	log       log.Logger

	now   func() time.Time
	newID func(time.Time) string

	// Session journal of ids this process wrote, for orphan auditing only.
	// Guarded separately so it never serializes the index race above.
	mu      sync.Mutex
	session []string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMetrics attaches a metrics instance.
func WithMetrics(m *metric.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides id generation, used by tests.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// NewLedger creates a campaign ledger over the given store.
func NewLedger(store storage.Store, estimator Estimator, sealer Sealer, logger log.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		estimator: estimator,
		sealer:    sealer,
		log:       logger,
		now:       time.Now,
		newID:     NewID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsAvailable reports whether the backing store answers its liveness probe.
// Informational only; no ledger operation gates on it.
func (l *Ledger) IsAvailable() bool {
	return l.store.IsAvailable()
}

// LoadAll re-reads the full index and every record it names. A missing or
// unparsable index means an empty ledger. A missing or unparsable record is
// skipped and logged; one bad record never aborts the load. Only a transport
// failure on the index read itself returns ErrLedgerUnavailable.
//
// The result is sorted by createdAt descending, ties keeping index order.
func (l *Ledger) LoadAll(ctx context.Context) ([]*CampaignRecord, error) {
	start := l.now()

	blob, err := l.store.Get(IndexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	ids := decodeIndex(blob)
	if len(blob) > 0 && ids == nil {
		l.log.Warn("campaign index unparsable, treating as empty")
	}

	records := make([]*CampaignRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := l.loadRecord(id)
		if err != nil {
			l.log.Warn("skipping unreadable campaign record",
				log.String("id", id),
				log.Error(err))
			if l.metrics != nil {
				l.metrics.RecordsSkipped.Inc()
			}
			continue
		}
		records = append(records, rec)
	}

	// Stable: equal timestamps keep their index order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})

	if l.metrics != nil {
		l.metrics.LedgerLoads.Inc()
		l.metrics.RecordsLoaded.Add(float64(len(records)))
		l.metrics.LoadDuration.Observe(l.now().Sub(start).Seconds())
	}

	l.log.Debug("ledger loaded",
		log.Int("indexed", len(ids)),
		log.Int("loaded", len(records)))

	return records, nil
}

func (l *Ledger) loadRecord(id string) (*CampaignRecord, error) {
	blob, err := l.store.Get(RecordKey(id))
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("no record blob for id %q", id)
	}
	return decodeRecord(blob)
}

// SubmitCampaign creates a record in the processing state and appends its id
// to the key index. Name and metrics validation is the caller's job; the
// writer itself only refuses empty ids.
//
// The record blob is written first, then the index. If the index append
// fails the record is an orphan: present in the store, invisible to LoadAll.
func (l *Ledger) SubmitCampaign(ctx context.Context, name string, m Metrics, owner string) (*CampaignRecord, error) {
	now := l.now()
	id := l.newID(now)
	if id == "" {
		return nil, errEmptyID
	}

	payload, err := l.sealer.Seal(m)
	if err != nil {
		return nil, fmt.Errorf("sealing campaign payload: %w", err)
	}

	rec := &CampaignRecord{
		ID:               id,
		Name:             name,
		EncryptedPayload: payload,
		CreatedAt:        now.Unix(),
		Owner:            owner,
		CarbonFootprint:  0,
		Status:           StatusProcessing,
		Metrics:          &m,
	}

	if err := l.writeRecord(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	l.mu.Lock()
	l.session = append(l.session, id)
	l.mu.Unlock()

	// Read-modify-write, intentionally without compare-and-swap.
	if err := l.appendToIndex(id); err != nil {
		if l.metrics != nil {
			l.metrics.IndexAppendFailed.Inc()
		}
		l.log.Error("index append failed, record orphaned",
			log.String("id", id),
			log.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	if l.metrics != nil {
		l.metrics.CampaignsSubmitted.Inc()
	}
	l.log.Info("campaign submitted",
		log.String("id", id),
		log.String("owner", owner))

	return rec, nil
}

func (l *Ledger) writeRecord(rec *CampaignRecord) error {
	blob, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return l.store.Set(RecordKey(rec.ID), blob)
}

func (l *Ledger) appendToIndex(id string) error {
	blob, err := l.store.Get(IndexKey)
	if err != nil {
		return err
	}
	ids := decodeIndex(blob)
	ids = append(ids, id)
	out, err := encodeIndex(ids)
	if err != nil {
		return err
	}
	return l.store.Set(IndexKey, out)
}

// ComputeFootprint runs the one-time compute transition on a processing
// record. Only the record's owner may trigger it. A second call after
// success is rejected with ErrAlreadyCompleted, never silently re-run.
// Estimator failure transitions the record to the terminal error state.
func (l *Ledger) ComputeFootprint(ctx context.Context, id, caller string) (*CampaignRecord, error) {
	start := l.now()

	blob, err := l.store.Get(RecordKey(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if len(blob) == 0 {
		l.rejectCompute("not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec, err := decodeRecord(blob)
	if err != nil {
		l.rejectCompute("not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !rec.OwnedBy(caller) {
		l.rejectCompute("unauthorized")
		return nil, ErrUnauthorized
	}
	switch rec.Status {
	case StatusCompleted:
		l.rejectCompute("already_completed")
		return nil, ErrAlreadyCompleted
	case StatusError:
		l.rejectCompute("record_failed")
		return nil, ErrRecordFailed
	}
	if rec.Metrics == nil {
		l.failRecord(rec, errors.New("record has no metrics"))
		return nil, ErrRecordFailed
	}

	value, err := l.estimator.Estimate(*rec.Metrics)
	if err != nil {
		l.failRecord(rec, err)
		return nil, ErrRecordFailed
	}

	rec.CarbonFootprint, _ = value.Round(0).Float64()
	rec.Status = StatusCompleted
	if err := l.writeRecord(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	if l.metrics != nil {
		l.metrics.FootprintsComputed.Inc()
		l.metrics.ComputeDuration.Observe(l.now().Sub(start).Seconds())
	}
	l.log.Info("footprint computed",
		log.String("id", id),
		log.Float64("carbon", rec.CarbonFootprint))

	return rec, nil
}

func (l *Ledger) rejectCompute(reason string) {
	if l.metrics != nil {
		l.metrics.ComputesRejected.WithLabelValues(reason).Inc()
	}
}

// failRecord moves a record to the terminal error state. A write failure
// here is logged and dropped: the caller already gets ErrRecordFailed.
func (l *Ledger) failRecord(rec *CampaignRecord, cause error) {
	l.rejectCompute("estimator_failed")
	l.log.Error("footprint compute failed",
		log.String("id", rec.ID),
		log.Error(cause))
	rec.Status = StatusError
	if err := l.writeRecord(rec); err != nil {
		l.log.Error("could not persist error state",
			log.String("id", rec.ID),
			log.Error(err))
	}
}

// prefixScanner is implemented by stores that can enumerate keys, which the
// remote contract store cannot. When available it widens the orphan audit
// from this process's own writes to every stored record.
type prefixScanner interface {
	NewIteratorWithPrefix(prefix string) database.Iterator
}

// AuditOrphans reports ids whose record is readable in the store but absent
// from the index, the known anomaly of the non-atomic index append. Without
// a scannable store only ids written by this process are candidates.
// Read-only; reconciliation is left to the operator.
func (l *Ledger) AuditOrphans(ctx context.Context) ([]string, error) {
	blob, err := l.store.Get(IndexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	indexed := make(map[string]struct{})
	for _, id := range decodeIndex(blob) {
		indexed[id] = struct{}{}
	}

	l.mu.Lock()
	candidates := append([]string(nil), l.session...)
	l.mu.Unlock()

	if scanner, ok := l.store.(prefixScanner); ok {
		it := scanner.NewIteratorWithPrefix(RecordKeyPrefix)
		defer it.Release()
		for it.Next() {
			key := string(it.Key())
			if key == IndexKey {
				// The index key shares the record prefix.
				continue
			}
			candidates = append(candidates, key[len(RecordKeyPrefix):])
		}
		if err := it.Error(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}
	}

	var orphans []string
	seen := make(map[string]struct{})
	for _, id := range candidates {
		if _, ok := indexed[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := l.loadRecord(id); err != nil {
			continue
		}
		orphans = append(orphans, id)
	}
	return orphans, nil
}
