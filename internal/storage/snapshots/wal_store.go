package snapshots

import (
	"encoding/json"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

const (
	defaultJournalDir    = "./wal/snapshots"
	journalSegmentLimit  = 1000
	journalMaxSegments   = 100
	snapshotKeyPrefix    = "balance_snapshot_"
	journalSegmentPrefix = "snapshot_"
)

// Entry one raw balance in a journaled snapshot.
type Entry struct {
	Token   string `json:"token"`
	Account string `json:"account"`
	Label   string `json:"label,omitempty"`
	Raw     string `json:"raw"`
}

// Record journaled form of a published snapshot.
type Record struct {
	ID       string    `json:"id"`
	Seq      uint64    `json:"seq"`
	Name     string    `json:"name,omitempty"`
	TakenAt  time.Time `json:"ts"`
	Balances []Entry   `json:"balances"`
}

// NewRecord converts a snapshot into its journaled form.
func NewRecord(s *domain.Snapshot) Record {
	rec := Record{
		ID:      s.ID.String(),
		Seq:     s.Seq,
		Name:    s.Name,
		TakenAt: s.TakenAt,
	}
	s.Balances.Each(func(token domain.Token, account domain.Account, value *big.Int) bool {
		rec.Balances = append(rec.Balances, Entry{
			Token:   token.String(),
			Account: account.String(),
			Label:   account.Label,
			Raw:     value.String(),
		})
		return true
	})
	return rec
}

// ToSnapshot rebuilds a frozen snapshot from the record.
func (r Record) ToSnapshot() (*domain.Snapshot, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, errors.Wrap(err, "decode snapshot id")
	}

	balances := domain.NewBalances()
	for _, e := range r.Balances {
		token, err := domain.NewToken(e.Token)
		if err != nil {
			return nil, errors.Wrap(err, "decode token")
		}
		addr, err := domain.ParseAddress(e.Account)
		if err != nil {
			return nil, errors.Wrap(err, "decode account")
		}
		raw, ok := new(big.Int).SetString(e.Raw, 10)
		if !ok {
			return nil, errors.Errorf("decode raw balance %q", e.Raw)
		}
		balances.Set(token, domain.Account{Address: addr, Label: e.Label}, raw)
	}
	balances.Freeze()

	return &domain.Snapshot{
		ID:       id,
		Seq:      r.Seq,
		Name:     r.Name,
		TakenAt:  r.TakenAt,
		Balances: balances,
	}, nil
}

// IndexedRecord a record with its WAL position.
type IndexedRecord struct {
	Index  uint64
	Record Record
}

// WALStore journals published snapshots in a write-ahead log for later audit.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           journalSegmentPrefix,
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init snapshot journal")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the snapshot to the journal.
func (s *WALStore) Save(snapshot *domain.Snapshot) error {
	if s == nil || s.wal == nil {
		return errors.New("snapshot journal is not initialized")
	}
	if snapshot == nil || snapshot.Balances == nil {
		return errors.New("snapshot has no balances")
	}

	payload, err := json.Marshal(NewRecord(snapshot))
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	key := snapshotKeyPrefix + snapshot.ID.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return errors.Wrap(s.wal.Write(nextIndex, key, payload), "write snapshot journal")
}

// RecordsAfter returns all journaled snapshots written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]IndexedRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("snapshot journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]IndexedRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "read journal entry %d", idx)
		}
		// rotated out or not a snapshot
		if !strings.HasPrefix(key, snapshotKeyPrefix) {
			continue
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, errors.Wrap(err, "decode snapshot record")
		}
		records = append(records, IndexedRecord{Index: idx, Record: rec})
	}

	return records, nil
}

// LastSeq returns the sequence number of the newest journaled snapshot, or 0 for an empty journal.
func (s *WALStore) LastSeq() (uint64, error) {
	if s == nil || s.wal == nil {
		return 0, errors.New("snapshot journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for idx := s.wal.CurrentIndex(); idx > 0; idx-- {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return 0, errors.Wrapf(err, "read journal entry %d", idx)
		}
		if !strings.HasPrefix(key, snapshotKeyPrefix) {
			continue
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return 0, errors.Wrap(err, "decode snapshot record")
		}
		return rec.Seq, nil
	}
	return 0, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("snapshot journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
