package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/complementor/pkg/types"
)

var bucketFinishedApplications = []byte("finished_applications")

// Record is one finished application's outcome, as persisted for operator
// inspection.
type Record struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DataSet        string    `json:"data_set"`
	Slot           string    `json:"slot"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	AttributedRate float64   `json:"attributed_rate"`
}

// Duration returns how long the application ran.
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is a bbolt-backed append-and-list store of finished application
// records. It also hands out per-estimator snapshot directories, so the
// reconciler's benchmarking mode can persist each named estimator's matrices
// alongside the run history without pkg/reconciler knowing the on-disk
// layout.
type Store struct {
	db      *bolt.DB
	dataDir string
}

// Open opens (creating if needed) a history database under dataDir.
func Open(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "history.db")

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFinishedApplications)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create bucket: %w", err)
	}

	return &Store{db: db, dataDir: dataDir}, nil
}

// EstimatorSnapshotDir returns (creating if needed) the directory an
// estimator named name should Save/Load its matrices to.
func (s *Store) EstimatorSnapshotDir(name string) (string, error) {
	dir := filepath.Join(s.dataDir, "estimators", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("history: create estimator snapshot dir %s: %w", dir, err)
	}
	return dir, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordFinished stores app's outcome keyed by its id, attributing it the
// given reward rate (the estimator's observed reward for this run).
func (s *Store) RecordFinished(app *types.Application, attributedRate float64) error {
	rec := Record{
		ID:             app.ID,
		Name:           app.Name,
		DataSet:        app.DataSet,
		Slot:           app.Slot,
		StartedAt:      app.StartedAt,
		FinishedAt:     app.FinishedAt,
		AttributedRate: attributedRate,
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketFinishedApplications).Put([]byte(rec.ID), data)
	})
}

// Get returns the record for a single application id.
func (s *Store) Get(id string) (Record, bool, error) {
	var rec Record
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketFinishedApplications).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	return rec, found, err
}

// List returns every finished application record, ordered by key (id).
func (s *Store) List() ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFinishedApplications).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}
