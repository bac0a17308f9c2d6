// Package storage persists the classifier's state with BoltDB: the
// fitted model artifacts produced by a training run, and a log of
// verdicts emitted at inference time.
//
// Artifacts follow a load-once contract: a serving process reads them a
// single time at startup and treats them as immutable from then on.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"dgastack/internal/ml"
)

const (
	artifactsBucket = "artifacts"
	verdictsBucket  = "verdicts"

	currentArtifactsKey = "current"
)

// ErrNoArtifacts is returned when no trained artifacts have been saved.
var ErrNoArtifacts = errors.New("storage: no artifacts stored")

// VerdictRecord is one classification event in the verdict log.
type VerdictRecord struct {
	Domain    string     `json:"domain"`
	Verdict   ml.Verdict `json:"verdict"`
	Source    string     `json:"source"`
	Timestamp time.Time  `json:"timestamp"`
}

// Store wraps the BoltDB handle and bucket management.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and ensures the
// buckets exist.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "dgastack.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(artifactsBucket)); err != nil {
			return fmt.Errorf("create artifacts bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(verdictsBucket)); err != nil {
			return fmt.Errorf("create verdicts bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveArtifacts replaces the stored model artifacts.
func (s *Store) SaveArtifacts(a ml.Artifacts) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(artifactsBucket))

		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal artifacts: %w", err)
		}
		return b.Put([]byte(currentArtifactsKey), data)
	})
}

// LoadArtifacts reads the stored model artifacts. Returns ErrNoArtifacts
// when nothing has been saved yet.
func (s *Store) LoadArtifacts() (ml.Artifacts, error) {
	var a ml.Artifacts

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(artifactsBucket)).Get([]byte(currentArtifactsKey))
		if data == nil {
			return ErrNoArtifacts
		}
		return json.Unmarshal(data, &a)
	})
	return a, err
}

// StoreVerdict appends one classification event to the verdict log,
// keyed "domain_timestamp" for range scans.
func (s *Store) StoreVerdict(rec VerdictRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(verdictsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal verdict: %w", err)
		}

		key := fmt.Sprintf("%s_%d", rec.Domain, rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetVerdicts retrieves the logged verdicts for a domain within a time
// range, inclusive on both ends.
func (s *Store) GetVerdicts(domain string, start, end time.Time) ([]VerdictRecord, error) {
	var records []VerdictRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(verdictsBucket)).Cursor()

		prefix := []byte(domain + "_")
		startKey := []byte(fmt.Sprintf("%s_%d", domain, start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%s_%d", domain, end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}

			var rec VerdictRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// CountVerdicts returns the number of logged verdicts per label.
func (s *Store) CountVerdicts() (map[ml.Label]int, error) {
	counts := make(map[ml.Label]int)

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(verdictsBucket)).ForEach(func(_, v []byte) error {
			var rec VerdictRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			counts[rec.Verdict.Label]++
			return nil
		})
	})
	return counts, err
}
