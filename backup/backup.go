/*
Package backup copies the ledger to a remote document store and back.

PURPOSE:
  One document per user holds the three collections plus a timestamp.
  Saving overwrites it, loading replaces the local collections with it.

DOCUMENT:
  {
    "absences":    [...],
    "notes":       [...],
    "hourBank":    {"FERIE": "20", ...},
    "lastUpdated": "2025-03-10T09:12:00Z"
  }

  A document missing any of the three collection fields is rejected on
  load, so a half-written or foreign document never wipes local data.

SAFETY:
  Save refuses to upload an empty ledger, which would otherwise overwrite
  a good remote copy after a fresh install.

SEE ALSO:
  - postgres.go: pgx-backed Remote
  - memory.go: In-process Remote for tests and dev
  - timeoff/ledger.go: Snapshot / ReplaceAll
*/
package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/absence-ledger/timeoff"
)

// DocumentID is the fixed id of the single backup document.
const DocumentID = "mainData"

var (
	// ErrNothingToSave is returned by Save when the local ledger is empty.
	ErrNothingToSave = errors.New("no local data to save")

	// ErrNoSnapshot is returned when the remote holds no document.
	ErrNoSnapshot = errors.New("no backup found")

	// ErrInvalidSnapshot is returned when the remote document is malformed.
	ErrInvalidSnapshot = errors.New("invalid backup document")
)

// Remote stores raw backup documents by id.
type Remote interface {
	Put(ctx context.Context, id string, doc []byte, lastUpdated time.Time) error
	// Fetch returns ErrNoSnapshot when id was never stored.
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Document is the serialized form of a backup.
type Document struct {
	Absences    []timeoff.Absence `json:"absences"`
	Notes       []timeoff.DayNote `json:"notes"`
	HourBank    timeoff.HourBank  `json:"hourBank"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// Snapshot returns the collections held by the document.
func (d Document) Snapshot() timeoff.Snapshot {
	return timeoff.Snapshot{Absences: d.Absences, Notes: d.Notes, HourBank: d.HourBank}
}

var requiredFields = []string{"absences", "notes", "hourBank"}

// DecodeDocument parses and validates a raw backup document.
func DecodeDocument(raw []byte) (Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return Document{}, fmt.Errorf("%w: missing %q", ErrInvalidSnapshot, f)
		}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return doc, nil
}

// Service moves snapshots between the ledger and a Remote.
type Service struct {
	ledger *timeoff.Ledger
	remote Remote
	log    logrus.FieldLogger
	now    func() time.Time

	mu         sync.Mutex
	lastDigest []byte
}

func NewService(ledger *timeoff.Ledger, remote Remote, log logrus.FieldLogger) *Service {
	return &Service{ledger: ledger, remote: remote, log: log, now: time.Now}
}

// Save uploads the current ledger and returns the document's timestamp.
func (s *Service) Save(ctx context.Context) (time.Time, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return s.save(ctx, snap)
}

// SaveIfChanged uploads the ledger only when it differs from what this
// service last saved or loaded. It reports whether an upload happened.
func (s *Service) SaveIfChanged(ctx context.Context) (bool, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	digest, err := snapshotDigest(snap)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	unchanged := bytes.Equal(digest, s.lastDigest)
	s.mu.Unlock()
	if unchanged {
		return false, nil
	}

	if _, err := s.save(ctx, snap); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) save(ctx context.Context, snap timeoff.Snapshot) (time.Time, error) {
	if snap.IsEmpty() {
		return time.Time{}, ErrNothingToSave
	}

	doc := Document{
		Absences:    snap.Absences,
		Notes:       snap.Notes,
		HourBank:    snap.HourBank,
		LastUpdated: s.now().UTC(),
	}
	if doc.Absences == nil {
		doc.Absences = []timeoff.Absence{}
	}
	if doc.Notes == nil {
		doc.Notes = []timeoff.DayNote{}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode backup: %w", err)
	}
	if err := s.remote.Put(ctx, DocumentID, raw, doc.LastUpdated); err != nil {
		return time.Time{}, fmt.Errorf("upload backup: %w", err)
	}
	s.remember(snap)

	s.log.WithFields(logrus.Fields{
		"absences": len(doc.Absences),
		"notes":    len(doc.Notes),
	}).Info("backup saved")
	return doc.LastUpdated, nil
}

func (s *Service) remember(snap timeoff.Snapshot) {
	digest, err := snapshotDigest(snap)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.lastDigest = digest
	s.mu.Unlock()
}

// snapshotDigest fingerprints the collections, ignoring nil versus empty.
func snapshotDigest(snap timeoff.Snapshot) ([]byte, error) {
	if snap.Absences == nil {
		snap.Absences = []timeoff.Absence{}
	}
	if snap.Notes == nil {
		snap.Notes = []timeoff.DayNote{}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	sum := sha256.Sum256(raw)
	return sum[:], nil
}

// Load replaces the local ledger with the remote document.
func (s *Service) Load(ctx context.Context) (Document, error) {
	raw, err := s.remote.Fetch(ctx, DocumentID)
	if err != nil {
		return Document{}, err
	}
	doc, err := DecodeDocument(raw)
	if err != nil {
		return Document{}, err
	}
	if err := s.ledger.ReplaceAll(ctx, doc.Snapshot()); err != nil {
		return Document{}, fmt.Errorf("restore backup: %w", err)
	}
	s.remember(doc.Snapshot())

	s.log.WithFields(logrus.Fields{
		"absences":     len(doc.Absences),
		"notes":        len(doc.Notes),
		"last_updated": doc.LastUpdated,
	}).Info("backup restored")
	return doc, nil
}
