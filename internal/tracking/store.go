package tracking

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a recipient record.
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusOpened Status = "opened"
	StatusFailed Status = "failed"
)

// statusRank orders states so a later state is never reverted by a
// concurrently-arriving earlier one. Sent and Failed are peers: both are
// terminal outcomes of the dispatch path, and only an open event outranks
// them.
var statusRank = map[Status]int{
	StatusQueued: 0,
	StatusSent:   1,
	StatusFailed: 1,
	StatusOpened: 2,
}

// RecipientRecord tracks one recipient through a send run. Records are
// created at enqueue, mutated by the dispatch workers and the pixel
// endpoint, and never deleted during a run; a re-send supersedes the old
// record under a fresh tracking id.
type RecipientRecord struct {
	Email      string     `json:"email"`
	TrackingID string     `json:"tracking_id"`
	Status     Status     `json:"status"`
	FailReason string     `json:"fail_reason,omitempty"`
	QueuedAt   time.Time  `json:"queued_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
	Replied    bool       `json:"replied"`
}

// Store is the tracking correlation store. It is read and written from the
// HTTP handler goroutines, the auto-reply worker, and the dispatch workers,
// so every access goes through the store lock.
type Store struct {
	mu      sync.RWMutex
	records map[string]*RecipientRecord // keyed by tracking id
	byEmail map[string]string           // email -> latest tracking id
}

// NewStore creates an empty tracking store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*RecipientRecord),
		byEmail: make(map[string]string),
	}
}

// Create mints a record with a fresh tracking id. A tracking id is generated
// exactly once per send attempt and never reused; an earlier record for the
// same email stays in the store but is no longer indexed by email.
func (s *Store) Create(email string) *RecipientRecord {
	rec := &RecipientRecord{
		Email:      email,
		TrackingID: uuid.NewString(),
		Status:     StatusQueued,
		QueuedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.records[rec.TrackingID] = rec
	s.byEmail[email] = rec.TrackingID
	s.mu.Unlock()
	return rec
}

// RemoveByEmail drops the email index entry so the address is excluded from
// the current batch. The record itself is kept for audit.
func (s *Store) RemoveByEmail(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; !ok {
		return false
	}
	delete(s.byEmail, email)
	return true
}

// Get returns a copy of the record for a tracking id.
func (s *Store) Get(trackingID string) (RecipientRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[trackingID]
	if !ok {
		return RecipientRecord{}, false
	}
	return *rec, true
}

// MarkSent records a confirmed delivery. SentAt is set at most once; the
// status only moves forward (an already-opened record keeps its Opened
// status but still gains the sent timestamp).
func (s *Store) MarkSent(trackingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[trackingID]
	if !ok {
		return false
	}
	if rec.SentAt == nil {
		now := time.Now().UTC()
		rec.SentAt = &now
	}
	if statusRank[StatusSent] > statusRank[rec.Status] {
		rec.Status = StatusSent
	}
	return true
}

// MarkFailed records a terminal send failure with its reason. A record that
// already reached Sent or Opened is left alone.
func (s *Store) MarkFailed(trackingID, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[trackingID]
	if !ok {
		return false
	}
	if rec.Status == StatusQueued {
		rec.Status = StatusFailed
		rec.FailReason = reason
	}
	return true
}

// MarkOpened records a pixel hit. OpenedAt is set at most once. Unknown ids
// report ok=false and leave the store untouched. The open event may race a
// send confirmation; it must never clobber the sent timestamp.
func (s *Store) MarkOpened(trackingID string) (RecipientRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[trackingID]
	if !ok {
		return RecipientRecord{}, false
	}
	if rec.OpenedAt == nil {
		now := time.Now().UTC()
		rec.OpenedAt = &now
	}
	if statusRank[StatusOpened] > statusRank[rec.Status] {
		rec.Status = StatusOpened
	}
	return *rec, true
}

// ClaimReply atomically sets the replied flag. Only the first caller per
// record wins, which keeps concurrent pixel hits from enqueueing duplicate
// auto-replies.
func (s *Store) ClaimReply(trackingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[trackingID]
	if !ok || rec.Replied {
		return false
	}
	rec.Replied = true
	return true
}

// Snapshot returns a copy of every record, newest first by queue time.
func (s *Store) Snapshot() []RecipientRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RecipientRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueuedAt.After(out[j].QueuedAt) })
	return out
}

// Counts returns the number of records per status.
func (s *Store) Counts() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Status]int, 4)
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts
}
