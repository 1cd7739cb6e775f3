package reminder

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of every repository interface
// in this package. It is used in tests and for local development without a
// database. Safe for concurrent use.
type MemoryStorage struct {
	mu          sync.Mutex
	planItems   map[string][]uuid.UUID            // date -> item ids
	profiles    []Profile                         // insertion order
	completions map[uuid.UUID]map[uuid.UUID]bool  // user id -> item id -> done
	entries     map[uuid.UUID]*QueueEntry         // queue rows by id
	dedup       map[memoryDedupKey]uuid.UUID      // uniqueness key -> row id
}

type memoryDedupKey struct {
	userID  uuid.UUID
	date    string
	session Session
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		planItems:   make(map[string][]uuid.UUID),
		completions: make(map[uuid.UUID]map[uuid.UUID]bool),
		entries:     make(map[uuid.UUID]*QueueEntry),
		dedup:       make(map[memoryDedupKey]uuid.UUID),
	}
}

// AddPlanItem registers a reading plan item for the given date and returns
// its id.
func (s *MemoryStorage) AddPlanItem(date string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.planItems[date] = append(s.planItems[date], id)
	return id
}

// AddProfile registers a user profile.
func (s *MemoryStorage) AddProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.profiles = append(s.profiles, p)
}

// MarkCompleted records that the user completed the given plan item.
func (s *MemoryStorage) MarkCompleted(userID, itemID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completions[userID] == nil {
		s.completions[userID] = make(map[uuid.UUID]bool)
	}
	s.completions[userID][itemID] = true
}

// Entries returns a snapshot of all queue rows ordered by scheduled_for.
func (s *MemoryStorage) Entries() []QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]QueueEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out
}

// Entry returns a snapshot of one queue row.
func (s *MemoryStorage) Entry(id uuid.UUID) (QueueEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return QueueEntry{}, false
	}
	return *e, true
}

// ListPlanItemIDs implements ScheduleRepository.
func (s *MemoryStorage) ListPlanItemIDs(_ context.Context, date string) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.planItems[date]
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out, nil
}

// ListReminderEnabled implements ProfileRepository.
func (s *MemoryStorage) ListReminderEnabled(_ context.Context) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.RemindersEnabled {
			out = append(out, p)
		}
	}
	return out, nil
}

// CountCompleted implements CompletionRepository.
func (s *MemoryStorage) CountCompleted(_ context.Context, itemIDs, userIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uuid.UUID]int, len(userIDs))
	for _, userID := range userIDs {
		done := s.completions[userID]
		if done == nil {
			continue
		}
		for _, itemID := range itemIDs {
			if done[itemID] {
				out[userID]++
			}
		}
	}
	return out, nil
}

// ListBirthdays returns reminder-relevant profiles whose date of birth falls
// on the given month and day ("01-02" format).
func (s *MemoryStorage) ListBirthdays(_ context.Context, monthDay string) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Profile
	for _, p := range s.profiles {
		if p.DOB == "" || strings.TrimSpace(p.Email) == "" {
			continue
		}
		if strings.HasSuffix(p.DOB, "-"+monthDay) {
			out = append(out, p)
		}
	}
	return out, nil
}

// EnqueueBatch implements EnqueuerRepository. Entries colliding with an
// existing (user, reminder date, session) row are skipped.
func (s *MemoryStorage) EnqueueBatch(_ context.Context, entries []QueueEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted int64
	for _, e := range entries {
		key := memoryDedupKey{userID: e.UserID, date: e.ReminderDate, session: e.SessionType}
		if _, exists := s.dedup[key]; exists {
			continue
		}
		row := e
		s.entries[row.ID] = &row
		s.dedup[key] = row.ID
		inserted++
	}
	return inserted, nil
}

// ClaimBatch implements WorkerRepository.
func (s *MemoryStorage) ClaimBatch(_ context.Context, limit int, now, staleBefore time.Time) ([]QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*QueueEntry
	for _, e := range s.entries {
		switch e.Status {
		case StatusPending:
			if !e.ScheduledFor.After(now) {
				due = append(due, e)
			}
		case StatusProcessing:
			if e.ClaimedAt != nil && e.ClaimedAt.Before(staleBefore) {
				due = append(due, e)
			}
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledFor.Before(due[j].ScheduledFor) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]QueueEntry, len(due))
	for i, e := range due {
		claimedAt := now
		e.Status = StatusProcessing
		e.ClaimedAt = &claimedAt
		out[i] = *e
	}
	return out, nil
}

// MarkSent implements WorkerRepository.
func (s *MemoryStorage) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	e.Status = StatusSent
	e.SentAt = &sentAt
	e.ErrorMessage = nil
	return nil
}

// MarkRetry implements WorkerRepository.
func (s *MemoryStorage) MarkRetry(_ context.Context, id uuid.UUID, retryCount int, errMsg string, scheduledFor time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	e.Status = StatusPending
	e.RetryCount = retryCount
	e.ErrorMessage = &errMsg
	e.ScheduledFor = scheduledFor
	e.ClaimedAt = nil
	return nil
}

// MarkFailed implements WorkerRepository.
func (s *MemoryStorage) MarkFailed(_ context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	e.Status = StatusFailed
	e.RetryCount = retryCount
	e.ErrorMessage = &errMsg
	return nil
}
