package reminder

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ScheduleRepository reads the reading plan.
type ScheduleRepository interface {
	// ListPlanItemIDs returns the ids of reading items scheduled for the
	// given civil date (DateFormat).
	ListPlanItemIDs(ctx context.Context, date string) ([]uuid.UUID, error)
}

// ProfileRepository reads user reminder profiles.
type ProfileRepository interface {
	// ListReminderEnabled returns all profiles with email reminders enabled.
	ListReminderEnabled(ctx context.Context) ([]Profile, error)
}

// CompletionRepository reads the completion log.
type CompletionRepository interface {
	// CountCompleted returns, per user, how many of the given plan items the
	// user has completed. Users with no completions may be absent from the map.
	CountCompleted(ctx context.Context, itemIDs, userIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// Resolver computes which users are owed a reminder for a date and session.
type Resolver struct {
	schedules   ScheduleRepository
	profiles    ProfileRepository
	completions CompletionRepository
}

// NewResolver creates a Resolver over the three read interfaces.
func NewResolver(schedules ScheduleRepository, profiles ProfileRepository, completions CompletionRepository) (*Resolver, error) {
	if schedules == nil || profiles == nil || completions == nil {
		return nil, ErrRepositoryNil
	}
	return &Resolver{schedules: schedules, profiles: profiles, completions: completions}, nil
}

// Resolve runs the eligibility pass for one date and session.
//
// Any read failure aborts the whole resolution; a partial result is never
// returned as if complete. Early exits (nothing scheduled, nobody eligible,
// everybody done) are not errors - the caller distinguishes them through the
// Resolution counters.
func (r *Resolver) Resolve(ctx context.Context, date string, session Session) (Resolution, error) {
	if !session.Valid() {
		return Resolution{}, ErrInvalidSession
	}

	res := Resolution{Date: date, Session: session}

	itemIDs, err := r.schedules.ListPlanItemIDs(ctx, date)
	if err != nil {
		return Resolution{}, errors.Join(ErrResolveEligibility, err)
	}
	res.ScheduledItems = len(itemIDs)
	if res.ScheduledItems == 0 {
		// Nothing scheduled means nothing to remind about.
		return res, nil
	}

	profiles, err := r.profiles.ListReminderEnabled(ctx)
	if err != nil {
		return Resolution{}, errors.Join(ErrResolveEligibility, err)
	}

	eligible := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if strings.TrimSpace(p.Email) == "" {
			continue
		}
		if InferSession(p.Phone) != session {
			continue
		}
		eligible = append(eligible, p)
	}
	res.EligibleCount = len(eligible)
	if res.EligibleCount == 0 {
		return res, nil
	}

	userIDs := make([]uuid.UUID, len(eligible))
	for i, p := range eligible {
		userIDs[i] = p.ID
	}

	completed, err := r.completions.CountCompleted(ctx, itemIDs, userIDs)
	if err != nil {
		return Resolution{}, errors.Join(ErrResolveEligibility, err)
	}

	res.Candidates = make([]Profile, 0, len(eligible))
	for _, p := range eligible {
		if completed[p.ID] >= res.ScheduledItems {
			// Done for the day, no reminder owed.
			continue
		}
		res.Candidates = append(res.Candidates, p)
	}

	return res, nil
}
