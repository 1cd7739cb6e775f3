package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ListPlanItemIDs returns ids of reading plan items scheduled for the given
// civil date (YYYY-MM-DD).
func (s *Storage) ListPlanItemIDs(ctx context.Context, date string) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM reading_plan_items WHERE date = $1`, date)
	if err != nil {
		return nil, fmt.Errorf("list plan items: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list plan items: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plan items: %w", err)
	}
	return ids, nil
}

// CountCompleted returns, per user, how many of the given plan items the user
// has a completion log for. Users with no completions are absent from the map.
func (s *Storage) CountCompleted(ctx context.Context, itemIDs, userIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, COUNT(DISTINCT reading_plan_item_id)
		FROM reading_logs
		WHERE reading_plan_item_id = ANY($1)
		  AND user_id = ANY($2)
		GROUP BY user_id`, itemIDs, userIDs)
	if err != nil {
		return nil, fmt.Errorf("count completed readings: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int, len(userIDs))
	for rows.Next() {
		var (
			userID uuid.UUID
			n      int
		)
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, fmt.Errorf("count completed readings: %w", err)
		}
		counts[userID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count completed readings: %w", err)
	}
	return counts, nil
}
