package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gymtrack/internal/domain"
	"gymtrack/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrInvalidYear  = errors.New("year must be positive")
	ErrInvalidDay   = errors.New("day is outside the month")
)

// ProgressService owns the per-month attendance day-sets and the derived
// yearly aggregate.
//
// Invariant: YearlyTotal(u, y) always equals the sum of len(GetDays(u, y, m))
// for m in 1..12. The stored monthly counter is derived on every save and is
// never consulted on the read path, so the two can not drift.
type ProgressService interface {
	GetDays(ctx context.Context, externalUserID string, year, month int) ([]int, error)
	SaveDays(ctx context.Context, externalUserID string, year, month int, days []int) error
	YearlyTotal(ctx context.Context, externalUserID string, year int) (int, error)
}

type progressService struct {
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
}

// NewProgressService creates a new instance of progressService.
func NewProgressService(userRepo repository.UserRepository, progressRepo repository.ProgressRepository) ProgressService {
	return &progressService{
		userRepo:     userRepo,
		progressRepo: progressRepo,
	}
}

// GetDays returns the marked days for (user, year, month), sorted ascending.
// A user with no record for that month gets the empty set; only an
// unresolvable user id is an error.
func (s *progressService) GetDays(ctx context.Context, externalUserID string, year, month int) ([]int, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}

	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	days, err := s.progressRepo.GetDays(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("fetch workout days: %w", err)
	}

	days = normalizeDays(days)
	return days, nil
}

// SaveDays replaces the full day-set for (user, year, month). Days are
// deduplicated and must fall inside the actual calendar month. The write is
// an upsert on the composite key, so saving the same set twice is a no-op
// for every derived figure.
func (s *progressService) SaveDays(ctx context.Context, externalUserID string, year, month int, days []int) error {
	if err := validateYearMonth(year, month); err != nil {
		return err
	}

	limit := domain.DaysInMonth(year, month)
	for _, d := range days {
		if d < 1 || d > limit {
			return fmt.Errorf("%w: day %d of %d-%02d", ErrInvalidDay, d, year, month)
		}
	}

	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return err
	}

	if err := s.progressRepo.SaveDays(ctx, userID, year, month, normalizeDays(days)); err != nil {
		return fmt.Errorf("save workout days: %w", err)
	}
	return nil
}

// YearlyTotal recomputes the number of marked days across the whole year
// from the day-sets themselves. Deliberately not served from the cached
// monthly counters: recomputation is the one figure that can not go stale.
func (s *progressService) YearlyTotal(ctx context.Context, externalUserID string, year int) (int, error) {
	if year <= 0 {
		return 0, ErrInvalidYear
	}

	userID, err := s.resolveUser(ctx, externalUserID)
	if err != nil {
		return 0, err
	}

	records, err := s.progressRepo.GetByYear(ctx, userID, year)
	if err != nil {
		return 0, fmt.Errorf("fetch yearly progress: %w", err)
	}

	total := 0
	for _, rec := range records {
		total += len(normalizeDays(rec.Days))
	}
	return total, nil
}

func (s *progressService) resolveUser(ctx context.Context, externalUserID string) (primitive.ObjectID, error) {
	userID, err := s.userRepo.ResolveObjectID(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, ErrUserNotFound
		}
		return primitive.NilObjectID, fmt.Errorf("resolve user %q: %w", externalUserID, err)
	}
	return userID, nil
}

func validateYearMonth(year, month int) error {
	if year <= 0 {
		return ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// normalizeDays deduplicates and sorts a day-set. Stored sets are already
// normalized, but sets written by older clients may not be, so every read
// normalizes again rather than trusting the record.
func normalizeDays(days []int) []int {
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
