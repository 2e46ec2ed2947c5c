package rating

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/achievement"
)

var (
	// errors
	ErrNotFound        = errors.New("rating not found")
	ErrUnknownCategory = errors.New("unknown achievement category")

	errInvalidPeriod = errors.New("period must be one of: all, year, month")
)

type (
	Repository interface {
		// UpsertRating creates-or-replaces the single row keyed by Rating.UserID.
		UpsertRating(ctx context.Context, rat Rating, exec ...core.DBExecutor) (Rating, error)
		GetRatingByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (Rating, error)
		// QueryStudentRatings returns student users' ratings joined with their
		// display fields (Rank unset), ordered descending by the period's point
		// field with ties broken by user ID ascending, at most limit rows.
		QueryStudentRatings(ctx context.Context, period Period, limit int, exec ...core.DBExecutor) ([]RankedRating, error)
	}

	// HistoryReader is the achievement-store read the aggregator consumes.
	// Satisfied by achievement.Repository.
	HistoryReader interface {
		QueryUserAchievements(ctx context.Context, userID string, exec ...core.DBExecutor) ([]achievement.Achievement, error)
	}

	Service interface {
		Recompute(ctx context.Context, userID string) (Rating, error)
		RecomputeForUser(ctx context.Context, userID string) error
		ListRanked(ctx context.Context, period Period, limit int) ([]RankedRating, error)
		GetByUser(ctx context.Context, userID string) (Rating, error)
	}

	service struct {
		repo    Repository
		history HistoryReader
		nowFunc func() time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, history HistoryReader) Service {
	return &service{
		repo:    repo,
		history: history,
		nowFunc: time.Now,
	}
}

// Recompute re-derives the user's full Rating from their complete achievement
// history and upserts it. It is idempotent: recomputing twice with no
// intervening achievement change yields the same point fields (UpdatedAt aside).
// A user with zero achievements gets an all-zero rating, not an error.
func (svc *service) Recompute(ctx context.Context, userID string) (Rating, error) {
	history, err := svc.history.QueryUserAchievements(ctx, userID)
	if err != nil {
		return Rating{}, errors.Wrap(err, "querying achievement history")
	}

	now := svc.nowFunc().UTC()
	year, month := now.Year(), now.Month()

	rat := Rating{UserID: userID, UpdatedAt: now}
	for _, ach := range history {
		rat.TotalPoints += ach.Points

		awarded := ach.AwardedAt.UTC()
		if awarded.Year() == year {
			rat.YearPoints += ach.Points
			if awarded.Month() == month {
				rat.MonthPoints += ach.Points
			}
		}

		switch ach.Category {
		case achievement.CategorySport:
			rat.SportPoints += ach.Points
		case achievement.CategoryStudy:
			rat.StudyPoints += ach.Points
		case achievement.CategoryCreativity:
			rat.CreativityPoints += ach.Points
		case achievement.CategoryVolunteer:
			rat.VolunteerPoints += ach.Points
		default:
			// dropping the record silently would break total == sum of category sums
			return Rating{}, errors.Wrapf(ErrUnknownCategory, "achievement %s: %q", ach.ID, ach.Category)
		}
	}

	rat, err = svc.repo.UpsertRating(ctx, rat)
	if err != nil {
		return Rating{}, errors.Wrap(err, "upserting rating")
	}
	return rat, nil
}

// RecomputeForUser satisfies achievement.RatingRecomputer.
func (svc *service) RecomputeForUser(ctx context.Context, userID string) error {
	_, err := svc.Recompute(ctx, userID)
	return err
}

// ListRanked returns at most limit student ratings ordered descending by the
// period's point total, ties broken by user ID ascending. Rank is the 1-based
// position within the returned page, not a global rank.
func (svc *service) ListRanked(ctx context.Context, period Period, limit int) ([]RankedRating, error) {
	if period == "" {
		period = PeriodAll
	}
	if !period.Valid() {
		return nil, core.NewValidationError(errInvalidPeriod, core.FieldError{Field: "period", Error: errInvalidPeriod.Error()})
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := svc.repo.QueryStudentRatings(ctx, period, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying student ratings")
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// GetByUser returns the persisted rating for a user, or ErrNotFound if no row
// exists yet. An all-zero rating means a row exists with no contributing
// achievements; that is not a not-found.
func (svc *service) GetByUser(ctx context.Context, userID string) (Rating, error) {
	return svc.repo.GetRatingByUserID(ctx, userID)
}
