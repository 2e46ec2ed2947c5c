package achievement

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/stiapanreha-dev/klabu/core"
)

var (
	// errors
	ErrNotFound = errors.New("achievement not found")
)

type (
	Repository interface {
		CreateAchievement(ctx context.Context, ach Achievement, exec ...core.DBExecutor) (Achievement, error)
		// QueryAchievements applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Achievement.Title or Achievement.Description.
		QueryAchievements(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Achievement, error)
		// QueryUserAchievements returns the user's complete, unpaginated achievement history.
		QueryUserAchievements(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Achievement, error)
		GetAchievementByID(ctx context.Context, id string, exec ...core.DBExecutor) (Achievement, error)
		UpdateAchievement(ctx context.Context, ach Achievement, exec ...core.DBExecutor) (Achievement, error)
		DeleteAchievementsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	// RatingRecomputer re-derives a user's rating from their achievement history.
	// Satisfied by the rating service; an interface here to keep the dependency
	// one-way (the rating package reads achievements, not the reverse).
	RatingRecomputer interface {
		RecomputeForUser(ctx context.Context, userID string) error
	}

	Service interface {
		Create(ctx context.Context, na NewAchievement) (Achievement, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Achievement, error)
		QueryByUser(ctx context.Context, userID string) ([]Achievement, error)
		GetByID(ctx context.Context, id string) (Achievement, error)
		Update(ctx context.Context, id string, ua UpdateAchievement) (Achievement, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo    Repository
		ratings RatingRecomputer
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, ratings RatingRecomputer) Service {
	return &service{
		repo:    repo,
		ratings: ratings,
	}
}

// Create stores the achievement, then synchronously recomputes the owner's
// rating. A failed store never triggers recomputation; a failed recomputation
// fails the whole operation (the stored achievement stays committed).
func (svc *service) Create(ctx context.Context, na NewAchievement) (Achievement, error) {
	now := time.Now().UTC()
	ach := Achievement{
		UserID:      na.UserID,
		Title:       na.Title,
		Description: na.Description,
		Category:    na.Category,
		Points:      na.Points,
		AwardedAt:   na.AwardedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ach, err := svc.repo.CreateAchievement(ctx, ach)
	if err != nil {
		return Achievement{}, err
	}
	if err = svc.ratings.RecomputeForUser(ctx, ach.UserID); err != nil {
		return Achievement{}, errors.Wrap(err, "recomputing rating")
	}
	return ach, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Achievement, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "awarded_at"}} // latest first
	}
	return svc.repo.QueryAchievements(ctx, filter, ordering)
}

func (svc *service) QueryByUser(ctx context.Context, userID string) ([]Achievement, error) {
	return svc.repo.QueryUserAchievements(ctx, userID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Achievement, error) {
	return svc.repo.GetAchievementByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, ua UpdateAchievement) (Achievement, error) {
	orig, err := svc.repo.GetAchievementByID(ctx, id)
	if err != nil {
		return Achievement{}, err
	}
	ach := Achievement{
		ID:          id,
		UserID:      orig.UserID, // immutable
		Title:       ua.Title,
		Description: ua.Description,
		Category:    ua.Category,
		Points:      ua.Points,
		AwardedAt:   ua.AwardedAt,
		CreatedAt:   orig.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	ach, err = svc.repo.UpdateAchievement(ctx, ach)
	if err != nil {
		return Achievement{}, err
	}
	if err = svc.ratings.RecomputeForUser(ctx, ach.UserID); err != nil {
		return Achievement{}, errors.Wrap(err, "recomputing rating")
	}
	return ach, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	ach, err := svc.repo.GetAchievementByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err = svc.repo.DeleteAchievementsByID(ctx, []string{id}); err != nil {
		return err
	}
	if err = svc.ratings.RecomputeForUser(ctx, ach.UserID); err != nil {
		return errors.Wrap(err, "recomputing rating")
	}
	return nil
}
