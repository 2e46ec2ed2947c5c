package dummydb

import (
	"context"
	"sort"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/rating"
	"github.com/stiapanreha-dev/klabu/core/user"
)

type ratingRepository struct {
	db     *ratingTable
	userDB *userTable
}

var _ rating.Repository = (*ratingRepository)(nil) // interface compliance check

func NewRatingRepository(db *DB) rating.Repository {
	return &ratingRepository{db: db.rating, userDB: db.user}
}

func (repo *ratingRepository) UpsertRating(ctx context.Context, rtg rating.Rating, exec ...core.DBExecutor) (rating.Rating, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[rtg.UserID] = &rtg
	return rtg, nil
}

func (repo *ratingRepository) GetRatingByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (rating.Rating, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rtg, ok := repo.db.table[userID]; ok {
		return *rtg, nil
	}
	return rating.Rating{}, rating.ErrNotFound
}

func (repo *ratingRepository) QueryStudentRatings(ctx context.Context, period rating.Period, limit int, exec ...core.DBExecutor) ([]rating.RankedRating, error) {
	repo.userDB.RLock()
	students := make(map[string]user.User, len(repo.userDB.table))
	for _, usr := range repo.userDB.table {
		if usr.RoleStartsWith(user.RoleStudent) {
			students[usr.ID] = *usr
		}
	}
	repo.userDB.RUnlock()

	repo.db.RLock()
	defer repo.db.RUnlock()

	rtgs := make([]rating.RankedRating, 0, len(repo.db.table))
	for _, rtg := range repo.db.table {
		usr, ok := students[rtg.UserID]
		if !ok {
			continue
		}
		rtgs = append(rtgs, rating.RankedRating{
			Rating:   *rtg,
			Name:     usr.Name,
			Username: usr.Username,
		})
	}

	sort.Slice(rtgs, func(i, j int) bool {
		pi, pj := rtgs[i].PointsFor(period), rtgs[j].PointsFor(period)
		if pi != pj {
			return pi > pj
		}
		return rtgs[i].UserID < rtgs[j].UserID
	})

	if limit > 0 && len(rtgs) > limit {
		rtgs = rtgs[:limit]
	}
	return rtgs, nil
}
