package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/achievement"
)

type achievementRepository struct {
	db *achievementTable
}

var _ achievement.Repository = (*achievementRepository)(nil) // interface compliance check

func NewAchievementRepository(db *DB) achievement.Repository {
	return &achievementRepository{db: db.achievement}
}

func (repo *achievementRepository) query() []achievement.Achievement {
	achs := make([]achievement.Achievement, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		achs = append(achs, *a)
	}
	return achs
}

func (repo *achievementRepository) CreateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ach.ID = uuid.New().String()
	repo.db.table[ach.ID] = &ach
	return ach, nil
}

func (repo *achievementRepository) QueryAchievements(ctx context.Context, filter *achievement.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]achievement.Achievement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	achs := repo.query()
	if filter != nil {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			var filtered []achievement.Achievement
			for _, a := range achs {
				if strings.Contains(strings.ToLower(a.Title), search) ||
					strings.Contains(strings.ToLower(a.Description), search) {
					filtered = append(filtered, a)
				}
			}
			achs = filtered
		}
		if filter.UserID != "" {
			var filtered []achievement.Achievement
			for _, a := range achs {
				if a.UserID == filter.UserID {
					filtered = append(filtered, a)
				}
			}
			achs = filtered
		}
		if filter.Category != "" {
			var filtered []achievement.Achievement
			for _, a := range achs {
				if a.Category == filter.Category {
					filtered = append(filtered, a)
				}
			}
			achs = filtered
		}
		if !filter.AwardedFrom.IsZero() {
			fromUTC := filter.AwardedFrom.UTC()
			var filtered []achievement.Achievement
			for _, a := range achs {
				if !a.AwardedAt.Before(fromUTC) {
					filtered = append(filtered, a)
				}
			}
			achs = filtered
		}
		if !filter.AwardedTo.IsZero() {
			toUTC := filter.AwardedTo.UTC()
			var filtered []achievement.Achievement
			for _, a := range achs {
				if !a.AwardedAt.After(toUTC) {
					filtered = append(filtered, a)
				}
			}
			achs = filtered
		}
	}

	sortAchievements(achs, ordering)
	return achs, nil
}

func (repo *achievementRepository) QueryUserAchievements(ctx context.Context, userID string, exec ...core.DBExecutor) ([]achievement.Achievement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var achs []achievement.Achievement
	for _, a := range repo.query() {
		if a.UserID == userID {
			achs = append(achs, a)
		}
	}
	return achs, nil
}

func (repo *achievementRepository) GetAchievementByID(ctx context.Context, id string, exec ...core.DBExecutor) (achievement.Achievement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ach, ok := repo.db.table[id]; ok {
		return *ach, nil
	}
	return achievement.Achievement{}, achievement.ErrNotFound
}

func (repo *achievementRepository) UpdateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[ach.ID]; !ok {
		return achievement.Achievement{}, achievement.ErrNotFound
	}
	repo.db.table[ach.ID] = &ach
	return ach, nil
}

func (repo *achievementRepository) DeleteAchievementsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func sortAchievements(achs []achievement.Achievement, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	ord := ordering[0]
	sort.Slice(achs, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "title":
			less = achs[i].Title < achs[j].Title
		case "points":
			less = achs[i].Points < achs[j].Points
		case "created_at":
			less = achs[i].CreatedAt.Before(achs[j].CreatedAt)
		default: // awarded_at
			less = achs[i].AwardedAt.Before(achs[j].AwardedAt)
		}
		if ord.Ascending {
			return less
		}
		return !less
	})
}
