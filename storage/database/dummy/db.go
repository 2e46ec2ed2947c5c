package dummydb

import (
	"sync"

	"github.com/stiapanreha-dev/klabu/core/achievement"
	"github.com/stiapanreha-dev/klabu/core/rating"
	"github.com/stiapanreha-dev/klabu/core/user"
)

type (
	DB struct {
		user        *userTable
		achievement *achievementTable
		rating      *ratingTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	achievementTable struct {
		sync.RWMutex
		table map[string]*achievement.Achievement
	}

	ratingTable struct {
		sync.RWMutex
		table map[string]*rating.Rating
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		achievement: &achievementTable{table: make(map[string]*achievement.Achievement)},
		rating:      &ratingTable{table: make(map[string]*rating.Rating)},
	}
	return db, nil
}
