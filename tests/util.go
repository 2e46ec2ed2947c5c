package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stiapanreha-dev/klabu/core/achievement"
	"github.com/stiapanreha-dev/klabu/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAchievement(
	t *testing.T,
	repo achievement.Repository,
	userID, title string,
	category achievement.Category,
	points int,
	awardedAt time.Time,
) achievement.Achievement {
	t.Helper()

	now := time.Now().UTC()
	ach := achievement.Achievement{
		UserID:    userID,
		Title:     title,
		Category:  category,
		Points:    points,
		AwardedAt: awardedAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	ach, err := repo.CreateAchievement(context.Background(), ach)
	if err != nil {
		t.Fatalf("CreateAchievement() failed: %v", err)
	}
	return ach
}
