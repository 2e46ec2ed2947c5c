package rating_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/achievement"
	"github.com/stiapanreha-dev/klabu/core/rating"
	"github.com/stiapanreha-dev/klabu/core/user"
	dummydb "github.com/stiapanreha-dev/klabu/storage/database/dummy"
	testutil "github.com/stiapanreha-dev/klabu/tests"
)

// now is pinned so year/month windows are stable: January 2024.
var now = time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (rating.Service, user.Repository, achievement.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	usrRepo := dummydb.NewUserRepository(db)
	achRepo := dummydb.NewAchievementRepository(db)
	svc := rating.NewServiceMock(dummydb.NewRatingRepository(db), achRepo, now)
	return svc, usrRepo, achRepo
}

func TestService_Recompute(t *testing.T) {
	svc, usrRepo, achRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Student", "stud", "stud@test.cd", "", user.StudentRoles, true)

	// this month
	testutil.CreateAchievement(t, achRepo, usr.ID, "Chess cup", achievement.CategorySport, 10, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC))
	// this year, another month
	testutil.CreateAchievement(t, achRepo, usr.ID, "Math olympiad", achievement.CategoryStudy, 25, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC))
	// last year
	testutil.CreateAchievement(t, achRepo, usr.ID, "Charity drive", achievement.CategoryVolunteer, 40, time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC))
	// this month, different category
	testutil.CreateAchievement(t, achRepo, usr.ID, "Art contest", achievement.CategoryCreativity, 5, time.Date(2024, time.January, 19, 0, 0, 0, 0, time.UTC))

	rtg, err := svc.Recompute(ctx, usr.ID)
	require.NoError(t, err)

	assert.Equal(t, usr.ID, rtg.UserID)
	assert.Equal(t, 80, rtg.TotalPoints)
	assert.Equal(t, 40, rtg.YearPoints)  // 10 + 25 + 5
	assert.Equal(t, 15, rtg.MonthPoints) // 10 + 5
	assert.Equal(t, 10, rtg.SportPoints)
	assert.Equal(t, 25, rtg.StudyPoints)
	assert.Equal(t, 5, rtg.CreativityPoints)
	assert.Equal(t, 40, rtg.VolunteerPoints)

	// total always equals the sum of the category sums
	assert.Equal(t, rtg.TotalPoints, rtg.SportPoints+rtg.StudyPoints+rtg.CreativityPoints+rtg.VolunteerPoints)
	// windows are nested
	assert.LessOrEqual(t, rtg.MonthPoints, rtg.YearPoints)
	assert.LessOrEqual(t, rtg.YearPoints, rtg.TotalPoints)

	// persisted
	got, err := svc.GetByUser(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, rtg, got)
}

func TestService_Recompute_idempotent(t *testing.T) {
	svc, usrRepo, achRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Student", "stud", "stud@test.cd", "", user.StudentRoles, true)
	testutil.CreateAchievement(t, achRepo, usr.ID, "Chess cup", achievement.CategorySport, 10, now)

	first, err := svc.Recompute(ctx, usr.ID)
	require.NoError(t, err)
	second, err := svc.Recompute(ctx, usr.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_Recompute_emptyHistory(t *testing.T) {
	svc, usrRepo, _ := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Student", "stud", "stud@test.cd", "", user.StudentRoles, true)

	// no rating row yet
	_, err := svc.GetByUser(ctx, usr.ID)
	assert.Equal(t, rating.ErrNotFound, errors.Cause(err))

	// recomputing with zero achievements writes an all-zero row
	rtg, err := svc.Recompute(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rtg.TotalPoints)
	assert.Equal(t, 0, rtg.YearPoints)
	assert.Equal(t, 0, rtg.MonthPoints)

	got, err := svc.GetByUser(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, rtg, got)
}

func TestService_Recompute_categoryIsolation(t *testing.T) {
	svc, usrRepo, achRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Student", "stud", "stud@test.cd", "", user.StudentRoles, true)

	before, err := svc.Recompute(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, before.TotalPoints)

	// a single study achievement from a past year moves study and total only
	testutil.CreateAchievement(t, achRepo, usr.ID, "Math olympiad", achievement.CategoryStudy, 50, time.Date(2022, time.May, 1, 0, 0, 0, 0, time.UTC))

	after, err := svc.Recompute(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, after.StudyPoints)
	assert.Equal(t, 50, after.TotalPoints)
	assert.Equal(t, before.SportPoints, after.SportPoints)
	assert.Equal(t, before.CreativityPoints, after.CreativityPoints)
	assert.Equal(t, before.VolunteerPoints, after.VolunteerPoints)
	assert.Equal(t, before.YearPoints, after.YearPoints)
	assert.Equal(t, before.MonthPoints, after.MonthPoints)
}

func TestService_Recompute_unknownCategory(t *testing.T) {
	svc, usrRepo, achRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Student", "stud", "stud@test.cd", "", user.StudentRoles, true)
	testutil.CreateAchievement(t, achRepo, usr.ID, "???", achievement.Category("cooking"), 10, now)

	_, err := svc.Recompute(ctx, usr.ID)
	assert.Equal(t, rating.ErrUnknownCategory, errors.Cause(err))
}

func TestService_ListRanked(t *testing.T) {
	svc, usrRepo, achRepo := setup(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, usrRepo, "Alice", "alice", "alice@test.cd", "", user.StudentRoles, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob", "bob@test.cd", "", user.StudentRoles, true)
	carol := testutil.CreateUser(t, usrRepo, "Carol", "carol", "carol@test.cd", "", user.StudentRoles, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach", "teach@test.cd", "", user.TeacherRoles, true)

	testutil.CreateAchievement(t, achRepo, alice.ID, "a1", achievement.CategorySport, 80, now)
	testutil.CreateAchievement(t, achRepo, bob.ID, "b1", achievement.CategoryStudy, 100, now)
	testutil.CreateAchievement(t, achRepo, carol.ID, "c1", achievement.CategorySport, 80, now)
	testutil.CreateAchievement(t, achRepo, teacher.ID, "t1", achievement.CategorySport, 999, now)

	for _, id := range []string{alice.ID, bob.ID, carol.ID, teacher.ID} {
		_, err := svc.Recompute(ctx, id)
		require.NoError(t, err)
	}

	rows, err := svc.ListRanked(ctx, rating.PeriodAll, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3) // teacher excluded

	// Bob first; Alice and Carol tie on 80, broken by user ID ascending
	assert.Equal(t, bob.ID, rows[0].UserID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, 3, rows[2].Rank)
	assert.Equal(t, "bob", rows[0].Username)

	tied := []string{rows[1].UserID, rows[2].UserID}
	assert.ElementsMatch(t, []string{alice.ID, carol.ID}, tied)
	assert.Less(t, rows[1].UserID, rows[2].UserID)
}

func TestService_ListRanked_periods(t *testing.T) {
	svc, usrRepo, achRepo := setup(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, usrRepo, "Alice", "alice", "alice@test.cd", "", user.StudentRoles, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob", "bob", "bob@test.cd", "", user.StudentRoles, true)

	// Alice leads all-time on last year's points; Bob leads this month
	testutil.CreateAchievement(t, achRepo, alice.ID, "a1", achievement.CategorySport, 500, time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC))
	testutil.CreateAchievement(t, achRepo, bob.ID, "b1", achievement.CategoryStudy, 50, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))

	for _, id := range []string{alice.ID, bob.ID} {
		_, err := svc.Recompute(ctx, id)
		require.NoError(t, err)
	}

	all, err := svc.ListRanked(ctx, rating.PeriodAll, 0)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, all[0].UserID)

	month, err := svc.ListRanked(ctx, rating.PeriodMonth, 0)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, month[0].UserID)

	year, err := svc.ListRanked(ctx, rating.PeriodYear, 0)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, year[0].UserID)

	// empty period falls back to all-time
	deflt, err := svc.ListRanked(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, all, deflt)
}

func TestService_ListRanked_limit(t *testing.T) {
	svc, usrRepo, achRepo := setup(t)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		uname := fmt.Sprintf("stud%03d", i)
		usr := testutil.CreateUser(t, usrRepo, "Student", uname, uname+"@test.cd", "", user.StudentRoles, true)
		testutil.CreateAchievement(t, achRepo, usr.ID, "a", achievement.CategorySport, i+1, now)
		_, err := svc.Recompute(ctx, usr.ID)
		require.NoError(t, err)
	}

	// default limit caps the page
	rows, err := svc.ListRanked(ctx, rating.PeriodAll, 0)
	require.NoError(t, err)
	assert.Len(t, rows, rating.DefaultListLimit)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, rating.DefaultListLimit, rows[len(rows)-1].Rank)

	rows, err = svc.ListRanked(ctx, rating.PeriodAll, 5)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestService_ListRanked_invalidPeriod(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.ListRanked(context.Background(), rating.Period("decade"), 0)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "period", vErr.Fields[0].Field)
}
