package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/rating"
	"github.com/stiapanreha-dev/klabu/core/user"
)

type ratingRow struct {
	UserID           string       `db:"user_id"`
	TotalPoints      int          `db:"total_points"`
	YearPoints       int          `db:"year_points"`
	MonthPoints      int          `db:"month_points"`
	SportPoints      int          `db:"sport_points"`
	StudyPoints      int          `db:"study_points"`
	CreativityPoints int          `db:"creativity_points"`
	VolunteerPoints  int          `db:"volunteer_points"`
	UpdatedAt        sql.NullTime `db:"updated_at"`
}

type rankedRatingRow struct {
	ratingRow
	Name     string `db:"name"`
	Username string `db:"username"`
}

const ratingColumns = `user_id, total_points, year_points, month_points, sport_points, study_points, creativity_points, volunteer_points, updated_at`

type ratingRepository struct {
	db *sqlx.DB
}

var _ rating.Repository = (*ratingRepository)(nil) // interface compliance check

func NewRatingRepository(db *sqlx.DB) *ratingRepository {
	return &ratingRepository{db: db}
}

func (repo ratingRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

func (repo ratingRepository) unrow(r ratingRow) rating.Rating {
	return rating.Rating{
		UserID:           r.UserID,
		TotalPoints:      r.TotalPoints,
		YearPoints:       r.YearPoints,
		MonthPoints:      r.MonthPoints,
		SportPoints:      r.SportPoints,
		StudyPoints:      r.StudyPoints,
		CreativityPoints: r.CreativityPoints,
		VolunteerPoints:  r.VolunteerPoints,
		UpdatedAt:        r.UpdatedAt.Time,
	}
}

func (repo ratingRepository) UpsertRating(ctx context.Context, rtg rating.Rating, exec ...core.DBExecutor) (rating.Rating, error) {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO rating (`+ratingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			year_points = EXCLUDED.year_points,
			month_points = EXCLUDED.month_points,
			sport_points = EXCLUDED.sport_points,
			study_points = EXCLUDED.study_points,
			creativity_points = EXCLUDED.creativity_points,
			volunteer_points = EXCLUDED.volunteer_points,
			updated_at = EXCLUDED.updated_at`,
		rtg.UserID, rtg.TotalPoints, rtg.YearPoints, rtg.MonthPoints,
		rtg.SportPoints, rtg.StudyPoints, rtg.CreativityPoints, rtg.VolunteerPoints,
		nullTime(rtg.UpdatedAt),
	)
	if err != nil {
		return rating.Rating{}, errors.Wrap(err, "upserting rating")
	}
	return rtg, nil
}

func (repo ratingRepository) GetRatingByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (rating.Rating, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return rating.Rating{}, rating.ErrNotFound
	}

	rows, err := repo.getExec(exec).QueryContext(ctx,
		`SELECT `+ratingColumns+` FROM rating WHERE user_id = $1 LIMIT 1`, userID)
	if err != nil {
		return rating.Rating{}, errors.Wrap(err, "finding rating")
	}
	defer func() { _ = rows.Close() }()

	var rws []ratingRow
	if err = sqlx.StructScan(rows, &rws); err != nil {
		return rating.Rating{}, errors.Wrap(err, "scanning rating")
	}
	if len(rws) == 0 {
		return rating.Rating{}, rating.ErrNotFound
	}
	return repo.unrow(rws[0]), nil
}

// QueryStudentRatings returns student ratings ordered by the period's point
// column descending, ties broken by user_id ascending. The order column is
// resolved in Go so no request input ever reaches the ORDER BY clause.
func (repo ratingRepository) QueryStudentRatings(ctx context.Context, period rating.Period, limit int, exec ...core.DBExecutor) ([]rating.RankedRating, error) {
	var pointsCol string
	switch period {
	case rating.PeriodYear:
		pointsCol = "year_points"
	case rating.PeriodMonth:
		pointsCol = "month_points"
	default:
		pointsCol = "total_points"
	}

	rows, err := repo.getExec(exec).QueryContext(ctx,
		`SELECT r.user_id, r.total_points, r.year_points, r.month_points,
			r.sport_points, r.study_points, r.creativity_points, r.volunteer_points,
			r.updated_at, u.name, u.username
		FROM rating r
		JOIN "user" u ON u.id = r.user_id
		WHERE EXISTS (SELECT 1 FROM UNNEST(u.roles) role WHERE role LIKE $1)
		ORDER BY r.`+pointsCol+` DESC, r.user_id ASC
		LIMIT $2`,
		user.RoleStudent+"%", limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying student ratings")
	}
	defer func() { _ = rows.Close() }()

	var rws []rankedRatingRow
	if err = sqlx.StructScan(rows, &rws); err != nil {
		return nil, errors.Wrap(err, "scanning student ratings")
	}

	rtgs := make([]rating.RankedRating, 0, len(rws))
	for _, r := range rws {
		rtgs = append(rtgs, rating.RankedRating{
			Rating:   repo.unrow(r.ratingRow),
			Name:     r.Name,
			Username: r.Username,
		})
	}
	return rtgs, nil
}
