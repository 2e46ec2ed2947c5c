package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/achievement"
)

type achievementRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Category    string         `db:"category"`
	Points      int            `db:"points"`
	AwardedAt   sql.NullTime   `db:"awarded_at"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

const achievementColumns = `id, user_id, title, description, category, points, awarded_at, created_at, updated_at`

type achievementRepository struct {
	db *sqlx.DB
}

var _ achievement.Repository = (*achievementRepository)(nil) // interface compliance check

func NewAchievementRepository(db *sqlx.DB) *achievementRepository {
	return &achievementRepository{db: db}
}

func (repo achievementRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

func (repo achievementRepository) row(ach achievement.Achievement) achievementRow {
	return achievementRow{
		ID:          ach.ID,
		UserID:      ach.UserID,
		Title:       ach.Title,
		Description: sql.NullString{String: ach.Description, Valid: ach.Description != ""},
		Category:    string(ach.Category),
		Points:      ach.Points,
		AwardedAt:   nullTime(ach.AwardedAt),
		CreatedAt:   nullTime(ach.CreatedAt),
		UpdatedAt:   nullTime(ach.UpdatedAt),
	}
}

func (repo achievementRepository) unrow(r achievementRow) achievement.Achievement {
	return achievement.Achievement{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description.String,
		Category:    achievement.Category(r.Category),
		Points:      r.Points,
		AwardedAt:   r.AwardedAt.Time,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (repo achievementRepository) unrowSlice(rws []achievementRow) []achievement.Achievement {
	achs := make([]achievement.Achievement, 0, len(rws))
	for _, r := range rws {
		achs = append(achs, repo.unrow(r))
	}
	return achs
}

func (repo achievementRepository) CreateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error) {
	ach.ID = uuid.New().String()
	r := repo.row(ach)
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO achievement (`+achievementColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.UserID, r.Title, r.Description, r.Category, r.Points, r.AwardedAt, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return achievement.Achievement{}, errors.Wrap(err, "inserting achievement")
	}
	return repo.unrow(r), nil
}

func (repo achievementRepository) QueryAchievements(ctx context.Context, filter *achievement.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]achievement.Achievement, error) {
	var conds []string
	var args []interface{}
	arg := func(val interface{}) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR description ILIKE %[1]s)", arg(val)))
		}
		if filter.UserID != "" {
			conds = append(conds, "user_id = "+arg(filter.UserID))
		}
		if filter.Category != "" {
			conds = append(conds, "category = "+arg(string(filter.Category)))
		}
		if !filter.AwardedFrom.IsZero() {
			conds = append(conds, "awarded_at >= "+arg(filter.AwardedFrom.UTC()))
		}
		if !filter.AwardedTo.IsZero() {
			conds = append(conds, "awarded_at <= "+arg(filter.AwardedTo.UTC()))
		}
	}

	query := `SELECT ` + achievementColumns + ` FROM achievement`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering)

	rows, err := repo.getExec(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying achievements")
	}
	defer func() { _ = rows.Close() }()

	var rws []achievementRow
	if err = sqlx.StructScan(rows, &rws); err != nil {
		return nil, errors.Wrap(err, "scanning achievements")
	}
	return repo.unrowSlice(rws), nil
}

// QueryUserAchievements returns the complete history; the rating aggregator
// relies on it being unpaginated.
func (repo achievementRepository) QueryUserAchievements(ctx context.Context, userID string, exec ...core.DBExecutor) ([]achievement.Achievement, error) {
	rows, err := repo.getExec(exec).QueryContext(ctx,
		`SELECT `+achievementColumns+` FROM achievement WHERE user_id = $1`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user achievements")
	}
	defer func() { _ = rows.Close() }()

	var rws []achievementRow
	if err = sqlx.StructScan(rows, &rws); err != nil {
		return nil, errors.Wrap(err, "scanning user achievements")
	}
	return repo.unrowSlice(rws), nil
}

func (repo achievementRepository) GetAchievementByID(ctx context.Context, id string, exec ...core.DBExecutor) (achievement.Achievement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return achievement.Achievement{}, achievement.ErrNotFound
	}

	rows, err := repo.getExec(exec).QueryContext(ctx,
		`SELECT `+achievementColumns+` FROM achievement WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return achievement.Achievement{}, errors.Wrap(err, "finding achievement")
	}
	defer func() { _ = rows.Close() }()

	var rws []achievementRow
	if err = sqlx.StructScan(rows, &rws); err != nil {
		return achievement.Achievement{}, errors.Wrap(err, "scanning achievement")
	}
	if len(rws) == 0 {
		return achievement.Achievement{}, achievement.ErrNotFound
	}
	return repo.unrow(rws[0]), nil
}

func (repo achievementRepository) UpdateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error) {
	r := repo.row(ach)
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE achievement SET title = $2, description = $3, category = $4, points = $5,
			awarded_at = $6, updated_at = $7
		WHERE id = $1`,
		r.ID, r.Title, r.Description, r.Category, r.Points, r.AwardedAt, r.UpdatedAt,
	)
	if err != nil {
		return achievement.Achievement{}, errors.Wrap(err, "updating achievement")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return achievement.Achievement{}, achievement.ErrNotFound
	}
	return repo.unrow(r), nil
}

func (repo achievementRepository) DeleteAchievementsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM achievement WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting achievements")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting achievements")
	}
	return int(cnt), nil
}
