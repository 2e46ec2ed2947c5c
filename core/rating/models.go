package rating

import "time"

// Period is the time window a ranked listing is ordered by.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodYear  Period = "year"
	PeriodMonth Period = "month"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodAll, PeriodYear, PeriodMonth:
		return true
	}
	return false
}

// DefaultListLimit caps ranked listings when the caller does not provide a limit.
const DefaultListLimit = 100

// Rating is the derived, persisted aggregate of a single user's achievement
// points, broken down by time period and category. Exactly one row per user;
// written only by the rating service's recomputation, never authored directly.
type Rating struct {
	UserID           string    `json:"user_id"`
	TotalPoints      int       `json:"total_points"`
	YearPoints       int       `json:"year_points"`
	MonthPoints      int       `json:"month_points"`
	SportPoints      int       `json:"sport_points"`
	StudyPoints      int       `json:"study_points"`
	CreativityPoints int       `json:"creativity_points"`
	VolunteerPoints  int       `json:"volunteer_points"`
	UpdatedAt        time.Time `json:"updated_at"` // UTC; instant of last recomputation
}

// PointsFor returns the point total the given period ranks on.
func (r Rating) PointsFor(period Period) int {
	switch period {
	case PeriodYear:
		return r.YearPoints
	case PeriodMonth:
		return r.MonthPoints
	default:
		return r.TotalPoints
	}
}

// RankedRating is a Rating annotated with its 1-based position in a sorted,
// limited listing, joined with minimal owner display fields.
type RankedRating struct {
	Rank int `json:"rank"`
	Rating
	Name     string `json:"name"`
	Username string `json:"username"`
}
