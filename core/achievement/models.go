package achievement

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/user"
)

// Category classifies an achievement.
type Category string

const (
	CategorySport      Category = "sport"
	CategoryStudy      Category = "study"
	CategoryCreativity Category = "creativity"
	CategoryVolunteer  Category = "volunteer"
)

var Categories = []Category{CategorySport, CategoryStudy, CategoryCreativity, CategoryVolunteer}

func (c Category) Valid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Points bounds
const (
	MinPoints = 1
	MaxPoints = 1000
)

// Achievement is a recorded accomplishment belonging to a User,
// carrying a category and a point value.
type Achievement struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Points      int       `json:"points"`
	AwardedAt   time.Time `json:"awarded_at"` // when the achievement occurred; distinct from CreatedAt
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewAchievement contains information needed to create a new Achievement.
type NewAchievement struct {
	UserID      string    `json:"user_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Category    Category  `json:"category" validate:"required,category"`
	Points      int       `json:"points" validate:"required,min=1,max=1000"`
	AwardedAt   time.Time `json:"awarded_at" validate:"required"`
}

func (na *NewAchievement) Validate(ctx context.Context, validate *validator.Validate, usrSvc user.Service) error {
	na.UserID = core.CleanString(na.UserID)
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)

	if err := validate.Struct(na); err != nil {
		return err
	}

	// the owner must exist
	if _, err := usrSvc.GetByID(ctx, na.UserID); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "user_id", Error: user.ErrNotFound.Error()})
		}
		return err
	}
	return nil
}

// UpdateAchievement defines what information may be provided to modify an existing
// Achievement. The owner cannot be reassigned; UserID is immutable post-creation.
type UpdateAchievement struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category" validate:"omitempty,category"`
	Points      int       `json:"points" validate:"omitempty,min=1,max=1000"`
	AwardedAt   time.Time `json:"awarded_at"`
}

func (ua *UpdateAchievement) Validate(origAch Achievement, validate *validator.Validate) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = origAch.Title
	}

	desc := core.CleanString(ua.Description)
	if desc != "" {
		ua.Description = desc
	} else {
		ua.Description = origAch.Description
	}

	if ua.Category == "" {
		ua.Category = origAch.Category
	}
	if ua.Points == 0 {
		ua.Points = origAch.Points
	}
	if ua.AwardedAt.IsZero() {
		ua.AwardedAt = origAch.AwardedAt
	}

	return validate.Struct(ua)
}

// QueryFilter selects Achievements; zero-valued fields are ignored.
type QueryFilter struct {
	Search      string    `query:"search"`
	UserID      string    `query:"user_id"`
	Category    Category  `query:"category"`
	AwardedFrom time.Time `query:"awarded_from"`
	AwardedTo   time.Time `query:"awarded_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.UserID == "" && qf.Category == "" && qf.AwardedFrom.IsZero() && qf.AwardedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.UserID = core.CleanString(qf.UserID)
}

var (
	categoryTag  = "category"
	categoryText = "invalid category"
)

// RegisterValidators registers this package's custom validations on validate.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

// categoryValidation checks that the provided category is one of Categories.
func categoryValidation(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).Valid()
}
