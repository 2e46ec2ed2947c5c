package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stiapanreha-dev/klabu/core/achievement"
	"github.com/stiapanreha-dev/klabu/core/user"
)

type achievementApi struct {
	svc      achievement.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerAchievementAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc achievement.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := achievementApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	ag := g.Group("/achievements", jwt)

	// students may read; only staff may write
	ag.GET("", api.query)
	ag.GET("/categories", api.queryCategories)
	ag.POST("", api.create, staffMiddleware())

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
}

// Handlers

func (api *achievementApi) create(ctx echo.Context) error {
	var data achievement.NewAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAchievement")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.usrSvc); err != nil {
		return err
	}

	ach, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating achievement")
	}
	return ctx.JSON(http.StatusCreated, ach)
}

func (api *achievementApi) query(ctx echo.Context) error {
	filter := new(achievement.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []achievement.Achievement{})
	}
	filter.Clean()

	// students only see their own achievements
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsTeacher) {
		filter.UserID = claims.Subject
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	achs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying achievements")
	}
	if achs == nil {
		achs = []achievement.Achievement{}
	}
	return ctx.JSON(http.StatusOK, achs)
}

func (api *achievementApi) retrieve(ctx echo.Context) error {
	ach, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == achievement.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding achievement by ID")
	}

	// students only see their own achievements
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsTeacher) && ach.UserID != claims.Subject {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, ach)
}

func (api *achievementApi) update(ctx echo.Context) error {
	var data achievement.UpdateAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAchievement")
	}

	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == achievement.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding achievement by ID")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	ach, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating achievement")
	}
	return ctx.JSON(http.StatusOK, ach)
}

func (api *achievementApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == achievement.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting achievement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *achievementApi) queryCategories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, achievement.Categories)
}
