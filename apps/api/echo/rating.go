package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stiapanreha-dev/klabu/core"
	"github.com/stiapanreha-dev/klabu/core/rating"
	"github.com/stiapanreha-dev/klabu/core/user"
)

type ratingApi struct {
	svc    rating.Service
	usrSvc user.Service
}

func registerRatingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc rating.Service, usrSvc user.Service) {
	api := ratingApi{
		svc:    svc,
		usrSvc: usrSvc,
	}

	rg := g.Group("/ratings", jwt)
	rg.GET("", api.listRanked)
	rg.GET("/:userID", api.retrieve)
	rg.POST("/:userID/recompute", api.recompute, adminMiddleware())
}

// Handlers

func (api *ratingApi) listRanked(ctx echo.Context) error {
	period := rating.Period(ctx.QueryParam("period"))

	var limit int
	if raw := ctx.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "limit", Error: "must be an integer"})
		}
		limit = n
	}

	ratings, err := api.svc.ListRanked(ctx.Request().Context(), period, limit)
	if err != nil {
		return errors.Wrap(err, "listing ranked ratings")
	}
	if ratings == nil {
		ratings = []rating.RankedRating{}
	}
	return ctx.JSON(http.StatusOK, ratings)
}

func (api *ratingApi) retrieve(ctx echo.Context) error {
	userID := ctx.Param("userID")

	// students only see their own rating
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !(claims.IsAdmin || claims.IsTeacher) && userID != claims.Subject {
		return errHttpNotFound
	}

	rtg, err := api.svc.GetByUser(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Cause(err) == rating.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding rating by user ID")
	}
	return ctx.JSON(http.StatusOK, rtg)
}

func (api *ratingApi) recompute(ctx echo.Context) error {
	userID := ctx.Param("userID")
	if _, err := api.usrSvc.GetByID(ctx.Request().Context(), userID); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	rtg, err := api.svc.Recompute(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "recomputing rating")
	}
	return ctx.JSON(http.StatusOK, rtg)
}
