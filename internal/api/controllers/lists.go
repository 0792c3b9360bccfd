package controllers

import (
	"net/http"
	"strconv"

	"mailproof/internal/api/middleware"
	"mailproof/internal/api/validator"
	"mailproof/internal/services"
	"mailproof/internal/store"

	"github.com/labstack/echo/v4"
)

// ListController serves the dashboard list queries and the sharing
// endpoints.
type ListController struct {
	lists  *services.EmailListService
	shares *services.ShareService
}

func NewListController(lists *services.EmailListService, shares *services.ShareService) *ListController {
	return &ListController{
		lists:  lists,
		shares: shares,
	}
}

func intParam(ctx echo.Context, name string) *int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

// List godoc
// @Summary List email lists with filtering, sorting and a status histogram
// @Produce json
// @Router /email-lists [get]
func (c *ListController) List(ctx echo.Context) error {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	q := store.ListQuery{
		Status:      ctx.QueryParam("status"),
		Search:      ctx.QueryParam("search"),
		MinVerified: intParam(ctx, "min_verified"),
		MaxVerified: intParam(ctx, "max_verified"),
		MinTotal:    intParam(ctx, "min_total"),
		MaxTotal:    intParam(ctx, "max_total"),
		SortBy:      ctx.QueryParam("sort_by"),
		SortOrder:   ctx.QueryParam("sort_order"),
		Page:        page,
		Limit:       limit,
	}

	result, err := c.lists.List(ctx.Request().Context(), middleware.GetUserID(ctx), q)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, result)
}

// Pending godoc
// @Summary List not-yet-verified lists for selection widgets
// @Produce json
// @Router /email-lists/pending [get]
func (c *ListController) Pending(ctx echo.Context) error {
	pending, err := c.lists.Pending(ctx.Request().Context(), middleware.GetUserID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, pending)
}

// Share godoc
// @Summary Share email lists with a teammate
// @Accept json
// @Produce json
// @Router /team/share [post]
func (c *ListController) Share(ctx echo.Context) error {
	var req validator.ShareRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	grant, err := c.shares.Share(
		ctx.Request().Context(),
		middleware.GetUserID(ctx),
		req.MemberID,
		req.EmailListIDs,
		services.ParseAccessType(req.AccessType),
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, grant)
}

// Revoke godoc
// @Summary Revoke a teammate's access to all shared lists
// @Accept json
// @Produce json
// @Router /team/share [delete]
func (c *ListController) Revoke(ctx echo.Context) error {
	memberID := ctx.QueryParam("memberId")
	if memberID == "" {
		var req validator.RevokeRequest
		if err := ctx.Bind(&req); err == nil {
			memberID = req.MemberID
		}
	}

	if err := c.shares.Revoke(ctx.Request().Context(), middleware.GetUserID(ctx), memberID); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]string{"message": "Access revoked"})
}

// ChangeAccess godoc
// @Summary Change a teammate's access type
// @Accept json
// @Produce json
// @Router /team/share [patch]
func (c *ListController) ChangeAccess(ctx echo.Context) error {
	var req validator.ChangeAccessRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	grant, err := c.shares.ChangeAccessType(
		ctx.Request().Context(),
		middleware.GetUserID(ctx),
		req.MemberID,
		services.ParseAccessType(req.AccessType),
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, grant)
}

// CardStats godoc
// @Summary Sharing activity counters for the dashboard
// @Produce json
// @Router /team/card-stats [get]
func (c *ListController) CardStats(ctx echo.Context) error {
	stats, err := c.shares.Stats(ctx.Request().Context(), middleware.GetUserID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, stats)
}

// RegisterRoutes mounts the list and sharing endpoints
func (c *ListController) RegisterRoutes(g *echo.Group) {
	g.GET("/email-lists", c.List)
	g.GET("/email-lists/pending", c.Pending)
	g.POST("/team/share", c.Share)
	g.DELETE("/team/share", c.Revoke)
	g.PATCH("/team/share", c.ChangeAccess)
	g.GET("/team/card-stats", c.CardStats)
}
