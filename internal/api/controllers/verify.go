package controllers

import (
	"io"
	"net/http"

	"mailproof/internal/api/middleware"
	"mailproof/internal/api/validator"
	"mailproof/internal/services"

	"github.com/labstack/echo/v4"
)

// VerifyController exposes the bulk verification lifecycle over HTTP.
// Service errors bubble up untranslated; the server's error handler maps
// them to status codes.
type VerifyController struct {
	verify  *services.VerifyService
	credits *services.CreditService
}

func NewVerifyController(verify *services.VerifyService, credits *services.CreditService) *VerifyController {
	return &VerifyController{
		verify:  verify,
		credits: credits,
	}
}

// Upload godoc
// @Summary Upload an email list for bulk verification
// @Accept mpfd
// @Produce json
// @Router /verify/bulk [post]
func (c *VerifyController) Upload(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("local_file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "local_file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer file.Close()

	list, err := c.verify.Upload(
		ctx.Request().Context(),
		middleware.GetUserID(ctx),
		ctx.FormValue("name"),
		fileHeader.Filename,
		file,
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, list)
}

// Start godoc
// @Summary Start bulk verification for an uploaded list
// @Accept json
// @Produce json
// @Router /verify/bulk/start [post]
func (c *VerifyController) Start(ctx echo.Context) error {
	var req validator.StartVerifyRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	result, err := c.verify.Start(ctx.Request().Context(), middleware.GetUserID(ctx), req.JobID, req.ListID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, result)
}

// Status godoc
// @Summary Poll remote verification progress and sync local counters
// @Produce json
// @Router /verify/bulk/status [get]
func (c *VerifyController) Status(ctx echo.Context) error {
	result, err := c.verify.Poll(
		ctx.Request().Context(),
		middleware.GetUserID(ctx),
		ctx.QueryParam("jobId"),
		ctx.QueryParam("listId"),
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, result)
}

// Download godoc
// @Summary Download verification results as CSV
// @Produce text/csv
// @Router /verify/bulk/download [get]
func (c *VerifyController) Download(ctx echo.Context) error {
	body, filename, err := c.verify.Download(
		ctx.Request().Context(),
		middleware.GetUserID(ctx),
		ctx.QueryParam("jobId"),
		ctx.QueryParam("listId"),
		ctx.QueryParam("filter"),
	)
	if err != nil {
		return err
	}
	defer body.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	ctx.Response().Header().Set(echo.HeaderContentType, "text/csv")
	ctx.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(ctx.Response(), body)
	return err
}

// Delete godoc
// @Summary Delete an email list and its remote job
// @Produce json
// @Router /verify/bulk [delete]
func (c *VerifyController) Delete(ctx echo.Context) error {
	list, err := c.verify.Delete(
		ctx.Request().Context(),
		middleware.GetUserID(ctx),
		ctx.QueryParam("jobId"),
		ctx.QueryParam("listId"),
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"message": "Email list deleted",
		"id":      list.ID,
	})
}

// Single godoc
// @Summary Verify a single email address
// @Accept json
// @Produce json
// @Router /verify/single [post]
func (c *VerifyController) Single(ctx echo.Context) error {
	var req validator.SingleVerifyRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	record, err := c.verify.VerifySingle(ctx.Request().Context(), middleware.GetUserID(ctx), req.Email)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, record)
}

// Credits godoc
// @Summary Get the credit balance summary
// @Produce json
// @Router /verify/credits [get]
func (c *VerifyController) Credits(ctx echo.Context) error {
	balance, err := c.credits.Balance(ctx.Request().Context(), middleware.GetUserID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, balance)
}

// RegisterRoutes mounts the verification endpoints
func (c *VerifyController) RegisterRoutes(g *echo.Group) {
	g.POST("/verify/bulk", c.Upload)
	g.POST("/verify/bulk/start", c.Start)
	g.GET("/verify/bulk/status", c.Status)
	g.GET("/verify/bulk/download", c.Download)
	g.DELETE("/verify/bulk", c.Delete)
	g.POST("/verify/single", c.Single)
	g.GET("/verify/credits", c.Credits)
}
