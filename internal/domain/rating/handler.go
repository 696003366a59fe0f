package rating

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleElderly, auth.RoleFamily, auth.RoleSupporter)

	g := api.Group("", role)
	g.GET("/ratings", h.List)
	g.GET("/ratings/:id", h.Get)
	g.POST("/ratings", h.Create)
	g.PUT("/ratings/:id", h.Update)
	g.POST("/ratings/:id/votes", h.Vote)
	g.POST("/ratings/:id/reports", h.Report)
	g.PATCH("/ratings/:id/reports/:index", h.ResolveReport, auth.RequireRole(auth.RoleAdmin))
	g.DELETE("/ratings/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Create(c echo.Context) error {
	var r Rating
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &r); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"reviewer", "reviewee", "service_kind", "service"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateRequest struct {
	OverallScore int            `json:"overall_score"`
	Criteria     CriteriaScores `json:"criteria"`
	Comment      *string        `json:"comment,omitempty"`
	VersionID    int            `json:"version_id"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Update(c.Request().Context(), id, req.OverallScore, req.Criteria, req.Comment, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

type voteRequest struct {
	VoterID   uuid.UUID `json:"voter_id"`
	Helpful   bool      `json:"helpful"`
	VersionID int       `json:"version_id"`
}

func (h *Handler) Vote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Vote(c.Request().Context(), id, req.VoterID, req.Helpful, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

type reportRequest struct {
	ReporterID uuid.UUID `json:"reporter_id"`
	Reason     string    `json:"reason"`
	VersionID  int       `json:"version_id"`
}

func (h *Handler) Report(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Report(c.Request().Context(), id, req.ReporterID, req.Reason, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

type resolveReportRequest struct {
	Status    string `json:"status"`
	VersionID int    `json:"version_id"`
}

func (h *Handler) ResolveReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report index")
	}
	var req resolveReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.ResolveReport(c.Request().Context(), id, index, req.Status, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
