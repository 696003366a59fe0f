package emergency

import (
	"net/http"

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
	g.GET("/emergency-alerts", h.List)
	g.GET("/emergency-alerts/:id", h.Get)
	g.POST("/emergency-alerts", h.Create)
	g.POST("/emergency-alerts/:id/acknowledge", h.Acknowledge)
	g.PATCH("/emergency-alerts/:id/status", h.UpdateStatus)
	g.POST("/emergency-alerts/:id/calls", h.AddCallAttempt)
	g.POST("/emergency-alerts/:id/notes", h.AddNote)
}

func (h *Handler) Create(c echo.Context) error {
	var a EmergencyAlert
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &a); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	if elderly := c.QueryParam("elderly"); elderly != "" {
		eid, err := uuid.Parse(elderly)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid elderly id")
		}
		items, total, err := h.svc.ListByElderly(c.Request().Context(), eid, pg.Limit, pg.Offset)
		if err != nil {
			return apperr.HTTPError(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.ListActive(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type acknowledgeRequest struct {
	ResponderID uuid.UUID `json:"responder_id"`
	VersionID   int       `json:"version_id"`
}

func (h *Handler) Acknowledge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req acknowledgeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Acknowledge(c.Request().Context(), id, req.ResponderID, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type statusRequest struct {
	Status    string `json:"status"`
	VersionID int    `json:"version_id"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type callRequest struct {
	Attempt   CallAttempt `json:"attempt"`
	VersionID int         `json:"version_id"`
}

func (h *Handler) AddCallAttempt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req callRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.AddCallAttempt(c.Request().Context(), id, req.Attempt, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type noteRequest struct {
	Note      ResponderNote `json:"note"`
	VersionID int           `json:"version_id"`
}

func (h *Handler) AddNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.AddNote(c.Request().Context(), id, req.Note, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}
