package notification

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
	g.GET("/notifications", h.List)
	g.GET("/notifications/:id", h.Get)
	g.POST("/notifications", h.Create)
	g.POST("/notifications/:id/read", h.MarkRead)
	g.POST("/notifications/:id/dispatch", h.Dispatch, auth.RequireRole(auth.RoleAdmin))
	g.PATCH("/notifications/:id/attempts/:index", h.RecordAttempt, auth.RequireRole(auth.RoleAdmin))
	g.DELETE("/notifications/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var n Notification
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &n); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"recipient", "type", "status"} {
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

type readRequest struct {
	VersionID int `json:"version_id"`
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req readRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.MarkRead(c.Request().Context(), id, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, n)
}

type dispatchRequest struct {
	Channel   string `json:"channel"`
	Address   string `json:"address"`
	VersionID int    `json:"version_id"`
}

func (h *Handler) Dispatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req dispatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.Dispatch(c.Request().Context(), id, req.Channel, req.Address, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, n)
}

type attemptRequest struct {
	Status    string `json:"status"`
	Detail    string `json:"detail"`
	VersionID int    `json:"version_id"`
}

func (h *Handler) RecordAttempt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid attempt index")
	}
	var req attemptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.RecordAttempt(c.Request().Context(), id, index, req.Status, req.Detail, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, n)
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
