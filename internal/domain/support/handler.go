package support

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
	role := auth.RequireRole(auth.RoleAdmin, auth.RoleElderly, auth.RoleFamily, auth.RoleSupporter)

	g := api.Group("", role)
	g.GET("/support-requests", h.List)
	g.GET("/support-requests/:id", h.Get)
	g.POST("/support-requests", h.Create)
	g.POST("/support-requests/:id/accept", h.Accept, auth.RequireRole(auth.RoleAdmin, auth.RoleSupporter))
	g.PATCH("/support-requests/:id/status", h.UpdateStatus)
	g.PATCH("/support-requests/:id/payment", h.UpdatePayment)
	g.DELETE("/support-requests/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Create(c echo.Context) error {
	var sr SupportRequest
	if err := c.Bind(&sr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &sr); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, sr)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sr, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, sr)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"elderly", "supporter", "status", "category"} {
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

type acceptRequest struct {
	SupporterID uuid.UUID `json:"supporter_id"`
	VersionID   int       `json:"version_id"`
}

func (h *Handler) Accept(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req acceptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sr, err := h.svc.Accept(c.Request().Context(), id, req.SupporterID, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, sr)
}

type statusRequest struct {
	Status    string  `json:"status"`
	VersionID int     `json:"version_id"`
	Reason    *string `json:"reason,omitempty"`
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
	sr, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, req.VersionID, req.Reason)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, sr)
}

func (h *Handler) UpdatePayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sr, err := h.svc.UpdatePayment(c.Request().Context(), id, req.Status, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, sr)
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
