package profile

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
	read := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleElderly, auth.RoleFamily, auth.RoleSupporter))
	read.GET("/doctors", h.ListDoctors)
	read.GET("/doctors/:id", h.GetDoctor)
	read.GET("/elderly", h.ListElderly)
	read.GET("/elderly/:id", h.GetElderly)
	read.GET("/families", h.ListFamilies)
	read.GET("/families/:id", h.GetFamily)

	api.POST("/doctors", h.CreateDoctor, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	api.PUT("/doctors/:id", h.UpdateDoctor, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	api.DELETE("/doctors/:id", h.DeleteDoctor, auth.RequireRole(auth.RoleAdmin))

	api.POST("/elderly", h.CreateElderly, auth.RequireRole(auth.RoleAdmin, auth.RoleElderly, auth.RoleFamily))
	api.PUT("/elderly/:id", h.UpdateElderly, auth.RequireRole(auth.RoleAdmin, auth.RoleElderly, auth.RoleFamily))
	api.DELETE("/elderly/:id", h.DeleteElderly, auth.RequireRole(auth.RoleAdmin))

	api.POST("/families", h.CreateFamily, auth.RequireRole(auth.RoleAdmin, auth.RoleFamily))
	api.PUT("/families/:id", h.UpdateFamily, auth.RequireRole(auth.RoleAdmin, auth.RoleFamily))
	api.DELETE("/families/:id", h.DeleteFamily, auth.RequireRole(auth.RoleAdmin))
}

// -- Doctor --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var p DoctorProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDoctor(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p DoctorProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdateDoctor(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Elderly --

func (h *Handler) CreateElderly(c echo.Context) error {
	var p ElderlyProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateElderly(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetElderly(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetElderly(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListElderly(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListElderly(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateElderly(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p ElderlyProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdateElderly(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteElderly(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteElderly(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Family --

func (h *Handler) CreateFamily(c echo.Context) error {
	var p FamilyProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateFamily(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetFamily(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetFamily(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListFamilies(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListFamilies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateFamily(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p FamilyProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdateFamily(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteFamily(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteFamily(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
