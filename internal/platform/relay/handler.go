package relay

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

// maxUploadBytes caps a single relayed file.
const maxUploadBytes = 10 << 20

// Handler exposes the upload relay over HTTP.
type Handler struct {
	uploader *Uploader
}

func NewHandler(uploader *Uploader) *Handler {
	return &Handler{uploader: uploader}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleElderly, auth.RoleFamily, auth.RoleSupporter)

	g := api.Group("", role)
	g.POST("/uploads", h.Upload)
	g.POST("/uploads/batch", h.UploadBatch)
}

func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file form field is required")
	}
	content, err := readUpload(fh)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res := h.uploader.Upload(c.Request().Context(), fh.Filename, content)
	if !res.Success {
		return c.JSON(http.StatusBadGateway, res)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) UploadBatch(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "files form field is required")
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		content, err := readUpload(fh)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		files = append(files, File{Name: fh.Filename, Content: content})
	}

	res := h.uploader.UploadMany(c.Request().Context(), files)
	if !res.Success {
		return c.JSON(http.StatusBadGateway, res)
	}
	return c.JSON(http.StatusOK, res)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds upload limit")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}
