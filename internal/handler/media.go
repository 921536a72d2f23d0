package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/service"
)

// maxVideoBytes caps a single recording upload.
const maxVideoBytes = 512 << 20

const uploadTimeout = 2 * time.Minute

// VideoIngester is implemented by service.MediaService.
type VideoIngester interface {
	IngestVideo(ctx context.Context, token, recordingType string, data []byte) (*service.MediaResult, error)
}

// MediaHandler accepts interview recordings.
type MediaHandler struct {
	Media VideoIngester
	Log   *zap.Logger
}

func NewMediaHandler(m VideoIngester, log *zap.Logger) *MediaHandler {
	return &MediaHandler{Media: m, Log: log}
}

// UploadVideo stores the multipart "video" file for the interview link.
// The optional "type" field selects user-only (default) or complete.
func (h *MediaHandler) UploadVideo(c echo.Context) error {
	fh, err := c.FormFile("video")
	if err != nil {
		return badRequest(c, "No video file provided")
	}
	if fh.Size > maxVideoBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "Video file too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, h.Log, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxVideoBytes))
	if err != nil {
		return fail(c, h.Log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), uploadTimeout)
	defer cancel()

	res, err := h.Media.IngestVideo(ctx, c.Param("id"), c.FormValue("type"), data)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
