package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/imaging"
	"catalog-service/internal/models"
)

// ImagesHandler serves the image optimization proxy and the file
// download proxy.
type ImagesHandler struct {
	pipeline      *imaging.Pipeline
	fetcher       *imaging.Fetcher
	publicBaseURL string
	log           *logrus.Logger
}

func NewImagesHandler(pipeline *imaging.Pipeline, fetcher *imaging.Fetcher, publicBaseURL string, log *logrus.Logger) *ImagesHandler {
	return &ImagesHandler{
		pipeline:      pipeline,
		fetcher:       fetcher,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}
}

// OptimizeImage serves a resized, transcoded rendition of a source image
// @Summary Optimize image
// @Description Fetches the source image, resizes it to the requested width and serves a compressed rendition. Falls back to a redirect or an SVG placeholder when the source cannot be optimized.
// @Tags Images
// @Produce image/jpeg
// @Param url query string true "Source image URL or root-relative path"
// @Param w query int false "Target display width in pixels"
// @Param q query int false "Compression quality 1-100" default(75)
// @Success 200 {file} binary
// @Failure 307 "Redirect to the original source"
// @Failure 400 {object} models.ErrorResponse
// @Router /images [get]
func (h *ImagesHandler) OptimizeImage(c *gin.Context) {
	source := c.Query("url")
	if source == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "url query parameter is required",
				Field:   "url",
			},
		})
		return
	}

	width, _ := strconv.Atoi(c.Query("w"))
	quality, _ := strconv.Atoi(c.Query("q"))

	result := h.pipeline.Process(c.Request.Context(), source, width, quality)
	switch result.Outcome {
	case imaging.OutcomeRedirect:
		c.Redirect(http.StatusTemporaryRedirect, result.RedirectURL)
	default:
		c.Header("Cache-Control", result.CacheControl)
		c.Header("Vary", "Accept")
		c.Data(http.StatusOK, result.ContentType, result.Body)
	}
}

// DownloadFile proxies a file and forces a download disposition
// @Summary Download file
// @Description Fetches the given file and streams it back with an attachment disposition so browsers save instead of render it.
// @Tags Images
// @Produce application/octet-stream
// @Param url query string true "File URL or root-relative path"
// @Param filename query string false "Saved filename" default(image.jpg)
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /download [get]
func (h *ImagesHandler) DownloadFile(c *gin.Context) {
	source := c.Query("url")
	if source == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "url query parameter is required",
				Field:   "url",
			},
		})
		return
	}

	target := h.resolveURL(source)
	body, contentType, err := h.fetcher.Fetch(c.Request.Context(), target)
	if err != nil {
		h.log.WithError(err).WithField("url", target).Error("download proxy fetch failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DOWNLOAD_FAILED",
				Message: "Failed to fetch the requested file",
			},
		})
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := c.DefaultQuery("filename", "image.jpg")

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Access-Control-Allow-Origin", "*")
	c.Data(http.StatusOK, contentType, body)
}

// resolveURL turns root-relative references into absolute URLs against
// the deployment origin. Absolute URLs pass through untouched.
func (h *ImagesHandler) resolveURL(source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source
	}
	return h.publicBaseURL + "/" + strings.TrimPrefix(source, "/")
}
