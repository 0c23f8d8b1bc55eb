package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/imaging"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newImagesRouter(t *testing.T, baseURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fetcher := imaging.NewFetcher()
	t.Cleanup(func() { fetcher.Close() })
	pipeline := imaging.NewPipeline(fetcher, t.TempDir(), testLogger())
	handler := NewImagesHandler(pipeline, fetcher, baseURL, testLogger())

	router := gin.New()
	router.GET("/api/images", handler.OptimizeImage)
	router.GET("/api/download", handler.DownloadFile)
	return router
}

func TestOptimizeImage(t *testing.T) {
	t.Run("MissingURLReturns400", func(t *testing.T) {
		router := newImagesRouter(t, "http://localhost:8080")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/images", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("FailedRemoteRedirectsToOriginal", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer upstream.Close()

		router := newImagesRouter(t, "http://localhost:8080")
		source := upstream.URL + "/pic.jpg"

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/images?url="+url.QueryEscape(source)+"&w=150", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, source, w.Header().Get("Location"))
	})

	t.Run("MissingLocalServesPlaceholderSVG", func(t *testing.T) {
		router := newImagesRouter(t, "http://localhost:8080")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/images?url=%2Fmissing.png&w=150", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
		assert.Equal(t, imaging.PlaceholderCacheControl, w.Header().Get("Cache-Control"))
		assert.Equal(t, "Accept", w.Header().Get("Vary"))
		assert.Contains(t, w.Body.String(), `width="150"`)
	})
}

func TestDownloadFile(t *testing.T) {
	t.Run("MissingURLReturns400", func(t *testing.T) {
		router := newImagesRouter(t, "http://localhost:8080")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/download", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("StreamsWithAttachmentDisposition", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4 test"))
		}))
		defer upstream.Close()

		router := newImagesRouter(t, "http://localhost:8080")
		source := upstream.URL + "/files/catalogue.pdf"

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/download?url="+url.QueryEscape(source)+"&filename=catalogue.pdf", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="catalogue.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "%PDF-1.4 test", w.Body.String())
	})

	t.Run("DefaultFilename", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("bytes"))
		}))
		defer upstream.Close()

		router := newImagesRouter(t, "http://localhost:8080")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/download?url="+url.QueryEscape(upstream.URL+"/x"), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, `attachment; filename="image.jpg"`, w.Header().Get("Content-Disposition"))
	})

	t.Run("RootRelativeResolvesAgainstBaseURL", func(t *testing.T) {
		var gotPath string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte("ok"))
		}))
		defer upstream.Close()

		router := newImagesRouter(t, upstream.URL)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/download?url=%2Fassets%2Fprice-list.csv", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/assets/price-list.csv", gotPath)
	})

	t.Run("FetchFailureReturns500", func(t *testing.T) {
		router := newImagesRouter(t, "http://127.0.0.1:1")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/download?url=%2Fgone.pdf", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "DOWNLOAD_FAILED")
	})
}
