// Package imaging implements the image delivery pipeline: resolve a
// source reference to bytes, resize and transcode, and classify every
// failure into a named fallback so optimization problems never break
// image display.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const (
	// DefaultQuality applies when the caller passes no or an
	// out-of-range quality.
	DefaultQuality = 75

	// PlaceholderSize is the placeholder edge length when no width was
	// requested.
	PlaceholderSize = 300

	// Optimized output is content-addressed by source+width+quality, so
	// it can be cached as immutable. Placeholders cache briefly since
	// the underlying asset may appear later.
	OptimizedCacheControl   = "public, max-age=31536000, immutable"
	PlaceholderCacheControl = "public, max-age=3600, immutable"

	jpegContentType = "image/jpeg"
	svgContentType  = "image/svg+xml"
)

// Outcome names the pipeline's possible results. Fallbacks are explicit
// outcomes rather than errors: the handler maps each to a response shape.
type Outcome int

const (
	// OutcomeOptimized carries resized/transcoded bytes.
	OutcomeOptimized Outcome = iota
	// OutcomeRedirect instructs the caller to redirect the client to
	// the original source, bypassing optimization.
	OutcomeRedirect
	// OutcomePlaceholder carries a generated stand-in image because the
	// source could not be resolved at all.
	OutcomePlaceholder
)

// Result is the pipeline output for one request.
type Result struct {
	Outcome      Outcome
	Body         []byte
	ContentType  string
	CacheControl string
	RedirectURL  string
}

// Pipeline resolves and optimizes images. Stateless; every request is
// independent.
type Pipeline struct {
	fetcher   *Fetcher
	staticDir string
	log       *logrus.Logger
}

func NewPipeline(fetcher *Fetcher, staticDir string, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		staticDir: staticDir,
		log:       log,
	}
}

// Process turns a source reference into an optimized image, a redirect,
// or a placeholder. width 0 means no resize; quality outside 1..100
// falls back to DefaultQuality.
func (p *Pipeline) Process(ctx context.Context, source string, width, quality int) Result {
	if width < 0 {
		width = 0
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	var raw []byte
	if isRemote(source) {
		fetched, _, err := p.fetcher.Fetch(ctx, source)
		if err != nil {
			// Degrade gracefully: the client loads the original
			// directly, bypassing optimization.
			p.log.WithError(err).WithField("url", source).Warn("remote image fetch failed")
			return redirectResult(source)
		}
		raw = fetched
	} else {
		local, err := p.readLocal(source)
		if err != nil {
			p.log.WithError(err).WithField("url", source).Warn("local image not found")
		} else {
			raw = local
		}
	}

	if len(raw) == 0 {
		return placeholderResult(width)
	}

	optimized, err := transcode(raw, width, quality)
	if err != nil {
		p.log.WithError(err).WithField("url", source).Warn("image optimization failed")
		return redirectResult(source)
	}

	return Result{
		Outcome:      OutcomeOptimized,
		Body:         optimized,
		ContentType:  jpegContentType,
		CacheControl: OptimizedCacheControl,
	}
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// readLocal resolves a root-relative reference under the static asset
// root. Paths escaping the root are treated as missing.
func (p *Pipeline) readLocal(source string) ([]byte, error) {
	clean := strings.TrimPrefix(source, "/")
	path := filepath.Join(p.staticDir, filepath.Clean(clean))

	root, err := filepath.Abs(p.staticDir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return nil, fmt.Errorf("path %q escapes static root", source)
	}

	return os.ReadFile(abs)
}

// transcode decodes the source, downscales it to fit within width when
// requested (never upscaling), and encodes JPEG at the given quality.
func transcode(data []byte, width, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if width > 0 && w > width {
		newH := h * width / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func redirectResult(source string) Result {
	return Result{
		Outcome:     OutcomeRedirect,
		RedirectURL: source,
	}
}

func placeholderResult(width int) Result {
	return Result{
		Outcome:      OutcomePlaceholder,
		Body:         PlaceholderSVG(width),
		ContentType:  svgContentType,
		CacheControl: PlaceholderCacheControl,
	}
}
