package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"golang.org/x/image/draw"
)

const (
	// DefaultWidth is the thumbnail width in pixels.
	DefaultWidth = 200
	// DefaultHeight is the thumbnail height in pixels.
	DefaultHeight = 300
	// ToothSize is the width and height of one saw tooth.
	ToothSize = 20
)

// ErrUnexpectedName is returned for a screenshot that does not follow the
// <scheme>---<site>_trial<N>.png convention.
var ErrUnexpectedName = errors.New("screenshot name not in expected format")

var (
	screenshotPattern = regexp.MustCompile(`^(https?)---(.+)_trial[0-9]+$`)
	outputPattern     = regexp.MustCompile(`-https?(_thumb)?$`)
)

// Processor renames screenshots and writes their thumbnails.
type Processor struct {
	width  int
	height int
	logger *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithSize sets the thumbnail size. Non-positive values are ignored.
func WithSize(width, height int) Option {
	return func(p *Processor) {
		if width > 0 && height > 0 {
			p.width = width
			p.height = height
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// New creates a Processor.
func New(opts ...Option) *Processor {
	p := &Processor{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Result lists what ProcessDir did.
type Result struct {
	// Thumbnails are the written thumbnail paths.
	Thumbnails []string

	// Skipped are the screenshots that could not be processed.
	Skipped []string
}

// ProcessDir processes every screenshot in dir in name order. Files that
// already carry the output naming are ignored; other files with unexpected
// names or undecodable content are skipped with a warning.
func (p *Processor) ProcessDir(dir string) (*Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	result := &Result{}
	for _, file := range files {
		stem := stemOf(file)
		if outputPattern.MatchString(stem) && !screenshotPattern.MatchString(stem) {
			continue
		}
		_, thumb, err := p.ProcessFile(file)
		if err != nil {
			p.logger.Warn("skipping screenshot", "path", file, "error", err)
			result.Skipped = append(result.Skipped, file)
			continue
		}
		result.Thumbnails = append(result.Thumbnails, thumb)
	}
	return result, nil
}

// ProcessFile renames one screenshot and writes its thumbnail, returning
// both new paths.
func (p *Processor) ProcessFile(path string) (imagePath, thumbPath string, err error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	match := screenshotPattern.FindStringSubmatch(stemOf(path))
	if match == nil {
		return "", "", fmt.Errorf("%s: %w", filepath.Base(path), ErrUnexpectedName)
	}
	scheme, site := match[1], match[2]

	imagePath = filepath.Join(dir, site+"-"+scheme+ext)
	thumbPath = filepath.Join(dir, site+"-"+scheme+"_thumb"+ext)

	if err := os.Rename(path, imagePath); err != nil {
		return "", "", fmt.Errorf("rename screenshot: %w", err)
	}

	src, err := decode(imagePath)
	if err != nil {
		return "", "", err
	}
	if err := encode(thumbPath, Thumbnail(src, p.width, p.height)); err != nil {
		return "", "", err
	}
	p.logger.Debug("wrote thumbnail", "path", thumbPath)
	return imagePath, thumbPath, nil
}

// Thumbnail crops src from the top-left corner to the width:height aspect
// ratio, scales it down to fit width x height and paints the saw-tooth.
// Images smaller than the thumbnail are not enlarged.
func Thumbnail(src image.Image, width, height int) *image.RGBA {
	crop := cropToRatio(src.Bounds(), width, height)

	w, h := crop.Dx(), crop.Dy()
	if w > width || h > height {
		scale := math.Min(float64(width)/float64(w), float64(height)/float64(h))
		w = max(1, int(math.Round(float64(w)*scale)))
		h = max(1, int(math.Round(float64(h)*scale)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	paintSawTooth(dst, ToothSize)
	return dst
}

// cropToRatio returns the largest top-left aligned rectangle of b with the
// width:height aspect ratio.
func cropToRatio(b image.Rectangle, width, height int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	switch {
	case w*height < h*width:
		// Too tall: cut the bottom.
		h = w * height / width
	case w*height > h*width:
		// Too wide: cut the right side.
		w = h * width / height
	}
	return image.Rect(b.Min.X, b.Min.Y, b.Min.X+max(w, 1), b.Min.Y+max(h, 1))
}

// paintSawTooth fills white triangles of the given size along the bottom
// edge, starting with a point on the bottom at x=0.
func paintSawTooth(img *image.RGBA, tooth int) {
	b := img.Bounds()
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for x := b.Min.X; x < b.Max.X; x++ {
		t := (x - b.Min.X) % (2 * tooth)
		depth := t
		if t > tooth {
			depth = 2*tooth - t
		}
		for y := b.Max.Y - depth; y < b.Max.Y; y++ {
			if y >= b.Min.Y {
				img.SetRGBA(x, y, white)
			}
		}
	}
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from a directory listing
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func encode(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is derived from a screenshot name
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return f.Close()
}
