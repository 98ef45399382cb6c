// Package image loads images from URLs, data URLs and files and downsamples
// them into fixed-size pixel buffers for colour sampling.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"
	"strings"
	"time"

	_ "github.com/gen2brain/avif" // Register AVIF format
	"github.com/vincent-petithory/dataurl"
	_ "golang.org/x/image/bmp" // Register BMP format
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/dextint/internal/security"
	httputil "github.com/jmylchreest/dextint/internal/util/http"
)

// DefaultSampleSize is the edge length of the square sample buffer.
const DefaultSampleSize = 50

// ErrUnavailable wraps every failure to produce a pixel buffer.
var ErrUnavailable = errors.New("image unavailable")

// Sampler produces a downscaled pixel buffer for an image source.
type Sampler interface {
	// Sample loads source and returns a Size x Size buffer.
	// Any failure is returned wrapping ErrUnavailable.
	Sample(ctx context.Context, source string) (*image.NRGBA, error)
}

// FetchFunc retrieves the raw bytes of a remote resource.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Options configures a URLSampler.
type Options struct {
	// Size is the edge length of the sample buffer. Zero means DefaultSampleSize.
	Size int

	// Interpolator names the resampling kernel (see Interpolators).
	// Empty means "approx-bilinear".
	Interpolator string

	// Timeout bounds remote fetches. Zero uses the HTTP default.
	Timeout time.Duration

	// Fetch overrides how remote bytes are retrieved.
	// Defaults to an anonymous httputil.Fetch.
	Fetch FetchFunc

	// Policy restricts acceptable sources. Nil means security.DefaultSourcePolicy.
	Policy *security.SourcePolicy
}

// Interpolators returns the resampling kernels known by name.
func Interpolators() map[string]draw.Interpolator {
	return map[string]draw.Interpolator{
		"nearest":         draw.NearestNeighbor,
		"approx-bilinear": draw.ApproxBiLinear,
		"bilinear":        draw.BiLinear,
		"catmull-rom":     draw.CatmullRom,
	}
}

// LookupInterpolator resolves an interpolator name.
func LookupInterpolator(name string) (draw.Interpolator, error) {
	if name == "" {
		name = "approx-bilinear"
	}
	interp, ok := Interpolators()[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown interpolator: %s", name)
	}
	return interp, nil
}

// URLSampler samples http(s) URLs, data URLs and local files.
type URLSampler struct {
	size   int
	interp draw.Interpolator
	fetch  FetchFunc
	policy security.SourcePolicy
	files  *FileLoader
}

// NewURLSampler creates a URLSampler.
func NewURLSampler(opts Options) (*URLSampler, error) {
	size := opts.Size
	if size == 0 {
		size = DefaultSampleSize
	}
	if size < 1 {
		return nil, fmt.Errorf("sample size must be positive, got %d", size)
	}

	interp, err := LookupInterpolator(opts.Interpolator)
	if err != nil {
		return nil, err
	}

	fetch := opts.Fetch
	if fetch == nil {
		timeout := opts.Timeout
		fetch = func(ctx context.Context, url string) ([]byte, error) {
			return httputil.Fetch(ctx, url, httputil.FetchOptions{
				Timeout:   timeout,
				Anonymous: true,
			})
		}
	}

	policy := security.DefaultSourcePolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	return &URLSampler{
		size:   size,
		interp: interp,
		fetch:  fetch,
		policy: policy,
		files:  NewFileLoader(),
	}, nil
}

// Size returns the edge length of produced buffers.
func (s *URLSampler) Size() int {
	return s.size
}

// Sample implements Sampler.
func (s *URLSampler) Sample(ctx context.Context, source string) (*image.NRGBA, error) {
	img, err := s.load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return Downsample(img, s.size, s.interp), nil
}

func (s *URLSampler) load(ctx context.Context, source string) (image.Image, error) {
	if err := security.ValidateImageSource(source, s.policy); err != nil {
		return nil, err
	}

	switch SourceKindOf(source) {
	case SourceRemote:
		data, err := s.fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
		}
		return decode(data)
	case SourceDataURL:
		du, err := dataurl.DecodeString(source)
		if err != nil {
			return nil, fmt.Errorf("failed to parse data URL: %w", err)
		}
		return decode(du.Data)
	case SourceFile:
		return s.files.Load(source)
	default:
		return nil, fmt.Errorf("image source cannot be empty")
	}
}

func decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, nil
}

// Downsample scales the whole of src into a size x size buffer. The aspect
// ratio is discarded and uncovered areas stay transparent.
func Downsample(src image.Image, size int, interp draw.Interpolator) *image.NRGBA {
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// SourceKind classifies an image source string.
type SourceKind int

const (
	// SourceEmpty is an empty source.
	SourceEmpty SourceKind = iota
	// SourceRemote is an http:// or https:// URL.
	SourceRemote
	// SourceDataURL is a data: URL.
	SourceDataURL
	// SourceFile is anything else, treated as a local path.
	SourceFile
)

// SourceKindOf classifies source.
func SourceKindOf(source string) SourceKind {
	lower := strings.ToLower(source)
	switch {
	case source == "":
		return SourceEmpty
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceRemote
	case strings.HasPrefix(lower, "data:"):
		return SourceDataURL
	default:
		return SourceFile
	}
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
func (l *FileLoader) Load(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	return img, nil
}
