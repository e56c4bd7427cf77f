package icons

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"dropd/internal/config"
	serr "dropd/internal/errors"
	"dropd/internal/log"
)

// DefaultThumbnailSize is the square edge used when callers pass no size.
const DefaultThumbnailSize = 128

// Thumbnailer renders letterboxed square previews for image files and
// keeps them in a two-level cache: decoded images in memory, JPEG renders
// on disk keyed by path, mtime and size.
type Thumbnailer struct {
	cacheDir string

	mutex  sync.Mutex
	memory map[string]image.Image
}

// NewThumbnailer sets up the disk cache under the configured directory.
// A cache directory that cannot be created just disables the disk level.
func NewThumbnailer(cfg *config.Config) *Thumbnailer {
	cacheDir := cfg.ThumbnailCacheDir()
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.LogWithFields(log.F("directory", cacheDir), log.F("error", err)).Warn("Thumbnail cache unavailable")
		cacheDir = ""
	}
	return &Thumbnailer{
		cacheDir: cacheDir,
		memory:   make(map[string]image.Image),
	}
}

// Thumbnail returns a size×size letterboxed preview of the image at path.
func (t *Thumbnailer) Thumbnail(path string, size int) (image.Image, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	if !decodable(path) {
		return nil, serr.NewFileError("no decoder for file", path, serr.ClassificationUnknown, nil)
	}

	memKey := fmt.Sprintf("%s@%d", path, size)
	t.mutex.Lock()
	if img, ok := t.memory[memKey]; ok {
		t.mutex.Unlock()
		return img, nil
	}
	t.mutex.Unlock()

	key, err := cacheKey(path)
	if err != nil {
		return nil, err
	}

	if img := t.loadCached(key, size); img != nil {
		t.remember(memKey, img)
		return img, nil
	}

	src, err := loadImage(path)
	if err != nil {
		return nil, serr.NewFileError("decoding image", path, serr.RepresentationLoadFailed, err)
	}

	thumb, err := scaleLetterboxed(src, size)
	if err != nil {
		return nil, err
	}

	t.remember(memKey, thumb)
	t.storeCached(key, size, thumb)
	return thumb, nil
}

func (t *Thumbnailer) remember(key string, img image.Image) {
	t.mutex.Lock()
	t.memory[key] = img
	t.mutex.Unlock()
}

func (t *Thumbnailer) cachePath(key string, size int) string {
	return filepath.Join(t.cacheDir, fmt.Sprintf("%s-%d.jpg", key, size))
}

func (t *Thumbnailer) loadCached(key string, size int) image.Image {
	if t.cacheDir == "" {
		return nil
	}
	img, err := loadImage(t.cachePath(key, size))
	if err != nil {
		return nil
	}
	return img
}

func (t *Thumbnailer) storeCached(key string, size int, img image.Image) {
	if t.cacheDir == "" {
		return
	}
	f, err := os.Create(t.cachePath(key, size))
	if err != nil {
		return
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		f.Close()
		os.Remove(f.Name())
		return
	}
	f.Close()
}

// scaleLetterboxed fits src into a size×size square, preserving aspect
// ratio and centering on a dark background.
func scaleLetterboxed(src image.Image, size int) (image.Image, error) {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, serr.NewKind("image has no pixels", serr.RepresentationLoadFailed)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	var scaledW, scaledH int
	ratio := float64(srcW) / float64(srcH)
	if ratio > 1 {
		scaledW = size
		scaledH = int(float64(size) / ratio)
	} else {
		scaledH = size
		scaledW = int(float64(size) * ratio)
	}
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}

	x := (size - scaledW) / 2
	y := (size - scaledH) / 2
	target := image.Rect(x, y, x+scaledW, y+scaledH)

	draw.ApproxBiLinear.Scale(dst, target, src, bounds, draw.Over, nil)
	return dst, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// cacheKey hashes the path together with size and mtime so edits and
// replacements invalidate stale renders.
func cacheKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", serr.NewFileError("checking image file", path, serr.FileNotFound, err)
	}

	h := sha256.New()
	h.Write([]byte(abs))
	h.Write([]byte(info.ModTime().String()))
	fmt.Fprintf(h, "%d", info.Size())
	return hex.EncodeToString(h.Sum(nil))[:32], nil
}

func decodable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}
