package spacetraveling

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	bannerWidth    = 1280
	bannerHeight   = 600
	jpegQuality    = 80
	maxBannerBytes = 20 << 20 // 20MB
	imagesSubdir   = "images"
)

// BannerOptimizer downloads banner images and stores scaled-down JPEG copies
// in the output directory, the way the page's image component would serve
// them.
type BannerOptimizer struct {
	client *http.Client
	dir    string
}

// NewBannerOptimizer writes optimized banners under outputDir/images.
func NewBannerOptimizer(outputDir string, client *http.Client) *BannerOptimizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &BannerOptimizer{client: client, dir: filepath.Join(outputDir, imagesSubdir)}
}

// Optimize returns the local copy of the banner at src, creating it when it
// does not exist yet. Copies are keyed by the source URL.
func (o *BannerOptimizer) Optimize(ctx context.Context, src string) (BannerImage, error) {
	sum := sha256.Sum256([]byte(src))
	filename := hex.EncodeToString(sum[:8]) + ".jpg"
	dst := filepath.Join(o.dir, filename)
	publicPath := "/" + path.Join(imagesSubdir, filename)

	if f, err := os.Open(dst); err == nil {
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		if err == nil {
			return BannerImage{Src: publicPath, Width: cfg.Width, Height: cfg.Height}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return BannerImage{}, fmt.Errorf("banner %s: %w", src, err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return BannerImage{}, fmt.Errorf("banner %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return BannerImage{}, fmt.Errorf("banner %s: unexpected status %d", src, resp.StatusCode)
	}

	data, w, h, err := processBanner(io.LimitReader(resp.Body, maxBannerBytes))
	if err != nil {
		return BannerImage{}, fmt.Errorf("banner %s: %w", src, err)
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return BannerImage{}, fmt.Errorf("create images dir: %w", err)
	}
	if err := writeFileAtomic(dst, data); err != nil {
		return BannerImage{}, fmt.Errorf("write banner: %w", err)
	}
	return BannerImage{Src: publicPath, Width: w, Height: h}, nil
}

// isBannerPath reports whether rel names a file the optimizer writes.
func isBannerPath(rel string) bool {
	dir, name := path.Split(rel)
	return dir == imagesSubdir+"/" && strings.HasSuffix(name, ".jpg") && !strings.HasPrefix(name, ".")
}

// processBanner decodes an image from src, scales it down to fit the banner
// box, and encodes it as JPEG. Returns the encoded bytes and final size.
func processBanner(src io.Reader) ([]byte, int, int, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}
	img = scaleDown(img, bannerWidth, bannerHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	b := img.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}

// scaleDown resizes img to fit within maxW×maxH preserving its aspect ratio.
// Images that already fit are returned unchanged; nothing is ever enlarged
// or cropped.
func scaleDown(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return img
	}
	newW, newH := maxW, h*maxW/w
	if newH > maxH {
		newW, newH = w*maxH/h, maxH
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// writeFileAtomic writes data to a temp file next to name and renames it
// into place so readers never see a partial file.
func writeFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), name)
}
