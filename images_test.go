package spacetraveling

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// imageServer serves a w×h PNG at /banner.png and 404 elsewhere.
func imageServer(t *testing.T, w, h int) (*httptest.Server, func() int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 255, A: 255})
	}
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/banner.png":
			rw.Header().Set("Content-Type", "image/png")
			_ = png.Encode(rw, img)
		case "/not-an-image.png":
			_, _ = rw.Write([]byte("hello"))
		default:
			http.NotFound(rw, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() int { return int(hits.Load()) }
}

func TestScaleDown(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"wide", 2560, 1200, 1280, 600},
		{"wider than box", 3000, 600, 1280, 256},
		{"tall", 600, 1800, 200, 600},
		{"fits", 640, 300, 640, 300},
		{"exact", 1280, 600, 1280, 600},
	}
	for _, tt := range tests {
		got := scaleDown(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), bannerWidth, bannerHeight).Bounds()
		if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
			t.Errorf("%s: got %dx%d, want %dx%d", tt.name, got.Dx(), got.Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestOptimizeScalesDown(t *testing.T) {
	srv, _ := imageServer(t, 2560, 1200)
	dir := t.TempDir()
	o := NewBannerOptimizer(dir, srv.Client())

	img, err := o.Optimize(context.Background(), srv.URL+"/banner.png")
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if img.Width != 1280 || img.Height != 600 {
		t.Errorf("size = %dx%d, want 1280x600", img.Width, img.Height)
	}
	if !strings.HasPrefix(img.Src, "/images/") || !strings.HasSuffix(img.Src, ".jpg") {
		t.Errorf("Src = %q", img.Src)
	}

	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(img.Src, "/"))))
	if err != nil {
		t.Fatalf("optimized file missing: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("optimized file is not a JPEG: %v", err)
	}
	if cfg.Width != 1280 || cfg.Height != 600 {
		t.Errorf("file size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestOptimizeNeverUpscales(t *testing.T) {
	srv, _ := imageServer(t, 640, 300)
	o := NewBannerOptimizer(t.TempDir(), srv.Client())

	img, err := o.Optimize(context.Background(), srv.URL+"/banner.png")
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if img.Width != 640 || img.Height != 300 {
		t.Errorf("size = %dx%d, want 640x300", img.Width, img.Height)
	}
}

func TestOptimizeReusesExistingCopy(t *testing.T) {
	srv, hits := imageServer(t, 100, 50)
	o := NewBannerOptimizer(t.TempDir(), srv.Client())
	ctx := context.Background()

	first, err := o.Optimize(ctx, srv.URL+"/banner.png")
	if err != nil {
		t.Fatalf("first Optimize failed: %v", err)
	}
	second, err := o.Optimize(ctx, srv.URL+"/banner.png")
	if err != nil {
		t.Fatalf("second Optimize failed: %v", err)
	}
	if first != second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
	if hits() != 1 {
		t.Errorf("banner fetched %d times, want 1", hits())
	}
}

func TestOptimizeFailures(t *testing.T) {
	srv, _ := imageServer(t, 10, 10)
	o := NewBannerOptimizer(t.TempDir(), srv.Client())

	for _, path := range []string{"/missing.png", "/not-an-image.png"} {
		if _, err := o.Optimize(context.Background(), srv.URL+path); err == nil {
			t.Errorf("%s: expected error", path)
		}
	}
}
