package imaging

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"path/filepath"
	"testing"
)

func TestEncodePNGBase64(t *testing.T) {
	img := uniformGray(30, 20, 99)

	result, err := EncodePNGBase64(img)
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}
	if result.Width != 30 || result.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 30x20", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("mime type: got %q", result.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if r, _, _, _ := decoded.At(5, 5).RGBA(); r>>8 != 99 {
		t.Errorf("decoded sample: got %d, want 99", r>>8)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zone.png")
	if err := SavePNG(path, uniformGray(8, 8, 255)); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	cache := NewImageCache()
	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("reloading saved image failed: %v", err)
	}
	if info.Format != "png" || info.Width != 8 {
		t.Errorf("got %+v, want an 8px wide png", info)
	}
}

func TestSavePNG_BadPath(t *testing.T) {
	if err := SavePNG(filepath.Join(t.TempDir(), "missing", "x.png"), uniformGray(2, 2, 0)); err == nil {
		t.Error("SavePNG should fail when the directory does not exist")
	}
}
