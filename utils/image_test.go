package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(3, 2, color.RGBA{G: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestBase64RoundTrip(t *testing.T) {
	cases := map[string][]byte{
		"png":   encodeTestPNG(t),
		"empty": {},
		"raw":   {0xff, 0xd8, 0xff, 0x00, 0x10, 0x42},
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "in.bin")
			if err := os.WriteFile(src, data, 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}

			encoded, err := ImageToBase64(src)
			if err != nil {
				t.Fatalf("ImageToBase64 failed: %v", err)
			}

			out := filepath.Join(dir, "out.bin")
			decoded, err := Base64ToImage(encoded, out)
			if err != nil {
				t.Fatalf("Base64ToImage failed: %v", err)
			}
			if !bytes.Equal(decoded, data) {
				t.Error("decoded bytes differ from original")
			}

			written, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if !bytes.Equal(written, data) {
				t.Error("written file differs from original")
			}
		})
	}
}

func TestImageToBase64MissingFile(t *testing.T) {
	if _, err := ImageToBase64(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBase64ToImageInvalid(t *testing.T) {
	if _, err := Base64ToImage("not base64!!", ""); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if len(id) != 32 {
			t.Fatalf("expected 32 hex chars, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
