package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeImage(t *testing.T, w, h int, format string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}

	var buf bytes.Buffer
	var err error
	if format == "png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeImage(t *testing.T, encoded string) (image.Image, string) {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	return img, format
}

func TestNormalizeForLLMKeepsSmallJPEG(t *testing.T) {
	in := encodeImage(t, 64, 32, "jpeg")
	if out := normalizeForLLM(in, 1568); out != in {
		t.Error("small JPEG should pass through unchanged")
	}
}

func TestNormalizeForLLMTranscodesPNG(t *testing.T) {
	out := normalizeForLLM(encodeImage(t, 64, 32, "png"), 1568)
	img, format := decodeImage(t, out)
	if format != "jpeg" {
		t.Errorf("expected jpeg, got %s", format)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}

func TestNormalizeForLLMDownscales(t *testing.T) {
	out := normalizeForLLM(encodeImage(t, 400, 100, "jpeg"), 200)
	img, _ := decodeImage(t, out)
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 50 {
		t.Errorf("expected 200x50, got %v", img.Bounds())
	}

	out = normalizeForLLM(encodeImage(t, 100, 400, "png"), 200)
	img, _ = decodeImage(t, out)
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 200 {
		t.Errorf("expected 50x200, got %v", img.Bounds())
	}
}

func TestNormalizeForLLMPassesThroughGarbage(t *testing.T) {
	for _, in := range []string{"", "aW1n", "%%%"} {
		if out := normalizeForLLM(in, 1568); out != in {
			t.Errorf("expected %q unchanged, got %q", in, out)
		}
	}
}
