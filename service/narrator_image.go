package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// normalizeForLLM 保证发送给模型的图片确为 JPEG 且长边不超过 maxEdge。
// 无法解码的数据原样返回，由远程模型自行报错。
func normalizeForLLM(encoded string, maxEdge int) string {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		return encoded
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return encoded
	}

	bounds := img.Bounds()
	tooLarge := maxEdge > 0 && max(bounds.Dx(), bounds.Dy()) > maxEdge
	if format == "jpeg" && !tooLarge {
		return encoded
	}

	if tooLarge {
		if bounds.Dx() >= bounds.Dy() {
			img = resize.Resize(uint(maxEdge), 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, uint(maxEdge), img, resize.Lanczos3)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return encoded
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
