package service

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// google/vit-base-patch16-224 的归一化参数
const (
	imageMean = 0.5
	imageStd  = 0.5
)

// loadTensor 读取图片并转换为 CHW float32：RGB、双线性缩放、rescale 1/255、(x-0.5)/0.5
func loadTensor(imagePath string, size int) ([]float32, error) {
	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("failed to decode image")
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(img, &rgb, gocv.ColorBGRToRGB)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(rgb, &resized, image.Point{X: size, Y: size}, 0, 0, gocv.InterpolationLinear)

	pixels := resized.ToBytes()
	plane := size * size
	if len(pixels) != plane*3 {
		return nil, fmt.Errorf("unexpected pixel buffer size %d for %dx%d RGB", len(pixels), size, size)
	}

	tensor := make([]float32, 3*plane)
	for i := 0; i < plane; i++ {
		for c := 0; c < 3; c++ {
			v := float32(pixels[i*3+c]) / 255.0
			tensor[c*plane+i] = (v - imageMean) / imageStd
		}
	}

	return tensor, nil
}
