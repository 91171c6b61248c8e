package ocr

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/sightai/sightworker/pkg/vision/cv"
)

// 预处理参数
const (
	// preprocessScale 放大倍数，提升小字的识别率
	preprocessScale = 3
	// preprocessPadding 四周补白的像素数
	preprocessPadding = 20
	// invertMeanCutoff 平均亮度低于该值时按暗色背景处理
	invertMeanCutoff = 127
)

// Preprocess 将待识别图像标准化为白底黑字的高对比度图像
// 流程: 三次插值放大 -> 灰度 -> 暗底反色 -> Otsu 二值化 -> 加白边
func Preprocess(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("待预处理图像为空")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("待预处理图像为空")
	}

	src, err := cv.ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	enlarged := gocv.NewMat()
	gocv.Resize(src, &enlarged, image.Point{}, preprocessScale, preprocessScale, gocv.InterpolationCubic)
	defer enlarged.Close()

	gray := cv.ToGray(enlarged)
	defer gray.Close()

	// 暗色背景反色成白底黑字
	if gray.Mean().Val1 < invertMeanCutoff {
		gocv.BitwiseNot(gray, &gray)
	}

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	defer binary.Close()

	padded := gocv.NewMat()
	gocv.CopyMakeBorder(binary, &padded, preprocessPadding, preprocessPadding,
		preprocessPadding, preprocessPadding, gocv.BorderConstant,
		color.RGBA{255, 255, 255, 255})
	defer padded.Close()

	// 引擎按彩色图处理
	out := gocv.NewMat()
	gocv.CvtColor(padded, &out, gocv.ColorGrayToBGR)
	defer out.Close()

	return cv.MatToImage(out)
}
