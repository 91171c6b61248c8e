package cv

import (
	"gocv.io/x/gocv"
)

// CalRGBConfidence 计算 RGB 三通道置信度
// 对匹配位置的截图区域与模板逐通道比对，取三个通道中最低的相关度，
// 用于过滤灰度形状相同但颜色不同的误匹配
func CalRGBConfidence(imgSrc, imgSearch gocv.Mat) float64 {
	// 两图必须同尺寸，尺寸不一致直接判 0
	if imgSrc.Rows() != imgSearch.Rows() || imgSrc.Cols() != imgSearch.Cols() {
		return 0
	}

	srcClamped := clampPixelRange(imgSrc)
	searchClamped := clampPixelRange(imgSearch)
	defer srcClamped.Close()
	defer searchClamped.Close()

	srcChannels := gocv.Split(srcClamped)
	searchChannels := gocv.Split(searchClamped)
	defer func() {
		for _, ch := range srcChannels {
			ch.Close()
		}
		for _, ch := range searchChannels {
			ch.Close()
		}
	}()

	minConfidence := 1.0
	for i := 0; i < len(srcChannels) && i < len(searchChannels); i++ {
		confidence := channelConfidence(srcChannels[i], searchChannels[i])
		if confidence < minConfidence {
			minConfidence = confidence
		}
	}

	return minConfidence
}

// clampPixelRange 将像素值钳制到 [10, 245]
// 压掉纯黑/纯白的极值，避免高光和阴影主导相关度
func clampPixelRange(img gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Threshold(img, &dst, 245, 245, gocv.ThresholdTrunc)
	gocv.Threshold(dst, &dst, 10, 0, gocv.ThresholdToZero)
	return dst
}

// channelConfidence 单通道归一化相关系数
func channelConfidence(src, search gocv.Mat) float64 {
	result := gocv.NewMat()
	defer result.Close()

	gocv.MatchTemplate(src, search, &result, gocv.TmCcoeffNormed, gocv.NewMat())

	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	return float64(maxVal)
}
