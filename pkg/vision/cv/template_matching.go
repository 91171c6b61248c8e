package cv

import (
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

const (
	// MaxResultCount 最大匹配结果数量
	MaxResultCount = 10
)

// TemplateMatching 模板匹配器
type TemplateMatching struct {
	imSearch  gocv.Mat
	imSource  gocv.Mat
	threshold float64
	overlap   float64
	rgb       bool

	// MaxResults 多结果查找时的数量上限，默认 MaxResultCount
	MaxResults int
}

// NewTemplateMatching 创建模板匹配器
// threshold 为匹配置信度下限，overlap 为去重用的重叠率上限
func NewTemplateMatching(search, source gocv.Mat, threshold, overlap float64, rgb bool) *TemplateMatching {
	if overlap <= 0 || overlap > 1 {
		overlap = DefaultOverlap
	}
	return &TemplateMatching{
		imSearch:   search,
		imSource:   source,
		threshold:  threshold,
		overlap:    overlap,
		rgb:        rgb,
		MaxResults: MaxResultCount,
	}
}

// FindBestResult 查找最佳匹配结果
func (t *TemplateMatching) FindBestResult() (*MatchResult, error) {
	startTime := time.Now()

	// 检查图像尺寸
	if err := checkSourceLargerThanSearch(t.imSource, t.imSearch); err != nil {
		return nil, err
	}

	// 计算模板匹配结果矩阵
	result := t.getTemplateResultMatrix()
	defer result.Close()

	// 获取最佳匹配位置
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	h, w := t.imSearch.Rows(), t.imSearch.Cols()

	// 计算置信度
	confidence := t.getConfidence(maxLoc, maxVal, w, h)

	// 计算匹配区域
	middlePoint, rectangle := t.getTargetRectangle(maxLoc, w, h)

	elapsed := float64(time.Since(startTime).Milliseconds())

	matchResult := &MatchResult{
		Result:     middlePoint,
		Rectangle:  rectangle,
		Confidence: confidence,
		Time:       elapsed,
	}

	if confidence >= t.threshold {
		return matchResult, nil
	}
	return nil, nil
}

// FindAllResults 查找所有匹配结果
// 按置信度从高到低迭代提取，重叠率超过 overlap 的候选会被去重
func (t *TemplateMatching) FindAllResults() ([]*MatchResult, error) {
	startTime := time.Now()

	// 检查图像尺寸
	if err := checkSourceLargerThanSearch(t.imSource, t.imSearch); err != nil {
		return nil, err
	}

	// 计算模板匹配结果矩阵
	result := t.getTemplateResultMatrix()
	defer result.Close()

	h, w := t.imSearch.Rows(), t.imSearch.Cols()
	maxResults := t.MaxResults
	if maxResults <= 0 {
		maxResults = MaxResultCount
	}

	var results []*MatchResult
	for len(results) < maxResults {
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

		confidence := t.getConfidence(maxLoc, maxVal, w, h)
		if confidence < t.threshold {
			break
		}

		middlePoint, rectangle := t.getTargetRectangle(maxLoc, w, h)

		// 与已接受结果重叠过多的候选丢弃，但仍屏蔽其区域继续搜索
		if !t.overlapsAccepted(results, rectangle) {
			elapsed := float64(time.Since(startTime).Milliseconds())
			results = append(results, &MatchResult{
				Result:     middlePoint,
				Rectangle:  rectangle,
				Confidence: confidence,
				Time:       elapsed,
			})
		}

		// 屏蔽已匹配区域，至少覆盖 1x1
		// 1 像素宽/高的模板 w/2 或 h/2 为 0，空矩形不会改写结果矩阵，
		// 下一轮会取到同一个峰值导致循环无法退出
		gocv.Rectangle(&result,
			image.Rect(maxLoc.X-w/2, maxLoc.Y-h/2, maxLoc.X+max(1, w/2), maxLoc.Y+max(1, h/2)),
			color.RGBA{0, 0, 0, 255}, -1)
	}

	return results, nil
}

// overlapsAccepted 检查候选区域与已接受结果的重叠率是否超限
func (t *TemplateMatching) overlapsAccepted(accepted []*MatchResult, candidate Rectangle) bool {
	for _, r := range accepted {
		if overlapRatio(r.Rectangle, candidate) > t.overlap {
			return true
		}
	}
	return false
}

// overlapRatio 计算两个矩形的重叠率（交集面积 / 较小矩形面积）
func overlapRatio(a, b Rectangle) float64 {
	ix := min(a.BottomRight.X, b.BottomRight.X) - max(a.TopLeft.X, b.TopLeft.X)
	iy := min(a.BottomRight.Y, b.BottomRight.Y) - max(a.TopLeft.Y, b.TopLeft.Y)
	if ix <= 0 || iy <= 0 {
		return 0
	}

	areaA := a.Width() * a.Height()
	areaB := b.Width() * b.Height()
	smaller := min(areaA, areaB)
	if smaller <= 0 {
		return 0
	}

	return float64(ix*iy) / float64(smaller)
}

// getTemplateResultMatrix 计算模板匹配结果矩阵
func (t *TemplateMatching) getTemplateResultMatrix() gocv.Mat {
	// 转换为灰度图
	srcGray := ToGray(t.imSource)
	searchGray := ToGray(t.imSearch)
	defer srcGray.Close()
	defer searchGray.Close()

	result := gocv.NewMat()
	gocv.MatchTemplate(srcGray, searchGray, &result, gocv.TmCcoeffNormed, gocv.NewMat())

	return result
}

// getConfidence 计算置信度
func (t *TemplateMatching) getConfidence(maxLoc image.Point, maxVal float32, w, h int) float64 {
	if t.rgb {
		// RGB 三通道校验
		imgCrop := t.imSource.Region(image.Rect(maxLoc.X, maxLoc.Y, maxLoc.X+w, maxLoc.Y+h))
		defer imgCrop.Close()
		return CalRGBConfidence(imgCrop, t.imSearch)
	}
	return float64(maxVal)
}

// getTargetRectangle 计算目标区域
func (t *TemplateMatching) getTargetRectangle(leftTopPos image.Point, w, h int) (Point, Rectangle) {
	xMin, yMin := leftTopPos.X, leftTopPos.Y

	// 中心位置
	xMiddle := xMin + w/2
	yMiddle := yMin + h/2

	middlePoint := Point{X: xMiddle, Y: yMiddle}

	// 四个角点: 左上 -> 左下 -> 右下 -> 右上
	rectangle := NewRectangle(xMin, yMin, w, h)

	return middlePoint, rectangle
}

// checkSourceLargerThanSearch 检查源图像是否大于搜索图像
func checkSourceLargerThanSearch(source, search gocv.Mat) error {
	if source.Rows() < search.Rows() || source.Cols() < search.Cols() {
		return &ImageSizeError{
			SourceSize: [2]int{source.Cols(), source.Rows()},
			SearchSize: [2]int{search.Cols(), search.Rows()},
		}
	}
	return nil
}

// ImageSizeError 图像尺寸错误
type ImageSizeError struct {
	SourceSize [2]int
	SearchSize [2]int
}

func (e *ImageSizeError) Error() string {
	return "搜索图像尺寸大于源图像"
}
