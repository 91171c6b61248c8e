package cv

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// CV 包配置
var (
	// DefaultThreshold 默认匹配阈值
	DefaultThreshold = 0.8
	// DefaultOverlap 默认重叠率阈值，超过该比例的重复匹配会被去重
	DefaultOverlap = 0.5
	// CurrentPath 当前工作路径
	CurrentPath = ""
)

// Template 模板匹配类
type Template struct {
	// Filename 模板文件路径
	Filename string
	// Threshold 匹配阈值
	Threshold float64
	// Overlap 重叠率阈值（多结果去重）
	Overlap float64
	// RGB 是否进行 RGB 三通道置信度校验
	RGB bool
	// ScaleX 匹配前模板的横向缩放因子
	ScaleX float64
	// ScaleY 匹配前模板的纵向缩放因子
	ScaleY float64

	// 缓存的模板图像
	cachedMat *gocv.Mat
}

// TemplateOption 模板选项
type TemplateOption func(*Template)

// NewTemplate 创建新的 Template
func NewTemplate(filename string, opts ...TemplateOption) *Template {
	t := &Template{
		Filename:  filename,
		Threshold: DefaultThreshold,
		Overlap:   DefaultOverlap,
		ScaleX:    1.0,
		ScaleY:    1.0,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithTemplateThreshold 设置阈值
func WithTemplateThreshold(threshold float64) TemplateOption {
	return func(t *Template) {
		t.Threshold = threshold
	}
}

// WithTemplateOverlap 设置去重用的重叠率阈值
func WithTemplateOverlap(overlap float64) TemplateOption {
	return func(t *Template) {
		t.Overlap = overlap
	}
}

// WithTemplateRGB 设置是否进行 RGB 三通道校验
func WithTemplateRGB(rgb bool) TemplateOption {
	return func(t *Template) {
		t.RGB = rgb
	}
}

// WithTemplateScale 设置匹配前模板的缩放因子
func WithTemplateScale(sx, sy float64) TemplateOption {
	return func(t *Template) {
		t.ScaleX = sx
		t.ScaleY = sy
	}
}

// MatchIn 在屏幕图像中匹配模板
func (t *Template) MatchIn(screen gocv.Mat) (*Point, error) {
	result, err := t.cvMatch(screen)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	pos := result.Result
	return &pos, nil
}

// MatchResultIn 在屏幕图像中匹配模板，返回完整匹配结果
func (t *Template) MatchResultIn(screen gocv.Mat) (*MatchResult, error) {
	return t.cvMatch(screen)
}

// MatchAllIn 在屏幕图像中查找所有匹配
func (t *Template) MatchAllIn(screen gocv.Mat) ([]*MatchResult, error) {
	image, err := t.readImage()
	if err != nil {
		return nil, err
	}
	defer image.Close()

	scaled := ScaleMat(image, t.ScaleX, t.ScaleY)
	defer scaled.Close()

	m := NewTemplateMatching(scaled, screen, t.Threshold, t.Overlap, t.RGB)
	return m.FindAllResults()
}

// cvMatch 执行 CV 匹配
func (t *Template) cvMatch(screen gocv.Mat) (*MatchResult, error) {
	image, err := t.readImage()
	if err != nil {
		return nil, err
	}
	defer image.Close()

	scaled := ScaleMat(image, t.ScaleX, t.ScaleY)
	defer scaled.Close()

	m := NewTemplateMatching(scaled, screen, t.Threshold, t.Overlap, t.RGB)
	return m.FindBestResult()
}

// readImage 读取模板图像
func (t *Template) readImage() (gocv.Mat, error) {
	filename := t.Filename

	if t.cachedMat != nil && !t.cachedMat.Empty() {
		return t.cachedMat.Clone(), nil
	}

	// 如果是 base64 data URL，解码后读取，不处理路径
	if strings.HasPrefix(filename, "data:image/") {
		mat, err := decodeDataURL(filename)
		if err != nil {
			return mat, err
		}
		cached := mat.Clone()
		if t.cachedMat != nil {
			t.cachedMat.Close()
		}
		t.cachedMat = &cached
		return mat, nil
	}

	// 处理相对路径
	if CurrentPath != "" && !filepath.IsAbs(filename) {
		filename = filepath.Join(CurrentPath, filename)
	}

	mat, err := ReadImage(filename)
	if err != nil {
		return mat, err
	}
	cached := mat.Clone()
	if t.cachedMat != nil {
		t.cachedMat.Close()
	}
	t.cachedMat = &cached
	return mat, nil
}

// decodeDataURL 解码 base64 data URL 为图像矩阵
func decodeDataURL(url string) (gocv.Mat, error) {
	idx := strings.Index(url, ",")
	if idx < 0 {
		return gocv.NewMat(), fmt.Errorf("data URL 缺少数据段: %.32s", url)
	}

	raw, err := base64.StdEncoding.DecodeString(url[idx+1:])
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("data URL base64 解码失败: %w", err)
	}

	mat, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return mat, fmt.Errorf("data URL 图像解码失败: %w", err)
	}
	if mat.Empty() {
		return mat, fmt.Errorf("data URL 图像解码为空")
	}
	return mat, nil
}

// Close 释放资源
func (t *Template) Close() {
	if t.cachedMat != nil {
		t.cachedMat.Close()
		t.cachedMat = nil
	}
}

// String 返回字符串表示
func (t *Template) String() string {
	return fmt.Sprintf("Template(%s)", t.Filename)
}

// FindLocation 便捷函数：在源图像中查找模板位置
func FindLocation(screen, template interface{}, opts ...TemplateOption) (*Point, error) {
	// 加载源图像
	screenMat, err := LoadImageInput(screen)
	if err != nil {
		return nil, fmt.Errorf("加载源图像失败: %w", err)
	}
	defer screenMat.Close()

	// 处理模板
	tmpl, err := coerceTemplate(template, opts...)
	if err != nil {
		return nil, err
	}

	return tmpl.MatchIn(screenMat)
}

// FindAllLocations 便捷函数：在源图像中查找所有模板位置
func FindAllLocations(screen, template interface{}, opts ...TemplateOption) ([]*MatchResult, error) {
	// 加载源图像
	screenMat, err := LoadImageInput(screen)
	if err != nil {
		return nil, fmt.Errorf("加载源图像失败: %w", err)
	}
	defer screenMat.Close()

	// 处理模板
	tmpl, err := coerceTemplate(template, opts...)
	if err != nil {
		return nil, err
	}

	return tmpl.MatchAllIn(screenMat)
}

// coerceTemplate 将模板输入转换为 *Template
func coerceTemplate(template interface{}, opts ...TemplateOption) (*Template, error) {
	switch v := template.(type) {
	case string:
		return NewTemplate(v, opts...), nil
	case *Template:
		return v, nil
	default:
		return nil, fmt.Errorf("不支持的模板类型: %T", template)
	}
}
