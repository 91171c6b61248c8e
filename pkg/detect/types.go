package detect

import (
	"image"

	"github.com/sightai/sightworker/pkg/display"
	"github.com/sightai/sightworker/pkg/geometry"
)

// AnchorConfig 锚点派生区域配置
// 偏移量以锚点自身左上角为原点，margin 对偏移和尺寸做对称扩张
type AnchorConfig struct {
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`
	W       int `json:"w"`
	H       int `json:"h"`
	MarginX int `json:"margin_x"`
	MarginY int `json:"margin_y"`
}

// Usable 配置是否可用，宽高必须为正
func (c AnchorConfig) Usable() bool {
	return c.W > 0 && c.H > 0
}

// EdgeOffsets 四边微调偏移，既移动原点也扩大范围
type EdgeOffsets struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Apply 将四边偏移应用到矩形
// 左/上偏移前移原点，四边偏移共同扩大宽高
func (o EdgeOffsets) Apply(r geometry.Rect) geometry.Rect {
	return geometry.NewRect(
		r.X-o.Left,
		r.Y-o.Top,
		r.W+o.Left+o.Right,
		r.H+o.Top+o.Bottom,
	)
}

// SearchRequest 一次模板检测请求
type SearchRequest struct {
	// Template 主模板，文件路径或 image.Image
	Template interface{}
	// Monitor 目标显示器下标
	Monitor int
	// Confidence 匹配置信度下限 (0-1)
	Confidence float64
	// Grayscale 仅用灰度匹配，关闭 RGB 置信度校验
	Grayscale bool
	// Overlap 去重重叠率上限 (0-1)
	Overlap float64
	// Region 可选搜索区域（屏幕局部逻辑坐标）
	Region *geometry.Rect
	// Scaling 模板录制环境的缩放配置
	Scaling display.ScalingConfig
	// Anchor 可选锚点模板
	Anchor interface{}
	// AnchorConfig 锚点派生区域配置，与 Anchor 配套使用
	AnchorConfig AnchorConfig
}

// DetectionResult 检测结果，每个请求新建，返回后不再修改
type DetectionResult struct {
	// Matches 匹配矩形（屏幕局部逻辑坐标，首选顺序）
	Matches []geometry.Rect `json:"matches"`
	// Anchors 定位到的全部锚点，含派生区域退化的锚点
	Anchors []geometry.Rect `json:"anchors"`
	// ScannedRegions 实际扫描过的子区域（诊断用）
	ScannedRegions []geometry.Rect `json:"scanned_regions"`
	// Count 匹配数量
	Count int `json:"count"`
}

// emptyDetectionResult 规范空结果
func emptyDetectionResult() DetectionResult {
	return DetectionResult{
		Matches:        []geometry.Rect{},
		Anchors:        []geometry.Rect{},
		ScannedRegions: []geometry.Rect{},
	}
}

// FailureReason 区域截取失败原因，互斥，以值报告而非抛出
type FailureReason string

const (
	// FailureNone 成功
	FailureNone FailureReason = ""
	// FailureAnchorNotFound 配置了锚点但未定位到
	FailureAnchorNotFound FailureReason = "anchor_not_found"
	// FailureNoRegionDefined 请求未给出任何目标区域
	FailureNoRegionDefined FailureReason = "no_region_defined"
	// FailureCaptureError 截图失败或无数据
	FailureCaptureError FailureReason = "capture_error"
)

// RegionCaptureRequest 区域截取与文字识别请求
type RegionCaptureRequest struct {
	// Monitor 目标显示器下标
	Monitor int
	// Anchor 可选锚点模板
	Anchor interface{}
	// AnchorConfig 锚点配置，锚点路径要求可用配置
	AnchorConfig AnchorConfig
	// Base 基准矩形：有锚点时为相对锚点原点的偏移矩形（自带宽高），
	// 无锚点时直接作为目标区域
	Base *geometry.Rect
	// Offsets 四边微调
	Offsets EdgeOffsets
	// Lang 识别语言标签，如 "zh-CN"、"en-US"
	Lang string
	// 锚点搜索参数
	Confidence float64
	Grayscale  bool
	Overlap    float64
	Region     *geometry.Rect
	Scaling    display.ScalingConfig
}

// RegionCaptureResult 区域截取结果
// Failure == FailureNone 表示成功；OCR 引擎错误不导致失败，
// 错误信息以 "OCR Error: ..." 形式写入 Text
type RegionCaptureResult struct {
	// Region 实际截取的区域（已应用四边微调）
	Region geometry.Rect `json:"region"`
	// Image 截取的原始图像，预览用
	Image image.Image `json:"-"`
	// Text 识别出的文字，多行以换行符连接
	Text string `json:"text"`
	// Failure 失败原因标记
	Failure FailureReason `json:"failure,omitempty"`
}

// LocateQuery 定位调用参数
type LocateQuery struct {
	// Confidence 置信度下限
	Confidence float64
	// Overlap 去重重叠率上限
	Overlap float64
	// Grayscale 仅灰度匹配
	Grayscale bool
	// Region 搜索区域（屏幕局部逻辑坐标），nil 为整个显示器
	Region *geometry.Rect
	// Scaling 模板预缩放配置
	Scaling display.ScalingConfig
}

// Locator 模板定位服务（外部搜索原语）
type Locator interface {
	// LocateAll 返回屏幕局部逻辑坐标下的去重匹配矩形，按首选顺序排列
	LocateAll(template interface{}, q LocateQuery) ([]geometry.Rect, error)
}

// Capturer 区域截图服务
type Capturer interface {
	// CaptureRegion 截取屏幕局部逻辑坐标下的区域，无数据时返回错误
	CaptureRegion(r geometry.Rect) (image.Image, error)
}

// TextReader 文字识别服务
type TextReader interface {
	// ReadLines 识别图像中的文字，按行返回
	ReadLines(img image.Image, lang string) ([]string, error)
}

// BindFunc 为选定显示器构造定位与截图上下文
// 每个请求调用一次，避免跨请求共享会话状态
type BindFunc func(m display.MonitorDescriptor) (Locator, Capturer)

// Collaborators 管线依赖的外部协作者
type Collaborators struct {
	// Provider 显示器枚举服务
	Provider display.Provider
	// Bind 按请求构造定位/截图上下文
	Bind BindFunc
	// Reader 文字识别服务，可为 nil（跳过识别）
	Reader TextReader
}
