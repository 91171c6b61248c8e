package detect

import (
	"strings"

	"github.com/sightai/sightworker/internal/logger"
	"github.com/sightai/sightworker/pkg/display"
	"github.com/sightai/sightworker/pkg/geometry"
)

// RegionCapture 区域截取管线
// 解析单个目标区域（可选锚点相对定位），截图并做文字识别
type RegionCapture struct {
	req  RegionCaptureRequest
	deps Collaborators
}

// NewRegionCapture 创建区域截取管线
func NewRegionCapture(req RegionCaptureRequest, deps Collaborators) *RegionCapture {
	return &RegionCapture{req: req, deps: deps}
}

// Run 执行截取，失败以 Failure 标记返回，从不抛出
func (c *RegionCapture) Run() (result RegionCaptureResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("区域截取管线异常: %v", r)
			result = RegionCaptureResult{Failure: FailureCaptureError}
		}
	}()

	monitors, err := display.Snapshot(c.deps.Provider)
	if err != nil {
		logger.Error("获取显示器快照失败: %v", err)
		return RegionCaptureResult{Failure: FailureCaptureError}
	}
	if c.req.Monitor < 0 || c.req.Monitor >= len(monitors) {
		logger.Error("显示器下标越界: %d (共 %d 个)", c.req.Monitor, len(monitors))
		return RegionCaptureResult{Failure: FailureCaptureError}
	}
	monitor := monitors[c.req.Monitor]

	locator, capturer := c.deps.Bind(monitor)

	region, failure := c.resolveRegion(locator)
	if failure != FailureNone {
		return RegionCaptureResult{Failure: failure}
	}

	// 四边微调: 左/上前移原点，四边共同扩大范围
	adjusted := c.req.Offsets.Apply(region)

	img, err := capturer.CaptureRegion(adjusted)
	if err != nil || img == nil {
		logger.Error("区域截取失败: %v", err)
		return RegionCaptureResult{Region: adjusted, Failure: FailureCaptureError}
	}

	result = RegionCaptureResult{Region: adjusted, Image: img}
	if c.deps.Reader != nil {
		lines, err := c.deps.Reader.ReadLines(img, c.req.Lang)
		if err != nil {
			// 识别错误不导致失败，以文字载荷形式交付
			result.Text = "OCR Error: " + err.Error()
		} else {
			result.Text = strings.Join(lines, "\n")
		}
	}
	return result
}

// resolveRegion 解析目标区域
// 锚点模板、锚点配置、基准矩形三者齐备时走锚点相对定位，
// 否则直接使用基准矩形；两者皆缺为 FailureNoRegionDefined
func (c *RegionCapture) resolveRegion(locator Locator) (geometry.Rect, FailureReason) {
	if c.req.Anchor != nil && c.req.AnchorConfig.Usable() && c.req.Base != nil {
		anchors, err := locator.LocateAll(c.req.Anchor, c.anchorQuery())
		if err != nil {
			logger.Error("锚点定位失败: %v", err)
			return geometry.Rect{}, FailureAnchorNotFound
		}
		if len(anchors) == 0 {
			return geometry.Rect{}, FailureAnchorNotFound
		}

		// 取首个锚点，基准矩形作为相对其原点的平移（自带宽高）
		first := anchors[0]
		base := *c.req.Base
		return geometry.NewRect(first.X+base.X, first.Y+base.Y, base.W, base.H), FailureNone
	}

	if c.req.Base != nil {
		return *c.req.Base, FailureNone
	}
	return geometry.Rect{}, FailureNoRegionDefined
}

// anchorQuery 以请求参数构造锚点定位查询
func (c *RegionCapture) anchorQuery() LocateQuery {
	return LocateQuery{
		Confidence: c.req.Confidence,
		Overlap:    c.req.Overlap,
		Grayscale:  c.req.Grayscale,
		Region:     c.req.Region,
		Scaling:    c.req.Scaling,
	}
}
