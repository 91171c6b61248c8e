// Package detect 实现模板检测与区域截取两条管线
//
// 管线编排锚点定位、派生区域解析和嵌套扫描，坐标换算在三个坐标系
// 之间显式进行（全局逻辑、屏幕局部逻辑、捕获像素）。软失败（锚点
// 未找到、派生区域退化）产生空结果或标记结果；硬失败（显示器越界、
// 截图无数据、底层原语出错）返回规范空结果，错误细节只进日志。
// 任何失败都不会以 error 或 panic 越过管线边界。
package detect

import (
	"github.com/sightai/sightworker/internal/logger"
	"github.com/sightai/sightworker/pkg/display"
	"github.com/sightai/sightworker/pkg/geometry"
)

// Detection 单次检测请求的管线
// 每个请求独立实例，请求之间不共享任何可变状态
type Detection struct {
	req  SearchRequest
	deps Collaborators
}

// NewDetection 创建检测管线
func NewDetection(req SearchRequest, deps Collaborators) *Detection {
	return &Detection{req: req, deps: deps}
}

// Run 执行检测，总是返回结果，不向调用方抛出任何错误
func (d *Detection) Run() (result DetectionResult) {
	result = emptyDetectionResult()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("检测管线异常: %v", r)
			result = emptyDetectionResult()
		}
	}()

	monitors, err := display.Snapshot(d.deps.Provider)
	if err != nil {
		logger.Error("获取显示器快照失败: %v", err)
		return emptyDetectionResult()
	}
	if d.req.Monitor < 0 || d.req.Monitor >= len(monitors) {
		logger.Error("显示器下标越界: %d (共 %d 个)", d.req.Monitor, len(monitors))
		return emptyDetectionResult()
	}
	monitor := monitors[d.req.Monitor]

	locator, _ := d.deps.Bind(monitor)

	// 锚点存在即走两段式扫描，配置不可用时派生区域会全部退化
	if d.req.Anchor != nil {
		if !d.req.AnchorConfig.Usable() {
			logger.Warn("锚点配置不可用 (w=%d, h=%d)，派生区域将全部退化",
				d.req.AnchorConfig.W, d.req.AnchorConfig.H)
		}
		return d.anchoredScan(locator)
	}
	return d.directScan(locator, monitor)
}

// anchoredScan 两段式扫描: 先定位锚点，再在每个派生区域内扫描主模板
func (d *Detection) anchoredScan(locator Locator) DetectionResult {
	result := emptyDetectionResult()

	anchors, err := locator.LocateAll(d.req.Anchor, d.baseQuery())
	if err != nil {
		logger.Error("锚点定位失败: %v", err)
		return emptyDetectionResult()
	}
	if len(anchors) == 0 {
		logger.Info("未找到锚点，返回空结果")
		return result
	}

	// 全部锚点先记录，含后续派生区域退化的锚点
	result.Anchors = append(result.Anchors, anchors...)

	for _, anchor := range anchors {
		derived, ok := ResolveAnchorRegion(anchor, d.req.AnchorConfig)
		if !ok {
			logger.Debug("锚点 %s 派生区域退化，跳过", anchor)
			continue
		}

		// 锚点已是屏幕局部逻辑坐标，派生区域无需再换算坐标系
		matches, err := locator.LocateAll(d.req.Template, d.regionQuery(derived))
		if err != nil {
			logger.Error("嵌套扫描失败: %v", err)
			return emptyDetectionResult()
		}

		// 每个派生区域的匹配只追加一次
		result.Matches = append(result.Matches, matches...)
		result.ScannedRegions = append(result.ScannedRegions, derived)
	}

	result.Count = len(result.Matches)
	return result
}

// directScan 无锚点时对请求区域做单次扫描
func (d *Detection) directScan(locator Locator, monitor display.MonitorDescriptor) DetectionResult {
	result := emptyDetectionResult()

	// 诊断区域记录缩放后的副本，扫描本身使用未缩放区域
	if d.req.Region != nil {
		sx, sy := display.ResolveScale(d.req.Scaling, monitor)
		result.ScannedRegions = append(result.ScannedRegions, geometry.Scale(*d.req.Region, sx, sy))
	}

	matches, err := locator.LocateAll(d.req.Template, d.baseQuery())
	if err != nil {
		logger.Error("模板扫描失败: %v", err)
		return emptyDetectionResult()
	}

	result.Matches = append(result.Matches, matches...)
	result.Count = len(result.Matches)
	return result
}

// baseQuery 以请求参数构造定位查询，区域为请求原始区域
func (d *Detection) baseQuery() LocateQuery {
	return LocateQuery{
		Confidence: d.req.Confidence,
		Overlap:    d.req.Overlap,
		Grayscale:  d.req.Grayscale,
		Region:     d.req.Region,
		Scaling:    d.req.Scaling,
	}
}

// regionQuery 以指定区域构造定位查询
func (d *Detection) regionQuery(region geometry.Rect) LocateQuery {
	q := d.baseQuery()
	q.Region = &region
	return q
}
