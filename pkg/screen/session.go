package screen

import (
	"fmt"

	"image"

	"github.com/sightai/sightworker/internal/logger"
	"github.com/sightai/sightworker/pkg/detect"
	"github.com/sightai/sightworker/pkg/display"
	"github.com/sightai/sightworker/pkg/geometry"
	"github.com/sightai/sightworker/pkg/vision/cv"
)

// Session 绑定到单个显示器的捕获上下文
// 每个请求由调用方新建一个，请求之间不共享状态
type Session struct {
	Monitor display.MonitorDescriptor
}

// NewSession 创建捕获会话
func NewSession(m display.MonitorDescriptor) *Session {
	return &Session{Monitor: m}
}

// LocateAll 在会话显示器上定位模板的全部匹配
// 返回屏幕局部逻辑坐标下的矩形，顺序与匹配器输出一致
func (s *Session) LocateAll(template interface{}, q detect.LocateQuery) ([]geometry.Rect, error) {
	img, local, err := s.captureQueryRegion(q.Region)
	if err != nil {
		return nil, err
	}
	meta := BuildCaptureMeta(local, img)

	srcMat, err := cv.ImageToMat(img)
	if err != nil {
		return nil, fmt.Errorf("转换截图失败: %w", err)
	}
	defer srcMat.Close()

	tplMat, err := cv.LoadImageInput(template)
	if err != nil {
		return nil, fmt.Errorf("加载模板失败: %w", err)
	}
	defer tplMat.Close()

	// 模板按录制环境与当前显示器的比例预缩放
	sx, sy := display.ResolveScale(q.Scaling, s.Monitor)
	scaled := cv.ScaleMat(tplMat, sx, sy)
	defer scaled.Close()

	// 匹配始终在灰度上进行，Grayscale=false 时附加 RGB 置信度校验
	tm := cv.NewTemplateMatching(scaled, srcMat, q.Confidence, q.Overlap, !q.Grayscale)
	matches, err := tm.FindAllResults()
	if err != nil {
		return nil, fmt.Errorf("模板匹配失败: %w", err)
	}

	rects := make([]geometry.Rect, 0, len(matches))
	for _, m := range matches {
		x, y, w, h := m.Rectangle.Bounds()
		rects = append(rects, AdjustRect(geometry.NewRect(x, y, w, h), meta))
	}

	logger.Debug("显示器 %d 定位完成: %d 个匹配 (scale=%.2f,%.2f)",
		s.Monitor.Index, len(rects), sx, sy)
	return rects, nil
}

// CaptureRegion 截取屏幕局部逻辑坐标下的区域
func (s *Session) CaptureRegion(r geometry.Rect) (image.Image, error) {
	global := geometry.LocalToGlobal(r, s.Monitor.Origin())
	return CaptureGlobalRegion(global)
}

// captureQueryRegion 截取查询区域，无区域时截取整个显示器
// 返回截图与实际使用的屏幕局部逻辑区域
func (s *Session) captureQueryRegion(region *geometry.Rect) (image.Image, geometry.Rect, error) {
	local := geometry.NewRect(0, 0, s.Monitor.W, s.Monitor.H)
	if region != nil {
		local = *region
	}
	if local.Empty() {
		return nil, geometry.Rect{}, fmt.Errorf("搜索区域为空: %s", local)
	}

	global := geometry.LocalToGlobal(local, s.Monitor.Origin())
	img, err := CaptureGlobalRegion(global)
	if err != nil {
		return nil, geometry.Rect{}, err
	}
	return img, local, nil
}
