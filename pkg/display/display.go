// Package display 提供显示器枚举与缩放因子解析
//
// 显示器边界使用全局逻辑坐标（虚拟桌面空间），DPR 为逻辑像素到物理像素
// 的缩放比。快照一旦取得即不可变，检测周期中途的显示器热插拔不做调和。
package display

import (
	"fmt"
	"math"

	"github.com/sightai/sightworker/internal/logger"
	"github.com/sightai/sightworker/pkg/geometry"
)

// MonitorDescriptor 显示器描述符
type MonitorDescriptor struct {
	// Index 枚举顺序下标
	Index int `json:"index"`
	// X, Y 显示器左上角（全局逻辑坐标）
	X int `json:"x"`
	Y int `json:"y"`
	// W, H 显示器逻辑尺寸
	W int `json:"w"`
	H int `json:"h"`
	// DPR 设备像素比 (1.0 = 100%, 2.0 = 200%)
	DPR float64 `json:"dpr"`
}

// Bounds 返回显示器边界矩形（全局逻辑坐标）
func (m MonitorDescriptor) Bounds() geometry.Rect {
	return geometry.Rect{X: m.X, Y: m.Y, W: m.W, H: m.H}
}

// Origin 返回显示器左上角
func (m MonitorDescriptor) Origin() geometry.Point {
	return geometry.Point{X: m.X, Y: m.Y}
}

// Provider 显示器枚举服务
type Provider interface {
	// Monitors 返回有序的显示器描述符列表
	Monitors() ([]MonitorDescriptor, error)
}

// Snapshot 获取一次性的显示器快照
// 每个检测周期取一次，周期内不再刷新
func Snapshot(p Provider) ([]MonitorDescriptor, error) {
	monitors, err := p.Monitors()
	if err != nil {
		return nil, fmt.Errorf("枚举显示器失败: %w", err)
	}

	snapshot := make([]MonitorDescriptor, len(monitors))
	copy(snapshot, monitors)

	logger.Debug("显示器快照: %d 个", len(snapshot))
	return snapshot, nil
}

// VirtualBounds 返回覆盖所有显示器的虚拟桌面包围盒
func VirtualBounds(monitors []MonitorDescriptor) geometry.Rect {
	rects := make([]geometry.Rect, len(monitors))
	for i, m := range monitors {
		rects[i] = m.Bounds()
	}
	return geometry.Union(rects...)
}

// normalizeScale 清洗缩放比：非法值和接近 1.0 的探测噪声归一为 1.0
func normalizeScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 1.0
	}
	if v < 0.5 || v > 4.0 {
		return 1.0
	}
	if math.Abs(v-1.0) < 0.05 {
		return 1.0
	}
	return v
}
