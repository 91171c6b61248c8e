package display

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/sightai/sightworker/pkg/geometry"
)

// SystemProvider 基于 robotgo 的显示器枚举实现
type SystemProvider struct{}

// NewSystemProvider 创建系统显示器枚举服务
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{}
}

// Monitors 枚举所有显示器
// 边界来自 robotgo，DPR 按平台探测（见 dpr_windows.go / dpr_other.go）
func (p *SystemProvider) Monitors() ([]MonitorDescriptor, error) {
	count := robotgo.DisplaysNum()
	if count <= 0 {
		return nil, fmt.Errorf("未检测到显示器")
	}

	monitors := make([]MonitorDescriptor, 0, count)
	for i := 0; i < count; i++ {
		x, y, w, h := robotgo.GetDisplayBounds(i)
		monitors = append(monitors, MonitorDescriptor{
			Index: i,
			X:     x,
			Y:     y,
			W:     w,
			H:     h,
			DPR:   monitorDPR(i, geometry.NewRect(x, y, w, h)),
		})
	}
	return monitors, nil
}
