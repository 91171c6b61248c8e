//go:build !windows

package display

import (
	"sync"

	"github.com/go-vgo/robotgo"

	"github.com/sightai/sightworker/pkg/geometry"
)

var (
	dprMu    sync.Mutex
	dprCache = map[int]float64{}
)

// monitorDPR 返回指定显示器的 DPR
//
// 非 Windows 平台没有统一的每显示器 DPI 查询接口，通过对比截图像素
// 尺寸与逻辑边界尺寸探测（macOS Retina 截图为 2 倍像素）。探测结果
// 按显示器下标缓存。
func monitorDPR(index int, bounds geometry.Rect) float64 {
	dprMu.Lock()
	defer dprMu.Unlock()

	if v, ok := dprCache[index]; ok {
		return v
	}

	dpr := detectDPR(bounds)
	dprCache[index] = dpr
	return dpr
}

func detectDPR(bounds geometry.Rect) float64 {
	if bounds.Empty() {
		return 1.0
	}

	img, err := robotgo.CaptureImg(bounds.X, bounds.Y, bounds.W, bounds.H)
	if err != nil || img == nil {
		return 1.0
	}

	captureW := img.Bounds().Dx()
	if captureW <= 0 {
		return 1.0
	}

	return normalizeScale(float64(captureW) / float64(bounds.W))
}

// ResetDPRCache 重置 DPR 缓存（显示器热插拔后调用）
func ResetDPRCache() {
	dprMu.Lock()
	defer dprMu.Unlock()
	dprCache = map[int]float64{}
}
