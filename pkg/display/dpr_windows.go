//go:build windows

package display

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/sightai/sightworker/pkg/geometry"
)

// =====================================================================
// Windows 每显示器 DPR 探测
// =====================================================================
//
// robotgo 返回的显示器边界在 Per-Monitor DPI 感知进程中为逻辑坐标。
// 各显示器可配置不同缩放比 (100%/125%/150%/...)，必须逐个查询：
//   1. 进程初始化时声明 PER_MONITOR_AWARE_V2，避免系统坐标虚拟化
//   2. EnumDisplayMonitors 枚举 HMONITOR
//   3. GetDpiForMonitor(MDT_EFFECTIVE_DPI) 查询有效 DPI，DPR = DPI / 96
//   4. 以显示器原点与 robotgo 边界匹配
// =====================================================================

var (
	user32DPR = syscall.NewLazyDLL("user32.dll")
	shcoreDPR = syscall.NewLazyDLL("shcore.dll")

	procEnumDisplayMonitors = user32DPR.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32DPR.NewProc("GetMonitorInfoW")
	procSetProcessDpiCtx    = user32DPR.NewProc("SetProcessDpiAwarenessContext")
	procGetDpiForMonitor    = shcoreDPR.NewProc("GetDpiForMonitor")
)

// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 = (HANDLE)(-4)
var dpiAwarenessPerMonitorV2 = ^uintptr(3)

func init() {
	if procSetProcessDpiCtx.Find() == nil {
		procSetProcessDpiCtx.Call(dpiAwarenessPerMonitorV2)
	}
}

type rectW32 struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type monitorInfoExW struct {
	Size    uint32
	Monitor rectW32
	Work    rectW32
	Flags   uint32
	Device  [32]uint16
}

type nativeMonitor struct {
	origin geometry.Point
	dpr    float64
}

var (
	nativeMu      sync.Mutex
	nativeCache   []nativeMonitor
	nativeScanned bool
)

// monitorDPR 返回指定显示器的 DPR，按原点匹配原生枚举结果
func monitorDPR(index int, bounds geometry.Rect) float64 {
	for _, m := range nativeMonitors() {
		if m.origin == bounds.Origin() {
			return m.dpr
		}
	}
	return 1.0
}

func nativeMonitors() []nativeMonitor {
	nativeMu.Lock()
	defer nativeMu.Unlock()

	if nativeScanned {
		return nativeCache
	}

	var monitors []nativeMonitor
	cb := syscall.NewCallback(func(hMonitor, hdc, lprcMonitor, dwData uintptr) uintptr {
		var mi monitorInfoExW
		mi.Size = uint32(unsafe.Sizeof(mi))

		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&mi)))
		if ret != 0 {
			monitors = append(monitors, nativeMonitor{
				origin: geometry.Point{X: int(mi.Monitor.Left), Y: int(mi.Monitor.Top)},
				dpr:    monitorDPIScale(hMonitor),
			})
		}
		return 1
	})
	procEnumDisplayMonitors.Call(0, 0, cb, 0)

	nativeCache = monitors
	nativeScanned = true
	return nativeCache
}

// monitorDPIScale 查询单个显示器的有效 DPI 缩放
func monitorDPIScale(hMonitor uintptr) float64 {
	if procGetDpiForMonitor.Find() != nil {
		// Windows 8.1 之前没有 shcore，回退系统级 1.0
		return 1.0
	}

	var dx, dy uint32
	// MDT_EFFECTIVE_DPI = 0
	ret, _, _ := procGetDpiForMonitor.Call(hMonitor, 0,
		uintptr(unsafe.Pointer(&dx)), uintptr(unsafe.Pointer(&dy)))
	if ret != 0 || dx == 0 {
		return 1.0
	}
	return normalizeScale(float64(dx) / 96.0)
}

// ResetDPRCache 重置 DPR 缓存（显示器热插拔后调用）
func ResetDPRCache() {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	nativeCache = nil
	nativeScanned = false
}
