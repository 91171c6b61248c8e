// Package diag 收集运行环境诊断信息
//
// 诊断报告覆盖主机、CPU、内存、显示器拓扑、OCR 模型与截屏权限，
// 供 doctor 模式排查检测环境问题。各段独立采集，单段失败不影响
// 其余内容，失败原因记入 Warnings。
package diag

import (
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/sightai/sightworker/pkg/display"
	"github.com/sightai/sightworker/pkg/geometry"
	"github.com/sightai/sightworker/pkg/permissions"
	"github.com/sightai/sightworker/pkg/plugin"
)

// HostInfo 主机信息
type HostInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernel_version"`
	UptimeSec     uint64 `json:"uptime_sec"`
}

// CPUInfo 处理器信息
type CPUInfo struct {
	Model        string `json:"model"`
	LogicalCores int    `json:"logical_cores"`
}

// MemoryInfo 内存信息
type MemoryInfo struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// OCRInfo OCR 引擎状态
type OCRInfo struct {
	PaddleInstalled bool   `json:"paddle_installed"`
	DetModelPath    string `json:"det_model_path"`
}

// Report 诊断报告
type Report struct {
	Host            HostInfo                    `json:"host"`
	CPU             CPUInfo                     `json:"cpu"`
	Memory          MemoryInfo                  `json:"memory"`
	Monitors        []display.MonitorDescriptor `json:"monitors"`
	VirtualBounds   geometry.Rect               `json:"virtual_bounds"`
	OCR             OCRInfo                     `json:"ocr"`
	ScreenRecording bool                        `json:"screen_recording"`
	Warnings        []string                    `json:"warnings,omitempty"`
}

// Collect 采集诊断报告，永不失败
func Collect(provider display.Provider) *Report {
	report := &Report{}

	if info, err := host.Info(); err != nil {
		report.warn("获取主机信息失败: %v", err)
	} else {
		report.Host = HostInfo{
			Hostname:      info.Hostname,
			OS:            info.OS,
			Platform:      fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion),
			KernelVersion: info.KernelVersion,
			UptimeSec:     info.Uptime,
		}
	}

	if infos, err := cpu.Info(); err != nil || len(infos) == 0 {
		report.warn("获取 CPU 信息失败: %v", err)
	} else {
		report.CPU.Model = infos[0].ModelName
	}
	if cores, err := cpu.Counts(true); err == nil {
		report.CPU.LogicalCores = cores
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		report.warn("获取内存信息失败: %v", err)
	} else {
		report.Memory = MemoryInfo{
			Total:       vm.Total,
			Used:        vm.Used,
			UsedPercent: vm.UsedPercent,
		}
	}

	if provider != nil {
		if monitors, err := display.Snapshot(provider); err != nil {
			report.warn("枚举显示器失败: %v", err)
		} else {
			report.Monitors = monitors
			report.VirtualBounds = display.VirtualBounds(monitors)
		}
	}

	status := plugin.GetOCRPlugin().GetStatus()
	report.OCR = OCRInfo{
		PaddleInstalled: status.Installed,
		DetModelPath:    status.DetModelPath,
	}

	report.ScreenRecording = permissions.CheckPermissions().ScreenRecording

	return report
}

// warn 记录一条采集警告
func (r *Report) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Render 渲染为可读文本
func (r *Report) Render() string {
	var b strings.Builder

	b.WriteString("主机:\n")
	fmt.Fprintf(&b, "  主机名:   %s\n", r.Host.Hostname)
	fmt.Fprintf(&b, "  系统:     %s (%s)\n", r.Host.Platform, r.Host.OS)
	fmt.Fprintf(&b, "  内核:     %s\n", r.Host.KernelVersion)
	fmt.Fprintf(&b, "  运行时长: %s\n", formatUptime(r.Host.UptimeSec))

	b.WriteString("硬件:\n")
	fmt.Fprintf(&b, "  CPU:      %s (%d 逻辑核)\n", r.CPU.Model, r.CPU.LogicalCores)
	fmt.Fprintf(&b, "  内存:     %s / %s (%.1f%%)\n",
		formatBytes(r.Memory.Used), formatBytes(r.Memory.Total), r.Memory.UsedPercent)

	fmt.Fprintf(&b, "显示器 (%d 个):\n", len(r.Monitors))
	for _, m := range r.Monitors {
		fmt.Fprintf(&b, "  [%d] 原点 (%d, %d), 尺寸 %dx%d, DPR %.2f\n",
			m.Index, m.X, m.Y, m.W, m.H, m.DPR)
	}
	if len(r.Monitors) > 0 {
		fmt.Fprintf(&b, "  虚拟桌面: %s\n", r.VirtualBounds)
	}

	b.WriteString("OCR:\n")
	fmt.Fprintf(&b, "  PaddleOCR 模型: %s\n", installState(r.OCR.PaddleInstalled))
	if !r.OCR.PaddleInstalled {
		fmt.Fprintf(&b, "  模型路径: %s\n", r.OCR.DetModelPath)
	}

	b.WriteString("权限:\n")
	fmt.Fprintf(&b, "  屏幕录制: %v\n", r.ScreenRecording)

	if len(r.Warnings) > 0 {
		b.WriteString("警告:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	return b.String()
}

// installState 安装状态的显示文本
func installState(installed bool) string {
	if installed {
		return "已安装"
	}
	return "未安装"
}

// formatUptime 秒数转可读时长
func formatUptime(sec uint64) string {
	d := time.Duration(sec) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%d 天 %d 小时 %d 分", days, hours, minutes)
	}
	return fmt.Sprintf("%d 小时 %d 分", hours, minutes)
}

// formatBytes 字节数转可读大小
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
