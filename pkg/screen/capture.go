// Package screen 提供屏幕截图、捕获元信息与编码功能
//
// 截图入参使用全局逻辑坐标（与显示器枚举同空间），返回物理像素图像。
// 物理像素与逻辑坐标之间的换算由 CaptureMeta 按每次截图实测，
// 不依赖平台 DPI 查询。
package screen

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"

	"github.com/sightai/sightworker/pkg/geometry"
)

// captureImg 截图入口，测试时可替换
var captureImg = robotgo.CaptureImg

// CaptureScreen 截取主屏全屏
func CaptureScreen() (image.Image, error) {
	img, err := captureImg()
	if err != nil {
		return nil, fmt.Errorf("截屏失败: %w", err)
	}
	return img, nil
}

// CaptureGlobalRegion 截取全局逻辑坐标下的区域
func CaptureGlobalRegion(r geometry.Rect) (image.Image, error) {
	if r.Empty() {
		return nil, fmt.Errorf("截取区域为空: %s", r)
	}

	img, err := captureImg(r.X, r.Y, r.W, r.H)
	if err != nil {
		return nil, fmt.Errorf("截取区域失败: %w", err)
	}
	if img == nil || img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		return nil, fmt.Errorf("截图数据为空")
	}
	return img, nil
}

// GetDisplayCount 获取显示器数量
func GetDisplayCount() int {
	return robotgo.DisplaysNum()
}
