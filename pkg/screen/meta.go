package screen

import (
	"image"
	"math"

	"github.com/sightai/sightworker/pkg/geometry"
)

// CaptureMeta 截图元信息，记录捕获像素与逻辑坐标之间的缩放和偏移
type CaptureMeta struct {
	ScaleX  float64
	ScaleY  float64
	OffsetX int
	OffsetY int
}

// BuildCaptureMeta 由请求的逻辑区域与实际截图尺寸推导元信息
// 截图尺寸与逻辑尺寸不一致（Retina、DPI 缩放）时缩放比大于 1
func BuildCaptureMeta(logical geometry.Rect, img image.Image) CaptureMeta {
	meta := CaptureMeta{
		ScaleX:  1.0,
		ScaleY:  1.0,
		OffsetX: logical.X,
		OffsetY: logical.Y,
	}

	bounds := img.Bounds()
	if logical.W > 0 && bounds.Dx() > 0 {
		meta.ScaleX = float64(bounds.Dx()) / float64(logical.W)
	}
	if logical.H > 0 && bounds.Dy() > 0 {
		meta.ScaleY = float64(bounds.Dy()) / float64(logical.H)
	}
	return meta
}

// AdjustPoint 将捕获像素坐标换算回逻辑坐标（反向缩放 + 偏移）
func AdjustPoint(p geometry.Point, meta CaptureMeta) geometry.Point {
	return geometry.Point{
		X: scaleCoord(p.X, meta.ScaleX) + meta.OffsetX,
		Y: scaleCoord(p.Y, meta.ScaleY) + meta.OffsetY,
	}
}

// AdjustRect 将捕获像素矩形换算回逻辑坐标
func AdjustRect(r geometry.Rect, meta CaptureMeta) geometry.Rect {
	return geometry.Rect{
		X: scaleCoord(r.X, meta.ScaleX) + meta.OffsetX,
		Y: scaleCoord(r.Y, meta.ScaleY) + meta.OffsetY,
		W: scaleCoord(r.W, meta.ScaleX),
		H: scaleCoord(r.H, meta.ScaleY),
	}
}

// ProjectRect 将逻辑矩形换算到捕获像素坐标，AdjustRect 的逆运算
// 标注截图时用于把检测结果画回物理像素帧
func ProjectRect(r geometry.Rect, meta CaptureMeta) geometry.Rect {
	return geometry.Rect{
		X: projectCoord(r.X-meta.OffsetX, meta.ScaleX),
		Y: projectCoord(r.Y-meta.OffsetY, meta.ScaleY),
		W: projectCoord(r.W, meta.ScaleX),
		H: projectCoord(r.H, meta.ScaleY),
	}
}

// scaleCoord 按比例反向缩放坐标值
func scaleCoord(value int, scale float64) int {
	if scale <= 0 {
		return value
	}
	return int(math.Round(float64(value) / scale))
}

// projectCoord 按比例正向缩放坐标值
func projectCoord(value int, scale float64) int {
	if scale <= 0 {
		return value
	}
	return int(math.Round(float64(value) * scale))
}
