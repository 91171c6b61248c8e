// Package geometry 提供矩形与坐标系运算
//
// 本包涉及三种坐标系:
//
//	全局逻辑坐标 (Global-Logical): 原点在虚拟桌面包围盒左上角，跨所有显示器
//	屏幕本地逻辑坐标 (Screen-Local-Logical): 原点在某个显示器左上角
//	截图像素坐标 (Capture-Pixel): 原点在截图区域左上角，仅用于位图采样
//
// 矩形在概念上始终归属某一坐标系，跨坐标系比较或组合前必须经过
// GlobalToLocal / LocalToGlobal 显式转换。
//
// 基本用法:
//
//	local := geometry.GlobalToLocal(rect, monitorOrigin)
//	back := geometry.LocalToGlobal(local, monitorOrigin)
//	// back == rect 恒成立
package geometry

import (
	"fmt"
	"math"
)

// Frame 坐标系标识
type Frame int

const (
	// FrameGlobal 全局逻辑坐标
	FrameGlobal Frame = iota
	// FrameLocal 屏幕本地逻辑坐标
	FrameLocal
	// FrameCapture 截图像素坐标
	FrameCapture
)

func (f Frame) String() string {
	switch f {
	case FrameGlobal:
		return "global"
	case FrameLocal:
		return "local"
	case FrameCapture:
		return "capture"
	default:
		return "unknown"
	}
}

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewPoint 创建新的 Point
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Rect 表示矩形区域 (左上角坐标 + 宽高)
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// NewRect 创建新的 Rect
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Origin 返回矩形左上角
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center 返回矩形中心点
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Right 返回矩形右边界 (X + W)
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom 返回矩形下边界 (Y + H)
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Empty 判断矩形是否退化（宽或高不为正）
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Offset 返回平移后的矩形
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Contains 判断点是否落在矩形内（含左上边界，不含右下边界）
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Intersects 判断两个矩形是否相交
func (r Rect) Intersects(other Rect) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.X, r.Y, r.W, r.H)
}

// GlobalToLocal 将矩形从全局坐标转换到以 origin 为原点的本地坐标
// 仅平移左上角，宽高不变
func GlobalToLocal(r Rect, origin Point) Rect {
	return Rect{X: r.X - origin.X, Y: r.Y - origin.Y, W: r.W, H: r.H}
}

// LocalToGlobal 将矩形从以 origin 为原点的本地坐标转换回全局坐标
// GlobalToLocal 的逆运算，两者往返无损
func LocalToGlobal(r Rect, origin Point) Rect {
	return Rect{X: r.X + origin.X, Y: r.Y + origin.Y, W: r.W, H: r.H}
}

// Scale 按轴向缩放因子缩放矩形，各分量向下取整
func Scale(r Rect, scaleX, scaleY float64) Rect {
	return Rect{
		X: int(math.Floor(float64(r.X) * scaleX)),
		Y: int(math.Floor(float64(r.Y) * scaleY)),
		W: int(math.Floor(float64(r.W) * scaleX)),
		H: int(math.Floor(float64(r.H) * scaleY)),
	}
}

// Union 返回覆盖所有输入矩形的最小包围盒
// 空输入返回零值矩形
func Union(rects ...Rect) Rect {
	if len(rects) == 0 {
		return Rect{}
	}

	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].Right(), rects[0].Bottom()
	for _, r := range rects[1:] {
		if r.X < minX {
			minX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.Right() > maxX {
			maxX = r.Right()
		}
		if r.Bottom() > maxY {
			maxY = r.Bottom()
		}
	}

	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
