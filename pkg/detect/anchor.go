package detect

import (
	"github.com/sightai/sightworker/pkg/geometry"
)

// ResolveAnchorRegion 由锚点匹配结果和配置派生子区域
//
// 先以配置的偏移/尺寸构造相对矩形，margin 同时前移原点和扩大尺寸，
// 再平移到锚点原点。返回的矩形与锚点处于同一坐标系。
// 宽或高不为正时 ok=false，调用方应跳过该锚点并继续处理其余锚点
func ResolveAnchorRegion(anchor geometry.Rect, cfg AnchorConfig) (geometry.Rect, bool) {
	relative := geometry.NewRect(
		cfg.OffsetX-cfg.MarginX,
		cfg.OffsetY-cfg.MarginY,
		cfg.W+2*cfg.MarginX,
		cfg.H+2*cfg.MarginY,
	)

	absolute := geometry.LocalToGlobal(relative, anchor.Origin())
	if absolute.W <= 0 || absolute.H <= 0 {
		return geometry.Rect{}, false
	}
	return absolute, true
}
