package vision

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// 标注颜色预设
var (
	// ColorMatch 匹配结果 (绿色)
	ColorMatch = color.RGBA{0, 200, 0, 255}
	// ColorAnchor 锚点 (蓝色)
	ColorAnchor = color.RGBA{0, 120, 255, 255}
	// ColorScanned 扫描区域 (橙色)
	ColorScanned = color.RGBA{255, 165, 0, 255}
)

// Annotation 单个标注: 矩形框加可选文字标签
type Annotation struct {
	Rect  image.Rectangle
	Label string
	Color color.RGBA
}

// Annotate 在图像副本上绘制标注框与标签，返回标注后的图像
// 原图不会被修改。字体加载失败时仅绘制边框，标签被跳过
func Annotate(src image.Image, annotations []Annotation) *image.RGBA {
	bounds := src.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, src, bounds.Min, draw.Src)

	for _, a := range annotations {
		col := a.Color
		if col.A == 0 {
			col = ColorMatch
		}
		drawRect(rgba, a.Rect.Min.X, a.Rect.Min.Y, a.Rect.Max.X-1, a.Rect.Max.Y-1, col, 2)

		if a.Label == "" {
			continue
		}
		labelY := a.Rect.Min.Y - 22
		if labelY < bounds.Min.Y {
			labelY = a.Rect.Max.Y + 2
		}
		// 标签底色，避免文字淹没在截图内容里
		labelW := 9 * len([]rune(a.Label))
		drawFilledRect(rgba, a.Rect.Min.X, labelY, a.Rect.Min.X+labelW, labelY+20, color.RGBA{255, 255, 255, 255})
		drawLabel(rgba, a.Rect.Min.X+2, labelY+2, a.Label, 14, col)
	}
	return rgba
}

var (
	labelFont     *truetype.Font
	labelFontOnce sync.Once
)

// loadLabelFont 加载标签字体，优先使用系统中文字体
func loadLabelFont() *truetype.Font {
	labelFontOnce.Do(func() {
		fontPaths := []string{
			// macOS
			"/System/Library/Fonts/STHeiti Medium.ttc",
			"/System/Library/Fonts/STHeiti Light.ttc",
			"/System/Library/Fonts/PingFang.ttc",
			"/Library/Fonts/Arial Unicode.ttf",
			// Windows
			"C:\\Windows\\Fonts\\msyh.ttc",
			"C:\\Windows\\Fonts\\simhei.ttf",
			// Linux
			"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
			"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		}

		for _, path := range fontPaths {
			fontBytes, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			f, err := truetype.Parse(fontBytes)
			if err != nil {
				continue
			}
			labelFont = f
			return
		}
	})
	return labelFont
}

// drawLabel 在图像上绘制文字标签
func drawLabel(img *image.RGBA, x, y int, text string, fontSize float64, col color.Color) {
	f := loadLabelFont()
	if f == nil {
		// 字体加载失败，回退到不绘制
		return
	}

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(fontSize)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(col))
	c.SetHinting(font.HintingFull)

	pt := freetype.Pt(x, y+int(c.PointToFixed(fontSize)>>6))
	c.DrawString(text, pt)
}

// drawRect 在 RGBA 图像上绘制矩形边框
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, col color.Color, thickness int) {
	for t := 0; t < thickness; t++ {
		// 上边
		for x := x1; x <= x2; x++ {
			img.Set(x, y1+t, col)
		}
		// 下边
		for x := x1; x <= x2; x++ {
			img.Set(x, y2-t, col)
		}
		// 左边
		for y := y1; y <= y2; y++ {
			img.Set(x1+t, y, col)
		}
		// 右边
		for y := y1; y <= y2; y++ {
			img.Set(x2-t, y, col)
		}
	}
}

// drawFilledRect 在 RGBA 图像上绘制填充矩形
func drawFilledRect(img *image.RGBA, x1, y1, x2, y2 int, col color.Color) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			img.Set(x, y, col)
		}
	}
}
