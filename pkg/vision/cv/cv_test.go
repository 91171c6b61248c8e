package cv

import (
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

// makeScene 生成带棋盘格底纹的测试场景，避免平坦区域干扰归一化匹配
func makeScene(w, h int) gocv.Mat {
	scene := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y += 4 {
		for x := 0; x < w; x += 4 {
			v := uint8(100)
			if (x/4+y/4)%2 == 0 {
				v = 156
			}
			gocv.Rectangle(&scene, image.Rect(x, y, x+4, y+4), color.RGBA{v, v, v, 255}, -1)
		}
	}
	return scene
}

// drawMarker 在 (x, y) 处画一个 24x16 的双色标记
func drawMarker(img *gocv.Mat, x, y int) {
	gocv.Rectangle(img, image.Rect(x, y, x+12, y+16), color.RGBA{255, 255, 255, 255}, -1)
	gocv.Rectangle(img, image.Rect(x+12, y, x+24, y+16), color.RGBA{30, 30, 30, 255}, -1)
}

// makeMarkerTemplate 生成与 drawMarker 相同图案的模板
func makeMarkerTemplate() gocv.Mat {
	tpl := gocv.NewMatWithSize(16, 24, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&tpl, image.Rect(0, 0, 12, 16), color.RGBA{255, 255, 255, 255}, -1)
	gocv.Rectangle(&tpl, image.Rect(12, 0, 24, 16), color.RGBA{30, 30, 30, 255}, -1)
	return tpl
}

// makeStripes 生成竖条纹图像，periods 为周期数，每周期 24 像素（白 12 + 深 12）
func makeStripes(periods, height int) gocv.Mat {
	img := gocv.NewMatWithSize(height, periods*24, gocv.MatTypeCV8UC3)
	for k := 0; k < periods; k++ {
		x := k * 24
		gocv.Rectangle(&img, image.Rect(x, 0, x+12, height), color.RGBA{255, 255, 255, 255}, -1)
		gocv.Rectangle(&img, image.Rect(x+12, 0, x+24, height), color.RGBA{30, 30, 30, 255}, -1)
	}
	return img
}

func TestTemplateMatchingFindBest(t *testing.T) {
	scene := makeScene(240, 180)
	defer scene.Close()
	drawMarker(&scene, 60, 40)

	tpl := makeMarkerTemplate()
	defer tpl.Close()

	matcher := NewTemplateMatching(tpl, scene, 0.9, 0.5, false)

	result, err := matcher.FindBestResult()
	if err != nil {
		t.Fatalf("模板匹配失败: %v", err)
	}
	if result == nil {
		t.Fatal("未找到匹配，期望在 (60, 40) 处命中")
	}

	if result.Rectangle.TopLeft.X != 60 || result.Rectangle.TopLeft.Y != 40 {
		t.Errorf("匹配位置错误: 左上角=(%d, %d)，期望 (60, 40)",
			result.Rectangle.TopLeft.X, result.Rectangle.TopLeft.Y)
	}
	if result.Result.X != 72 || result.Result.Y != 48 {
		t.Errorf("中心点错误: (%d, %d)，期望 (72, 48)", result.Result.X, result.Result.Y)
	}
	if result.Confidence < 0.9 {
		t.Errorf("置信度过低: %.3f", result.Confidence)
	}
}

func TestTemplateMatchingRGBConfidence(t *testing.T) {
	scene := makeScene(240, 180)
	defer scene.Close()
	drawMarker(&scene, 100, 80)

	tpl := makeMarkerTemplate()
	defer tpl.Close()

	matcher := NewTemplateMatching(tpl, scene, 0.9, 0.5, true)

	result, err := matcher.FindBestResult()
	if err != nil {
		t.Fatalf("RGB 校验匹配失败: %v", err)
	}
	if result == nil {
		t.Fatal("RGB 校验模式未找到匹配")
	}
	if result.Rectangle.TopLeft.X != 100 || result.Rectangle.TopLeft.Y != 80 {
		t.Errorf("匹配位置错误: 左上角=(%d, %d)，期望 (100, 80)",
			result.Rectangle.TopLeft.X, result.Rectangle.TopLeft.Y)
	}
}

func TestTemplateMatchingFindAll(t *testing.T) {
	scene := makeScene(240, 180)
	defer scene.Close()

	positions := []Point{{X: 20, Y: 20}, {X: 120, Y: 90}, {X: 180, Y: 140}}
	for _, p := range positions {
		drawMarker(&scene, p.X, p.Y)
	}

	tpl := makeMarkerTemplate()
	defer tpl.Close()

	matcher := NewTemplateMatching(tpl, scene, 0.9, 0.5, false)

	results, err := matcher.FindAllResults()
	if err != nil {
		t.Fatalf("查找所有匹配失败: %v", err)
	}
	if len(results) != len(positions) {
		t.Fatalf("匹配数量错误: %d，期望 %d", len(results), len(positions))
	}

	// 每个标记位置都应被命中一次
	for _, p := range positions {
		found := false
		for _, r := range results {
			if r.Rectangle.TopLeft == p {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("位置 (%d, %d) 未被命中", p.X, p.Y)
		}
	}
}

func TestFindAllResultsOverlapDedup(t *testing.T) {
	// 竖条纹场景下，两周期宽的模板在每个周期偏移处都完美命中，
	// 相邻命中框重叠率恰为 0.5
	scene := makeStripes(6, 40)
	defer scene.Close()

	tpl := makeStripes(2, 40)
	defer tpl.Close()

	// 重叠率 0.5 不超过阈值 0.5，相邻命中全部保留
	loose := NewTemplateMatching(tpl, scene, 0.95, 0.5, false)
	results, err := loose.FindAllResults()
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("阈值 0.5 时匹配数量错误: %d，期望 5", len(results))
	}

	// 阈值收紧到 0.45 后，重叠 0.5 的相邻命中被去重
	strict := NewTemplateMatching(tpl, scene, 0.95, 0.45, false)
	results, err = strict.FindAllResults()
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("阈值 0.45 时匹配数量错误: %d，期望 3", len(results))
	}
	for _, r := range results {
		if r.Rectangle.TopLeft.X%48 != 0 {
			t.Errorf("去重后命中位置异常: x=%d", r.Rectangle.TopLeft.X)
		}
	}
}

func TestFindAllResultsRespectsLimit(t *testing.T) {
	scene := makeScene(320, 240)
	defer scene.Close()

	// 4x3 网格共 12 个标记
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			drawMarker(&scene, 20+col*70, 20+row*70)
		}
	}

	tpl := makeMarkerTemplate()
	defer tpl.Close()

	matcher := NewTemplateMatching(tpl, scene, 0.9, 0.5, false)
	matcher.MaxResults = 5

	results, err := matcher.FindAllResults()
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("结果数量未被限制: %d，期望 5", len(results))
	}
}

func TestFindAllResultsSinglePixelWideTemplate(t *testing.T) {
	scene := makeScene(64, 64)
	defer scene.Close()
	// 在 (30, 20) 画一条 1 像素宽的竖向渐变线
	for y := 0; y < 20; y++ {
		v := uint8(50 + 10*y)
		gocv.Rectangle(&scene, image.Rect(30, 20+y, 31, 21+y), color.RGBA{v, v, v, 255}, -1)
	}

	tpl := gocv.NewMatWithSize(20, 1, gocv.MatTypeCV8UC3)
	defer tpl.Close()
	for y := 0; y < 20; y++ {
		v := uint8(50 + 10*y)
		gocv.Rectangle(&tpl, image.Rect(0, y, 1, y+1), color.RGBA{v, v, v, 255}, -1)
	}

	// w/2 为 0 时屏蔽矩形若为空，同一峰值会被反复取出而命中数不再增长
	matcher := NewTemplateMatching(tpl, scene, 0.95, 0.5, false)
	results, err := matcher.FindAllResults()
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("未找到匹配，期望在 (30, 20) 处命中")
	}
	if results[0].Rectangle.TopLeft.X != 30 || results[0].Rectangle.TopLeft.Y != 20 {
		t.Errorf("匹配位置错误: (%d, %d)，期望 (30, 20)",
			results[0].Rectangle.TopLeft.X, results[0].Rectangle.TopLeft.Y)
	}

	// 同一峰值不应重复出现
	seen := map[Point]bool{}
	for _, r := range results {
		if seen[r.Rectangle.TopLeft] {
			t.Errorf("位置 (%d, %d) 重复命中", r.Rectangle.TopLeft.X, r.Rectangle.TopLeft.Y)
		}
		seen[r.Rectangle.TopLeft] = true
	}
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name string
		a    Rectangle
		b    Rectangle
		want float64
	}{
		{"identical", NewRectangle(0, 0, 20, 10), NewRectangle(0, 0, 20, 10), 1.0},
		{"half horizontal", NewRectangle(0, 0, 20, 10), NewRectangle(10, 0, 20, 10), 0.5},
		{"disjoint", NewRectangle(0, 0, 20, 10), NewRectangle(100, 100, 20, 10), 0},
		{"touching edge", NewRectangle(0, 0, 20, 10), NewRectangle(20, 0, 20, 10), 0},
		{"small inside large", NewRectangle(0, 0, 100, 100), NewRectangle(40, 40, 10, 10), 1.0},
		{"quarter corner", NewRectangle(0, 0, 20, 20), NewRectangle(10, 10, 20, 20), 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlapRatio(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("重叠率错误: %v，期望 %v", got, tt.want)
			}
			// 参数顺序不影响结果
			if rev := overlapRatio(tt.b, tt.a); rev != got {
				t.Errorf("重叠率不对称: %v vs %v", got, rev)
			}
		})
	}
}

func TestTemplateScaledMatch(t *testing.T) {
	scene := makeScene(240, 180)
	defer scene.Close()

	// 场景中的标记是模板的 2 倍大（模拟高 DPI 截图）
	gocv.Rectangle(&scene, image.Rect(80, 60, 104, 92), color.RGBA{255, 255, 255, 255}, -1)
	gocv.Rectangle(&scene, image.Rect(104, 60, 128, 92), color.RGBA{30, 30, 30, 255}, -1)

	tpl := makeMarkerTemplate()
	defer tpl.Close()

	scaled := ScaleMat(tpl, 2.0, 2.0)
	defer scaled.Close()

	matcher := NewTemplateMatching(scaled, scene, 0.9, 0.5, false)
	result, err := matcher.FindBestResult()
	if err != nil {
		t.Fatalf("缩放模板匹配失败: %v", err)
	}
	if result == nil {
		t.Fatal("缩放模板未找到匹配")
	}
	if result.Rectangle.TopLeft.X != 80 || result.Rectangle.TopLeft.Y != 60 {
		t.Errorf("缩放匹配位置错误: (%d, %d)，期望 (80, 60)",
			result.Rectangle.TopLeft.X, result.Rectangle.TopLeft.Y)
	}
	if result.Rectangle.Width() != 48 || result.Rectangle.Height() != 32 {
		t.Errorf("缩放匹配尺寸错误: %dx%d，期望 48x32",
			result.Rectangle.Width(), result.Rectangle.Height())
	}
}

func TestScaleMat(t *testing.T) {
	img := makeScene(100, 60)
	defer img.Close()

	tests := []struct {
		name  string
		sx    float64
		sy    float64
		wantW int
		wantH int
	}{
		{"double", 2.0, 2.0, 200, 120},
		{"per axis", 2.0, 1.5, 200, 90},
		{"identity", 1.0, 1.0, 100, 60},
		{"zero treated as identity", 0, 0, 100, 60},
		{"negative treated as identity", -1.0, -2.0, 100, 60},
		{"shrink", 0.5, 0.5, 50, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaled := ScaleMat(img, tt.sx, tt.sy)
			defer scaled.Close()

			w, h := GetResolution(scaled)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("缩放后尺寸错误: %dx%d，期望 %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestImageSizeError(t *testing.T) {
	scene := makeScene(40, 40)
	defer scene.Close()

	tpl := makeScene(100, 100)
	defer tpl.Close()

	matcher := NewTemplateMatching(tpl, scene, 0.8, 0.5, false)

	_, err := matcher.FindBestResult()
	var sizeErr *ImageSizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("期望 ImageSizeError，实际: %v", err)
	}
	if sizeErr.SourceSize != [2]int{40, 40} || sizeErr.SearchSize != [2]int{100, 100} {
		t.Errorf("错误尺寸信息不符: source=%v search=%v", sizeErr.SourceSize, sizeErr.SearchSize)
	}
}

func TestRectangleAccessors(t *testing.T) {
	r := NewRectangle(10, 20, 30, 40)

	if r.Width() != 30 || r.Height() != 40 {
		t.Errorf("宽高错误: %dx%d", r.Width(), r.Height())
	}

	x, y, w, h := r.Bounds()
	if x != 10 || y != 20 || w != 30 || h != 40 {
		t.Errorf("Bounds 错误: (%d, %d, %d, %d)", x, y, w, h)
	}

	if r.BottomRight != (Point{X: 40, Y: 60}) {
		t.Errorf("右下角错误: %+v", r.BottomRight)
	}
}

func TestFindLocationFromFiles(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.png")
	tplPath := filepath.Join(dir, "tpl.png")

	scene := makeScene(240, 180)
	defer scene.Close()
	drawMarker(&scene, 60, 40)

	tpl := makeMarkerTemplate()
	defer tpl.Close()

	if err := WriteImage(scenePath, scene); err != nil {
		t.Fatalf("写入场景图失败: %v", err)
	}
	if err := WriteImage(tplPath, tpl); err != nil {
		t.Fatalf("写入模板图失败: %v", err)
	}

	pos, err := FindLocation(scenePath, tplPath, WithTemplateThreshold(0.9))
	if err != nil {
		t.Fatalf("FindLocation 失败: %v", err)
	}
	if pos == nil {
		t.Fatal("未找到位置")
	}
	if pos.X != 72 || pos.Y != 48 {
		t.Errorf("位置错误: (%d, %d)，期望 (72, 48)", pos.X, pos.Y)
	}
}

func TestTemplateCache(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "tpl.png")

	tplMat := makeMarkerTemplate()
	defer tplMat.Close()
	if err := WriteImage(tplPath, tplMat); err != nil {
		t.Fatalf("写入模板图失败: %v", err)
	}

	scene := makeScene(240, 180)
	defer scene.Close()
	drawMarker(&scene, 30, 50)

	tmpl := NewTemplate(tplPath, WithTemplateThreshold(0.9))
	defer tmpl.Close()

	// 第二次匹配命中缓存，结果应一致
	for i := 0; i < 2; i++ {
		pos, err := tmpl.MatchIn(scene)
		if err != nil {
			t.Fatalf("第 %d 次匹配失败: %v", i+1, err)
		}
		if pos == nil || pos.X != 42 || pos.Y != 58 {
			t.Errorf("第 %d 次匹配位置错误: %+v，期望 (42, 58)", i+1, pos)
		}
	}
}

func TestTemplateFromDataURL(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "tpl.png")

	tplMat := makeMarkerTemplate()
	defer tplMat.Close()
	if err := WriteImage(tplPath, tplMat); err != nil {
		t.Fatalf("写入模板图失败: %v", err)
	}
	raw, err := os.ReadFile(tplPath)
	if err != nil {
		t.Fatalf("读取模板图失败: %v", err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	scene := makeScene(240, 180)
	defer scene.Close()
	drawMarker(&scene, 90, 60)

	tmpl := NewTemplate(dataURL, WithTemplateThreshold(0.9))
	defer tmpl.Close()

	pos, err := tmpl.MatchIn(scene)
	if err != nil {
		t.Fatalf("data URL 模板匹配失败: %v", err)
	}
	if pos == nil || pos.X != 102 || pos.Y != 68 {
		t.Errorf("匹配位置错误: %+v，期望 (102, 68)", pos)
	}
}

func TestDecodeDataURLErrors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"missing payload", "data:image/png;base64"},
		{"invalid base64", "data:image/png;base64,!!!!"},
		{"undecodable bytes", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat, err := decodeDataURL(tt.url)
			defer mat.Close()
			if err == nil {
				t.Error("期望解码失败")
			}
		})
	}
}

func TestTemplateOptions(t *testing.T) {
	tmpl := NewTemplate("dummy.png",
		WithTemplateThreshold(0.92),
		WithTemplateOverlap(0.3),
		WithTemplateRGB(true),
		WithTemplateScale(1.5, 2.0),
	)
	defer tmpl.Close()

	if tmpl.Threshold != 0.92 {
		t.Errorf("阈值未生效: %v", tmpl.Threshold)
	}
	if tmpl.Overlap != 0.3 {
		t.Errorf("重叠率未生效: %v", tmpl.Overlap)
	}
	if !tmpl.RGB {
		t.Error("RGB 选项未生效")
	}
	if tmpl.ScaleX != 1.5 || tmpl.ScaleY != 2.0 {
		t.Errorf("缩放因子未生效: (%v, %v)", tmpl.ScaleX, tmpl.ScaleY)
	}
}

func TestImageUtils(t *testing.T) {
	img := makeScene(120, 80)
	defer img.Close()

	// 获取分辨率
	w, h := GetResolution(img)
	if w != 120 || h != 80 {
		t.Errorf("分辨率错误: %dx%d", w, h)
	}

	// 灰度转换
	gray := ToGray(img)
	defer gray.Close()
	if gray.Channels() != 1 {
		t.Errorf("灰度图通道数错误: %d", gray.Channels())
	}

	// 裁剪（越界坐标会被收敛到图像范围内）
	cropped := CropImage(img, [4]int{-10, -10, 60, 200})
	defer cropped.Close()
	cropW, cropH := GetResolution(cropped)
	if cropW != 60 || cropH != 80 {
		t.Errorf("裁剪后分辨率错误: %dx%d，期望 60x80", cropW, cropH)
	}

	// 缩放
	resized := ResizeImage(img, 60, 40)
	defer resized.Close()
	resizedW, resizedH := GetResolution(resized)
	if resizedW != 60 || resizedH != 40 {
		t.Errorf("缩放后分辨率错误: %dx%d", resizedW, resizedH)
	}
}

func BenchmarkFindBestResult(b *testing.B) {
	scene := makeScene(640, 400)
	defer scene.Close()
	drawMarker(&scene, 300, 200)

	tpl := makeMarkerTemplate()
	defer tpl.Close()

	matcher := NewTemplateMatching(tpl, scene, 0.9, 0.5, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := matcher.FindBestResult(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFindAllResults(b *testing.B) {
	scene := makeScene(640, 400)
	defer scene.Close()
	for i := 0; i < 5; i++ {
		drawMarker(&scene, 50+i*110, 100)
	}

	tpl := makeMarkerTemplate()
	defer tpl.Close()

	matcher := NewTemplateMatching(tpl, scene, 0.9, 0.5, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := matcher.FindAllResults(); err != nil {
			b.Fatal(err)
		}
	}
}
