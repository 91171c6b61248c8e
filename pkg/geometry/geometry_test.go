package geometry

import (
	"fmt"
	"testing"
)

func TestGlobalToLocal(t *testing.T) {
	tests := []struct {
		name   string
		rect   Rect
		origin Point
		want   Rect
	}{
		{
			name:   "positive origin",
			rect:   Rect{X: 100, Y: 200, W: 50, H: 60},
			origin: Point{X: 30, Y: 40},
			want:   Rect{X: 70, Y: 160, W: 50, H: 60},
		},
		{
			name:   "zero origin",
			rect:   Rect{X: 10, Y: 20, W: 30, H: 40},
			origin: Point{},
			want:   Rect{X: 10, Y: 20, W: 30, H: 40},
		},
		{
			name:   "negative origin (monitor left of primary)",
			rect:   Rect{X: -1800, Y: 100, W: 200, H: 100},
			origin: Point{X: -1920, Y: 0},
			want:   Rect{X: 120, Y: 100, W: 200, H: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GlobalToLocal(tt.rect, tt.origin)
			if got != tt.want {
				t.Errorf("GlobalToLocal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocalToGlobal(t *testing.T) {
	rect := Rect{X: 120, Y: 100, W: 200, H: 100}
	origin := Point{X: -1920, Y: 0}

	got := LocalToGlobal(rect, origin)
	want := Rect{X: -1800, Y: 100, W: 200, H: 100}
	if got != want {
		t.Errorf("LocalToGlobal() = %v, want %v", got, want)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, W: 1, H: 1},
		{X: 100, Y: 200, W: 300, H: 400},
		{X: -500, Y: -600, W: 70, H: 80},
		{X: 2147483, Y: -2147483, W: 1920, H: 1080},
	}
	origins := []Point{
		{X: 0, Y: 0},
		{X: 1920, Y: 0},
		{X: -2560, Y: -1440},
		{X: 7, Y: -13},
	}

	for _, r := range rects {
		for _, o := range origins {
			if got := LocalToGlobal(GlobalToLocal(r, o), o); got != r {
				t.Errorf("往返转换不可逆: rect=%v origin=%v got=%v", r, o, got)
			}
			if got := GlobalToLocal(LocalToGlobal(r, o), o); got != r {
				t.Errorf("反向往返转换不可逆: rect=%v origin=%v got=%v", r, o, got)
			}
		}
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		sx   float64
		sy   float64
		want Rect
	}{
		{
			name: "identity",
			rect: Rect{X: 10, Y: 20, W: 30, H: 40},
			sx:   1.0,
			sy:   1.0,
			want: Rect{X: 10, Y: 20, W: 30, H: 40},
		},
		{
			name: "double both axes",
			rect: Rect{X: 100, Y: 50, W: 200, H: 150},
			sx:   2.0,
			sy:   2.0,
			want: Rect{X: 200, Y: 100, W: 400, H: 300},
		},
		{
			name: "fractional result floors",
			rect: Rect{X: 3, Y: 5, W: 7, H: 9},
			sx:   1.5,
			sy:   1.5,
			want: Rect{X: 4, Y: 7, W: 10, H: 13},
		},
		{
			name: "per-axis factors",
			rect: Rect{X: 10, Y: 10, W: 100, H: 100},
			sx:   2.0,
			sy:   1.25,
			want: Rect{X: 20, Y: 12, W: 200, H: 125},
		},
		{
			name: "negative coordinates floor toward minus infinity",
			rect: Rect{X: -3, Y: -5, W: 10, H: 10},
			sx:   1.5,
			sy:   1.5,
			want: Rect{X: -5, Y: -8, W: 15, H: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scale(tt.rect, tt.sx, tt.sy)
			if got != tt.want {
				t.Errorf("Scale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name  string
		rects []Rect
		want  Rect
	}{
		{
			name:  "empty input",
			rects: nil,
			want:  Rect{},
		},
		{
			name:  "single rect",
			rects: []Rect{{X: 10, Y: 20, W: 30, H: 40}},
			want:  Rect{X: 10, Y: 20, W: 30, H: 40},
		},
		{
			name: "dual monitor side by side",
			rects: []Rect{
				{X: 0, Y: 0, W: 1920, H: 1080},
				{X: 1920, Y: 0, W: 2560, H: 1440},
			},
			want: Rect{X: 0, Y: 0, W: 4480, H: 1440},
		},
		{
			name: "monitor left of and above primary",
			rects: []Rect{
				{X: 0, Y: 0, W: 1920, H: 1080},
				{X: -2560, Y: -400, W: 2560, H: 1440},
			},
			want: Rect{X: -2560, Y: -400, W: 4480, H: 1480},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Union(tt.rects...)
			if got != tt.want {
				t.Errorf("Union() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectEmpty(t *testing.T) {
	if (Rect{X: 0, Y: 0, W: 10, H: 10}).Empty() {
		t.Error("正常矩形不应为退化矩形")
	}
	if !(Rect{X: 0, Y: 0, W: 0, H: 10}).Empty() {
		t.Error("宽为 0 的矩形应为退化矩形")
	}
	if !(Rect{X: 0, Y: 0, W: 10, H: -5}).Empty() {
		t.Error("高为负的矩形应为退化矩形")
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 20, H: 20}

	inside := []Point{{X: 10, Y: 10}, {X: 15, Y: 25}, {X: 29, Y: 29}}
	for _, p := range inside {
		if !r.Contains(p) {
			t.Errorf("Contains(%v) = false, want true", p)
		}
	}

	outside := []Point{{X: 9, Y: 10}, {X: 30, Y: 15}, {X: 15, Y: 30}}
	for _, p := range outside {
		if r.Contains(p) {
			t.Errorf("Contains(%v) = true, want false", p)
		}
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}

	if !a.Intersects(Rect{X: 50, Y: 50, W: 100, H: 100}) {
		t.Error("重叠矩形应判定为相交")
	}
	if a.Intersects(Rect{X: 100, Y: 0, W: 50, H: 50}) {
		t.Error("仅共享边界的矩形不应判定为相交")
	}
	if a.Intersects(Rect{X: 200, Y: 200, W: 10, H: 10}) {
		t.Error("分离矩形不应判定为相交")
	}
	if a.Intersects(Rect{X: 10, Y: 10, W: 0, H: 10}) {
		t.Error("退化矩形不应判定为相交")
	}
}

func TestRectAccessors(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}

	if r.Origin() != (Point{X: 10, Y: 20}) {
		t.Errorf("Origin() = %v", r.Origin())
	}
	if r.Center() != (Point{X: 25, Y: 40}) {
		t.Errorf("Center() = %v, want (25, 40)", r.Center())
	}
	if r.Right() != 40 || r.Bottom() != 60 {
		t.Errorf("Right()/Bottom() = %d/%d, want 40/60", r.Right(), r.Bottom())
	}
	if got := r.Offset(-5, 5); got != (Rect{X: 5, Y: 25, W: 30, H: 40}) {
		t.Errorf("Offset() = %v", got)
	}
}

func ExampleGlobalToLocal() {
	monitorOrigin := Point{X: 1920, Y: 0}
	global := Rect{X: 2020, Y: 300, W: 200, H: 100}

	local := GlobalToLocal(global, monitorOrigin)
	fmt.Println(local)
	fmt.Println(LocalToGlobal(local, monitorOrigin) == global)
	// Output:
	// (100, 300, 200, 100)
	// true
}

func BenchmarkTransformRoundTrip(b *testing.B) {
	r := Rect{X: 123, Y: 456, W: 789, H: 1011}
	o := Point{X: -1920, Y: 1080}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = LocalToGlobal(GlobalToLocal(r, o), o)
	}
}

func BenchmarkUnion(b *testing.B) {
	rects := []Rect{
		{X: 0, Y: 0, W: 1920, H: 1080},
		{X: 1920, Y: 0, W: 2560, H: 1440},
		{X: -2560, Y: -400, W: 2560, H: 1440},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Union(rects...)
	}
}
