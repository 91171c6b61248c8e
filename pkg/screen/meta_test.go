package screen

import (
	"image"
	"testing"

	"github.com/sightai/sightworker/pkg/geometry"
)

func TestBuildCaptureMeta(t *testing.T) {
	tests := []struct {
		name    string
		logical geometry.Rect
		imgW    int
		imgH    int
		want    CaptureMeta
	}{
		{
			name:    "identity capture",
			logical: geometry.NewRect(0, 0, 100, 80),
			imgW:    100, imgH: 80,
			want: CaptureMeta{ScaleX: 1.0, ScaleY: 1.0},
		},
		{
			name:    "retina double scale",
			logical: geometry.NewRect(0, 0, 100, 80),
			imgW:    200, imgH: 160,
			want: CaptureMeta{ScaleX: 2.0, ScaleY: 2.0},
		},
		{
			name:    "region offset carried",
			logical: geometry.NewRect(50, 40, 100, 80),
			imgW:    100, imgH: 80,
			want: CaptureMeta{ScaleX: 1.0, ScaleY: 1.0, OffsetX: 50, OffsetY: 40},
		},
		{
			name:    "non uniform scale",
			logical: geometry.NewRect(0, 0, 100, 80),
			imgW:    150, imgH: 80,
			want: CaptureMeta{ScaleX: 1.5, ScaleY: 1.0},
		},
		{
			name:    "degenerate logical size falls back",
			logical: geometry.NewRect(10, 10, 0, 0),
			imgW:    64, imgH: 64,
			want: CaptureMeta{ScaleX: 1.0, ScaleY: 1.0, OffsetX: 10, OffsetY: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.imgW, tt.imgH))
			got := BuildCaptureMeta(tt.logical, img)
			if got != tt.want {
				t.Errorf("元信息错误: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAdjustPoint(t *testing.T) {
	meta := CaptureMeta{ScaleX: 2.0, ScaleY: 2.0, OffsetX: 50, OffsetY: 40}

	got := AdjustPoint(geometry.NewPoint(60, 40), meta)
	want := geometry.NewPoint(80, 60)
	if got != want {
		t.Errorf("坐标换算错误: got %+v, want %+v", got, want)
	}
}

func TestProjectRect(t *testing.T) {
	meta := CaptureMeta{ScaleX: 2.0, ScaleY: 2.0, OffsetX: 50, OffsetY: 40}

	logical := geometry.NewRect(80, 60, 24, 16)
	got := ProjectRect(logical, meta)
	want := geometry.NewRect(60, 40, 48, 32)
	if got != want {
		t.Errorf("正向换算错误: got %s, want %s", got, want)
	}

	// 与 AdjustRect 互为逆运算
	if back := AdjustRect(got, meta); back != logical {
		t.Errorf("往返换算错误: got %s, want %s", back, logical)
	}
}

func TestAdjustRect(t *testing.T) {
	tests := []struct {
		name string
		meta CaptureMeta
		in   geometry.Rect
		want geometry.Rect
	}{
		{
			name: "retina rect back to logical",
			meta: CaptureMeta{ScaleX: 2.0, ScaleY: 2.0, OffsetX: 50, OffsetY: 40},
			in:   geometry.NewRect(60, 40, 48, 32),
			want: geometry.NewRect(80, 60, 24, 16),
		},
		{
			name: "identity meta keeps rect",
			meta: CaptureMeta{ScaleX: 1.0, ScaleY: 1.0},
			in:   geometry.NewRect(12, 34, 56, 78),
			want: geometry.NewRect(12, 34, 56, 78),
		},
		{
			name: "half pixel rounds away from zero",
			meta: CaptureMeta{ScaleX: 2.0, ScaleY: 2.0},
			in:   geometry.NewRect(61, 41, 49, 33),
			want: geometry.NewRect(31, 21, 25, 17),
		},
		{
			name: "zero scale treated as passthrough",
			meta: CaptureMeta{OffsetX: 5, OffsetY: 5},
			in:   geometry.NewRect(10, 10, 20, 20),
			want: geometry.NewRect(15, 15, 20, 20),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdjustRect(tt.in, tt.meta); got != tt.want {
				t.Errorf("矩形换算错误: got %s, want %s", got, tt.want)
			}
		})
	}
}
