package display

import (
	"testing"

	"github.com/sightai/sightworker/pkg/geometry"
)

// fakeProvider 测试用静态显示器列表
type fakeProvider struct {
	monitors []MonitorDescriptor
	err      error
}

func (f *fakeProvider) Monitors() ([]MonitorDescriptor, error) {
	return f.monitors, f.err
}

func TestMonitorDescriptorAccessors(t *testing.T) {
	m := MonitorDescriptor{Index: 1, X: 1920, Y: -200, W: 2560, H: 1440, DPR: 1.5}

	if m.Bounds() != (geometry.Rect{X: 1920, Y: -200, W: 2560, H: 1440}) {
		t.Errorf("Bounds() = %v", m.Bounds())
	}
	if m.Origin() != (geometry.Point{X: 1920, Y: -200}) {
		t.Errorf("Origin() = %v", m.Origin())
	}
}

func TestSnapshotCopies(t *testing.T) {
	p := &fakeProvider{
		monitors: []MonitorDescriptor{
			{Index: 0, W: 1920, H: 1080, DPR: 1.0},
			{Index: 1, X: 1920, W: 2560, H: 1440, DPR: 2.0},
		},
	}

	snap, err := Snapshot(p)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("Snapshot() 返回 %d 个显示器，want 2", len(snap))
	}

	// 快照是独立副本，修改源不影响快照
	p.monitors[0].W = 1
	if snap[0].W != 1920 {
		t.Error("快照不应随源列表变化")
	}
}

func TestVirtualBounds(t *testing.T) {
	monitors := []MonitorDescriptor{
		{Index: 0, X: 0, Y: 0, W: 1920, H: 1080},
		{Index: 1, X: 1920, Y: -200, W: 2560, H: 1440},
	}

	got := VirtualBounds(monitors)
	want := geometry.Rect{X: 0, Y: -200, W: 4480, H: 1440}
	if got != want {
		t.Errorf("VirtualBounds() = %v, want %v", got, want)
	}

	if VirtualBounds(nil) != (geometry.Rect{}) {
		t.Error("空显示器列表应返回零值矩形")
	}
}

func TestNormalizeScale(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.0, 1.0},
		{1.02, 1.0}, // 接近 1.0 的噪声归一
		{0.98, 1.0},
		{1.25, 1.25},
		{2.0, 2.0},
		{0.3, 1.0}, // 超出合理范围
		{5.0, 1.0},
	}

	for _, tt := range tests {
		if got := normalizeScale(tt.in); got != tt.want {
			t.Errorf("normalizeScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSystemProviderMonitors(t *testing.T) {
	p := NewSystemProvider()

	monitors, err := p.Monitors()
	if err != nil {
		t.Skipf("跳过测试：无法枚举显示器（可能为无头环境）: %v", err)
		return
	}

	for i, m := range monitors {
		if m.Index != i {
			t.Errorf("显示器 %d 的下标字段为 %d", i, m.Index)
		}
		if m.W <= 0 || m.H <= 0 {
			t.Errorf("显示器 %d 尺寸非法: %dx%d", i, m.W, m.H)
		}
		if m.DPR <= 0 {
			t.Errorf("显示器 %d 的 DPR 非法: %v", i, m.DPR)
		}
		t.Logf("显示器 %d: %v DPR=%.2f", i, m.Bounds(), m.DPR)
	}
}
