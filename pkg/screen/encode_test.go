package screen

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageToBase64(t *testing.T) {
	img := testFrame(16, 12)

	tests := []struct {
		name       string
		format     string
		quality    int
		wantPrefix string
	}{
		{name: "png format", format: "png", quality: 0, wantPrefix: "data:image/png;base64,"},
		{name: "jpeg format", format: "jpeg", quality: 90, wantPrefix: "data:image/jpeg;base64,"},
		{name: "jpg alias", format: "jpg", quality: 90, wantPrefix: "data:image/jpeg;base64,"},
		{name: "default is jpeg", format: "", quality: 0, wantPrefix: "data:image/jpeg;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImageToBase64(img, tt.format, tt.quality)
			if err != nil {
				t.Fatalf("编码失败: %v", err)
			}
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("前缀错误: %s", got[:min(len(got), 40)])
			}
			payload := strings.TrimPrefix(got, tt.wantPrefix)
			if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
				t.Errorf("Base64 解码失败: %v", err)
			}
		})
	}
}

func TestImageToBase64PNGRoundTrip(t *testing.T) {
	img := testFrame(16, 12)

	got, err := ImageToBase64(img, "png", 0)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	payload := strings.TrimPrefix(got, "data:image/png;base64,")
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("Base64 解码失败: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("PNG 解码失败: %v", err)
	}
	if decoded.Bounds().Dx() != 16 || decoded.Bounds().Dy() != 12 {
		t.Errorf("解码尺寸错误: %v", decoded.Bounds())
	}
}

func TestImageToBase64Invalid(t *testing.T) {
	if _, err := ImageToBase64(nil, "png", 0); err == nil {
		t.Error("空图像应返回错误")
	}
	if _, err := ImageToBase64(testFrame(4, 4), "webp", 0); err == nil {
		t.Error("不支持的格式应返回错误")
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")

	if err := SavePNG(testFrame(20, 10), path); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("打开文件失败: %v", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("PNG 解码失败: %v", err)
	}
	if decoded.Bounds().Dx() != 20 || decoded.Bounds().Dy() != 10 {
		t.Errorf("解码尺寸错误: %v", decoded.Bounds())
	}
}

func TestSavePNGNilImage(t *testing.T) {
	if err := SavePNG(nil, filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("空图像应返回错误")
	}
}
