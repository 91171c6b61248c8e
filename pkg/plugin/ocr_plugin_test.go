package plugin

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetStatusNotInstalled(t *testing.T) {
	p := NewOCRPluginWithDir(t.TempDir())

	status := p.GetStatus()
	if status.Installed {
		t.Error("空目录不应报告已安装")
	}
	if status.Downloading {
		t.Error("初始状态不应在下载中")
	}
	if !strings.Contains(status.DetModelPath, "paddle_weights") {
		t.Errorf("检测模型路径错误: %s", status.DetModelPath)
	}
}

func TestGetConfigNotInstalled(t *testing.T) {
	p := NewOCRPluginWithDir(t.TempDir())

	if _, err := p.GetConfig(); err == nil {
		t.Error("未安装时 GetConfig 应返回错误")
	}
}

// installFakeFiles 在安装目录下伪造全部插件文件
func installFakeFiles(t *testing.T, p *OCRPlugin) {
	t.Helper()
	status := p.GetStatus()
	for _, path := range []string{
		status.OnnxRuntimePath,
		status.DetModelPath,
		status.RecModelPath,
		status.DictPath,
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("创建目录失败: %v", err)
		}
		if err := os.WriteFile(path, []byte("stub"), 0644); err != nil {
			t.Fatalf("写入文件失败: %v", err)
		}
	}
}

func TestGetConfigInstalled(t *testing.T) {
	p := NewOCRPluginWithDir(t.TempDir())
	installFakeFiles(t, p)

	if !p.IsInstalled() {
		t.Fatal("伪造文件后应报告已安装")
	}

	config, err := p.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig 失败: %v", err)
	}
	if config.DetModelPath != p.GetStatus().DetModelPath {
		t.Errorf("检测模型路径不匹配: %s", config.DetModelPath)
	}
	if config.Language == "" {
		t.Error("配置应带默认语言")
	}
}

func TestInstall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload for " + r.URL.Path))
	}))
	defer server.Close()

	p := NewOCRPluginWithDir(t.TempDir())
	p.repoBase = server.URL

	var lastProgress float64
	decreased := false
	p.SetProgressCallback(func(progress float64) {
		if progress < lastProgress {
			decreased = true
		}
		lastProgress = progress
	})

	if err := p.Install(); err != nil {
		t.Fatalf("安装失败: %v", err)
	}

	if !p.IsInstalled() {
		t.Error("安装后应报告已安装")
	}
	if lastProgress != 100 {
		t.Errorf("最终进度应为 100, 实际为 %v", lastProgress)
	}
	if decreased {
		t.Error("进度不应回退")
	}

	// 下载内容按请求路径写入对应文件
	data, err := os.ReadFile(p.GetStatus().DictPath)
	if err != nil {
		t.Fatalf("读取字典文件失败: %v", err)
	}
	if string(data) != "payload for /paddle_weights/dict.txt" {
		t.Errorf("字典文件内容错误: %s", data)
	}

	// 不应残留临时文件
	matches, _ := filepath.Glob(filepath.Join(p.baseDir, "*", "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("安装后残留临时文件: %v", matches)
	}
}

func TestInstallHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	p := NewOCRPluginWithDir(t.TempDir())
	p.repoBase = server.URL

	if err := p.Install(); err == nil {
		t.Error("下载 404 时安装应失败")
	}
	if p.IsInstalled() {
		t.Error("安装失败后不应报告已安装")
	}
}

func TestUninstall(t *testing.T) {
	p := NewOCRPluginWithDir(filepath.Join(t.TempDir(), "ocr"))
	installFakeFiles(t, p)

	if err := p.Uninstall(); err != nil {
		t.Fatalf("卸载失败: %v", err)
	}
	if p.IsInstalled() {
		t.Error("卸载后不应报告已安装")
	}

	// 重复卸载不应报错
	if err := p.Uninstall(); err != nil {
		t.Errorf("重复卸载不应报错: %v", err)
	}
}

func TestGetOCRPluginSingleton(t *testing.T) {
	p1 := GetOCRPlugin()
	p2 := GetOCRPlugin()
	if p1 == nil {
		t.Fatal("GetOCRPlugin 返回 nil")
	}
	if p1 != p2 {
		t.Error("GetOCRPlugin 应返回同一实例")
	}
}
