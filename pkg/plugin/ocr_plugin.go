// Package plugin 管理可选的 OCR 模型插件
//
// PaddleOCR 引擎依赖 onnxruntime 动态库与 det/rec 模型文件，体积较大，
// 不随二进制分发。本包负责按平台下载安装到 ~/.sightworker/plugins/ocr，
// 并向 pkg/vision/ocr 提供初始化配置。
package plugin

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sightai/sightworker/pkg/vision/ocr"
)

// ModelRepoBase 模型仓库地址
const ModelRepoBase = "https://huggingface.co/getcharzp/go-ocr/resolve/main"

// OCRPlugin OCR 模型插件管理器
type OCRPlugin struct {
	baseDir  string
	repoBase string

	mu          sync.RWMutex
	downloading bool
	progress    float64
	onProgress  func(float64)
}

// Status OCR 插件状态
type Status struct {
	Installed       bool    `json:"installed"`
	Downloading     bool    `json:"downloading"`
	Progress        float64 `json:"progress"` // 0-100
	OnnxRuntimePath string  `json:"onnx_runtime_path"`
	DetModelPath    string  `json:"det_model_path"`
	RecModelPath    string  `json:"rec_model_path"`
	DictPath        string  `json:"dict_path"`
}

// modelFile 需要下载的单个文件
type modelFile struct {
	name     string
	urlPath  string
	destPath string
	size     int64 // 预估大小（字节），用于进度估算
}

// NewOCRPlugin 创建插件管理器，安装目录为 ~/.sightworker/plugins/ocr
func NewOCRPlugin() *OCRPlugin {
	homeDir, _ := os.UserHomeDir()
	return NewOCRPluginWithDir(filepath.Join(homeDir, ".sightworker", "plugins", "ocr"))
}

// NewOCRPluginWithDir 使用指定安装目录创建插件管理器
func NewOCRPluginWithDir(baseDir string) *OCRPlugin {
	return &OCRPlugin{
		baseDir:  baseDir,
		repoBase: ModelRepoBase,
	}
}

// SetProgressCallback 设置下载进度回调 (0-100)
func (p *OCRPlugin) SetProgressCallback(callback func(float64)) {
	p.mu.Lock()
	p.onProgress = callback
	p.mu.Unlock()
}

// GetStatus 获取插件状态
func (p *OCRPlugin) GetStatus() Status {
	p.mu.RLock()
	status := Status{
		Downloading: p.downloading,
		Progress:    p.progress,
	}
	p.mu.RUnlock()

	status.OnnxRuntimePath = filepath.Join(p.baseDir, "lib", onnxRuntimeFile())
	status.DetModelPath = filepath.Join(p.baseDir, "paddle_weights", "det.onnx")
	status.RecModelPath = filepath.Join(p.baseDir, "paddle_weights", "rec.onnx")
	status.DictPath = filepath.Join(p.baseDir, "paddle_weights", "dict.txt")

	status.Installed = fileExists(status.OnnxRuntimePath) &&
		fileExists(status.DetModelPath) &&
		fileExists(status.RecModelPath) &&
		fileExists(status.DictPath)

	return status
}

// IsInstalled 检查插件是否已安装
func (p *OCRPlugin) IsInstalled() bool {
	return p.GetStatus().Installed
}

// GetConfig 生成 OCR 初始化配置，未安装时报错
func (p *OCRPlugin) GetConfig() (ocr.Config, error) {
	status := p.GetStatus()
	if !status.Installed {
		return ocr.Config{}, fmt.Errorf("OCR 插件未安装")
	}

	config := ocr.DefaultConfig()
	config.OnnxRuntimeLibPath = status.OnnxRuntimePath
	config.DetModelPath = status.DetModelPath
	config.RecModelPath = status.RecModelPath
	config.DictPath = status.DictPath
	return config, nil
}

// Install 下载并安装全部模型文件
// 同一管理器上的并发 Install 互斥，后到者报错
func (p *OCRPlugin) Install() error {
	p.mu.Lock()
	if p.downloading {
		p.mu.Unlock()
		return fmt.Errorf("正在下载中")
	}
	p.downloading = true
	p.progress = 0
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.downloading = false
		p.mu.Unlock()
	}()

	if err := os.MkdirAll(filepath.Join(p.baseDir, "lib"), 0755); err != nil {
		return fmt.Errorf("创建插件目录失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(p.baseDir, "paddle_weights"), 0755); err != nil {
		return fmt.Errorf("创建插件目录失败: %w", err)
	}

	files := p.modelFiles()

	var totalSize int64
	for _, f := range files {
		totalSize += f.size
	}

	var downloadedSize int64
	for _, f := range files {
		err := p.downloadFile(p.repoBase+f.urlPath, f.destPath, func(downloaded int64) {
			p.reportProgress(float64(downloadedSize+downloaded) / float64(totalSize) * 100)
		})
		if err != nil {
			return fmt.Errorf("下载 %s 失败: %w", f.name, err)
		}
		downloadedSize += f.size
	}

	p.reportProgress(100)
	return nil
}

// Uninstall 卸载插件，删除全部已安装文件
func (p *OCRPlugin) Uninstall() error {
	return os.RemoveAll(p.baseDir)
}

// reportProgress 更新进度并触发回调
func (p *OCRPlugin) reportProgress(progress float64) {
	p.mu.Lock()
	p.progress = progress
	callback := p.onProgress
	p.mu.Unlock()

	if callback != nil {
		callback(progress)
	}
}

// onnxRuntimeFile 当前平台的 onnxruntime 库文件名
func onnxRuntimeFile() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "onnxruntime_" + runtime.GOARCH + ".dylib"
	default:
		return "onnxruntime_" + runtime.GOARCH + ".so"
	}
}

// modelFiles 当前平台需要下载的文件列表
func (p *OCRPlugin) modelFiles() []modelFile {
	onnxName := onnxRuntimeFile()
	return []modelFile{
		{
			name:     onnxName,
			urlPath:  "/lib/" + onnxName,
			destPath: filepath.Join(p.baseDir, "lib", onnxName),
			size:     50 * 1024 * 1024, // ~50MB
		},
		{
			name:     "det.onnx",
			urlPath:  "/paddle_weights/det.onnx",
			destPath: filepath.Join(p.baseDir, "paddle_weights", "det.onnx"),
			size:     3 * 1024 * 1024, // ~3MB
		},
		{
			name:     "rec.onnx",
			urlPath:  "/paddle_weights/rec.onnx",
			destPath: filepath.Join(p.baseDir, "paddle_weights", "rec.onnx"),
			size:     5 * 1024 * 1024, // ~5MB
		},
		{
			name:     "dict.txt",
			urlPath:  "/paddle_weights/dict.txt",
			destPath: filepath.Join(p.baseDir, "paddle_weights", "dict.txt"),
			size:     200 * 1024, // ~200KB
		},
	}
}

// downloadFile 下载单个文件，先写临时文件再原子改名
func (p *OCRPlugin) downloadFile(url, destPath string, onProgress func(int64)) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				os.Remove(tmpPath)
				return writeErr
			}
			downloaded += int64(n)
			if onProgress != nil {
				onProgress(downloaded)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			os.Remove(tmpPath)
			return err
		}
	}

	out.Close()
	return os.Rename(tmpPath, destPath)
}

// fileExists 检查文件是否存在
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// 全局单例
var (
	globalOCRPlugin *OCRPlugin
	ocrPluginOnce   sync.Once
)

// GetOCRPlugin 获取全局插件管理器
func GetOCRPlugin() *OCRPlugin {
	ocrPluginOnce.Do(func() {
		globalOCRPlugin = NewOCRPlugin()
	})
	return globalOCRPlugin
}
