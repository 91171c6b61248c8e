// Package ocr 提供 OCR 文字识别功能
package ocr

import (
	"os"
	"path/filepath"
	"runtime"
)

func init() {
	// 初始化 statFile 函数
	statFile = func(path string) (interface{}, error) {
		return os.Stat(path)
	}
}

// getExecutableDir 获取可执行文件所在目录
func getExecutableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "."
	}
	// 解析符号链接
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "."
	}
	return filepath.Dir(execPath)
}

// getResourcesDir 获取资源目录（跨平台）
func getResourcesDir() string {
	execDir := getExecutableDir()

	if runtime.GOOS == "darwin" {
		// macOS: 检查是否在 .app bundle 中
		// 结构: SightWorker.app/Contents/MacOS/sightworker
		//       SightWorker.app/Contents/Resources/models
		resourcesDir := filepath.Join(execDir, "..", "Resources")
		if fileExists(resourcesDir) {
			return resourcesDir
		}
	}

	// Windows/Linux 或非 bundle 模式: 资源与可执行文件同目录
	return execDir
}

// getPluginDir 获取 OCR 插件安装目录
func getPluginDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".sightworker", "plugins", "ocr")
}

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OcrResult OCR 识别结果
type OcrResult struct {
	// Text 识别的文字内容
	Text string `json:"text"`
	// Confidence 识别置信度 (0-1)
	Confidence float64 `json:"confidence"`
	// Position 文字中心位置
	Position Point `json:"position"`
	// Box 文字边界框四个角点
	Box []Point `json:"box,omitempty"`
}

// Config OCR 配置
type Config struct {
	// OnnxRuntimeLibPath ONNX Runtime 动态库路径
	OnnxRuntimeLibPath string
	// DetModelPath 检测模型路径
	DetModelPath string
	// RecModelPath 识别模型路径
	RecModelPath string
	// DictPath 字典文件路径
	DictPath string
	// Language 语言 (ch, en)
	Language string
	// UseGPU 是否使用 GPU
	UseGPU bool
	// CPUThreads CPU 线程数
	CPUThreads int
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		OnnxRuntimeLibPath: getDefaultOnnxRuntimePath(),
		DetModelPath:       getDefaultModelPath("det.onnx"),
		RecModelPath:       getDefaultModelPath("rec.onnx"),
		DictPath:           getDefaultModelPath("dict.txt"),
		Language:           "ch",
		UseGPU:             false,
		CPUThreads:         4,
	}
}

// getDefaultOnnxRuntimePath 获取默认的 ONNX Runtime 库路径
// 优先查找插件安装目录，其次是可执行文件旁的打包资源
func getDefaultOnnxRuntimePath() string {
	execDir := getExecutableDir()
	resourcesDir := getResourcesDir()
	pluginDir := getPluginDir()

	// 根据操作系统和架构选择正确的库文件
	var paths []string

	switch runtime.GOOS {
	case "darwin":
		// macOS: 先查找插件目录，再查找 Frameworks 目录（.app bundle）
		frameworksDir := filepath.Join(execDir, "..", "Frameworks")
		paths = []string{
			filepath.Join(pluginDir, "lib", "onnxruntime_"+runtime.GOARCH+".dylib"),
			filepath.Join(frameworksDir, "libonnxruntime.dylib"),
			filepath.Join(frameworksDir, "onnxruntime.dylib"),
			filepath.Join(execDir, "libonnxruntime.dylib"),
			filepath.Join(resourcesDir, "lib", "onnxruntime_arm64.dylib"),
			filepath.Join(resourcesDir, "lib", "onnxruntime_amd64.dylib"),
		}
	case "windows":
		// Windows: 插件目录或 exe 同目录
		paths = []string{
			filepath.Join(pluginDir, "lib", "onnxruntime.dll"),
			filepath.Join(execDir, "onnxruntime.dll"),
			filepath.Join(resourcesDir, "onnxruntime.dll"),
			"onnxruntime.dll",
		}
	default:
		// Linux
		paths = []string{
			filepath.Join(pluginDir, "lib", "onnxruntime_"+runtime.GOARCH+".so"),
			filepath.Join(execDir, "libonnxruntime.so"),
			filepath.Join(resourcesDir, "lib", "onnxruntime_arm64.so"),
			filepath.Join(resourcesDir, "lib", "onnxruntime_amd64.so"),
			"./lib/onnxruntime.so",
		}
	}

	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}

	return paths[0]
}

// getDefaultModelPath 获取默认的模型路径
func getDefaultModelPath(filename string) string {
	execDir := getExecutableDir()
	resourcesDir := getResourcesDir()
	pluginDir := getPluginDir()

	paths := []string{
		// 插件安装的模型
		filepath.Join(pluginDir, "paddle_weights", filename),
		// 打包后的路径
		filepath.Join(resourcesDir, "models", "paddle_weights", filename),
		filepath.Join(execDir, "models", "paddle_weights", filename),
		// 开发时的相对路径
		filepath.Join("models", "paddle_weights", filename),
	}

	for _, p := range paths {
		if fileExists(p) {
			return p
		}
	}

	return paths[0]
}

// fileExists 检查文件是否存在
func fileExists(path string) bool {
	_, err := statFile(path)
	return err == nil
}

// statFile 包装 os.Stat 以便测试
var statFile = func(path string) (interface{}, error) {
	return nil, nil // 将在 init 中设置
}

// IsAvailable 检查 PaddleOCR 引擎是否可用（模型文件是否存在）
func IsAvailable() bool {
	config := DefaultConfig()
	return fileExists(config.OnnxRuntimeLibPath) &&
		fileExists(config.DetModelPath) &&
		fileExists(config.RecModelPath) &&
		fileExists(config.DictPath)
}
