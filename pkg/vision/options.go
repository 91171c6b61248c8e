package vision

// Options 全局配置选项
type Options struct {
	// CV 配置
	CVThreshold float64 // 匹配阈值，默认 0.8
	CVOverlap   float64 // 多结果去重的重叠率阈值，默认 0.5
	CVRGB       bool    // 是否进行 RGB 三通道置信度校验

	// OCR 配置
	OCRLanguage string // OCR 语言标签，默认 "zh-CN"
	OCREngine   string // OCR 引擎 (paddle, tesseract)
	OCRMode     string // 预处理模式 (clean, raw)

	// 路径配置
	CurrentPath string // 相对路径模板的解析根目录
}

// DefaultOptions 默认配置
var DefaultOptions = Options{
	// CV 默认配置
	CVThreshold: 0.8,
	CVOverlap:   0.5,
	CVRGB:       false,

	// OCR 默认配置
	OCRLanguage: "zh-CN",
	OCREngine:   "paddle",
	OCRMode:     "clean",

	// 路径配置
	CurrentPath: "",
}

// globalOptions 全局配置实例
var globalOptions = DefaultOptions

// GetOptions 获取当前全局配置
func GetOptions() *Options {
	return &globalOptions
}

// SetOptions 设置全局配置
func SetOptions(opts Options) {
	globalOptions = opts
	applyOptions()
}

// ResetOptions 重置为默认配置
func ResetOptions() {
	globalOptions = DefaultOptions
	applyOptions()
}

// Option 配置选项函数类型
type Option func(*matchConfig)

// matchConfig 匹配时的临时配置
type matchConfig struct {
	threshold float64
	overlap   float64
	rgb       bool
	scaleX    float64
	scaleY    float64
}

// defaultMatchConfig 默认匹配配置
func defaultMatchConfig() *matchConfig {
	return &matchConfig{
		threshold: globalOptions.CVThreshold,
		overlap:   globalOptions.CVOverlap,
		rgb:       globalOptions.CVRGB,
		scaleX:    1.0,
		scaleY:    1.0,
	}
}

// WithThreshold 设置匹配阈值
func WithThreshold(threshold float64) Option {
	return func(c *matchConfig) {
		c.threshold = threshold
	}
}

// WithOverlap 设置多结果去重的重叠率阈值
func WithOverlap(overlap float64) Option {
	return func(c *matchConfig) {
		c.overlap = overlap
	}
}

// WithRGB 设置是否进行 RGB 三通道校验
func WithRGB(rgb bool) Option {
	return func(c *matchConfig) {
		c.rgb = rgb
	}
}

// WithScale 设置匹配前模板的缩放因子
func WithScale(sx, sy float64) Option {
	return func(c *matchConfig) {
		c.scaleX = sx
		c.scaleY = sy
	}
}
