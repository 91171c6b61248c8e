package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sightai/sightworker/internal/logger"
	"github.com/sightai/sightworker/pkg/config"
	"github.com/sightai/sightworker/pkg/detect"
	"github.com/sightai/sightworker/pkg/diag"
	"github.com/sightai/sightworker/pkg/display"
	"github.com/sightai/sightworker/pkg/geometry"
	"github.com/sightai/sightworker/pkg/permissions"
	"github.com/sightai/sightworker/pkg/plugin"
	"github.com/sightai/sightworker/pkg/screen"
	"github.com/sightai/sightworker/pkg/vision"
	"github.com/sightai/sightworker/pkg/vision/ocr"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 命令行参数
	var (
		mode        = flag.String("mode", "detect", "运行模式 (detect, capture-text, batch, monitors, doctor, install-ocr)")
		profileName = flag.String("profile", "", "方案名称")
		saveProfile = flag.Bool("save", false, "将本次参数保存为方案 (需配合 -profile)")

		templatePath = flag.String("template", "", "模板图片路径")
		monitor      = flag.Int("monitor", 0, "目标显示器下标")
		confidence   = flag.Float64("confidence", 0.8, "匹配置信度阈值 (0-1)")
		grayscale    = flag.Bool("grayscale", false, "仅灰度匹配，跳过 RGB 校验")
		overlap      = flag.Float64("overlap", 0.5, "多结果去重的重叠率阈值 (0-1)")
		region       = flag.String("region", "", "搜索区域 x,y,w,h (屏幕局部逻辑坐标)")
		scaling      = flag.String("scaling", "", "模板缩放模式 (dpr, resolution)")
		sourceDPR    = flag.Float64("source-dpr", 0, "模板采集时的设备像素比")
		sourceRes    = flag.String("source-resolution", "", "模板采集时的屏幕分辨率 WxH")

		anchorPath   = flag.String("anchor", "", "锚点模板图片路径")
		anchorRegion = flag.String("anchor-region", "", "锚点相对区域 ox,oy,w,h")
		anchorMargin = flag.String("anchor-margin", "", "锚点区域对称扩张 mx,my")

		textRect    = flag.String("text-rect", "", "取词基准区域 x,y,w,h")
		textOffsets = flag.String("text-offsets", "", "取词区域四边微调 top,bottom,left,right")
		lang        = flag.String("lang", "", "OCR 识别语言 (如 zh-CN)")
		ocrEngine   = flag.String("ocr-engine", "", "OCR 引擎 (paddle, tesseract)")
		ocrMode     = flag.String("ocr-mode", "", "OCR 预处理模式 (clean, raw)")

		preview     = flag.String("preview", "", "截取区域预览 PNG 输出路径")
		debugDir    = flag.String("debug-dir", "", "标注截图输出目录")
		logLevel    = flag.String("log-level", "", "日志级别 (DEBUG, INFO, WARN, ERROR)")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}
	if *showHelp {
		printHelp()
		return
	}
	if *logLevel != "" {
		logger.Default().SetLevel(logger.ParseLevel(*logLevel))
	}

	// macOS 截屏权限检查
	if runtime.GOOS == "darwin" {
		if ok, instructions := permissions.EnsurePermissions(); !ok {
			fmt.Println("[WARN] " + instructions)
		}
	}

	// 默认值 <- 方案文件 <- 命令行参数，右侧优先
	profile := config.DefaultProfile()
	if *profileName != "" {
		loaded, err := config.Load(*profileName)
		if err == nil {
			profile = loaded
		} else if !*saveProfile {
			fmt.Printf("[ERROR] 加载方案失败: %v\n", err)
			os.Exit(1)
		}
		profile.Name = *profileName
	}

	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		if flagErr != nil {
			return
		}
		switch f.Name {
		case "template":
			profile.TemplatePath = *templatePath
		case "monitor":
			profile.Monitor = *monitor
		case "confidence":
			profile.Confidence = *confidence
		case "grayscale":
			profile.Grayscale = *grayscale
		case "overlap":
			profile.OverlapThreshold = *overlap
		case "region":
			profile.SearchRegion, flagErr = parseRect(*region)
		case "scaling":
			profile.Scaling.Type = display.ScalingType(*scaling)
		case "source-dpr":
			profile.Scaling.SourceDPR = *sourceDPR
		case "source-resolution":
			profile.Scaling.SourceResolution, flagErr = parseResolution(*sourceRes)
		case "anchor":
			profile.AnchorPath = *anchorPath
		case "anchor-region":
			var vals []int
			if vals, flagErr = parseInts(*anchorRegion, 4); flagErr == nil {
				profile.AnchorConfig.OffsetX = vals[0]
				profile.AnchorConfig.OffsetY = vals[1]
				profile.AnchorConfig.W = vals[2]
				profile.AnchorConfig.H = vals[3]
			}
		case "anchor-margin":
			var vals []int
			if vals, flagErr = parseInts(*anchorMargin, 2); flagErr == nil {
				profile.AnchorConfig.MarginX = vals[0]
				profile.AnchorConfig.MarginY = vals[1]
			}
		case "text-rect":
			profile.TextRect, flagErr = parseRect(*textRect)
		case "text-offsets":
			var vals []int
			if vals, flagErr = parseInts(*textOffsets, 4); flagErr == nil {
				profile.TextOffsets = detect.EdgeOffsets{
					Top: vals[0], Bottom: vals[1], Left: vals[2], Right: vals[3],
				}
			}
		case "lang":
			profile.OCRLang = *lang
		case "ocr-engine":
			profile.OCREngine = *ocrEngine
		case "ocr-mode":
			profile.OCRMode = *ocrMode
		}
	})
	if flagErr != nil {
		fmt.Printf("[ERROR] 参数解析失败: %v\n", flagErr)
		os.Exit(1)
	}

	if *saveProfile {
		if profile.Name == "" {
			fmt.Println("[ERROR] 保存方案需要 -profile 指定名称")
			os.Exit(1)
		}
		if err := config.Save(profile); err != nil {
			fmt.Printf("[WARN] 保存方案失败: %v\n", err)
		} else {
			fmt.Printf("[INFO] 方案已保存: %s\n",
				filepath.Join(config.GetDefaultManager().GetProfileDir(), profile.Name+".json"))
		}
	}

	switch *mode {
	case "detect":
		runDetect(profile, *debugDir)
	case "capture-text":
		runCaptureText(profile, *preview)
	case "batch":
		runBatch()
	case "monitors":
		runMonitors()
	case "doctor":
		runDoctor()
	case "install-ocr":
		runInstallOCR()
	default:
		fmt.Printf("[ERROR] 未知模式: %s\n", *mode)
		printHelp()
		os.Exit(1)
	}
}

// newCollaborators 组装检测管线的外部协作者
// 每个请求由 Bind 新建会话，请求之间不共享状态
func newCollaborators(reader detect.TextReader) detect.Collaborators {
	return detect.Collaborators{
		Provider: display.NewSystemProvider(),
		Bind: func(m display.MonitorDescriptor) (detect.Locator, detect.Capturer) {
			s := screen.NewSession(m)
			return s, s
		},
		Reader: reader,
	}
}

// buildSearchRequest 把方案字段映射为检测请求
func buildSearchRequest(profile *config.Profile) detect.SearchRequest {
	req := detect.SearchRequest{
		Template:   profile.TemplatePath,
		Monitor:    profile.Monitor,
		Confidence: profile.Confidence,
		Grayscale:  profile.Grayscale,
		Overlap:    profile.OverlapThreshold,
		Region:     profile.SearchRegion,
		Scaling:    profile.Scaling,
	}
	if profile.AnchorPath != "" {
		req.Anchor = profile.AnchorPath
		req.AnchorConfig = profile.AnchorConfig
	}
	return req
}

// runDetect 执行模板检测并输出结果 JSON
func runDetect(profile *config.Profile, debugDir string) {
	if profile.TemplatePath == "" {
		fmt.Println("[ERROR] 缺少模板图片，请使用 -template 指定")
		os.Exit(1)
	}

	req := buildSearchRequest(profile)
	runner := detect.NewRunner(newCollaborators(nil))
	start := time.Now()
	result := <-runner.RunDetection(req)
	elapsed := time.Since(start)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("[ERROR] 序列化结果失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	fmt.Printf("[INFO] 检测完成: %d 个匹配, 耗时 %v\n", result.Count, elapsed.Round(time.Millisecond))

	if debugDir != "" {
		if err := writeDebugSnapshot(debugDir, profile.Monitor, result); err != nil {
			fmt.Printf("[WARN] 保存标注截图失败: %v\n", err)
		}
	}
}

// runCaptureText 执行区域截取与文字识别
func runCaptureText(profile *config.Profile, previewPath string) {
	if profile.TextRect == nil {
		fmt.Println("[ERROR] 缺少取词区域，请使用 -text-rect 指定")
		os.Exit(1)
	}

	req := detect.RegionCaptureRequest{
		Monitor:    profile.Monitor,
		Base:       profile.TextRect,
		Offsets:    profile.TextOffsets,
		Lang:       profile.OCRLang,
		Confidence: profile.Confidence,
		Grayscale:  profile.Grayscale,
		Overlap:    profile.OverlapThreshold,
		Region:     profile.SearchRegion,
		Scaling:    profile.Scaling,
	}
	if profile.AnchorPath != "" {
		req.Anchor = profile.AnchorPath
		req.AnchorConfig = profile.AnchorConfig
	}

	runner := detect.NewRunner(newCollaborators(newTextReader(profile)))
	result := <-runner.RunRegionCapture(req)

	if result.Failure != detect.FailureNone {
		fmt.Printf("[ERROR] 区域截取失败: %s\n", result.Failure)
		os.Exit(1)
	}

	fmt.Printf("[INFO] 截取区域: %s\n", result.Region)
	if result.Text != "" {
		fmt.Println(result.Text)
	}

	if previewPath != "" && result.Image != nil {
		if err := screen.SavePNG(result.Image, previewPath); err != nil {
			fmt.Printf("[WARN] 保存预览失败: %v\n", err)
		} else {
			fmt.Printf("[INFO] 预览图: %s\n", previewPath)
		}
	}
}

// runBatch 并发执行全部已保存的检测方案
// 先发起所有请求再统一收集，方案之间互不影响
func runBatch() {
	names, err := config.List()
	if err != nil {
		fmt.Printf("[ERROR] 读取方案列表失败: %v\n", err)
		os.Exit(1)
	}

	runner := detect.NewRunner(newCollaborators(nil))
	channels := make([]<-chan detect.DetectionResult, 0, len(names))
	launched := make([]string, 0, len(names))
	for _, name := range names {
		p, err := config.Load(name)
		if err != nil {
			fmt.Printf("[WARN] 跳过方案 %s: %v\n", name, err)
			continue
		}
		if p.TemplatePath == "" {
			continue
		}
		channels = append(channels, runner.RunDetection(buildSearchRequest(p)))
		launched = append(launched, name)
	}
	if len(launched) == 0 {
		fmt.Println("[INFO] 没有可执行的检测方案")
		return
	}

	start := time.Now()
	for i, ch := range channels {
		result := <-ch
		fmt.Printf("[INFO] %s: %d 个匹配", launched[i], result.Count)
		for _, r := range result.Matches {
			fmt.Printf(" %s", r)
		}
		fmt.Println()
	}
	fmt.Printf("[INFO] 批量检测完成: %d 个方案, 耗时 %v\n", len(launched), time.Since(start).Round(time.Millisecond))
}

// runMonitors 打印显示器快照
func runMonitors() {
	monitors, err := display.Snapshot(display.NewSystemProvider())
	if err != nil {
		fmt.Printf("[ERROR] 枚举显示器失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("显示器 (%d 个):\n", len(monitors))
	for _, m := range monitors {
		fmt.Printf("  [%d] 原点 (%d, %d), 尺寸 %dx%d, DPR %.2f\n",
			m.Index, m.X, m.Y, m.W, m.H, m.DPR)
	}
	fmt.Printf("虚拟桌面: %s\n", display.VirtualBounds(monitors))
}

// runDoctor 打印环境诊断报告
func runDoctor() {
	fmt.Printf("SightWorker v%s 环境诊断\n\n", Version)
	report := diag.Collect(display.NewSystemProvider())
	fmt.Print(report.Render())
}

// runInstallOCR 下载安装 PaddleOCR 模型
func runInstallOCR() {
	ocrPlugin := plugin.GetOCRPlugin()
	if ocrPlugin.IsInstalled() {
		fmt.Println("[INFO] OCR 模型已安装")
		return
	}

	fmt.Println("[INFO] 正在下载 OCR 模型...")
	ocrPlugin.SetProgressCallback(func(progress float64) {
		fmt.Printf("\r[INFO] 下载进度: %.1f%%", progress)
	})

	if err := ocrPlugin.Install(); err != nil {
		fmt.Println()
		fmt.Printf("[ERROR] 安装失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()
	fmt.Println("[INFO] OCR 模型安装完成")
}

// newTextReader 按方案构造文字识别器，引擎不可用时返回 nil（仅截图不识别）
func newTextReader(profile *config.Profile) detect.TextReader {
	// 插件安装的模型优先于默认搜索路径
	if ocrPlugin := plugin.GetOCRPlugin(); ocrPlugin.IsInstalled() {
		if cfg, err := ocrPlugin.GetConfig(); err == nil {
			if err := ocr.InitGlobalRecognizer(cfg); err != nil {
				fmt.Printf("[WARN] OCR 引擎初始化失败: %v\n", err)
			}
		}
	}

	reader, err := ocr.NewReader(ocr.EngineKind(profile.OCREngine), ocr.Mode(profile.OCRMode))
	if err != nil {
		fmt.Printf("[WARN] OCR 引擎不可用, 仅返回截图: %v\n", err)
		return nil
	}
	return reader
}

// writeDebugSnapshot 截取目标显示器全屏并将检测结果画回物理像素帧
func writeDebugSnapshot(dir string, monitorIdx int, result detect.DetectionResult) error {
	monitors, err := display.Snapshot(display.NewSystemProvider())
	if err != nil {
		return err
	}
	if monitorIdx < 0 || monitorIdx >= len(monitors) {
		return fmt.Errorf("显示器下标越界: %d", monitorIdx)
	}
	m := monitors[monitorIdx]

	session := screen.NewSession(m)
	full := geometry.NewRect(0, 0, m.W, m.H)
	img, err := session.CaptureRegion(full)
	if err != nil {
		return err
	}
	meta := screen.BuildCaptureMeta(full, img)

	// 扫描区域垫底，匹配最后绘制保证可见
	annotations := make([]vision.Annotation, 0,
		len(result.ScannedRegions)+len(result.Anchors)+len(result.Matches))
	for i, r := range result.ScannedRegions {
		annotations = append(annotations, vision.Annotation{
			Rect:  toImageRect(r, meta),
			Label: fmt.Sprintf("scan %d", i+1),
			Color: vision.ColorScanned,
		})
	}
	for i, r := range result.Anchors {
		annotations = append(annotations, vision.Annotation{
			Rect:  toImageRect(r, meta),
			Label: fmt.Sprintf("anchor %d", i+1),
			Color: vision.ColorAnchor,
		})
	}
	for i, r := range result.Matches {
		annotations = append(annotations, vision.Annotation{
			Rect:  toImageRect(r, meta),
			Label: fmt.Sprintf("match %d", i+1),
			Color: vision.ColorMatch,
		})
	}

	annotated := vision.Annotate(img, annotations)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("detect_%s.png", time.Now().Format("20060102_150405")))
	if err := screen.SavePNG(annotated, path); err != nil {
		return err
	}

	fmt.Printf("[INFO] 标注截图: %s\n", path)
	return nil
}

// toImageRect 将屏幕局部逻辑矩形换算到截图像素坐标
func toImageRect(r geometry.Rect, meta screen.CaptureMeta) image.Rectangle {
	p := screen.ProjectRect(r, meta)
	return image.Rect(p.X, p.Y, p.X+p.W, p.Y+p.H)
}

// parseInts 解析逗号分隔的整数串，个数必须为 n
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("期望 %d 个整数, 实际 %d 个: %s", n, len(parts), s)
	}

	vals := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("非法整数 %q: %w", p, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// parseRect 解析 "x,y,w,h" 形式的矩形
func parseRect(s string) (*geometry.Rect, error) {
	vals, err := parseInts(s, 4)
	if err != nil {
		return nil, err
	}
	r := geometry.NewRect(vals[0], vals[1], vals[2], vals[3])
	return &r, nil
}

// parseResolution 解析 "WxH" 形式的分辨率
func parseResolution(s string) (*display.Resolution, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return nil, fmt.Errorf("分辨率格式应为 WxH: %s", s)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("非法宽度 %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("非法高度 %q: %w", parts[1], err)
	}
	return &display.Resolution{W: w, H: h}, nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("SightWorker v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("SightWorker - 屏幕模板检测与取词工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  sightworker -mode <模式> [选项]")
	fmt.Println()
	fmt.Println("模式:")
	fmt.Println("  detect        模板检测，输出匹配结果 JSON")
	fmt.Println("  capture-text  区域截取并识别文字")
	fmt.Println("  batch         并发执行全部已保存的检测方案")
	fmt.Println("  monitors      打印显示器快照")
	fmt.Println("  doctor        环境诊断报告")
	fmt.Println("  install-ocr   下载安装 PaddleOCR 模型")
	fmt.Println()
	fmt.Println("常用选项:")
	fmt.Println("  -template string       模板图片路径")
	fmt.Println("  -monitor int           目标显示器下标 (默认 0)")
	fmt.Println("  -confidence float      匹配置信度阈值 (默认 0.8)")
	fmt.Println("  -overlap float         去重重叠率阈值 (默认 0.5)")
	fmt.Println("  -grayscale             仅灰度匹配")
	fmt.Println("  -region string         搜索区域 x,y,w,h")
	fmt.Println("  -scaling string        模板缩放模式 (dpr, resolution)")
	fmt.Println("  -source-dpr float      模板采集时的 DPR")
	fmt.Println("  -anchor string         锚点模板图片路径")
	fmt.Println("  -anchor-region string  锚点相对区域 ox,oy,w,h")
	fmt.Println("  -text-rect string      取词基准区域 x,y,w,h")
	fmt.Println("  -lang string           OCR 识别语言")
	fmt.Println("  -profile string        方案名称")
	fmt.Println("  -save                  保存本次参数为方案")
	fmt.Println("  -debug-dir string      标注截图输出目录")
	fmt.Println("  -version               显示版本信息")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 在主屏上检测模板")
	fmt.Println("  sightworker -mode detect -template button.png")
	fmt.Println()
	fmt.Println("  # 锚点定位后在派生区域内检测，并保存方案")
	fmt.Println("  sightworker -mode detect -template item.png -anchor logo.png \\")
	fmt.Println("      -anchor-region 10,10,100,50 -profile shop -save")
	fmt.Println()
	fmt.Println("  # 按已保存的方案取词")
	fmt.Println("  sightworker -mode capture-text -profile shop -text-rect 9,8,25,25")
	fmt.Println()
	fmt.Printf("方案目录: %s\n", config.GetDefaultManager().GetProfileDir())
}
