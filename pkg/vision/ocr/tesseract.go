package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/sightai/sightworker/internal/logger"
)

// TesseractEngine 基于 Tesseract 的识别引擎
// gosseract 客户端非并发安全，每次识别新建一个
type TesseractEngine struct{}

// NewTesseractEngine 创建 Tesseract 引擎
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

// RecognizeLines 识别图像中的文字行
func (e *TesseractEngine) RecognizeLines(img image.Image, lang string) ([]string, error) {
	startTime := time.Now()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码识别图像失败: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if lang != "" {
		if err := client.SetLanguage(TesseractLang(lang)); err != nil {
			return nil, fmt.Errorf("设置识别语言失败: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("加载识别图像失败: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		elapsed := float64(time.Since(startTime).Milliseconds())
		logger.LogEvent("OCR", false, elapsed, "Tesseract 识别失败")
		return nil, fmt.Errorf("Tesseract 识别失败: %w", err)
	}

	lines := splitLines(text)
	elapsed := float64(time.Since(startTime).Milliseconds())
	logger.LogEvent("OCR", true, elapsed, fmt.Sprintf("识别到 %d 行文本", len(lines)))
	return lines, nil
}

// Close 实现 Engine 接口，客户端按调用创建，这里无资源可释放
func (e *TesseractEngine) Close() error {
	return nil
}

// TesseractLang 将 BCP-47 语言标签映射为 Tesseract 语言名
// 未知标签原样小写透传
func TesseractLang(tag string) string {
	lower := strings.ToLower(tag)
	switch {
	case strings.HasPrefix(lower, "en"):
		return "eng"
	case strings.HasPrefix(lower, "zh"), strings.HasPrefix(lower, "ch"):
		return "chi_sim"
	case strings.HasPrefix(lower, "ja"):
		return "jpn"
	case strings.HasPrefix(lower, "ko"):
		return "kor"
	case strings.HasPrefix(lower, "de"):
		return "deu"
	case strings.HasPrefix(lower, "fr"):
		return "fra"
	case strings.HasPrefix(lower, "es"):
		return "spa"
	case strings.HasPrefix(lower, "ru"):
		return "rus"
	}
	return lower
}

// splitLines 将识别文本拆分为非空行
func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
