package ocr

import (
	"fmt"
	"image"
)

// Engine 文字识别引擎
type Engine interface {
	// RecognizeLines 识别图像中的文字行，按阅读顺序返回
	RecognizeLines(img image.Image, lang string) ([]string, error)
	// Close 释放引擎资源
	Close() error
}

// EngineKind 引擎类型
type EngineKind string

const (
	// EnginePaddle PaddleOCR 引擎（onnxruntime 推理）
	EnginePaddle EngineKind = "paddle"
	// EngineTesseract Tesseract 引擎
	EngineTesseract EngineKind = "tesseract"
)

// Mode 预处理模式
type Mode string

const (
	// ModeClean 识别前将图像标准化为白底黑字的高对比度图像
	ModeClean Mode = "clean"
	// ModeRaw 直接识别原图
	ModeRaw Mode = "raw"
)

// Reader 组合预处理与识别引擎，按行读取图像中的文字
type Reader struct {
	engine Engine
	mode   Mode
}

// NewReader 按引擎类型创建 Reader
// kind 为空时默认使用 PaddleOCR
func NewReader(kind EngineKind, mode Mode) (*Reader, error) {
	var engine Engine
	switch kind {
	case EngineTesseract:
		engine = NewTesseractEngine()
	case EnginePaddle, "":
		recognizer, err := GetGlobalRecognizer()
		if err != nil {
			return nil, err
		}
		engine = recognizer
	default:
		return nil, fmt.Errorf("未知的 OCR 引擎: %s", kind)
	}
	return &Reader{engine: engine, mode: mode}, nil
}

// NewReaderWith 使用现成引擎创建 Reader
func NewReaderWith(engine Engine, mode Mode) *Reader {
	return &Reader{engine: engine, mode: mode}
}

// ReadLines 识别图像中的文字行
func (r *Reader) ReadLines(img image.Image, lang string) ([]string, error) {
	in := img
	if r.mode != ModeRaw {
		processed, err := Preprocess(img)
		if err != nil {
			return nil, fmt.Errorf("图像预处理失败: %w", err)
		}
		in = processed
	}
	return r.engine.RecognizeLines(in, lang)
}
