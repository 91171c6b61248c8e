// Package config 提供检测方案的 JSON 持久化
//
// 一个方案 (Profile) 记录一次可重复执行的检测所需的全部参数:
// 模板路径、目标显示器、匹配参数、锚点配置、取词区域与 OCR 选项。
// 方案按名称存储为 ~/.sightworker/profiles/<name>.json。
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sightai/sightworker/pkg/detect"
	"github.com/sightai/sightworker/pkg/display"
	"github.com/sightai/sightworker/pkg/geometry"
)

// Profile 检测方案
type Profile struct {
	// Name 方案名称，同时是存储文件名
	Name string `json:"name"`

	// TemplatePath 主模板图片路径
	TemplatePath string `json:"template_path,omitempty"`
	// Monitor 目标显示器下标
	Monitor int `json:"monitor"`
	// Confidence 匹配置信度阈值
	Confidence float64 `json:"confidence"`
	// Grayscale 是否跳过 RGB 置信度校验
	Grayscale bool `json:"grayscale"`
	// OverlapThreshold 多结果去重的重叠率阈值
	OverlapThreshold float64 `json:"overlap_threshold"`
	// SearchRegion 搜索区域（屏幕本地逻辑坐标），缺省为全屏
	SearchRegion *geometry.Rect `json:"search_region,omitempty"`
	// Scaling 模板采集环境，用于跨 DPI 匹配
	Scaling display.ScalingConfig `json:"scaling,omitempty"`

	// AnchorPath 锚点模板图片路径，配合 AnchorConfig 启用锚点检测
	AnchorPath string `json:"anchor_path,omitempty"`
	// AnchorConfig 锚点相对区域配置
	AnchorConfig detect.AnchorConfig `json:"anchor_config,omitempty"`

	// TextRect 取词基准区域
	TextRect *geometry.Rect `json:"text_rect,omitempty"`
	// TextOffsets 取词区域四边微调
	TextOffsets detect.EdgeOffsets `json:"text_offsets,omitempty"`

	// OCR 配置
	OCRLang   string `json:"ocr_lang,omitempty"`
	OCREngine string `json:"ocr_engine,omitempty"`
	OCRMode   string `json:"ocr_mode,omitempty"`
}

// DefaultProfile 默认方案
func DefaultProfile() *Profile {
	return &Profile{
		Monitor:          0,
		Confidence:       0.8,
		OverlapThreshold: 0.5,
		OCRLang:          "zh-CN",
		OCREngine:        "paddle",
		OCRMode:          "clean",
	}
}

// Manager 方案管理器
type Manager struct {
	profileDir string
	mu         sync.RWMutex
}

// NewManager 创建方案管理器，存储目录为 ~/.sightworker/profiles
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Manager{
		profileDir: filepath.Join(homeDir, ".sightworker", "profiles"),
	}
}

// NewManagerWithDir 使用指定目录创建方案管理器
func NewManagerWithDir(profileDir string) *Manager {
	return &Manager{profileDir: profileDir}
}

// ensureDir 确保存储目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.profileDir, 0755)
}

// profileFile 方案名称到存储文件路径
func (m *Manager) profileFile(name string) string {
	return filepath.Join(m.profileDir, name+".json")
}

// validateName 校验方案名称，禁止路径穿越
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("方案名称为空")
	}
	if name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("非法的方案名称: %s", name)
	}
	return nil
}

// Load 按名称加载方案
func (m *Manager) Load(name string) (*Profile, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.profileFile(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("方案不存在: %s", name)
		}
		return nil, fmt.Errorf("读取方案文件失败: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("解析方案文件失败: %w", err)
	}
	profile.Name = name

	return &profile, nil
}

// Save 保存方案，以 Name 为文件名
func (m *Manager) Save(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("方案为空")
	}
	if err := validateName(profile.Name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建方案目录失败: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化方案失败: %w", err)
	}

	if err := os.WriteFile(m.profileFile(profile.Name), data, 0600); err != nil {
		return fmt.Errorf("写入方案文件失败: %w", err)
	}

	return nil
}

// List 列出全部方案名称（字典序）
func (m *Manager) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files, err := filepath.Glob(filepath.Join(m.profileDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("枚举方案失败: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(filepath.Base(f), ".json"))
	}
	return names, nil
}

// Delete 按名称删除方案，方案不存在时静默成功
func (m *Manager) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := os.Remove(m.profileFile(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除方案失败: %w", err)
	}
	return nil
}

// Exists 检查方案是否存在
func (m *Manager) Exists(name string) bool {
	if validateName(name) != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.profileFile(name))
	return err == nil
}

// GetProfileDir 获取方案存储目录
func (m *Manager) GetProfileDir() string {
	return m.profileDir
}

// 全局方案管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认方案管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载方案
func Load(name string) (*Profile, error) {
	return defaultManager.Load(name)
}

// Save 使用默认管理器保存方案
func Save(profile *Profile) error {
	return defaultManager.Save(profile)
}

// List 使用默认管理器列出方案
func List() ([]string, error) {
	return defaultManager.List()
}

// Delete 使用默认管理器删除方案
func Delete(name string) error {
	return defaultManager.Delete(name)
}
