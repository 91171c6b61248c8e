package display

// ScalingType 模板缩放模式
type ScalingType string

const (
	// ScalingDPR 按设备像素比缩放（源 DPR → 目标 DPR）
	ScalingDPR ScalingType = "dpr"
	// ScalingResolution 按分辨率逐轴缩放（源分辨率 → 目标分辨率）
	ScalingResolution ScalingType = "resolution"
)

// Resolution 分辨率（逻辑尺寸）
type Resolution struct {
	W int `json:"w"`
	H int `json:"h"`
}

// ScalingConfig 模板采集时的显示配置
// 描述模板录制环境，与目标显示器对比后得出缩放因子
type ScalingConfig struct {
	// Type 缩放模式
	Type ScalingType `json:"type"`
	// SourceDPR 采集时的设备像素比
	SourceDPR float64 `json:"source_dpr,omitempty"`
	// SourceResolution 采集时的屏幕分辨率，可缺省
	SourceResolution *Resolution `json:"source_resolution,omitempty"`
}

// ResolveScale 计算源采集配置到目标显示器的轴向缩放因子
//
// dpr 模式: 源与目标 DPR 均有效时 ratio = target/source，两轴同值。
// resolution 模式: 源分辨率有效时逐轴计算 target/source，支持非等比。
// 校准数据缺失时返回 (1.0, 1.0)，检测按未缩放模板继续，不报错。
func ResolveScale(cfg ScalingConfig, target MonitorDescriptor) (scaleX, scaleY float64) {
	switch cfg.Type {
	case ScalingDPR:
		if cfg.SourceDPR > 0 && target.DPR > 0 {
			ratio := target.DPR / cfg.SourceDPR
			return ratio, ratio
		}
	case ScalingResolution:
		if cfg.SourceResolution != nil && cfg.SourceResolution.W > 0 && cfg.SourceResolution.H > 0 {
			return float64(target.W) / float64(cfg.SourceResolution.W),
				float64(target.H) / float64(cfg.SourceResolution.H)
		}
	}
	return 1.0, 1.0
}
