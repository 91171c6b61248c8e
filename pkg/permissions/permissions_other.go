//go:build !darwin

// Package permissions 提供系统权限检查功能
package permissions

// PermissionStatus 权限状态
type PermissionStatus struct {
	ScreenRecording bool `json:"screen_recording"`
}

// CheckPermissions 检查所需权限
// 非 macOS 系统截屏不需要特殊权限
func CheckPermissions() *PermissionStatus {
	return &PermissionStatus{ScreenRecording: true}
}

// OpenScreenRecordingSettings 打开屏幕录制设置页面
func OpenScreenRecordingSettings() {}

// GetPermissionInstructions 获取权限说明
func GetPermissionInstructions(status *PermissionStatus) string {
	return ""
}

// EnsurePermissions 确保权限已授予
func EnsurePermissions() (bool, string) {
	return true, ""
}

// ResetPermissions 重置权限状态
func ResetPermissions() error {
	return nil
}
