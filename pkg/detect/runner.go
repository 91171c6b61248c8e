package detect

import (
	"github.com/sightai/sightworker/internal/logger"
)

// Runner 异步请求分发器
//
// 每个请求启动一个工作协程，结果通过容量 1 的一次性通道交付，
// 发送后关闭。没有取消和超时: 请求运行至完成，底层原语挂起会
// 挂住对应的工作协程；调用方自行丢弃被新请求取代的过期结果。
type Runner struct {
	deps Collaborators
}

// NewRunner 创建分发器
func NewRunner(deps Collaborators) *Runner {
	return &Runner{deps: deps}
}

// RunDetection 异步执行检测请求
func (r *Runner) RunDetection(req SearchRequest) <-chan DetectionResult {
	ch := make(chan DetectionResult, 1)
	go func() {
		defer close(ch)
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("检测工作协程异常: %v", rec)
				ch <- emptyDetectionResult()
			}
		}()
		ch <- NewDetection(req, r.deps).Run()
	}()
	return ch
}

// RunRegionCapture 异步执行区域截取请求
func (r *Runner) RunRegionCapture(req RegionCaptureRequest) <-chan RegionCaptureResult {
	ch := make(chan RegionCaptureResult, 1)
	go func() {
		defer close(ch)
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("区域截取工作协程异常: %v", rec)
				ch <- RegionCaptureResult{Failure: FailureCaptureError}
			}
		}()
		ch <- NewRegionCapture(req, r.deps).Run()
	}()
	return ch
}
