// Package cv 提供图像匹配功能
//
// 基于归一化相关系数 (TM_CCOEFF_NORMED) 的模板匹配，支持:
//   - 单结果 / 多结果查找，多结果按重叠率去重
//   - 匹配前按 (sx, sy) 缩放模板，适配不同 DPI 的屏幕截图
//   - 可选的 RGB 三通道置信度校验
//
// 基本用法:
//
//	// 在屏幕截图中查找模板
//	pos, err := cv.FindLocation("screen.png", "template.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("找到位置: (%d, %d)\n", pos.X, pos.Y)
//
//	// 使用自定义选项
//	results, err := cv.FindAllLocations("screen.png", "template.png",
//	    cv.WithTemplateThreshold(0.9),
//	    cv.WithTemplateOverlap(0.5),
//	    cv.WithTemplateRGB(true),
//	)
package cv
