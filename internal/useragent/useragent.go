package useragent

import (
	"strings"

	"kakeibo/internal/domain/model"
)

// Parse はUser-Agent文字列からおおまかな端末情報を作る。
// あくまで表示用（セッション一覧で「どの端末か」を見せる）なので、
// 判定が外れても "unknown" になるだけで動作には影響しない。
func Parse(ua string) model.DeviceInfo {
	info := model.DeviceInfo{
		Device:    "unknown",
		OS:        "unknown",
		Browser:   "unknown",
		UserAgent: ua,
	}

	if ua == "" {
		return info
	}

	lower := strings.ToLower(ua)

	//OS判定
	switch {
	case strings.Contains(lower, "windows"):
		info.OS = "Windows"
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"):
		info.OS = "iOS"
	case strings.Contains(lower, "mac os x"), strings.Contains(lower, "macintosh"):
		info.OS = "macOS"
	case strings.Contains(lower, "android"):
		info.OS = "Android"
	case strings.Contains(lower, "linux"):
		info.OS = "Linux"
	}

	//端末種別判定
	switch {
	case strings.Contains(lower, "ipad"), strings.Contains(lower, "tablet"):
		info.Device = "tablet"
	case strings.Contains(lower, "mobile"), strings.Contains(lower, "iphone"), strings.Contains(lower, "android"):
		info.Device = "mobile"
	default:
		info.Device = "desktop"
	}

	//ブラウザ判定（EdgeはChromeを名乗るので先に見る）
	switch {
	case strings.Contains(lower, "edg/"), strings.Contains(lower, "edge"):
		info.Browser = "Edge"
	case strings.Contains(lower, "opr/"), strings.Contains(lower, "opera"):
		info.Browser = "Opera"
	case strings.Contains(lower, "chrome"):
		info.Browser = "Chrome"
	case strings.Contains(lower, "firefox"):
		info.Browser = "Firefox"
	case strings.Contains(lower, "safari"):
		info.Browser = "Safari"
	}

	return info
}
