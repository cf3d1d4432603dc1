package model

import "time"

// 失効理由。衛生目的（ROTATED / SESSION_CAP）とセキュリティ目的
// （REUSE_DETECTED）を監査ログで区別するために分けている。
type RevokedReason string

const (
	//ローテーションで新しいトークンに置き換えられた
	RevokedReasonRotated RevokedReason = "ROTATED"
	//単一セッションのログアウト
	RevokedReasonLogout RevokedReason = "LOGOUT"
	//全セッションのログアウト
	RevokedReasonLogoutAll RevokedReason = "LOGOUT_ALL"
	//使用済みトークンの再利用を検知した（ロックアウト）
	RevokedReasonReuseDetected RevokedReason = "REUSE_DETECTED"
	//同時セッション数の上限で最古のものを追い出した
	RevokedReasonSessionCap RevokedReason = "SESSION_CAP"
)

// 発行元クライアントの情報。作成時に1回だけ書き込む。
type DeviceInfo struct {
	Device     string `gorm:"type:varchar(32)" json:"device"`
	OS         string `gorm:"column:os;type:varchar(32)" json:"os"`
	Browser    string `gorm:"type:varchar(32)" json:"browser"`
	UserAgent  string `json:"user_agent"`
	RememberMe bool   `json:"remember_me"`
}

// リフレッシュトークン1件 = ログイン中のセッション1つ。
// TokenHashにはsha256ハッシュだけ保存する（平文は保存しない）。
type RefreshToken struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        int64         `gorm:"not null;index" json:"user_id"`
	TokenHash     string        `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt     time.Time     `gorm:"not null;index" json:"expires_at"`
	Revoked       bool          `gorm:"not null;default:false;index" json:"revoked"`
	RevokedAt     *time.Time    `json:"revoked_at"`
	RevokedReason RevokedReason `gorm:"type:varchar(32)" json:"revoked_reason"`
	DeviceInfo    DeviceInfo    `gorm:"embedded" json:"device_info"`
	IPAddress     string        `gorm:"type:varchar(64)" json:"ip_address"`
	CreatedAt     time.Time     `gorm:"not null;index" json:"created_at"`
	LastUsedAt    *time.Time    `json:"last_used_at"`
}

// 有効 = 未失効 かつ 期限内
func (rt *RefreshToken) IsActive(now time.Time) bool {
	return !rt.Revoked && rt.ExpiresAt.After(now)
}
