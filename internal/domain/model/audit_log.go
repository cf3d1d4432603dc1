package model

import "time"

// セキュリティ監査で残す操作の種類。
type AuditAction string

const (
	//使用済みリフレッシュトークンの再提示を検知した。
	AuditActionTokenReuseDetected AuditAction = "TOKEN_REUSE_DETECTED"

	//本人操作で全セッションを失効した。
	AuditActionLogoutAll AuditAction = "LOGOUT_ALL"

	//セッション上限で最古のセッションを失効した。
	AuditActionSessionEvicted AuditAction = "SESSION_EVICTED"
)

// セキュリティ監査ログ。
// 「どのユーザーに」「何が起きたか」「どの端末・IPからか」を残す。
// 再利用検知はクライアントには汎用エラーしか返さないので、詳細はここにだけ残る。
type AuditLog struct {
	//IDは監査ログの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//対象ユーザーのID。
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//Actionは事象の種類（TOKEN_REUSE_DETECTED など）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//事象を起こしたリクエストのIP。
	IPAddress string `gorm:"type:varchar(64)" json:"ip_address"`

	//事象を起こしたリクエストのUser-Agent。
	UserAgent string `json:"user_agent"`

	//JSON文字列で保存する。
	DetailJSON string `gorm:"type:text" json:"detail_json"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
