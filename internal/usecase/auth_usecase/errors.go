package auth

import "errors"

var (
	// 入力が不正
	ErrValidation = errors.New("validation error")

	// メールまたはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid credentials")

	// 停止済みユーザー
	ErrUserInactive = errors.New("user is inactive")

	// emailが既に使用済み
	ErrEmailAlreadyExists = errors.New("email already exists")

	// 認証情報がない・壊れている
	ErrUnauthorized = errors.New("unauthorized")

	// リフレッシュトークンが不正、またはDBに存在しない
	ErrInvalidRefresh = errors.New("invalid or unknown refresh token")

	// リフレッシュトークン自体が期限切れ（再ログインが必要）
	ErrRefreshExpired = errors.New("refresh token expired")

	// 使用済み・失効済みトークンの再提示を検知した。
	// 全セッション失効の副作用があるが、レスポンス上は汎用的な401にする。
	ErrReuseDetected = errors.New("refresh token reuse detected")
)
