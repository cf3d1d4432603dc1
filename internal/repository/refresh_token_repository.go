package repository

import (
	"context"
	"errors"
	"time"

	"kakeibo/internal/domain/model"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// リフレッシュトークンの保存・取得・失効・削除
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error

	//token_hashで1件検索。見つからなければ ErrRefreshTokenNotFound。
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)

	//未失効のときだけ失効させる「条件付きUPDATE」。
	//戻り値は「この呼び出しで失効できたか」。falseなら別リクエストに先を越されている。
	RevokeByID(ctx context.Context, tokenID string, reason model.RevokedReason, revokedAt time.Time) (bool, error)

	//ユーザーの有効なトークンを全部失効する。既に失効済みの行は対象外（冪等）。
	RevokeAllByUserID(ctx context.Context, userID int64, reason model.RevokedReason, revokedAt time.Time) (int64, error)

	//last_used_atを更新する（ローテーション成功時）。
	MarkLastUsed(ctx context.Context, tokenID string, usedAt time.Time) error

	//ユーザーの有効（未失効かつ期限内）なトークン数。
	CountActiveByUserID(ctx context.Context, userID int64, now time.Time) (int64, error)

	//ユーザーの有効なトークンをcreated_atの古い順で返す。
	FindActiveByUserID(ctx context.Context, userID int64, now time.Time) ([]model.RefreshToken, error)

	//ユーザーの「期限切れかつ失効済み」行を物理削除する（発行前の掃除用）。
	//失効済みでも期限内の行は再利用検知の材料になるので消さない。
	DeleteExpiredRevokedByUserID(ctx context.Context, userID int64, now time.Time) (int64, error)

	//期限切れかつ失効済みの行を全ユーザー分まとめて削除する（定期掃除用）。
	DeleteExpiredRevoked(ctx context.Context, now time.Time) (int64, error)
}
