package repository

import (
	"context"
	"errors"
	"time"

	"kakeibo/internal/domain/model"
	repo "kakeibo/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewRefreshTokenGormRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

// リフレッシュトークンを保存する。
func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	//タイムアウトやキャンセルをDB処理に伝える
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return err
	}
	return nil
}

// token_hashで1件検索します。
func (r *refreshTokenGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&token).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshTokenNotFound
		}
		return nil, err
	}

	return &token, nil
}

// 未失効のときだけ失効させる。
// 「読んでから書く」だと同じトークンの同時refreshが両方成功してしまうので、
// revoked = false を条件に入れた1本のUPDATEで判定と書き込みを同時に行う。
// RowsAffected == 0 なら別リクエストが先に失効させている。
func (r *refreshTokenGormRepository) RevokeByID(ctx context.Context, tokenID string, reason model.RevokedReason, revokedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ? AND revoked = ?", tokenID, false).
		Updates(map[string]interface{}{
			"revoked":        true,
			"revoked_at":     &revokedAt,
			"revoked_reason": reason,
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ユーザーの未失効トークンを全部失効する。失効済みの行は触らない（冪等）。
func (r *refreshTokenGormRepository) RevokeAllByUserID(ctx context.Context, userID int64, reason model.RevokedReason, revokedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]interface{}{
			"revoked":        true,
			"revoked_at":     &revokedAt,
			"revoked_reason": reason,
		})

	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// last_used_at をセットする。
func (r *refreshTokenGormRepository) MarkLastUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ?", tokenID).
		Update("last_used_at", &usedAt)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrRefreshTokenNotFound
	}

	return nil
}

// ユーザーの有効なトークン数を数える。
func (r *refreshTokenGormRepository) CountActiveByUserID(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Count(&count).Error

	if err != nil {
		return 0, err
	}

	return count, nil
}

// ユーザーの有効なトークンを古い順で返す（上限超過時の追い出し・一覧用）。
func (r *refreshTokenGormRepository) FindActiveByUserID(ctx context.Context, userID int64, now time.Time) ([]model.RefreshToken, error) {
	var tokens []model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Order("created_at ASC").
		Find(&tokens).Error

	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// ユーザーの「期限切れかつ失効済み」の行を削除する。
// 失効済みでも期限内の行は再利用検知の材料なので残す。
func (r *refreshTokenGormRepository) DeleteExpiredRevokedByUserID(ctx context.Context, userID int64, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at <= ?", userID, true, now).
		Delete(&model.RefreshToken{})

	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// 期限切れかつ失効済みの行を全ユーザー分削除する（定期掃除）。
// 期限切れでも未失効の行は再利用検知の材料になるので残す。
func (r *refreshTokenGormRepository) DeleteExpiredRevoked(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("revoked = ? AND expires_at <= ?", true, now).
		Delete(&model.RefreshToken{})

	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
