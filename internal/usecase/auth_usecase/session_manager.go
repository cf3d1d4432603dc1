package auth

import (
	"context"
	"errors"
	"time"

	"kakeibo/internal/domain/model"
	"kakeibo/internal/repository"
)

// セッション一覧の1件。トークン値・ハッシュは絶対に含めない。
type SessionDTO struct {
	ID         string     `json:"id"`
	Device     string     `json:"device"`
	OS         string     `json:"os"`
	Browser    string     `json:"browser"`
	UserAgent  string     `json:"user_agent"`
	RememberMe bool       `json:"remember_me"`
	IPAddress  string     `json:"ip_address"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// SessionManagerは同時セッション数の上限と、セッションの一覧・失効を担当する。
type SessionManager struct {
	rtRepo      repository.RefreshTokenRepository
	auditRepo   repository.AuditLogRepository
	clock       Clock
	maxSessions int
}

func NewSessionManager(
	rtRepo repository.RefreshTokenRepository,
	auditRepo repository.AuditLogRepository,
	clock Clock,
	maxSessions int,
) *SessionManager {
	return &SessionManager{
		rtRepo:      rtRepo,
		auditRepo:   auditRepo,
		clock:       clock,
		maxSessions: maxSessions,
	}
}

// EnsureCapacity は新しいペアを発行する前に上限の空きを作る。
func (s *SessionManager) EnsureCapacity(ctx context.Context, userID int64) error {
	return s.ensureCapacityWith(ctx, s.rtRepo, userID)
}

// ensureCapacityWith はトランザクション内のrepoでも動くようにrepoを引数で受ける。
//
// 同一ユーザーの同時ログイン同士は直列化していないので、一瞬だけ上限を
// 超えることがある。上限はセキュリティ境界ではなく衛生目的の制限なので、
// 次の発行時に補正されれば良い（ここでロックは取らない）。
func (s *SessionManager) ensureCapacityWith(ctx context.Context, rtRepo repository.RefreshTokenRepository, userID int64) error {
	now := s.clock.Now()

	//「期限切れかつ失効済み」はもう再利用検知にも使わないので掃除する
	if _, err := rtRepo.DeleteExpiredRevokedByUserID(ctx, userID, now); err != nil {
		return err
	}

	count, err := rtRepo.CountActiveByUserID(ctx, userID, now)
	if err != nil {
		return err
	}

	if count < int64(s.maxSessions) {
		return nil
	}

	//これから1件増えるので、古い順に (count - max + 1) 件を失効する
	active, err := rtRepo.FindActiveByUserID(ctx, userID, now)
	if err != nil {
		return err
	}

	evict := int(count) - s.maxSessions + 1
	for idx := 0; idx < evict && idx < len(active); idx++ {
		ok, err := rtRepo.RevokeByID(ctx, active[idx].ID, model.RevokedReasonSessionCap, now)
		if err != nil {
			return err
		}
		if !ok {
			//別リクエストが先に失効させていた。結果は同じなので続行
			continue
		}

		//追い出しは監査ログに残す（失敗しても発行は止めない）
		_ = s.auditRepo.Create(ctx, model.AuditLog{
			UserID:    userID,
			Action:    model.AuditActionSessionEvicted,
			IPAddress: active[idx].IPAddress,
			UserAgent: active[idx].DeviceInfo.UserAgent,
			CreatedAt: now,
		})
	}

	return nil
}

// RevokeOne は1セッションだけ失効する（ログアウト）。
// 既に失効済み・存在しないトークンでもエラーにしない（冪等）。
func (s *SessionManager) RevokeOne(ctx context.Context, refreshTokenPlain string) error {
	if refreshTokenPlain == "" {
		return nil
	}

	rt, err := s.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil
		}
		return err
	}

	//既に失効済みならRowsAffected=0になるだけ。結果は同じ
	if _, err := s.rtRepo.RevokeByID(ctx, rt.ID, model.RevokedReasonLogout, s.clock.Now()); err != nil {
		return err
	}

	return nil
}

// RevokeAll はユーザーの全セッションを失効する。冪等。
func (s *SessionManager) RevokeAll(ctx context.Context, userID int64, reason model.RevokedReason) (int64, error) {
	return s.rtRepo.RevokeAllByUserID(ctx, userID, reason, s.clock.Now())
}

// LogoutAll は本人操作の全セッション失効。監査ログも残す。
func (s *SessionManager) LogoutAll(ctx context.Context, userID int64, ip string, userAgent string) (int64, error) {
	now := s.clock.Now()

	count, err := s.rtRepo.RevokeAllByUserID(ctx, userID, model.RevokedReasonLogoutAll, now)
	if err != nil {
		return 0, err
	}

	_ = s.auditRepo.Create(ctx, model.AuditLog{
		UserID:    userID,
		Action:    model.AuditActionLogoutAll,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
	})

	return count, nil
}

// ListActive はユーザーの有効なセッションを古い順で返す。
func (s *SessionManager) ListActive(ctx context.Context, userID int64) ([]SessionDTO, error) {
	tokens, err := s.rtRepo.FindActiveByUserID(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	sessions := make([]SessionDTO, 0, len(tokens))
	for _, rt := range tokens {
		sessions = append(sessions, SessionDTO{
			ID:         rt.ID,
			Device:     rt.DeviceInfo.Device,
			OS:         rt.DeviceInfo.OS,
			Browser:    rt.DeviceInfo.Browser,
			UserAgent:  rt.DeviceInfo.UserAgent,
			RememberMe: rt.DeviceInfo.RememberMe,
			IPAddress:  rt.IPAddress,
			CreatedAt:  rt.CreatedAt,
			LastUsedAt: rt.LastUsedAt,
			ExpiresAt:  rt.ExpiresAt,
		})
	}

	return sessions, nil
}

// CleanupExpired は期限切れかつ失効済みの行をまとめて削除する。
// いつ実行しても挙動に影響しない、ストレージ回収だけの処理。
func (s *SessionManager) CleanupExpired(ctx context.Context) (int64, error) {
	return s.rtRepo.DeleteExpiredRevoked(ctx, s.clock.Now())
}
