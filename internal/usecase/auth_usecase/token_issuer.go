package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"kakeibo/internal/domain/model"
	"kakeibo/internal/repository"
	"kakeibo/internal/token"
)

// JWTを署名・検証する約束（internal/tokenのSignerが満たす）
type TokenSigner interface {
	Sign(userID int64, kind token.Kind, ttl time.Duration, now time.Time) (string, time.Time, error)
	Verify(tokenStr string, kind token.Kind) (int64, error)
}

// handlerがJSONにして返すトークンペア。
// 絶対時刻を返すのはクライアントが期限前に先回りしてrefreshできるようにするため。
type TokenPairDTO struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// TokenIssuerは（アクセス・リフレッシュ）ペアの発行を担当する。
// 署名はSigner、永続化はRefreshTokenRepository、上限管理はSessionManagerに任せる。
type TokenIssuer struct {
	signer     TokenSigner
	sessions   *SessionManager
	rtRepo     repository.RefreshTokenRepository
	idGen      IDGenerator
	clock      Clock
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(
	signer TokenSigner,
	sessions *SessionManager,
	rtRepo repository.RefreshTokenRepository,
	idGen IDGenerator,
	clock Clock,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *TokenIssuer {
	return &TokenIssuer{
		signer:     signer,
		sessions:   sessions,
		rtRepo:     rtRepo,
		idGen:      idGen,
		clock:      clock,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair はログイン・会員登録時のペア発行。
func (i *TokenIssuer) IssuePair(ctx context.Context, userID int64, device model.DeviceInfo, ip string) (*TokenPairDTO, error) {
	return i.issuePairWith(ctx, i.rtRepo, userID, device, ip)
}

// issuePairWith はrepoを引数で受ける。ローテーション時は
// RefreshCoordinatorがトランザクション内のrepoを渡して呼ぶ。
func (i *TokenIssuer) issuePairWith(ctx context.Context, rtRepo repository.RefreshTokenRepository, userID int64, device model.DeviceInfo, ip string) (*TokenPairDTO, error) {
	//先にセッション上限の空きを作る
	if err := i.sessions.ensureCapacityWith(ctx, rtRepo, userID); err != nil {
		return nil, err
	}

	now := i.clock.Now()

	accessToken, accessExp, err := i.signer.Sign(userID, token.KindAccess, i.accessTTL, now)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExp, err := i.signer.Sign(userID, token.KindRefresh, i.refreshTTL, now)
	if err != nil {
		return nil, err
	}

	//DBにはhashだけ保存する
	rt := &model.RefreshToken{
		ID:         i.idGen.NewID(),
		UserID:     userID,
		TokenHash:  hashToken(refreshToken),
		ExpiresAt:  refreshExp,
		DeviceInfo: device,
		IPAddress:  ip,
		CreatedAt:  now,
	}

	if err := rtRepo.Create(ctx, rt); err != nil {
		return nil, err
	}

	return &TokenPairDTO{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// 平文トークンからDB保存用のハッシュを作る
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
