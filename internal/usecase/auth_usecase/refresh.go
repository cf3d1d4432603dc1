package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kakeibo/internal/domain/model"
	"kakeibo/internal/repository"
	"kakeibo/internal/token"
)

// 同じトークンの同時refreshに負けた（条件付きUPDATEが0行）
var errRotationLost = errors.New("rotation lost to a concurrent refresh")

// RefreshCoordinatorはリフレッシュトークンのローテーションを担当する状態機械。
//
// 受け取ったトークンごとに:
//  1. 署名検証（失敗ならDBに触らず拒否）
//  2. DB照合
//  3. ユーザー停止チェック
//  4. 失効済み・期限切れの再提示 → 全セッション失効（ロックアウト）
//  5. 条件付きUPDATEで失効させてから新しいペアを発行
type RefreshCoordinator struct {
	signer    TokenSigner
	rtRepo    repository.RefreshTokenRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository
	txm       repository.TransactionManager
	issuer    *TokenIssuer
	clock     Clock
}

func NewRefreshCoordinator(
	signer TokenSigner,
	rtRepo repository.RefreshTokenRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	txm repository.TransactionManager,
	issuer *TokenIssuer,
	clock Clock,
) *RefreshCoordinator {
	return &RefreshCoordinator{
		signer:    signer,
		rtRepo:    rtRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		txm:       txm,
		issuer:    issuer,
		clock:     clock,
	}
}

// Refresh はリフレッシュトークン1本を消費して新しいペアを1組だけ返す。
// 拒否された場合のリトライはない。クライアントは再ログインする。
func (c *RefreshCoordinator) Refresh(ctx context.Context, refreshTokenPlain string, device model.DeviceInfo, ip string) (*TokenPairDTO, error) {
	//1) 署名検証。失敗ならDBに触らず即拒否（副作用なし）
	if _, err := c.signer.Verify(refreshTokenPlain, token.KindRefresh); err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, ErrRefreshExpired
		}
		return nil, ErrInvalidRefresh
	}

	//2) DB照合
	rt, err := c.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	//3) 停止ユーザー。トークンの状態は触らない
	user, err := c.userRepo.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	now := c.clock.Now()

	//4) 失効済み・期限切れトークンの再提示はセキュリティ事象。
	//   正規クライアントが同時refreshで負けたのか、盗まれたトークンの
	//   リプレイなのかは区別できないので、安全側に倒して全セッションを失効する
	if rt.Revoked || !rt.ExpiresAt.After(now) {
		if err := c.lockout(ctx, rt, device, ip, now); err != nil {
			//失効しきれていないのに「検知済み」を装わない
			return nil, err
		}
		return nil, ErrReuseDetected
	}

	//5) ローテーション。旧トークンの失効と新レコードの作成を1トランザクションで
	//   行い、途中でプロセスが落ちても「有効なトークンが0本」の状態を作らない
	var pair *TokenPairDTO

	txErr := c.txm.WithinTx(ctx, func(r repository.TxRepos) error {
		//revoked=falseのときだけ成功する条件付きUPDATE。
		//同じトークンのrefreshが同時に来ても成功するのは1リクエストだけ
		ok, err := r.RefreshTokens().RevokeByID(ctx, rt.ID, model.RevokedReasonRotated, now)
		if err != nil {
			return err
		}
		if !ok {
			return errRotationLost
		}

		if err := r.RefreshTokens().MarkLastUsed(ctx, rt.ID, now); err != nil {
			return err
		}

		p, err := c.issuer.issuePairWith(ctx, r.RefreshTokens(), rt.UserID, device, ip)
		if err != nil {
			return err
		}

		pair = p
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, errRotationLost) {
			//負けた側は再利用と同じ扱いでロックアウトする
			if err := c.lockout(ctx, rt, device, ip, c.clock.Now()); err != nil {
				return nil, err
			}
			return nil, ErrReuseDetected
		}
		return nil, txErr
	}

	return pair, nil
}

// lockout はユーザーの全セッションを失効して監査ログに詳細を残す。
// 攻撃者に手がかりを与えないため、レスポンスには詳細を出さない。
//
// 失効と監査ログは同じトランザクションに入れない。同居させると
// ログのINSERT失敗が失効まで巻き戻してしまう。失効が本体で、
// ログはベストエフォート。失効に失敗したらエラーを返す。
func (c *RefreshCoordinator) lockout(ctx context.Context, rt *model.RefreshToken, device model.DeviceInfo, ip string, now time.Time) error {
	if _, err := c.rtRepo.RevokeAllByUserID(ctx, rt.UserID, model.RevokedReasonReuseDetected, now); err != nil {
		return err
	}

	detail, err := json.Marshal(map[string]interface{}{
		"token_id":         rt.ID,
		"token_created_at": rt.CreatedAt,
		"token_device":     rt.DeviceInfo,
		"request_device":   device,
	})
	if err != nil {
		detail = []byte("{}")
	}

	_ = c.auditRepo.Create(ctx, model.AuditLog{
		UserID:     rt.UserID,
		Action:     model.AuditActionTokenReuseDetected,
		IPAddress:  ip,
		UserAgent:  device.UserAgent,
		DetailJSON: string(detail),
		CreatedAt:  now,
	})

	return nil
}
