package auth

import (
	"context"
	"errors"

	"kakeibo/internal/repository"
	"kakeibo/internal/useragent"
)

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email      string
	Password   string
	UserAgent  string
	IPAddress  string
	RememberMe bool
}

// handlerがJSONにして返す
type LoginOutput struct {
	User UserDTO `json:"user"`
	TokenPairDTO
}

type LoginUsecase struct {
	userRepo  repository.UserRepository
	verifier  PasswordVerifier
	issuer    *TokenIssuer
	validator AuthValidator
	clock     Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer *TokenIssuer,
	validator AuthValidator,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo:  userRepo,
		verifier:  verifier,
		issuer:    issuer,
		validator: validator,
		clock:     clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	//入力検証
	if err := u.validator.ValidateLogin(ctx, in.Email, in.Password); err != nil {
		return nil, err
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return nil, ErrInvalidCredentials
	}

	//最終ログイン時刻更新
	now := u.clock.Now()
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	//端末情報はUser-Agentから作る（表示用）
	device := useragent.Parse(in.UserAgent)
	device.RememberMe = in.RememberMe

	pair, err := u.issuer.IssuePair(ctx, user.ID, device, in.IPAddress)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		User:         toUserDTO(user),
		TokenPairDTO: *pair,
	}, nil
}
