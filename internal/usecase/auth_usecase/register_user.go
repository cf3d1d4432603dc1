package auth

import (
	"context"
	"errors"
	"time"

	"kakeibo/internal/domain/model"
	"kakeibo/internal/repository"
	"kakeibo/internal/useragent"
)

// usecaseがValidatorに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// API返却用のユーザー。パスワードハッシュは含めない。
type UserDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// 会員登録の入力
type RegisterUserInput struct {
	Email      string
	Password   string
	UserAgent  string
	IPAddress  string
	RememberMe bool
}

// 会員登録の出力。登録後すぐ使えるようにトークンペアも返す。
type RegisterUserOutput struct {
	User UserDTO `json:"user"`
	TokenPairDTO
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	issuer    *TokenIssuer
	validator AuthValidator
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	issuer *TokenIssuer,
	validator AuthValidator,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo:  userRepo,
		hasher:    hasher,
		issuer:    issuer,
		validator: validator,
	}
}

// 会員登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (*RegisterUserOutput, error) {
	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, in.Email, in.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        in.Email,
		PasswordHash: pwHash,
		IsActive:     true,
	}

	//保存（email重複はvalidatorで先に弾いているが、レースはuniqueIndexが最後の砦）
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		//接続断などのインフラ障害を409に化けさせない
		return nil, err
	}

	//登録した端末をそのままログイン状態にする
	device := useragent.Parse(in.UserAgent)
	device.RememberMe = in.RememberMe

	pair, err := u.issuer.IssuePair(ctx, user.ID, device, in.IPAddress)
	if err != nil {
		return nil, err
	}

	return &RegisterUserOutput{
		User:         toUserDTO(user),
		TokenPairDTO: *pair,
	}, nil
}
