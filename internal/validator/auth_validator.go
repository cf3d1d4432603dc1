package validator

import (
	"context"
	"net/mail"
	"strings"

	"kakeibo/internal/repository"
	auth "kakeibo/internal/usecase/auth_usecase"
)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) auth.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return auth.ErrValidation
	}

	// email形式
	if !isEmailLike(email) {
		return auth.ErrValidation
	}

	// パスワード最低文字数（MVP: 8）
	if len(password) < 8 {
		return auth.ErrValidation
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return auth.ErrEmailAlreadyExists
	}

	return nil
}

// ログインの入力を検証。存在有無のヒントは返さない
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return auth.ErrValidation
	}
	return nil
}

func isEmailLike(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
