package auth

import (
	"context"
	"errors"

	"kakeibo/internal/repository"
)

// MeUsecaseは認証済みユーザー自身のプロフィール取得。
type MeUsecase struct {
	userRepo repository.UserRepository
}

func NewMeUsecase(userRepo repository.UserRepository) *MeUsecase {
	return &MeUsecase{userRepo: userRepo}
}

func (u *MeUsecase) Execute(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	dto := toUserDTO(user)
	return &dto, nil
}
