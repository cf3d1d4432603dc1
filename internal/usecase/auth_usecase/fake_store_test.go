package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"kakeibo/internal/domain/model"
	"kakeibo/internal/repository"
)

// =====================
// インメモリ実装（ライフサイクル全体を通すテスト用）
// =====================

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken // id -> record
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: map[string]*model.RefreshToken{}}
}

func (r *memRefreshTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *memRefreshTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.tokens {
		if rt.TokenHash == tokenHash {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, repository.ErrRefreshTokenNotFound
}

func (r *memRefreshTokenRepo) RevokeByID(ctx context.Context, tokenID string, reason model.RevokedReason, revokedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.tokens[tokenID]
	if !ok || rt.Revoked {
		return false, nil
	}
	rt.Revoked = true
	rt.RevokedAt = &revokedAt
	rt.RevokedReason = reason
	return true, nil
}

func (r *memRefreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID int64, reason model.RevokedReason, revokedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rt := range r.tokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
			rt.RevokedReason = reason
			n++
		}
	}
	return n, nil
}

func (r *memRefreshTokenRepo) MarkLastUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.tokens[tokenID]
	if !ok {
		return repository.ErrRefreshTokenNotFound
	}
	rt.LastUsedAt = &usedAt
	return nil
}

func (r *memRefreshTokenRepo) CountActiveByUserID(ctx context.Context, userID int64, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rt := range r.tokens {
		if rt.UserID == userID && rt.IsActive(now) {
			n++
		}
	}
	return n, nil
}

func (r *memRefreshTokenRepo) FindActiveByUserID(ctx context.Context, userID int64, now time.Time) ([]model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RefreshToken
	for _, rt := range r.tokens {
		if rt.UserID == userID && rt.IsActive(now) {
			out = append(out, *rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memRefreshTokenRepo) DeleteExpiredRevokedByUserID(ctx context.Context, userID int64, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rt := range r.tokens {
		if rt.UserID == userID && rt.Revoked && !rt.ExpiresAt.After(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshTokenRepo) DeleteExpiredRevoked(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rt := range r.tokens {
		if rt.Revoked && !rt.ExpiresAt.After(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

// id指定でレコードを覗く（アサーション用）
func (r *memRefreshTokenRepo) get(id string) *model.RefreshToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.tokens[id]
	if !ok {
		return nil
	}
	cp := *rt
	return &cp
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

func newMemUserRepo(users ...*model.User) *memUserRepo {
	r := &memUserRepo{users: map[int64]*model.User{}}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = int64(len(r.users) + 1)
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type memAuditRepo struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (r *memAuditRepo) Create(ctx context.Context, log model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, log)
	return nil
}

func (r *memAuditRepo) List(ctx context.Context, filter repository.AuditLogFilter) ([]model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for _, log := range r.logs {
		if filter.UserID != nil && log.UserID != *filter.UserID {
			continue
		}
		if filter.Action != nil && log.Action != *filter.Action {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (r *memAuditRepo) actions() []model.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AuditAction, 0, len(r.logs))
	for _, log := range r.logs {
		out = append(out, log.Action)
	}
	return out
}
