package auth

import (
	"context"
	"fmt"
	"time"

	"kakeibo/internal/domain/model"
	"kakeibo/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: RefreshTokenRepository
// =====================

type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *MockRefreshTokenRepository) RevokeByID(ctx context.Context, tokenID string, reason model.RevokedReason, revokedAt time.Time) (bool, error) {
	args := m.Called(ctx, tokenID, reason, revokedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID int64, reason model.RevokedReason, revokedAt time.Time) (int64, error) {
	args := m.Called(ctx, userID, reason, revokedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) MarkLastUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	args := m.Called(ctx, tokenID, usedAt)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) CountActiveByUserID(ctx context.Context, userID int64, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) FindActiveByUserID(ctx context.Context, userID int64, now time.Time) ([]model.RefreshToken, error) {
	args := m.Called(ctx, userID, now)
	tokens, _ := args.Get(0).([]model.RefreshToken)
	return tokens, args.Error(1)
}

func (m *MockRefreshTokenRepository) DeleteExpiredRevokedByUserID(ctx context.Context, userID int64, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) DeleteExpiredRevoked(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// =====================
// Mock: AuditLogRepository
// =====================

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditLogRepository) List(ctx context.Context, filter repository.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// Mock: AuthValidator
// =====================

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

// =====================
// スタブ: Clock / IDGenerator / TransactionManager
// =====================

// テスト中は時間を止めて、必要なときだけ進める
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// 連番でIDを返す
type seqIDGenerator struct {
	n int
}

func (g *seqIDGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("token-id-%d", g.n)
}

// トランザクションなしで同じrepoをそのまま渡すスタブ
type stubTxRepos struct {
	rt     repository.RefreshTokenRepository
	users  repository.UserRepository
	audits repository.AuditLogRepository
}

func (s *stubTxRepos) RefreshTokens() repository.RefreshTokenRepository { return s.rt }
func (s *stubTxRepos) Users() repository.UserRepository                 { return s.users }
func (s *stubTxRepos) AuditLogs() repository.AuditLogRepository         { return s.audits }

type stubTxManager struct {
	repos repository.TxRepos
}

func (m *stubTxManager) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	return fn(m.repos)
}
