package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	RefreshTokens() RefreshTokenRepository
	Users() UserRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// ローテーションの「旧トークン失効＋新トークン作成」を1トランザクションにするために使う。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
