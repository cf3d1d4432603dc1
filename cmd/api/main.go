package main

import (
	"context"
	"time"

	"kakeibo/internal/config"
	"kakeibo/internal/domain/model"
	"kakeibo/internal/handler"
	"kakeibo/internal/infra/db"
	infraRepo "kakeibo/internal/infra/repository"
	"kakeibo/internal/middleware"
	"kakeibo/internal/server"
	"kakeibo/internal/token"
	auth "kakeibo/internal/usecase/auth_usecase"
	"kakeibo/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無ければ無いで良い（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.AuditLog{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//署名・検証（アクセスとリフレッシュでシークレットを分ける）
	signer := token.NewSigner(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	verifier := token.NewVerifier(signer)

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	pwVerifier := auth.NewBcryptPasswordVerifier()

	//Usecase生成
	sessions := auth.NewSessionManager(rtRepo, auditRepo, clock, cfg.MaxSessionsPerUser)
	issuer := auth.NewTokenIssuer(signer, sessions, rtRepo, idGen, clock, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authValidator := validator.NewAuthValidator(userRepo)
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, issuer, authValidator)
	loginUC := auth.NewLoginUsecase(userRepo, pwVerifier, issuer, authValidator, clock)
	refreshUC := auth.NewRefreshCoordinator(signer, rtRepo, userRepo, auditRepo, txm, issuer, clock)
	meUC := auth.NewMeUsecase(userRepo)

	//Handler生成
	authH := handler.NewAuthHandler(registerUC, loginUC, refreshUC, meUC, sessions)

	//Server組み立て
	e := server.New(authH, middleware.AuthJWT(verifier))

	//期限切れトークンの定期掃除
	go func() {
		t := time.NewTicker(cfg.CleanupInterval)
		defer t.Stop()
		for range t.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := sessions.CleanupExpired(ctx)
			cancel()
			if err != nil {
				e.Logger.Errorf("refresh token cleanup failed: %v", err)
				continue
			}
			if n > 0 {
				e.Logger.Infof("refresh token cleanup: deleted %d rows", n)
			}
		}
	}()

	//Server起動
	if err := e.Start(":" + cfg.Port); err != nil {
		e.Logger.Fatal(err)
	}
}
