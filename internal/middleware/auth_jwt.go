package middleware

import (
	"errors"
	"net/http"
	"strings"

	"kakeibo/internal/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey = "user_id" // int64
)

// アクセストークンを検証する約束（internal/tokenのVerifierが満たす）
type AccessTokenVerifier interface {
	VerifyAccess(tokenStr string) (int64, error)
}

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// bearerAuth用のアクセストークン検証ミドルウェア。
//
// エラーコードの使い分け:
//   - TOKEN_REQUIRED: 認証情報そのものがない
//   - TOKEN_EXPIRED:  形式は正しいが期限切れ → クライアントは /auth/refresh を呼ぶ
//   - UNAUTHORIZED:   壊れている・偽造・種別違い（理由は出し分けない）
func AuthJWT(verifier AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "TOKEN_REQUIRED"})
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "TOKEN_REQUIRED"})
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "TOKEN_REQUIRED"})
			}

			//署名・期限・種別をまとめて検証
			userID, err := verifier.VerifyAccess(rawToken)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, errorResponse{
						Error: "TOKEN_EXPIRED",
						Hint:  "call POST /auth/refresh",
					})
				}
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)

			return next(c)
		}
	}
}

// handlerがcontextからuser_idを取り出すヘルパー
func UserIDFrom(c echo.Context) (int64, bool) {
	v, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
