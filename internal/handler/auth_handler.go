package handler

import (
	"context"
	"errors"
	"net/http"

	"kakeibo/internal/domain/model"
	"kakeibo/internal/middleware"
	auth "kakeibo/internal/usecase/auth_usecase"
	"kakeibo/internal/useragent"

	"github.com/labstack/echo/v4"
)

// handlerが依存するusecaseの約束。本体の*auth.RegisterUserUsecase等が満たす。
type RegisterUsecase interface {
	Execute(ctx context.Context, in auth.RegisterUserInput) (*auth.RegisterUserOutput, error)
}

type LoginUsecase interface {
	Execute(ctx context.Context, in auth.LoginInput) (*auth.LoginOutput, error)
}

type RefreshUsecase interface {
	Refresh(ctx context.Context, refreshTokenPlain string, device model.DeviceInfo, ip string) (*auth.TokenPairDTO, error)
}

type ProfileUsecase interface {
	Execute(ctx context.Context, userID int64) (*auth.UserDTO, error)
}

type SessionUsecase interface {
	RevokeOne(ctx context.Context, refreshTokenPlain string) error
	LogoutAll(ctx context.Context, userID int64, ip string, userAgent string) (int64, error)
	ListActive(ctx context.Context, userID int64) ([]auth.SessionDTO, error)
}

type AuthHandler struct {
	registerUC RegisterUsecase // 会員登録usecase
	loginUC    LoginUsecase    // ログインusecase
	refreshUC  RefreshUsecase  // ローテーションusecase
	meUC       ProfileUsecase  // プロフィール取得
	sessions   SessionUsecase  // セッション一覧・失効
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC RegisterUsecase,
	loginUC LoginUsecase,
	refreshUC RefreshUsecase,
	meUC ProfileUsecase,
	sessions SessionUsecase,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		refreshUC:  refreshUC,
		meUC:       meUC,
		sessions:   sessions,
	}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// /auth/refresh /auth/logout のリクエストボディ。
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// RegisterはPOST /auth/registerのハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:      req.Email,
		Password:   req.Password,
		UserAgent:  c.Request().UserAgent(),
		IPAddress:  c.RealIP(),
		RememberMe: req.RememberMe,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, errorResponse{Error: "CONFLICT"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
		}
	}

	return c.JSON(http.StatusOK, out)
}

// LoginはPOST /auth/login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		UserAgent:  c.Request().UserAgent(),
		IPAddress:  c.RealIP(),
		RememberMe: req.RememberMe,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, errorResponse{Error: "FORBIDDEN"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
		}
	}

	return c.JSON(http.StatusOK, out)
}

// RefreshはPOST /auth/refresh のハンドラ。
// 失効済みトークンの再提示（ロックアウト）も通常の失敗と同じ401で返す。
// 詳細は監査ログにだけ残る。
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	device := useragent.Parse(c.Request().UserAgent())

	pair, err := h.refreshUC.Refresh(c.Request().Context(), req.RefreshToken, device, c.RealIP())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshExpired):
			//期限切れだけ区別して返す。クライアントは再ログインへ
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "TOKEN_EXPIRED"})
		case errors.Is(err, auth.ErrReuseDetected):
			c.Logger().Warnf("token reuse detected: ip=%s ua=%q", c.RealIP(), c.Request().UserAgent())
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
		case errors.Is(err, auth.ErrInvalidRefresh), errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
		}
	}

	return c.JSON(http.StatusOK, pair)
}

// LogoutはPOST /auth/logout のハンドラ。
// 既に無効なトークンでも成功で返す（冪等）。
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	//ボディが壊れていてもログアウトは成功扱い
	_ = c.Bind(&req)

	if err := h.sessions.RevokeOne(c.Request().Context(), req.RefreshToken); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "logout success"})
}

// LogoutAllはPOST /auth/logout-all のハンドラ（要アクセストークン）。
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	count, err := h.sessions.LogoutAll(c.Request().Context(), userID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	return c.JSON(http.StatusOK, map[string]int64{"revoked_count": count})
}

// SessionsはGET /auth/sessions のハンドラ（要アクセストークン）。
// トークン値は返さない。
func (h *AuthHandler) Sessions(c echo.Context) error {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	sessions, err := h.sessions.ListActive(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	return c.JSON(http.StatusOK, map[string][]auth.SessionDTO{"sessions": sessions})
}

// MeはGET /auth/me のハンドラ（要アクセストークン）。
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	user, err := h.meUC.Execute(c.Request().Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, errorResponse{Error: "FORBIDDEN"})
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
		}
	}

	return c.JSON(http.StatusOK, user)
}
