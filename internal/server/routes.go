package server

import (
	"kakeibo/internal/handler"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes は認証まわりのルートを登録する。
// authMW はアクセストークン必須のエンドポイントにだけ付ける。
func RegisterRoutes(e *echo.Echo, authH *handler.AuthHandler, authMW echo.MiddlewareFunc) {
	//トークン不要
	g := e.Group("/auth")
	g.POST("/register", authH.Register)
	g.POST("/login", authH.Login)
	g.POST("/refresh", authH.Refresh)
	g.POST("/logout", authH.Logout)

	//アクセストークン必須
	p := e.Group("/auth", authMW)
	p.POST("/logout-all", authH.LogoutAll)
	p.GET("/sessions", authH.Sessions)
	p.GET("/me", authH.Me)
}
