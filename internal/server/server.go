package server

import (
	"kakeibo/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoサーバーを組み立てて返す。起動はmain側で行う。
func New(authH *handler.AuthHandler, authMW echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	RegisterRoutes(e, authH, authMW)

	return e
}
