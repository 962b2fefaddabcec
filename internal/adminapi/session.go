package adminapi

import (
	"net/http"
	"strings"

	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/webserver"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func registerSessionRoutes() {
	webserver.ApiGET("/start-session", StartSession)
	webserver.ApiGET("/logout", Logout)
	webserver.ApiGET("/status", GetStatus)
}

// StartSession starts the WhatsApp session, requesting a pairing code for an
// unregistered device
// @Summary start the WhatsApp session
// @Tags Session
// @Produce json
// @Param number query string true "Phone number to pair"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Security bearerAuth
// @Router /api/start-session [get]
func StartSession(c echo.Context) error {
	number := strings.TrimSpace(c.QueryParam("number"))
	if number == "" {
		return failErr(c, domain.NewValidationError("Nomor WhatsApp wajib diisi dalam parameter ?number=628xxxxxx"))
	}
	res, err := GetAppContext(c).Session().Start(c.Request().Context(), number)
	if err != nil {
		zap.L().Warn("adminapi: start session failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "SESSION_START_FAILED", "Gagal memulai sesi WhatsApp", err.Error())
	}
	switch {
	case res.AlreadyRunning:
		return ok(c, "Sesi WhatsApp sudah berjalan.", res)
	case res.PairingCode != "":
		return ok(c, "Masukkan kode pairing "+res.PairingCode+" di WhatsApp Anda", res)
	case !res.Registered:
		return ok(c, "Sesi dimulai, nomor WhatsApp belum dikonfigurasi untuk pairing", res)
	default:
		return ok(c, "Sesi WhatsApp dimulai", res)
	}
}

// Logout unlinks the device and removes the stored session
// @Summary log out and delete the session
// @Tags Session
// @Produce json
// @Success 200 {object} Response
// @Failure 500 {object} Response
// @Security bearerAuth
// @Router /api/logout [get]
func Logout(c echo.Context) error {
	if err := GetAppContext(c).Session().Logout(c.Request().Context()); err != nil {
		return fail(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Gagal menghapus sesi", err.Error())
	}
	return ok(c, "Logout berhasil, sesi dihapus", nil)
}

// GetStatus reports the session state
// @Summary get the session status
// @Tags Session
// @Produce json
// @Success 200 {object} Response
// @Security bearerAuth
// @Router /api/status [get]
func GetStatus(c echo.Context) error {
	return ok(c, "", GetAppContext(c).Session().Status())
}
