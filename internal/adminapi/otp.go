package adminapi

import (
	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/webserver"
	"github.com/labstack/echo/v4"
)

type requestOtpRequest struct {
	Number string `json:"number" validate:"required"`
}

type verifyOtpRequest struct {
	Number string `json:"number" validate:"required"`
	Otp    string `json:"otp" validate:"required"`
}

func registerOtpRoutes() {
	webserver.ApiPOST("/request-otp", RequestOtp)
	webserver.ApiPOST("/verify-otp", VerifyOtp)
}

// RequestOtp issues a 6 digit OTP and sends it over WhatsApp
// @Summary request an OTP
// @Tags OTP
// @Accept json
// @Produce json
// @Param body body requestOtpRequest true "Phone number"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Security bearerAuth
// @Router /api/request-otp [post]
func RequestOtp(c echo.Context) error {
	var req requestOtpRequest
	if err := bindAndValidate(c, &req, "Nomor WhatsApp wajib diisi"); err != nil {
		return failErr(c, err)
	}
	if _, err := GetAppContext(c).Verification().IssueOTP(c.Request().Context(), req.Number); err != nil {
		return failErr(c, err)
	}
	return ok(c, "OTP dikirim", nil)
}

// VerifyOtp checks a code against the latest OTP for the number
// @Summary verify an OTP
// @Tags OTP
// @Accept json
// @Produce json
// @Param body body verifyOtpRequest true "Phone number and code"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Security bearerAuth
// @Router /api/verify-otp [post]
func VerifyOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := bindAndValidate(c, &req, "Nomor dan OTP wajib diisi"); err != nil {
		return failErr(c, err)
	}
	valid, err := GetAppContext(c).Verification().VerifyOTP(c.Request().Context(), req.Number, req.Otp)
	if err != nil {
		return failErr(c, err)
	}
	if !valid {
		return failErr(c, domain.NewVerificationFailed("OTP tidak valid atau sudah kadaluarsa"))
	}
	return ok(c, "OTP valid", nil)
}
