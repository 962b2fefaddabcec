package adminapi

import (
	"github.com/bjo163/wagateway/internal/verification"
	"github.com/bjo163/wagateway/internal/webserver"
	"github.com/labstack/echo/v4"
)

type requestApprovalRequest struct {
	Number string `json:"number" validate:"required"`
}

func registerApprovalRoutes() {
	webserver.ApiPOST("/request-approval", RequestApproval)
}

// RequestApproval issues an approval code the user confirms by replying with it
// @Summary request an approval code
// @Tags Approval
// @Accept json
// @Produce json
// @Param body body requestApprovalRequest true "Phone number"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Security bearerAuth
// @Router /api/request-approval [post]
func RequestApproval(c echo.Context) error {
	var req requestApprovalRequest
	if err := bindAndValidate(c, &req, "Nomor WhatsApp wajib diisi"); err != nil {
		return failErr(c, err)
	}
	svc := GetAppContext(c).Verification()
	issued, err := svc.IssueApproval(c.Request().Context(), req.Number)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, "Kode approval dikirim, berlaku "+verification.FormatValidity(svc.ApprovalTTL()), issued)
}
