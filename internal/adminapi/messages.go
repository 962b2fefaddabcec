package adminapi

import (
	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/webserver"
	"github.com/bjo163/wagateway/internal/whatsapp"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type sendMessageRequest struct {
	Number  string `json:"number" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type sendGroupMessageRequest struct {
	GroupID string `json:"groupId" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type broadcastRequest struct {
	Numbers []string `json:"numbers" validate:"required,min=1"`
	Message string   `json:"message" validate:"required"`
}

func registerMessageRoutes() {
	webserver.ApiPOST("/send-message", SendMessage)
	webserver.ApiPOST("/send-group-message", SendGroupMessage)
	webserver.ApiPOST("/broadcast", Broadcast)
}

// SendMessage sends a text message to one WhatsApp number
// @Summary send a text message
// @Tags Messages
// @Accept json
// @Produce json
// @Param body body sendMessageRequest true "Recipient and message"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Security bearerAuth
// @Router /api/send-message [post]
func SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := bindAndValidate(c, &req, "Nomor dan pesan wajib diisi"); err != nil {
		return failErr(c, err)
	}
	jid, err := whatsapp.UserJID(req.Number)
	if err != nil {
		return failErr(c, err)
	}
	sender, err := GetAppContext(c).Session().Handle()
	if err != nil {
		return failErr(c, err)
	}
	if err := sender.SendText(c.Request().Context(), jid, req.Message); err != nil {
		zap.L().Warn("adminapi: send message failed", zap.String("jid", jid.String()), zap.Error(err))
		return failErr(c, domain.NewDeliveryError("Gagal mengirim pesan", err))
	}
	return ok(c, "Pesan berhasil dikirim", nil)
}

// SendGroupMessage sends a text message to a WhatsApp group
// @Summary send a text message to a group
// @Tags Messages
// @Accept json
// @Produce json
// @Param body body sendGroupMessageRequest true "Group id and message"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Security bearerAuth
// @Router /api/send-group-message [post]
func SendGroupMessage(c echo.Context) error {
	var req sendGroupMessageRequest
	if err := bindAndValidate(c, &req, "ID grup dan pesan wajib diisi"); err != nil {
		return failErr(c, err)
	}
	jid, err := whatsapp.GroupJID(req.GroupID)
	if err != nil {
		return failErr(c, err)
	}
	sender, err := GetAppContext(c).Session().Handle()
	if err != nil {
		return failErr(c, err)
	}
	if err := sender.SendText(c.Request().Context(), jid, req.Message); err != nil {
		zap.L().Warn("adminapi: send group message failed", zap.String("jid", jid.String()), zap.Error(err))
		return failErr(c, domain.NewDeliveryError("Gagal mengirim pesan ke grup", err))
	}
	return ok(c, "Pesan berhasil dikirim ke grup", nil)
}

// Broadcast sends the same message to many numbers with a pause between sends
// @Summary broadcast a message
// @Tags Messages
// @Accept json
// @Produce json
// @Param body body broadcastRequest true "Recipients and message"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Security bearerAuth
// @Router /api/broadcast [post]
func Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := bindAndValidate(c, &req, "Daftar nomor dan pesan wajib diisi"); err != nil {
		return failErr(c, err)
	}
	res, err := GetAppContext(c).Broadcaster().Broadcast(c.Request().Context(), req.Numbers, req.Message)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, "Pesan broadcast dikirim", res)
}
