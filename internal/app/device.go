package app

import (
	"time"

	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/whatsapp"
	"go.uber.org/zap"
)

// recordDeviceState mirrors session transitions into whatsapp_device.
func (a *Application) recordDeviceState(change whatsapp.StateChange) {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	updates := map[string]interface{}{
		"status":     change.State.String(),
		"updated_at": time.Now(),
	}
	if change.JID != "" {
		updates["jid"] = change.JID
	}
	if change.PairingCode != "" {
		updates["last_pairing_at"] = time.Now()
	}
	switch change.State {
	case whatsapp.StateOpen:
		updates["last_error"] = ""
	case whatsapp.StateRevoked, whatsapp.StateIdle:
		updates["jid"] = ""
		if change.Reason != "" {
			updates["last_error"] = change.Reason
		}
	}

	res := a.gormDB.Model(&domain.WhatsAppDevice{}).Where("1 = 1").Updates(updates)
	if res.Error != nil {
		zap.L().Warn("whatsapp: failed to record device state", zap.String("state", change.State.String()), zap.Error(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		a.checkDevice()
	}
}

func logInbound(msg *whatsapp.InboundMessage) {
	if msg == nil || msg.IsFromMe {
		return
	}
	zap.L().Info("whatsapp: inbound message",
		zap.String("from", msg.Sender),
		zap.String("chat", msg.Chat),
		zap.Bool("group", msg.IsGroup),
		zap.Int("length", len(msg.Text)))
}
