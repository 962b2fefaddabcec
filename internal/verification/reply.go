package verification

import (
	"context"
	"strings"
	"time"

	"github.com/bjo163/wagateway/internal/whatsapp"
	"go.uber.org/zap"
)

const inboundTimeout = 30 * time.Second

// HandleInbound resolves a pending approval when msg repeats its code.
// It is registered with Session.OnMessage.
func (s *Service) HandleInbound(msg *whatsapp.InboundMessage) {
	if msg == nil || msg.IsFromMe || msg.IsGroup {
		return
	}
	text := strings.TrimSpace(msg.Text)
	sender := whatsapp.SanitizeNumber(msg.Sender)
	if text == "" || sender == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), inboundTimeout)
	defer cancel()

	rec, err := s.approvals.FindActive(ctx, sender, text, s.now())
	if err != nil {
		zap.L().Error("verification: approval lookup failed", zap.String("phone", sender), zap.Error(err))
		return
	}
	if rec == nil {
		return
	}

	handle, err := s.session.Handle()
	if err != nil {
		zap.L().Warn("verification: approval matched but whatsapp is not ready", zap.String("phone", sender))
		return
	}
	jid, err := whatsapp.RecipientJID(sender)
	if err != nil {
		return
	}
	if err := handle.SendText(ctx, jid, s.opts.ApprovalReply); err != nil {
		zap.L().Error("verification: failed to send approval confirmation", zap.String("phone", sender), zap.Error(err))
		return
	}
	if err := s.approvals.Delete(ctx, rec.ID); err != nil {
		zap.L().Error("verification: failed to delete resolved approval", zap.Int64("id", rec.ID), zap.Error(err))
		return
	}
	zap.L().Info("verification: approval resolved", zap.String("phone", sender))
}
