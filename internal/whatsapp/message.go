package whatsapp

import (
	"strings"
	"time"

	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// InboundMessage is a received message reduced to what subscribers need.
type InboundMessage struct {
	ID        string
	Sender    string // digits only, transport suffix stripped
	Chat      string
	PushName  string
	Text      string
	IsFromMe  bool
	IsGroup   bool
	Timestamp time.Time

	// set while Sender still holds LID digits
	senderLID waTypes.JID
}

// ExtractText returns the plain text body of msg, or "" for non-text messages.
func ExtractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if conv := msg.GetConversation(); conv != "" {
		return conv
	}
	return msg.GetExtendedTextMessage().GetText()
}

// newInboundMessage prefers the phone number JID when the sender is
// addressed by LID.
func newInboundMessage(evt *events.Message) *InboundMessage {
	sender := evt.Info.Sender
	if sender.Server == waTypes.HiddenUserServer && evt.Info.SenderAlt.Server == waTypes.DefaultUserServer {
		sender = evt.Info.SenderAlt
	}
	msg := &InboundMessage{
		ID:        string(evt.Info.ID),
		Sender:    strings.TrimSpace(sender.User),
		Chat:      evt.Info.Chat.String(),
		PushName:  evt.Info.PushName,
		Text:      ExtractText(evt.Message),
		IsFromMe:  evt.Info.IsFromMe,
		IsGroup:   evt.Info.IsGroup,
		Timestamp: evt.Info.Timestamp,
	}
	if sender.Server == waTypes.HiddenUserServer {
		msg.senderLID = sender.ToNonAD()
	}
	return msg
}
