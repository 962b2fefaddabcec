package whatsapp

import (
	"testing"

	waTypes "go.mau.fi/whatsmeow/types"
)

func TestNewInboundMessageSenders(t *testing.T) {
	phone := waTypes.NewJID("6281234567890", waTypes.DefaultUserServer)
	lid := waTypes.NewJID("123456789012345", waTypes.HiddenUserServer)

	cases := []struct {
		name      string
		sender    waTypes.JID
		senderAlt waTypes.JID
		want      string
		wantLID   bool
	}{
		{"phone number sender", phone, waTypes.EmptyJID, "6281234567890", false},
		{"lid with phone alt", lid, phone, "6281234567890", false},
		{"lid without alt", lid, waTypes.EmptyJID, "123456789012345", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			evt := textMessage("MSG", tc.sender, "hi")
			evt.Info.SenderAlt = tc.senderAlt
			msg := newInboundMessage(evt)
			if msg.Sender != tc.want {
				t.Errorf("Sender = %q, want %q", msg.Sender, tc.want)
			}
			if got := !msg.senderLID.IsEmpty(); got != tc.wantLID {
				t.Errorf("unresolved lid = %v, want %v", got, tc.wantLID)
			}
		})
	}
}
