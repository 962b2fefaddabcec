package verification

import (
	"context"
	"testing"
	"time"

	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/whatsapp"
)

func TestHandleInboundResolvesApprovalOnce(t *testing.T) {
	sender := &fakeSender{}
	svc, db := newTestService(t, sender)
	issued, err := svc.IssueApproval(context.Background(), testPhone)
	if err != nil {
		t.Fatal(err)
	}

	msg := &whatsapp.InboundMessage{Sender: testPhone, Text: issued.Code}
	svc.HandleInbound(msg)

	if n := countRows(t, db, &domain.ApprovalRequest{}); n != 0 {
		t.Fatalf("approval rows = %d, want 0 after match", n)
	}
	msgs := sender.messages()
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want code delivery plus one confirmation", len(msgs))
	}
	if msgs[1].to != testPhone+"@s.whatsapp.net" || msgs[1].text != svc.opts.ApprovalReply {
		t.Errorf("unexpected confirmation %+v", msgs[1])
	}

	svc.HandleInbound(msg)
	if got := len(sender.messages()); got != 2 {
		t.Fatalf("second identical reply sent %d extra messages", got-2)
	}
}

func TestHandleInboundIgnoresNonMatches(t *testing.T) {
	sender := &fakeSender{}
	svc, db := newTestService(t, sender)
	issued, err := svc.IssueApproval(context.Background(), testPhone)
	if err != nil {
		t.Fatal(err)
	}

	for _, msg := range []*whatsapp.InboundMessage{
		{Sender: testPhone, Text: "WRONG1"},
		{Sender: testPhone, Text: ""},
		{Sender: "6280000000000", Text: issued.Code},
		{Sender: testPhone, Text: issued.Code, IsFromMe: true},
		{Sender: testPhone, Text: issued.Code, IsGroup: true},
		nil,
	} {
		svc.HandleInbound(msg)
	}

	if n := countRows(t, db, &domain.ApprovalRequest{}); n != 1 {
		t.Fatalf("approval rows = %d, want 1", n)
	}
	if got := len(sender.messages()); got != 1 {
		t.Fatalf("sent %d messages, want only the code delivery", got)
	}
}

func TestHandleInboundIgnoresExpired(t *testing.T) {
	sender := &fakeSender{}
	svc, db := newTestService(t, sender)
	issued, err := svc.IssueApproval(context.Background(), testPhone)
	if err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	svc.HandleInbound(&whatsapp.InboundMessage{Sender: testPhone, Text: issued.Code})

	if n := countRows(t, db, &domain.ApprovalRequest{}); n != 1 {
		t.Fatalf("expired approval must not be resolved, rows = %d", n)
	}
	if got := len(sender.messages()); got != 1 {
		t.Fatalf("sent %d messages, want 1", got)
	}
}
