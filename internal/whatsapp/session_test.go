package whatsapp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/bjo163/wagateway/internal/domain"
	"github.com/pkg/errors"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

type fakeClient struct {
	mu         sync.Mutex
	registered bool
	loggedIn   bool
	connects   int
	connectErr error
	emitQR     bool
	pairedWith string
	deleted    int
	logouts    int
	sent       []string
	handlers   []func(evt interface{})
	lids       map[string]waTypes.JID
	// Connect waits on gate when set
	gate chan struct{}
}

func (f *fakeClient) Connect() error {
	f.mu.Lock()
	f.connects++
	err := f.connectErr
	emitQR := f.emitQR
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err == nil && emitQR {
		go f.emit(&events.QR{Codes: []string{"ref"}})
	}
	return err
}

func (f *fakeClient) Disconnect() {}

func (f *fakeClient) IsConnected() bool { return true }

func (f *fakeClient) IsLoggedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn
}

func (f *fakeClient) Registered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered
}

func (f *fakeClient) JID() waTypes.JID {
	if !f.Registered() {
		return waTypes.EmptyJID
	}
	return waTypes.NewJID("628111111111", waTypes.DefaultUserServer)
}

func (f *fakeClient) PairPhone(ctx context.Context, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairedWith = phone
	return "ABCD-EFGH", nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return nil
}

func (f *fakeClient) DeleteCredentials(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted++
	return nil
}

func (f *fakeClient) AddEventHandler(handler func(evt interface{})) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler)
}

func (f *fakeClient) PhoneForLID(ctx context.Context, lid waTypes.JID) (waTypes.JID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pn, ok := f.lids[lid.User]; ok {
		return pn, nil
	}
	return waTypes.EmptyJID, nil
}

func (f *fakeClient) SendText(ctx context.Context, to waTypes.JID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to.String()+"|"+text)
	return nil
}

func (f *fakeClient) emit(evt interface{}) {
	f.mu.Lock()
	hs := append([]func(interface{}){}, f.handlers...)
	f.mu.Unlock()
	for _, h := range hs {
		h(evt)
	}
}

func (f *fakeClient) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeClient) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleted
}

func newTestSession(t *testing.T, cli *fakeClient, phone string) (*Session, EventBus.Bus) {
	t.Helper()
	bus := EventBus.New()
	s, err := NewSession(Options{
		PhoneNumber:      phone,
		ReconnectBackoff: 50 * time.Millisecond,
		PairingWait:      time.Second,
		EventWorkers:     2,
	}, func(ctx context.Context) (Client, error) { return cli, nil }, bus)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s, bus
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHandleAbsentBeforeStart(t *testing.T) {
	s, _ := newTestSession(t, &fakeClient{registered: true}, "")
	h, err := s.Handle()
	if h != nil || !domain.IsKind(err, domain.KindConnectionNotReady) {
		t.Fatalf("Handle() = %v, %v; want nil, connection not ready", h, err)
	}
}

func TestStartRegisteredThenOpen(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")

	res, err := s.Start(context.Background(), "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.AlreadyRunning || !res.Registered || res.PairingCode != "" {
		t.Fatalf("unexpected start result %+v", res)
	}
	if _, err := s.Handle(); err == nil {
		t.Fatal("handle must be absent until the connection opens")
	}

	cli.emit(&events.Connected{})
	if s.State() != StateOpen {
		t.Fatalf("state = %s, want open", s.State())
	}
	h, err := s.Handle()
	if err != nil || h == nil {
		t.Fatalf("Handle() = %v, %v", h, err)
	}
	if st := s.Status(); !st.Ready || !st.Connected || st.JID != "628111111111@s.whatsapp.net" {
		t.Fatalf("status = %+v", st)
	}

	again, err := s.Start(context.Background(), "")
	if err != nil || !again.AlreadyRunning {
		t.Fatalf("second Start = %+v, %v; want already running", again, err)
	}
	if cli.connectCount() != 1 {
		t.Errorf("connects = %d, want 1", cli.connectCount())
	}
}

func TestStartUnregisteredRequestsPairingCode(t *testing.T) {
	cli := &fakeClient{emitQR: true}
	s, _ := newTestSession(t, cli, "")

	res, err := s.Start(context.Background(), "+62 812-3456-7890")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.PairingCode != "ABCD-EFGH" {
		t.Errorf("pairing code = %q", res.PairingCode)
	}
	if cli.pairedWith != "6281234567890" {
		t.Errorf("paired with %q, want sanitized number", cli.pairedWith)
	}
	if st := s.Status(); st.PairingCode != "ABCD-EFGH" || st.Ready {
		t.Errorf("status = %+v", st)
	}
}

func TestStartUnregisteredWithoutNumberFailsSoftly(t *testing.T) {
	cli := &fakeClient{}
	s, _ := newTestSession(t, cli, "")

	res, err := s.Start(context.Background(), "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.PairingCode != "" || cli.pairedWith != "" {
		t.Fatalf("no pairing expected, got %+v", res)
	}
}

func TestDisconnectReconnectsOnce(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	cli.emit(&events.Connected{})

	cli.emit(&events.Disconnected{})
	cli.emit(&events.Disconnected{})
	cli.emit(&events.StreamReplaced{})
	if s.State() != StateReconnecting {
		t.Fatalf("state = %s, want reconnecting", s.State())
	}
	if _, err := s.Handle(); err == nil {
		t.Fatal("handle must be absent while reconnecting")
	}

	waitFor(t, func() bool { return cli.connectCount() == 2 })
	time.Sleep(150 * time.Millisecond)
	if got := cli.connectCount(); got != 2 {
		t.Fatalf("connects = %d, want 2 (overlapping reconnects must coalesce)", got)
	}

	cli.emit(&events.Connected{})
	if s.State() != StateOpen {
		t.Fatalf("state = %s, want open", s.State())
	}
}

func TestReconnectRetriesUntilConnected(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	cli.mu.Lock()
	cli.connectErr = errors.New("dial failed")
	cli.mu.Unlock()

	cli.emit(&events.Disconnected{})
	waitFor(t, func() bool { return cli.connectCount() >= 3 })

	cli.mu.Lock()
	cli.connectErr = nil
	cli.mu.Unlock()
	n := cli.connectCount()
	waitFor(t, func() bool { return cli.connectCount() > n })
	time.Sleep(150 * time.Millisecond)
	settled := cli.connectCount()
	time.Sleep(150 * time.Millisecond)
	if cli.connectCount() != settled {
		t.Fatal("reconnect loop must stop after a successful connect")
	}
}

func TestLoggedOutRevokesWithoutReconnect(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, bus := newTestSession(t, cli, "")
	revoked := make(chan StateChange, 1)
	if err := bus.Subscribe(TopicState, func(c StateChange) {
		if c.State == StateRevoked {
			revoked <- c
		}
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	cli.emit(&events.Connected{})

	cli.emit(&events.LoggedOut{Reason: events.ConnectFailureLoggedOut})
	select {
	case <-revoked:
	case <-time.After(time.Second):
		t.Fatal("expected revoked state event")
	}
	if s.State() != StateRevoked {
		t.Fatalf("state = %s, want revoked", s.State())
	}
	waitFor(t, func() bool { return cli.deleteCount() == 1 })

	cli.emit(&events.Disconnected{})
	time.Sleep(150 * time.Millisecond)
	if got := cli.connectCount(); got != 1 {
		t.Fatalf("connects = %d, revoked sessions must not reconnect", got)
	}
	if _, err := s.Handle(); !domain.IsKind(err, domain.KindConnectionNotReady) {
		t.Fatalf("Handle() err = %v", err)
	}
}

func TestConnectFailureLoggedOutRevokes(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	cli.emit(&events.ConnectFailure{Reason: events.ConnectFailureLoggedOut})
	if s.State() != StateRevoked {
		t.Fatalf("state = %s, want revoked", s.State())
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	cli := &fakeClient{registered: true, loggedIn: true}
	s, _ := newTestSession(t, cli, "")

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("Logout without session: %v", err)
	}
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	cli.emit(&events.Connected{})

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if cli.logouts != 1 || cli.deleteCount() != 1 {
		t.Errorf("logouts = %d, deletes = %d; want 1, 1", cli.logouts, cli.deleteCount())
	}
	if _, err := s.Handle(); err == nil {
		t.Fatal("handle must be cleared after logout")
	}

	// events from the dropped client are ignored
	cli.emit(&events.Connected{})
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}
}

func textMessage(id string, sender waTypes.JID, text string) *events.Message {
	evt := &events.Message{
		Message: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String(text)}},
	}
	evt.Info.ID = id
	evt.Info.Sender = sender
	evt.Info.Chat = sender
	return evt
}

func TestInboundMessageDispatched(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")
	got := make(chan *InboundMessage, 1)
	s.OnMessage(func(m *InboundMessage) { got <- m })
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	cli.emit(textMessage("MSG1", waTypes.NewJID("6281234567890", waTypes.DefaultUserServer), "ABC123"))

	select {
	case m := <-got:
		if m.Sender != "6281234567890" || m.Text != "ABC123" || m.IsFromMe {
			t.Fatalf("unexpected message %+v", m)
		}
	case <-time.After(time.Second):
		t.Fatal("message not dispatched")
	}
}

func TestLidSenderResolvedThroughClient(t *testing.T) {
	cli := &fakeClient{registered: true, lids: map[string]waTypes.JID{
		"123456789012345": waTypes.NewJID("6281234567890", waTypes.DefaultUserServer),
	}}
	s, _ := newTestSession(t, cli, "")
	got := make(chan *InboundMessage, 1)
	s.OnMessage(func(m *InboundMessage) { got <- m })
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	cli.emit(textMessage("MSG2", waTypes.NewJID("123456789012345", waTypes.HiddenUserServer), "ABC123"))

	select {
	case m := <-got:
		if m.Sender != "6281234567890" {
			t.Fatalf("sender = %q, want the mapped phone number", m.Sender)
		}
	case <-time.After(time.Second):
		t.Fatal("message not dispatched")
	}
}

func TestSlowHandlersDoNotBlockEvents(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")
	var wg sync.WaitGroup
	s.OnMessage(func(m *InboundMessage) {
		defer wg.Done()
		time.Sleep(300 * time.Millisecond)
	})
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	cli.emit(&events.Connected{})

	started := time.Now()
	wg.Add(2)
	sender := waTypes.NewJID("6281234567890", waTypes.DefaultUserServer)
	cli.emit(textMessage("MSG1", sender, "one"))
	cli.emit(textMessage("MSG2", sender, "two"))

	emitted := time.Now()
	cli.emit(&events.Disconnected{})
	if d := time.Since(emitted); d > 100*time.Millisecond {
		t.Fatalf("state event handling took %s while inbound handlers ran", d)
	}
	if s.State() != StateReconnecting {
		t.Fatalf("state = %s, want reconnecting", s.State())
	}

	wg.Wait()
	if d := time.Since(started); d > 550*time.Millisecond {
		t.Fatalf("two messages on a 2-worker pool took %s, want them handled in parallel", d)
	}
}

func TestTemporaryBanReconnectsAfterExpiry(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	cli.emit(&events.TemporaryBan{Expire: 300 * time.Millisecond})
	if s.State() != StateReconnecting {
		t.Fatalf("state = %s, want reconnecting", s.State())
	}
	time.Sleep(150 * time.Millisecond)
	if got := cli.connectCount(); got != 1 {
		t.Fatalf("connects = %d before the ban expired, want 1", got)
	}
	waitFor(t, func() bool { return cli.connectCount() == 2 })
}

func TestCATRefreshErrorReconnects(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	cli.emit(&events.Connected{})

	cli.emit(&events.CATRefreshError{})
	waitFor(t, func() bool { return cli.connectCount() == 2 })
}

func TestClientOutdatedReleasesSession(t *testing.T) {
	cli := &fakeClient{registered: true}
	s, _ := newTestSession(t, cli, "")
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	cli.emit(&events.ClientOutdated{})
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}
	if _, err := s.Handle(); !domain.IsKind(err, domain.KindConnectionNotReady) {
		t.Fatalf("Handle() err = %v", err)
	}

	res, err := s.Start(context.Background(), "")
	if err != nil {
		t.Fatalf("Start after release: %v", err)
	}
	if res.AlreadyRunning {
		t.Fatal("a released session must be startable again")
	}
	if cli.connectCount() != 2 || cli.deleteCount() != 0 {
		t.Fatalf("connects = %d, deletes = %d; want 2, 0", cli.connectCount(), cli.deleteCount())
	}
}

func TestReconnectForNewClientNotLostBehindOldLoop(t *testing.T) {
	first := &fakeClient{registered: true}
	second := &fakeClient{registered: true}
	clients := []*fakeClient{first, second}
	var mu sync.Mutex
	s, err := NewSession(Options{ReconnectBackoff: 20 * time.Millisecond, EventWorkers: 2},
		func(ctx context.Context) (Client, error) {
			mu.Lock()
			defer mu.Unlock()
			cli := clients[0]
			clients = clients[1:]
			return cli, nil
		}, EventBus.New())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)

	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	// the first client's reconnect loop gets stuck inside Connect
	gate := make(chan struct{})
	first.mu.Lock()
	first.gate = gate
	first.mu.Unlock()
	defer close(gate)
	first.emit(&events.Disconnected{})
	waitFor(t, func() bool { return first.connectCount() == 2 })

	if err := s.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	second.emit(&events.Disconnected{})
	waitFor(t, func() bool { return second.connectCount() == 2 })
}
