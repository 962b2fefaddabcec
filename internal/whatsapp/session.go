package whatsapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/bjo163/wagateway/internal/domain"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TopicState carries a StateChange after every session transition.
const TopicState = "whatsapp:state"

const lidLookupTimeout = 5 * time.Second

// MessageHandler receives inbound messages on the session's event pool.
type MessageHandler func(msg *InboundMessage)

// State is the lifecycle state of the connection handle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateRevoked:
		return "revoked"
	default:
		return "idle"
	}
}

// StateChange is published on TopicState after every transition.
type StateChange struct {
	State       State
	JID         string
	PairingCode string
	Reason      string
}

// Status is a point-in-time view of the session.
type Status struct {
	State       string `json:"state"`
	JID         string `json:"jid"`
	Ready       bool   `json:"ready"`
	Connected   bool   `json:"connected"`
	Registered  bool   `json:"registered"`
	PairingCode string `json:"pairing_code,omitempty"`
}

// StartResult describes the outcome of Start.
type StartResult struct {
	AlreadyRunning bool   `json:"already_running"`
	Registered     bool   `json:"registered"`
	PairingCode    string `json:"pairing_code,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	State          string `json:"state"`
}

// HandleProvider hands out the live sender when the connection is open.
type HandleProvider interface {
	Handle() (Sender, error)
}

// Controller is what the HTTP layer needs from the session.
type Controller interface {
	HandleProvider
	Start(ctx context.Context, phone string) (*StartResult, error)
	Logout(ctx context.Context) error
	Status() Status
}

type Options struct {
	PhoneNumber      string
	ReconnectBackoff time.Duration
	PairingWait      time.Duration
	EventWorkers     int
}

// Session owns the single WhatsApp connection handle.
type Session struct {
	opts    Options
	factory ClientFactory
	bus     EventBus.Bus
	pool    *ants.Pool

	startMu sync.Mutex

	mu          sync.RWMutex
	client      Client
	state       State
	gen         uint64
	stop        chan struct{}
	qrReady     chan struct{}
	pairingCode string

	reconnects singleflight.Group

	handlersMu sync.RWMutex
	handlers   []MessageHandler
}

var _ Controller = (*Session)(nil)

func NewSession(opts Options, factory ClientFactory, bus EventBus.Bus) (*Session, error) {
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = 3 * time.Second
	}
	if opts.PairingWait <= 0 {
		opts.PairingWait = 3 * time.Second
	}
	if opts.EventWorkers <= 0 {
		opts.EventWorkers = 16
	}
	pool, err := ants.NewPool(opts.EventWorkers)
	if err != nil {
		return nil, errors.Wrap(err, "create whatsapp event pool")
	}
	return &Session{opts: opts, factory: factory, bus: bus, pool: pool}, nil
}

// OnMessage registers h for every inbound message. Handlers run on the event
// pool, so several messages are processed concurrently.
func (s *Session) OnMessage(h MessageHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Handle returns the live sender, or ErrConnectionNotReady unless the
// connection is open.
func (s *Session) Handle() (Sender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateOpen || s.client == nil {
		return nil, domain.ErrConnectionNotReady
	}
	return s.client, nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		State:       s.state.String(),
		Ready:       s.state == StateOpen && s.client != nil,
		PairingCode: s.pairingCode,
	}
	if s.client != nil {
		st.Registered = s.client.Registered()
		st.Connected = s.client.IsConnected()
		if jid := s.client.JID(); !jid.IsEmpty() {
			st.JID = jid.String()
		}
	}
	return st
}

// Start loads the credential state and connects. An unregistered device gets
// a pairing code for phone (or the configured number). Without any number
// the device is left waiting and Start returns without error.
func (s *Session) Start(ctx context.Context, phone string) (*StartResult, error) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	if s.client != nil {
		res := &StartResult{AlreadyRunning: true, Registered: s.client.Registered(), State: s.state.String(), PairingCode: s.pairingCode}
		s.mu.Unlock()
		return res, nil
	}
	s.mu.Unlock()

	cli, err := s.factory(ctx)
	if err != nil {
		zap.L().Error("whatsapp: failed to load credential state", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.stop = make(chan struct{})
	s.qrReady = make(chan struct{})
	qrReady := s.qrReady
	s.client = cli
	s.state = StateConnecting
	s.pairingCode = ""
	s.mu.Unlock()

	cli.AddEventHandler(func(evt interface{}) {
		s.handleEvent(gen, evt)
	})
	s.publishState(StateChange{State: StateConnecting})

	registered := cli.Registered()
	res := &StartResult{Registered: registered}

	zap.L().Info("whatsapp: connecting", zap.Bool("registered", registered))
	if err := cli.Connect(); err != nil {
		zap.L().Warn("whatsapp: connect failed", zap.Error(err))
		s.scheduleReconnect(gen, 0)
		res.State = s.State().String()
		return res, errors.Wrap(err, "whatsapp connect")
	}

	if !registered {
		number := SanitizeNumber(phone)
		if number == "" {
			number = SanitizeNumber(s.opts.PhoneNumber)
		}
		if number == "" {
			zap.L().Warn("whatsapp: device not registered and no phone number configured, pairing skipped")
		} else {
			code, err := s.pair(ctx, gen, cli, qrReady, number)
			if err != nil {
				res.State = s.State().String()
				return res, err
			}
			res.PairingCode = code
			res.PhoneNumber = number
		}
	}
	res.State = s.State().String()
	return res, nil
}

func (s *Session) pair(ctx context.Context, gen uint64, cli Client, qrReady <-chan struct{}, number string) (string, error) {
	// PairPhone is only accepted once the server has offered QR refs.
	t := time.NewTimer(s.opts.PairingWait)
	defer t.Stop()
	select {
	case <-qrReady:
	case <-t.C:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	code, err := cli.PairPhone(ctx, number)
	if err != nil {
		zap.L().Error("whatsapp: pairing code request failed", zap.String("phone", number), zap.Error(err))
		return "", errors.Wrap(err, "request pairing code")
	}

	s.mu.Lock()
	if gen == s.gen {
		s.pairingCode = code
	}
	s.mu.Unlock()
	zap.L().Info("whatsapp: pairing code issued", zap.String("phone", number), zap.String("code", code))
	s.publishState(StateChange{State: StateConnecting, PairingCode: code})
	return code, nil
}

// Logout unlinks the device, deletes the credential state and drops the
// handle. Calling it without a session is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	cli := s.client
	if cli == nil {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	s.halt()
	s.client = nil
	s.state = StateIdle
	s.pairingCode = ""
	s.mu.Unlock()

	if cli.IsLoggedIn() {
		if err := cli.Logout(ctx); err != nil {
			zap.L().Warn("whatsapp: server logout failed, removing local credentials", zap.Error(err))
		}
	}
	cli.Disconnect()
	if err := cli.DeleteCredentials(ctx); err != nil {
		zap.L().Error("whatsapp: failed to delete credential state", zap.Error(err))
		return errors.Wrap(err, "delete credential state")
	}
	zap.L().Info("whatsapp: logged out, session removed")
	s.publishState(StateChange{State: StateIdle, Reason: "logout"})
	return nil
}

// Close disconnects without touching the credential state.
func (s *Session) Close() {
	s.mu.Lock()
	cli := s.client
	s.gen++
	s.halt()
	s.client = nil
	s.state = StateIdle
	s.mu.Unlock()
	if cli != nil {
		cli.Disconnect()
	}
	s.pool.Release()
}

// halt stops any pending reconnect. Callers hold s.mu.
func (s *Session) halt() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Session) handleEvent(gen uint64, evt interface{}) {
	s.mu.RLock()
	current := gen == s.gen
	s.mu.RUnlock()
	if !current {
		return
	}

	switch e := evt.(type) {
	case *events.QR:
		s.mu.Lock()
		if s.qrReady != nil {
			close(s.qrReady)
			s.qrReady = nil
		}
		s.mu.Unlock()
	case *events.PairSuccess:
		zap.L().Info("whatsapp: pairing succeeded", zap.String("jid", e.ID.String()), zap.String("platform", e.Platform))
	case *events.Connected:
		s.mu.Lock()
		if gen != s.gen || s.client == nil {
			s.mu.Unlock()
			return
		}
		s.state = StateOpen
		s.pairingCode = ""
		jid := s.client.JID().String()
		s.mu.Unlock()
		zap.L().Info("whatsapp: connected", zap.String("jid", jid))
		s.publishState(StateChange{State: StateOpen, JID: jid})
	case *events.LoggedOut:
		s.revoke(gen, e.Reason.String())
	case *events.ConnectFailure:
		if e.Reason.IsLoggedOut() {
			s.revoke(gen, e.Reason.String())
			return
		}
		zap.L().Warn("whatsapp: connect failure", zap.String("reason", e.Reason.String()), zap.String("message", e.Message))
		s.scheduleReconnect(gen, 0)
	case *events.Disconnected:
		zap.L().Warn("whatsapp: disconnected, reconnecting")
		s.scheduleReconnect(gen, 0)
	case *events.StreamReplaced:
		zap.L().Warn("whatsapp: stream replaced by another connection, reconnecting")
		s.scheduleReconnect(gen, 0)
	case *events.TemporaryBan:
		// whatsmeow closes the socket itself, no Disconnected follows
		zap.L().Error("whatsapp: temporary ban, reconnecting after expiry",
			zap.String("ban", e.String()), zap.Duration("expire", e.Expire))
		s.scheduleReconnect(gen, e.Expire)
	case *events.CATRefreshError:
		zap.L().Warn("whatsapp: cat refresh failed, reconnecting")
		s.scheduleReconnect(gen, 0)
	case *events.ClientOutdated:
		zap.L().Error("whatsapp: client version rejected by server, session released")
		s.release(gen, "client outdated")
	case *events.Message:
		s.mu.RLock()
		cli := s.client
		s.mu.RUnlock()
		msg := newInboundMessage(e)
		if err := s.pool.Submit(func() { s.dispatch(cli, msg) }); err != nil {
			zap.L().Error("whatsapp: failed to dispatch inbound message", zap.String("id", msg.ID), zap.Error(err))
		}
	}
}

// dispatch runs on the event pool. LID senders without a phone number in the
// event are resolved through the device's LID map first.
func (s *Session) dispatch(cli Client, msg *InboundMessage) {
	if !msg.senderLID.IsEmpty() && cli != nil {
		ctx, cancel := context.WithTimeout(context.Background(), lidLookupTimeout)
		pn, err := cli.PhoneForLID(ctx, msg.senderLID)
		cancel()
		switch {
		case err != nil:
			zap.L().Warn("whatsapp: lid lookup failed", zap.String("lid", msg.senderLID.String()), zap.Error(err))
		case !pn.IsEmpty():
			msg.Sender = pn.User
		}
	}

	s.handlersMu.RLock()
	handlers := s.handlers
	s.handlersMu.RUnlock()
	for _, h := range handlers {
		h(msg)
	}
}

// release drops the client but keeps the credential state, so a later Start
// can bring the session back.
func (s *Session) release(gen uint64, reason string) {
	s.mu.Lock()
	if gen != s.gen || s.client == nil {
		s.mu.Unlock()
		return
	}
	cli := s.client
	s.gen++
	s.halt()
	s.client = nil
	s.state = StateIdle
	s.pairingCode = ""
	s.mu.Unlock()

	go cli.Disconnect()
	s.publishState(StateChange{State: StateIdle, Reason: reason})
}

// revoke handles server-side logout: credentials are deleted and no
// reconnect is attempted.
func (s *Session) revoke(gen uint64, reason string) {
	s.mu.Lock()
	if gen != s.gen || s.client == nil {
		s.mu.Unlock()
		return
	}
	cli := s.client
	s.gen++
	s.halt()
	s.client = nil
	s.state = StateRevoked
	s.pairingCode = ""
	s.mu.Unlock()

	zap.L().Warn("whatsapp: session revoked, credentials removed", zap.String("reason", reason))
	go func() {
		cli.Disconnect()
		if err := cli.DeleteCredentials(context.Background()); err != nil {
			zap.L().Error("whatsapp: failed to delete credential state", zap.Error(err))
		}
	}()
	s.publishState(StateChange{State: StateRevoked, Reason: reason})
}

// scheduleReconnect starts a reconnect loop for gen unless one is already
// pending. The first attempt waits at least delay.
func (s *Session) scheduleReconnect(gen uint64, delay time.Duration) {
	s.mu.Lock()
	if gen != s.gen || s.client == nil || s.state == StateRevoked {
		s.mu.Unlock()
		return
	}
	s.state = StateReconnecting
	stop := s.stop
	s.mu.Unlock()
	s.publishState(StateChange{State: StateReconnecting})

	wait := s.opts.ReconnectBackoff
	if delay > wait {
		wait = delay
	}
	s.reconnects.DoChan(fmt.Sprintf("reconnect-%d", gen), func() (interface{}, error) {
		for attempt := 1; ; attempt++ {
			t := time.NewTimer(wait)
			wait = s.opts.ReconnectBackoff
			select {
			case <-t.C:
			case <-stop:
				t.Stop()
				return nil, nil
			}
			done, err := s.reconnect(gen)
			if done {
				return nil, nil
			}
			zap.L().Warn("whatsapp: reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
		}
	})
}

// reconnect reports done=true when the attempt succeeded or is no longer wanted.
func (s *Session) reconnect(gen uint64) (bool, error) {
	s.mu.RLock()
	cli := s.client
	stale := gen != s.gen || cli == nil || s.state == StateRevoked
	s.mu.RUnlock()
	if stale {
		return true, nil
	}
	cli.Disconnect()
	if err := cli.Connect(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) publishState(change StateChange) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(TopicState, change)
}
