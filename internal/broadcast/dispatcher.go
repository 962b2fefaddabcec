package broadcast

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/whatsapp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Options struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Result summarizes a finished broadcast.
type Result struct {
	Sent int `json:"sent"`
}

// Dispatcher sends one message to many numbers, one at a time, pausing a
// random interval in [MinDelay, MaxDelay] after every send.
type Dispatcher struct {
	session whatsapp.HandleProvider
	logs    LogRepository
	opts    Options

	rndMu sync.Mutex
	rnd   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error

	// cancelled by Close on shutdown
	halt   context.Context
	cancel context.CancelFunc
}

func NewDispatcher(session whatsapp.HandleProvider, logs LogRepository, opts Options) *Dispatcher {
	if opts.MinDelay <= 0 && opts.MaxDelay <= 0 {
		opts.MinDelay = 3000 * time.Millisecond
		opts.MaxDelay = 5000 * time.Millisecond
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	halt, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		session: session,
		logs:    logs,
		opts:    opts,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   sleepContext,
		halt:    halt,
		cancel:  cancel,
	}
}

// Close stops running broadcasts at their next send or pause.
func (d *Dispatcher) Close() {
	d.cancel()
}

// Broadcast delivers message to every number in order. The first failed send
// aborts the run; log entries already written are kept. The run outlives
// cancellation of ctx and only stops early when the dispatcher is closed.
func (d *Dispatcher) Broadcast(ctx context.Context, numbers []string, message string) (*Result, error) {
	if len(numbers) == 0 || strings.TrimSpace(message) == "" {
		return nil, domain.NewValidationError("Daftar nomor dan pesan wajib diisi")
	}
	jids := make([]string, 0, len(numbers))
	for _, n := range numbers {
		digits := whatsapp.SanitizeNumber(n)
		if digits == "" {
			return nil, domain.NewValidationError("Nomor tidak valid: " + n)
		}
		jids = append(jids, digits)
	}
	sender, err := d.session.Handle()
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.WithoutCancel(ctx))
	defer stop()
	unregister := context.AfterFunc(d.halt, stop)
	defer unregister()

	res := &Result{}
	for _, number := range jids {
		jid, _ := whatsapp.RecipientJID(number)
		if err := sender.SendText(ctx, jid, message); err != nil {
			zap.L().Error("broadcast: send failed, aborting",
				zap.String("phone", number), zap.Int("sent", res.Sent), zap.Error(err))
			return res, domain.NewDeliveryError("Gagal mengirim broadcast ke "+number, err)
		}
		res.Sent++
		if err := d.logs.Create(ctx, &domain.BroadcastLog{PhoneNumber: number, Message: message}); err != nil {
			zap.L().Error("broadcast: failed to write log", zap.String("phone", number), zap.Error(err))
			return res, domain.NewPersistenceError("Gagal menyimpan log broadcast", err)
		}
		zap.L().Debug("broadcast: message sent", zap.String("phone", number))
		if err := d.sleep(ctx, d.nextDelay()); err != nil {
			zap.L().Warn("broadcast: stopped by shutdown", zap.Int("sent", res.Sent), zap.Int("total", len(jids)))
			return res, errors.Wrap(err, "broadcast interrupted by shutdown")
		}
	}
	zap.L().Info("broadcast: completed", zap.Int("sent", res.Sent))
	return res, nil
}

// PurgeLogs removes log entries older than days; days <= 0 keeps everything.
func (d *Dispatcher) PurgeLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return d.logs.DeleteOlderThan(ctx, days)
}

func (d *Dispatcher) nextDelay() time.Duration {
	span := int64(d.opts.MaxDelay - d.opts.MinDelay)
	if span <= 0 {
		return d.opts.MinDelay
	}
	d.rndMu.Lock()
	defer d.rndMu.Unlock()
	return d.opts.MinDelay + time.Duration(d.rnd.Int63n(span+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
