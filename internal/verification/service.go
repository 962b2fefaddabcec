package verification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/whatsapp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Options struct {
	ApprovalTTL      time.Duration
	OtpTemplate      string // {code} placeholder
	ApprovalTemplate string // {code} and {ttl} placeholders
	ApprovalReply    string
}

// Issued is the result of a successful issuance. The code itself is only
// delivered over WhatsApp.
type Issued struct {
	PhoneNumber string     `json:"phone_number"`
	Code        string     `json:"-"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Service issues and verifies OTP and approval codes.
type Service struct {
	session   whatsapp.HandleProvider
	otps      OtpRepository
	approvals ApprovalRepository
	opts      Options
	now       func() time.Time
}

func NewService(session whatsapp.HandleProvider, otps OtpRepository, approvals ApprovalRepository, opts Options) *Service {
	if opts.ApprovalTTL <= 0 {
		opts.ApprovalTTL = 10 * time.Minute
	}
	if opts.OtpTemplate == "" {
		opts.OtpTemplate = "Kode OTP Anda: {code}"
	}
	if opts.ApprovalTemplate == "" {
		opts.ApprovalTemplate = "Untuk konfirmasi, balas \"{code}\" pada chat ini.\n\nKode ini berlaku selama {ttl}."
	}
	if opts.ApprovalReply == "" {
		opts.ApprovalReply = "✅ Kode approval diterima, terima kasih."
	}
	return &Service{session: session, otps: otps, approvals: approvals, opts: opts, now: time.Now}
}

// ApprovalTTL is how long an issued approval code stays valid.
func (s *Service) ApprovalTTL() time.Duration {
	return s.opts.ApprovalTTL
}

// FormatValidity renders d for user facing messages, e.g. "10 menit".
func FormatValidity(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d jam", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d menit", d/time.Minute)
	default:
		return fmt.Sprintf("%d detik", (d+time.Second-1)/time.Second)
	}
}

func render(template, code string, ttl time.Duration) string {
	return strings.NewReplacer("{code}", code, "{ttl}", FormatValidity(ttl)).Replace(template)
}

// prepare validates the number and resolves the sender before anything is
// written to the store.
func (s *Service) prepare(phone string) (string, whatsapp.Sender, error) {
	if strings.TrimSpace(phone) == "" {
		return "", nil, domain.NewValidationError("Nomor WhatsApp wajib diisi")
	}
	jid, err := whatsapp.UserJID(phone)
	if err != nil {
		return "", nil, err
	}
	sender, err := s.session.Handle()
	if err != nil {
		return "", nil, err
	}
	return jid.User, sender, nil
}

// IssueOTP stores a fresh OTP for phone and sends it.
func (s *Service) IssueOTP(ctx context.Context, phone string) (*Issued, error) {
	number, sender, err := s.prepare(phone)
	if err != nil {
		return nil, err
	}
	code, err := GenerateOTP()
	if err != nil {
		return nil, errors.Wrap(err, "generate otp")
	}
	if _, err := s.otps.Upsert(ctx, number, code); err != nil {
		zap.L().Error("verification: failed to save otp", zap.String("phone", number), zap.Error(err))
		return nil, domain.NewPersistenceError("Gagal menyimpan OTP", err)
	}
	if err := s.deliver(ctx, sender, number, render(s.opts.OtpTemplate, code, 0)); err != nil {
		return nil, err
	}
	zap.L().Info("verification: otp issued", zap.String("phone", number))
	return &Issued{PhoneNumber: number, Code: code}, nil
}

// IssueApproval stores a fresh approval code valid for ApprovalTTL and sends it.
func (s *Service) IssueApproval(ctx context.Context, phone string) (*Issued, error) {
	number, sender, err := s.prepare(phone)
	if err != nil {
		return nil, err
	}
	code, err := GenerateApprovalCode()
	if err != nil {
		return nil, errors.Wrap(err, "generate approval code")
	}
	expiresAt := s.now().Add(s.opts.ApprovalTTL)
	if _, err := s.approvals.Upsert(ctx, number, code, expiresAt); err != nil {
		zap.L().Error("verification: failed to save approval", zap.String("phone", number), zap.Error(err))
		return nil, domain.NewPersistenceError("Gagal menyimpan kode approval", err)
	}
	if err := s.deliver(ctx, sender, number, render(s.opts.ApprovalTemplate, code, s.opts.ApprovalTTL)); err != nil {
		return nil, err
	}
	zap.L().Info("verification: approval code issued", zap.String("phone", number), zap.Time("expires_at", expiresAt))
	return &Issued{PhoneNumber: number, Code: code, ExpiresAt: &expiresAt}, nil
}

// deliver sends text after the code is persisted. A failure here leaves the
// stored code in place.
func (s *Service) deliver(ctx context.Context, sender whatsapp.Sender, number, text string) error {
	jid, err := whatsapp.UserJID(number)
	if err != nil {
		return err
	}
	if err := sender.SendText(ctx, jid, text); err != nil {
		zap.L().Error("verification: code saved but delivery failed", zap.String("phone", number), zap.Error(err))
		return domain.NewDeliveryError("Gagal mengirim pesan", err)
	}
	return nil
}

// VerifyOTP reports whether code is the latest OTP stored for phone.
// Verification neither checks expiry nor consumes the code.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (bool, error) {
	number := whatsapp.SanitizeNumber(phone)
	code = strings.TrimSpace(code)
	if number == "" || code == "" {
		return false, domain.NewValidationError("Nomor dan OTP wajib diisi")
	}
	rec, err := s.otps.FindLatest(ctx, number, code)
	if err != nil {
		zap.L().Error("verification: otp lookup failed", zap.String("phone", number), zap.Error(err))
		return false, domain.NewPersistenceError("Gagal memeriksa OTP", err)
	}
	return rec != nil, nil
}

// PurgeExpiredApprovals removes approval rows past their expiry.
func (s *Service) PurgeExpiredApprovals(ctx context.Context) (int64, error) {
	return s.approvals.DeleteExpired(ctx, s.now())
}

// PurgeStaleOTPs removes OTP rows not reissued within retention.
func (s *Service) PurgeStaleOTPs(ctx context.Context, retention time.Duration) (int64, error) {
	return s.otps.DeleteOlderThan(ctx, s.now().Add(-retention))
}
