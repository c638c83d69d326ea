package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/ports"
)

// SMTPIntake accepts claim emails over SMTP and triages each message
type SMTPIntake struct {
	processor  ports.ClaimProcessor
	sink       ports.BundleSink
	logger     *zap.Logger
	listenAddr string
	timeout    time.Duration
	server     *smtp.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewSMTPIntake creates a new SMTP claim intake
func NewSMTPIntake(
	processor ports.ClaimProcessor,
	sink ports.BundleSink,
	logger *zap.Logger,
	listenAddr string,
	timeout time.Duration,
) *SMTPIntake {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPIntake{
		processor:  processor,
		sink:       sink,
		logger:     logger,
		listenAddr: listenAddr,
		timeout:    timeout,
	}
}

// Start starts the SMTP listener in the background
func (f *SMTPIntake) Start() error {
	f.server = smtp.NewServer(&smtpBackend{intake: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	l, err := net.Listen("tcp", f.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.listenAddr, err)
	}
	f.mu.Lock()
	f.listener = l
	f.mu.Unlock()

	f.logger.Info("SMTP intake starting", zap.String("address", l.Addr().String()))

	go func() {
		if err := f.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound listen address once started
func (f *SMTPIntake) Addr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return f.listenAddr
	}
	return f.listener.Addr().String()
}

// Stop stops the SMTP listener
func (f *SMTPIntake) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// handleMessage triages one raw message. Only unparseable messages are rejected.
func (f *SMTPIntake) handleMessage(sender string, recipients []string, raw []byte) error {
	email, err := ParseClaimMessage(raw, sender, recipients)
	if err != nil {
		f.logger.Error("Failed to parse claim message", zap.Error(err), zap.String("sender", sender))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	bundle, err := f.processor.Process(ctx, email)
	if err != nil {
		// the message stays accepted, a failed claim must not bounce the sender
		f.logger.Error("Failed to triage claim email",
			zap.Error(err),
			zap.String("email_id", email.ID),
			zap.String("sender", email.From))
		return nil
	}

	if err := f.sink.Write(bundle); err != nil {
		f.logger.Error("Failed to write triage bundle", zap.Error(err), zap.String("email_id", email.ID))
		return nil
	}

	f.logger.Info("Processed claim email",
		zap.String("email_id", email.ID),
		zap.String("from", email.From),
		zap.String("sender_domain", senderDomain(email.From)),
		zap.Float64("score", bundle.Score.Score),
		zap.String("action", string(bundle.Score.Action)))
	return nil
}

func senderDomain(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "unknown"
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	intake *SMTPIntake
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		intake:     b.intake,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	intake     *SMTPIntake
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data handles the email data
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	return s.intake.handleMessage(s.sender, s.recipients, raw)
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}

var _ ports.ClaimIntake = (*SMTPIntake)(nil)
