package intake

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/claim-triage/internal/core"
)

type fakeProcessor struct {
	mu     sync.Mutex
	emails []core.ClaimEmail
	err    error
}

func (p *fakeProcessor) Process(_ context.Context, email core.ClaimEmail) (*core.Bundle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emails = append(p.emails, email)
	if p.err != nil {
		return nil, p.err
	}
	inv := "INV-4521"
	amount := 12500.0
	currency := "INR"
	return &core.Bundle{
		EmailID: email.ID,
		Subject: email.Subject,
		Sender:  email.From,
		Extraction: &core.ExtractionResult{
			InvoiceNumber: &inv,
			ClaimedAmount: &amount,
			Currency:      &currency,
			ClaimType:     core.ClaimNotReceived,
			Confidence:    0.6,
			Origin:        core.SourcePattern,
			IssueSummary:  "Incomplete via pattern; external extraction unavailable",
		},
		Verification: &core.VerificationResult{InvoiceExists: true, Offline: false},
		Score: &core.ScoreResult{
			Score:   0.9,
			Action:  core.ActionHoldPayment,
			Reasons: []string{core.ContradictionAmountMismatch, core.ReasonNonStandardSender},
		},
	}, nil
}

func (p *fakeProcessor) received() []core.ClaimEmail {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.ClaimEmail(nil), p.emails...)
}

type fakeSink struct {
	mu      sync.Mutex
	bundles []*core.Bundle
	err     error
}

func (s *fakeSink) Write(b *core.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.bundles = append(s.bundles, b)
	return nil
}

func (s *fakeSink) written() []*core.Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*core.Bundle(nil), s.bundles...)
}

const simpleClaim = "From: a@other.com\r\nSubject: Goods not received\r\nMessage-ID: <m1@other.com>\r\n\r\nGoods not received for INV-4521\r\n"

func TestHandleMessageWritesBundle(t *testing.T) {
	proc := &fakeProcessor{}
	sink := &fakeSink{}
	obs, logs := observer.New(zapcore.InfoLevel)
	in := NewSMTPIntake(proc, sink, zap.New(obs), "127.0.0.1:0", time.Second)

	require.NoError(t, in.handleMessage("env@other.com", []string{"claims@example.com"}, []byte(simpleClaim)))

	emails := proc.received()
	require.Len(t, emails, 1)
	assert.Equal(t, "m1@other.com", emails[0].ID)
	assert.Equal(t, "env@other.com", emails[0].From)
	assert.Equal(t, "claims@example.com", emails[0].To)

	require.Len(t, sink.written(), 1)
	entries := logs.FilterMessage("Processed claim email").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "other.com", entries[0].ContextMap()["sender_domain"])
}

func TestHandleMessageFailures(t *testing.T) {
	t.Run("unparseable message is rejected", func(t *testing.T) {
		in := NewSMTPIntake(&fakeProcessor{}, &fakeSink{}, zap.NewNop(), "", 0)
		err := in.handleMessage("a@other.com", nil, []byte("garbage without headers\r\n"))

		var smtpErr *smtp.SMTPError
		require.ErrorAs(t, err, &smtpErr)
		assert.Equal(t, 554, smtpErr.Code)
	})

	t.Run("triage failure still accepts", func(t *testing.T) {
		sink := &fakeSink{}
		in := NewSMTPIntake(&fakeProcessor{err: errors.New("provider down")}, sink, zap.NewNop(), "", 0)

		assert.NoError(t, in.handleMessage("a@other.com", nil, []byte(simpleClaim)))
		assert.Empty(t, sink.written())
	})

	t.Run("sink failure still accepts", func(t *testing.T) {
		obs, logs := observer.New(zapcore.ErrorLevel)
		in := NewSMTPIntake(&fakeProcessor{}, &fakeSink{err: errors.New("disk full")}, zap.New(obs), "", 0)

		assert.NoError(t, in.handleMessage("a@other.com", nil, []byte(simpleClaim)))
		assert.Equal(t, 1, logs.FilterMessage("Failed to write triage bundle").Len())
	})
}

func TestSMTPIntakeReceivesMail(t *testing.T) {
	proc := &fakeProcessor{}
	sink := &fakeSink{}
	in := NewSMTPIntake(proc, sink, zap.NewNop(), "127.0.0.1:0", 5*time.Second)

	require.NoError(t, in.Start())
	defer in.Stop()

	err := smtp.SendMail(in.Addr(), nil, "ap@abcchem.com", []string{"claims@example.com"}, strings.NewReader(simpleClaim))
	require.NoError(t, err)

	emails := proc.received()
	require.Len(t, emails, 1)
	assert.Equal(t, "ap@abcchem.com", emails[0].From)
	assert.Equal(t, "Goods not received for INV-4521", emails[0].Body)
	assert.Len(t, sink.written(), 1)
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "abcchem.com", senderDomain("ap@abcchem.com"))
	assert.Equal(t, "unknown", senderDomain("ap@"))
	assert.Equal(t, "unknown", senderDomain(""))
}

func TestCliIntakeReport(t *testing.T) {
	var out bytes.Buffer
	cli := NewCliIntake(&fakeProcessor{}, zap.NewNop(), &out, true)

	bundle, err := cli.ProcessMessage(context.Background(), strings.NewReader(simpleClaim))
	require.NoError(t, err)
	assert.Equal(t, "m1@other.com", bundle.EmailID)

	report := out.String()
	for _, want := range []string{
		"=== Email Summary ===",
		"From: a@other.com",
		"Body preview:",
		"Invoice: INV-4521",
		"PO: -",
		"Claimed amount: 12500.00 INR",
		"Claim type: not_received",
		"Invoice exists: true",
		"Suspicious score: 0.900",
		"Action: HOLD_PAYMENT",
		"Reasons: amount_mismatch, non_standard_sender",
	} {
		assert.Contains(t, report, want)
	}
	assert.NotContains(t, report, "Record store: offline")
}

func TestCliIntakeErrors(t *testing.T) {
	errTriage := errors.New("provider down")
	cli := NewCliIntake(&fakeProcessor{err: errTriage}, zap.NewNop(), &bytes.Buffer{}, false)

	_, err := cli.ProcessMessage(context.Background(), strings.NewReader(simpleClaim))
	assert.ErrorIs(t, err, errTriage)

	_, err = cli.ProcessMessage(context.Background(), strings.NewReader("garbage without headers\r\n"))
	assert.Error(t, err)
}
