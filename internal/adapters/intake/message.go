package intake

import (
	"bytes"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/mikey/claim-triage/internal/core"
)

// ParseClaimMessage turns a raw RFC 5322 message into a claim email.
// envelopeFrom overrides the From header when set.
func ParseClaimMessage(raw []byte, envelopeFrom string, recipients []string) (core.ClaimEmail, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return core.ClaimEmail{}, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return core.ClaimEmail{}, fmt.Errorf("failed to extract text content: %w", err)
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}

	from := envelopeFrom
	if from == "" {
		from = extractEmailAddress(msg.Header.Get("From"))
	}

	to := recipients
	if len(to) == 0 {
		if list, err := msg.Header.AddressList("To"); err == nil {
			for _, addr := range list {
				to = append(to, addr.Address)
			}
		}
	}

	id := strings.Trim(strings.TrimSpace(msg.Header.Get("Message-ID")), "<>")
	if id == "" {
		id = uuid.NewString()
	}

	return core.ClaimEmail{
		ID:      id,
		From:    from,
		To:      strings.Join(to, ", "),
		Subject: subject,
		Body:    strings.TrimSpace(body),
	}, nil
}
