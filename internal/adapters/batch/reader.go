package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mikey/claim-triage/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// record is one claim email as stored in batch input files
type record struct {
	EmailID       string `json:"email_id"`
	From          string `json:"from"`
	SenderEmail   string `json:"sender_email"`
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	LinkedInvoice string `json:"linked_invoice"`
	LinkedPO      string `json:"linked_po"`
	Label         string `json:"label"`
}

// RecordError is an input record that could not be decoded
type RecordError struct {
	// Position is the line number for JSON Lines and the element number for arrays
	Position int
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Position, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func (r record) email(fallbackID string) core.ClaimEmail {
	from := r.From
	if from == "" {
		from = r.SenderEmail
	}
	id := r.EmailID
	if id == "" {
		id = fallbackID
	}
	return core.ClaimEmail{
		ID:            id,
		From:          from,
		To:            r.To,
		Subject:       r.Subject,
		Body:          r.Body,
		LinkedInvoice: r.LinkedInvoice,
		LinkedPO:      r.LinkedPO,
		Label:         r.Label,
	}
}

// ReadFile reads claim emails from a JSON array or JSON Lines file
func ReadFile(path string) ([]core.ClaimEmail, []*RecordError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read reads claim emails from a JSON array or JSON Lines stream.
// Records that fail to decode are returned as RecordErrors and skipped.
// Emails without an email_id are named line-N (JSON Lines) or email-N (arrays).
func Read(r io.Reader) ([]core.ClaimEmail, []*RecordError, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err == io.EOF {
		return []core.ClaimEmail{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input: %w", err)
	}

	if first == '[' {
		return readArray(br)
	}
	return readLines(br)
}

func readArray(r io.Reader) ([]core.ClaimEmail, []*RecordError, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("failed to decode JSON array: %w", err)
	}

	emails := make([]core.ClaimEmail, 0, len(raw))
	var bad []*RecordError
	for i, msg := range raw {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			bad = append(bad, &RecordError{Position: i + 1, Err: err})
			continue
		}
		emails = append(emails, rec.email(fmt.Sprintf("email-%d", i+1)))
	}
	return emails, bad, nil
}

func readLines(r io.Reader) ([]core.ClaimEmail, []*RecordError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	emails := []core.ClaimEmail{}
	var bad []*RecordError
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || bytes.HasPrefix(text, []byte("//")) {
			continue
		}
		var rec record
		if err := json.Unmarshal(text, &rec); err != nil {
			bad = append(bad, &RecordError{Position: line, Err: err})
			continue
		}
		emails = append(emails, rec.email(fmt.Sprintf("line-%d", line)))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read input: %w", err)
	}
	return emails, bad, nil
}

// firstNonSpace peeks the first non-whitespace byte without consuming it.
// A leading UTF-8 byte order mark is skipped.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, utf8BOM) {
		if _, err := br.Discard(3); err != nil {
			return 0, err
		}
	}
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
