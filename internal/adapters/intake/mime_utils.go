package intake

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

const noTextPlaceholder = "[No text content found in multipart message]"

var headerDecoder = new(mime.WordDecoder)

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages it collects the text/plain parts, descending into nested multiparts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	return extractText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
}

func extractText(contentType, encoding string, body io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, err := io.ReadAll(decodeTransfer(encoding, body))
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	mr := multipart.NewReader(body, boundary)
	var textContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// keep what was read before the broken part
			break
		}

		partType := strings.ToLower(part.Header.Get("Content-Type"))
		switch {
		case partType == "" || strings.Contains(partType, "text/plain"):
			partBytes, err := io.ReadAll(decodeTransfer(part.Header.Get("Content-Transfer-Encoding"), part))
			if err != nil {
				continue
			}
			textContent.Write(partBytes)
			textContent.WriteString("\n")
		case strings.Contains(partType, "multipart/"):
			nested, err := extractText(part.Header.Get("Content-Type"), "", part)
			if err == nil && nested != noTextPlaceholder {
				textContent.WriteString(nested)
			}
		}
	}

	if textContent.Len() > 0 {
		return textContent.String(), nil
	}
	return noTextPlaceholder, nil
}

// decodeTransfer undoes quoted-printable and base64 transfer encodings.
// multipart.Part hides the header of quoted-printable parts it already decoded.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 decodes
type newlineStripper struct {
	r io.Reader
}

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		c, err := n.r.Read(p)
		j := 0
		for _, b := range p[:c] {
			if b != '\r' && b != '\n' {
				p[j] = b
				j++
			}
		}
		if j > 0 || err != nil {
			return j, err
		}
	}
}

// decodeEncodedHeader decodes RFC 2047 encoded words
func decodeEncodedHeader(value string) (string, error) {
	return headerDecoder.DecodeHeader(value)
}

// extractEmailAddress returns the bare address of a header value like "Name <a@b.com>"
func extractEmailAddress(s string) string {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return strings.Trim(strings.TrimSpace(s), "<>")
	}
	return addr.Address
}
