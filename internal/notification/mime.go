package notification

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"
)

// ErrHeaderInjection is returned when an address would break out of its header line.
var ErrHeaderInjection = errors.New("address contains a line break")

// buildMIME renders msg as a multipart/alternative RFC 5322 message.
func buildMIME(from string, msg Message, now time.Time) ([]byte, error) {
	for _, addr := range []string{from, msg.To} {
		if strings.ContainsAny(addr, "\r\n") {
			return nil, fmt.Errorf("%w: %q", ErrHeaderInjection, addr)
		}
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/alternative; boundary=%q\r\n\r\n",
		from,
		msg.To,
		mime.QEncoding.Encode("utf-8", msg.Subject),
		now.Format(time.RFC1123Z),
		mw.Boundary(),
	)
	var out bytes.Buffer
	out.WriteString(header)

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write mime part: %w", err)
		}
		if err := qp.Close(); err != nil {
			return nil, fmt.Errorf("close mime part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}
	out.Write(buf.Bytes())
	return out.Bytes(), nil
}
