package notification

import (
	"context"
	"unicode/utf8"

	"expense_tracker/internal/logger"
)

const previewLen = 200

// LogSender writes messages to the log instead of delivering them.
// Nothing leaves the process, so a nil error is not a delivery guarantee.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Infow("mail_not_sent",
		"provider", ProviderLog,
		"to", msg.To,
		"subject", msg.Subject,
		"preview", truncatePreview(msg.Text, previewLen),
	)
	return nil
}

// truncatePreview cuts s to at most n bytes without splitting a rune.
func truncatePreview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
