package delivery

import (
	"context"
	"log/slog"
)

// LogSender records messages in the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "mail delivery skipped, no smtp host configured",
		"to", msg.To,
		"subject", msg.Subject,
		"attachment", msg.AttachmentName,
		"attachment_bytes", len(msg.Attachment),
	)
	return nil
}
