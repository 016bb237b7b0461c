// Package delivery sends rendered summaries to their recipients.
package delivery

import (
	"context"
	"errors"
)

// Fixed content of the summary email.
const (
	SummarySubject        = "Your SummarIQ Document Summary"
	SummaryBody           = "Please find your summarized document attached as a PDF."
	SummaryAttachmentName = "summary.pdf"
	PDFContentType        = "application/pdf"
)

// ErrInvalidMessage is returned for messages that cannot be built, such as a
// malformed recipient or a missing attachment name.
var ErrInvalidMessage = errors.New("invalid message")

// Message is one outgoing email with at most one attachment.
type Message struct {
	To             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
	AttachmentType string
}

// Sender delivers a message. Implementations must not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SummaryMessage builds the standard summary email carrying pdf.
func SummaryMessage(to string, pdf []byte) Message {
	return Message{
		To:             to,
		Subject:        SummarySubject,
		Body:           SummaryBody,
		Attachment:     pdf,
		AttachmentName: SummaryAttachmentName,
		AttachmentType: PDFContentType,
	}
}
