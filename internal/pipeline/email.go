package pipeline

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"github.com/dgallion1/summariq/internal/delivery"
	"github.com/dgallion1/summariq/internal/report"
)

// EmailSummaryRequest asks for summary to be rendered and mailed to Email.
type EmailSummaryRequest struct {
	Email   string
	Summary string
}

// SendSummary renders req.Summary to PDF and mails it as the standard summary
// message. Nothing is sent when validation or rendering fails.
func (o *Orchestrator) SendSummary(ctx context.Context, req EmailSummaryRequest) (err error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.SendSummary")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		o.metrics.email(err)
		span.End()
	}()

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Summary == "" {
		return validation(ErrMissingFields, "")
	}
	addr, perr := mail.ParseAddress(email)
	if perr != nil || addr.Address != email {
		return validation(ErrInvalidAddress, "")
	}

	pdf, err := o.RenderSummary(req.Summary)
	if err != nil {
		return err
	}

	if err := o.sender.Send(ctx, delivery.SummaryMessage(email, pdf)); err != nil {
		return &Error{Kind: KindDelivery, Msg: "failed to send summary email", Err: err}
	}
	o.log.Info("summary emailed", "pdf_bytes", len(pdf))
	return nil
}

// RenderSummary returns the PDF for summary without sending anything.
func (o *Orchestrator) RenderSummary(summary string) ([]byte, error) {
	if summary == "" {
		return nil, validation(ErrMissingFields, "summary required")
	}
	pdf, err := o.renderer.Render(summary)
	if errors.Is(err, report.ErrUnsupportedGlyph) {
		return nil, validation(err, "summary contains characters the pdf font cannot display")
	}
	if err != nil {
		return nil, &Error{Kind: KindRender, Msg: "failed to generate pdf", Err: err}
	}
	return pdf, nil
}
