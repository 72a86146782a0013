// internal/quote/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"time"

	"quoteflow-workers/internal/common/errors"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/metrics"
	"quoteflow-workers/internal/models"
)

// Notification kinds sent by the engine.
const (
	KindEvaluationForwarded = "evaluation-forwarded"
	KindPaymentReminder     = "payment-reminder"
	KindQuoteExpiring       = "quote-expiring"
)

// Priority levels; high-priority notifications also go out as SMS.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification is one outbound message.
type Notification struct {
	Kind      string                 `json:"kind"`
	Priority  string                 `json:"priority"`
	Recipient string                 `json:"recipient"`
	Phone     string                 `json:"phone,omitempty"`
	Subject   string                 `json:"subject"`
	Body      string                 `json:"body"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Notifier delivers notifications. Delivery is best-effort: callers log
// and continue on error.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// EmailSender is satisfied by the SES client wrapper.
type EmailSender interface {
	SendSimpleEmail(ctx context.Context, from, to, subject, htmlBody string) error
}

// SMSSender is satisfied by the SNS client wrapper.
type SMSSender interface {
	PublishSMS(ctx context.Context, phoneNumber, message string) error
}

// Service sends email through SES, plus SMS through SNS for high-priority
// notifications with a phone number.
type Service struct {
	email     EmailSender
	sms       SMSSender
	fromEmail string
	logger    logger.Logger
}

func NewService(email EmailSender, sms SMSSender, fromEmail string, log logger.Logger) *Service {
	return &Service{
		email:     email,
		sms:       sms,
		fromEmail: fromEmail,
		logger:    log,
	}
}

func (s *Service) Send(ctx context.Context, n Notification) error {
	if n.Recipient == "" {
		return errors.NewNotificationSendFailedError(n.Kind, fmt.Errorf("notification has no recipient"))
	}

	if err := s.email.SendSimpleEmail(ctx, s.fromEmail, n.Recipient, n.Subject, n.Body); err != nil {
		metrics.NotificationFailures.WithLabelValues("email").Inc()
		return errors.NewNotificationSendFailedError(n.Kind, err)
	}

	s.logger.Info("notification email sent", map[string]interface{}{
		"kind":      n.Kind,
		"recipient": n.Recipient,
	})

	if n.Priority == PriorityHigh && n.Phone != "" && s.sms != nil {
		if err := s.sms.PublishSMS(ctx, n.Phone, n.Subject); err != nil {
			// Email already went out; the SMS leg alone failing is logged,
			// not returned.
			metrics.NotificationFailures.WithLabelValues("sms").Inc()
			s.logger.Warn("notification sms failed", map[string]interface{}{
				"kind":  n.Kind,
				"phone": n.Phone,
				"error": err.Error(),
			})
		}
	}

	return nil
}

// ForwardSummary builds the notification sent after an evaluation forward:
// how many quotes went to the client and which insurer rated best.
func ForwardSummary(recipient string, quoteID string, set []*models.EvaluatedQuote) Notification {
	var best *models.EvaluatedQuote
	for _, eq := range set {
		if best == nil || eq.RatingScore > best.RatingScore {
			best = eq
		}
	}

	body := fmt.Sprintf("<p>%d insurer quote(s) have been forwarded for selection.</p>", len(set))
	if best != nil {
		body += fmt.Sprintf("<p>Top rated: %s (score %d, premium %.2f).</p>",
			best.InsurerName, best.RatingScore, best.PremiumQuoted)
	}

	return Notification{
		Kind:      KindEvaluationForwarded,
		Priority:  PriorityNormal,
		Recipient: recipient,
		Subject:   fmt.Sprintf("Quotes ready for your selection (%d received)", len(set)),
		Body:      body,
		Metadata: map[string]interface{}{
			"quoteId": quoteID,
			"count":   len(set),
		},
	}
}

// PaymentReminder builds the high-priority reminder for an unpaid premium.
func PaymentReminder(recipient, phone, quoteNumber string, amount float64, currency string) Notification {
	return Notification{
		Kind:      KindPaymentReminder,
		Priority:  PriorityHigh,
		Recipient: recipient,
		Phone:     phone,
		Subject:   fmt.Sprintf("Premium payment due for quote %s", quoteNumber),
		Body: fmt.Sprintf("<p>Your premium of %s %.2f for quote %s is awaiting payment.</p>",
			currency, amount, quoteNumber),
	}
}

// QuoteExpiring builds the reminder for a sent quote whose validity window
// is closing, so the broker can chase the client before it lapses.
func QuoteExpiring(recipient, quoteNumber string, validUntil time.Time, premium float64, currency string) Notification {
	expires := validUntil.Format("2 January 2006")
	return Notification{
		Kind:      KindQuoteExpiring,
		Priority:  PriorityNormal,
		Recipient: recipient,
		Subject:   fmt.Sprintf("Quote %s expires on %s", quoteNumber, expires),
		Body: fmt.Sprintf("<p>Quote %s (%s %.2f) is only valid until %s. Follow up with the client before it lapses.</p>",
			quoteNumber, currency, premium, expires),
		Metadata: map[string]interface{}{
			"quoteNumber": quoteNumber,
			"validUntil":  validUntil,
		},
	}
}
