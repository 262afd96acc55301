package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const StatusPending = "pending"

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Service simulates a QR payment gateway: it waits a fixed delay and hands back a
// QR image URL encoding the payment details. No money moves.
type Service struct {
	delay     time.Duration
	qrBaseURL string
	now       func() time.Time
}

func NewService(delay time.Duration, qrBaseURL string) *Service {
	return &Service{
		delay:     delay,
		qrBaseURL: qrBaseURL,
		now:       time.Now,
	}
}

type InitiateInput struct {
	Amount      decimal.Decimal
	ServiceName string
	BookingID   string
}

type Initiation struct {
	QRCodeURL     string
	TransactionID string
	Status        string
	Amount        decimal.Decimal
	BookingID     string
}

func (s *Service) Initiate(ctx context.Context, in InitiateInput) (*Initiation, error) {
	in.ServiceName = strings.TrimSpace(in.ServiceName)
	in.BookingID = strings.TrimSpace(in.BookingID)

	switch {
	case in.BookingID == "":
		return nil, &ValidationError{msg: "bookingId is required"}
	case in.ServiceName == "":
		return nil, &ValidationError{msg: "serviceName is required"}
	case !in.Amount.IsPositive():
		return nil, &ValidationError{msg: "amount must be greater than zero"}
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	txID := transactionID(s.now())
	qrURL, err := s.qrURL(txID, in)
	if err != nil {
		return nil, err
	}

	return &Initiation{
		QRCodeURL:     qrURL,
		TransactionID: txID,
		Status:        StatusPending,
		Amount:        in.Amount,
		BookingID:     in.BookingID,
	}, nil
}

// transactionID has the shape TXN-<unix millis>-<8 hex>.
func transactionID(now time.Time) string {
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *Service) qrURL(txID string, in InitiateInput) (string, error) {
	u, err := url.Parse(s.qrBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse qr base url: %w", err)
	}

	data, err := json.Marshal(map[string]string{
		"transactionId": txID,
		"bookingId":     in.BookingID,
		"service":       in.ServiceName,
		"amount":        in.Amount.StringFixed(2),
	})
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}

	q := u.Query()
	q.Set("size", "250x250")
	q.Set("data", string(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
