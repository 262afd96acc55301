package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var txPattern = regexp.MustCompile(`^TXN-\d+-[0-9a-f]{8}$`)

func validInput() InitiateInput {
	return InitiateInput{
		Amount:      decimal.RequireFromString("60"),
		ServiceName: "Hot Stone",
		BookingID:   "7f1c9b1e-8a57-4d0e-9a57-1b7c54f1a001",
	}
}

func TestInitiate_ReturnsPendingQR(t *testing.T) {
	svc := NewService(0, "https://qr.example.com/v1/create-qr-code/")
	svc.now = func() time.Time { return time.UnixMilli(1767225600000) }

	got, err := svc.Initiate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Initiate error: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("status = %q, want pending", got.Status)
	}
	if !txPattern.MatchString(got.TransactionID) {
		t.Fatalf("transaction id %q has unexpected shape", got.TransactionID)
	}

	u, err := url.Parse(got.QRCodeURL)
	if err != nil {
		t.Fatalf("parse qr url: %v", err)
	}
	if u.Host != "qr.example.com" {
		t.Fatalf("qr host = %q", u.Host)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(u.Query().Get("data")), &payload); err != nil {
		t.Fatalf("decode qr data: %v", err)
	}
	if payload["transactionId"] != got.TransactionID || payload["amount"] != "60.00" {
		t.Fatalf("qr payload = %v", payload)
	}
}

func TestInitiate_WaitsForDelay(t *testing.T) {
	svc := NewService(30*time.Millisecond, "https://qr.example.com/")

	start := time.Now()
	if _, err := svc.Initiate(context.Background(), validInput()); err != nil {
		t.Fatalf("Initiate error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("returned after %s, want at least 30ms", elapsed)
	}
}

func TestInitiate_ContextCancelledDuringDelay(t *testing.T) {
	svc := NewService(time.Minute, "https://qr.example.com/")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Initiate(ctx, validInput())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

func TestInitiate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *InitiateInput)
	}{
		{"missing booking", func(in *InitiateInput) { in.BookingID = "" }},
		{"missing service", func(in *InitiateInput) { in.ServiceName = "  " }},
		{"zero amount", func(in *InitiateInput) { in.Amount = decimal.Zero }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(time.Minute, "https://qr.example.com/")
			in := validInput()
			tt.mutate(&in)

			start := time.Now()
			_, err := svc.Initiate(context.Background(), in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if time.Since(start) > time.Second {
				t.Fatalf("validation failure waited for the payment delay")
			}
		})
	}
}
