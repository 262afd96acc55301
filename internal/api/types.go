package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/spa-bookings/internal/booking"
	"github.com/hackgods/spa-bookings/internal/payment"
	"github.com/hackgods/spa-bookings/internal/testimonial"
)

// flexString accepts a JSON string or number, so "60min", "60", 60 and 60.5 all decode.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

type CreateBookingRequest struct {
	Service       string     `json:"service" validate:"required"`
	TherapyName   string     `json:"therapyName" validate:"required_without=TherapistName"`
	TherapistName string     `json:"therapistName"`
	Duration      flexString `json:"duration" validate:"required"`
	Price         flexString `json:"price" validate:"required"`
	Name          string     `json:"name" validate:"required"`
	Phone         string     `json:"phone" validate:"required"`
	Datetime      string     `json:"datetime" validate:"required"`
}

func (r CreateBookingRequest) therapist() string {
	if strings.TrimSpace(r.TherapyName) != "" {
		return r.TherapyName
	}
	return r.TherapistName
}

type BookingIDRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
}

type InitiatePaymentRequest struct {
	Amount      flexString `json:"amount" validate:"required"`
	ServiceName string     `json:"serviceName" validate:"required"`
	BookingID   string     `json:"bookingId" validate:"required"`
}

type CreateTestimonialRequest struct {
	ReviewerName   string `json:"reviewerName" validate:"required"`
	ReviewerEmail  string `json:"reviewerEmail" validate:"required"`
	ReviewTitle    string `json:"reviewTitle"`
	ReviewText     string `json:"reviewText" validate:"required"`
	Rating         int    `json:"rating"`
	GenuineOpinion bool   `json:"genuineOpinion"`
}

type BookingResponse struct {
	ID              uuid.UUID `json:"id"`
	Service         string    `json:"service"`
	TherapistName   string    `json:"therapistName"`
	Duration        string    `json:"duration"`
	DurationMinutes int       `json:"durationMinutes"`
	Price           string    `json:"price"`
	CustomerName    string    `json:"customerName"`
	CustomerPhone   string    `json:"customerPhone"`
	StartTime       string    `json:"startTime"`
	EndTime         string    `json:"endTime"`
	PaymentStatus   string    `json:"paymentStatus"`
	CreatedAt       string    `json:"createdAt"`
}

func toBookingResponse(b booking.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		Service:         b.Service,
		TherapistName:   b.TherapistName,
		Duration:        fmt.Sprintf("%dmin", b.DurationMinutes),
		DurationMinutes: b.DurationMinutes,
		Price:           b.Price.StringFixed(2),
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		StartTime:       booking.FormatTime(b.StartTime),
		EndTime:         booking.FormatTime(b.EndTime()),
		PaymentStatus:   string(b.PaymentStatus),
		CreatedAt:       booking.FormatTime(b.CreatedAt),
	}
}

type MessageResponse struct {
	Message string           `json:"message"`
	Booking *BookingResponse `json:"booking,omitempty"`
}

type PaymentInitiatedResponse struct {
	QRCodeURL     string `json:"qrCodeUrl"`
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	BookingID     string `json:"bookingId"`
}

func toPaymentInitiatedResponse(p *payment.Initiation) PaymentInitiatedResponse {
	return PaymentInitiatedResponse{
		QRCodeURL:     p.QRCodeURL,
		TransactionID: p.TransactionID,
		Status:        p.Status,
		Amount:        p.Amount.StringFixed(2),
		BookingID:     p.BookingID,
	}
}

type TestimonialResponse struct {
	ID             uuid.UUID `json:"id"`
	ReviewerName   string    `json:"reviewerName"`
	ReviewerEmail  string    `json:"reviewerEmail"`
	ReviewTitle    string    `json:"reviewTitle"`
	ReviewText     string    `json:"reviewText"`
	Rating         int       `json:"rating"`
	GenuineOpinion bool      `json:"genuineOpinion"`
	CreatedAt      string    `json:"createdAt"`
}

func toTestimonialResponse(t testimonial.Testimonial) TestimonialResponse {
	return TestimonialResponse{
		ID:             t.ID,
		ReviewerName:   t.ReviewerName,
		ReviewerEmail:  t.ReviewerEmail,
		ReviewTitle:    t.ReviewTitle,
		ReviewText:     t.ReviewText,
		Rating:         t.Rating,
		GenuineOpinion: t.GenuineOpinion,
		CreatedAt:      booking.FormatTime(t.CreatedAt),
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
