package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Tanvirgit07/Tomato-seller/internal/domain"
	pkgkafka "github.com/Tanvirgit07/Tomato-seller/pkg/kafka"
	"github.com/Tanvirgit07/Tomato-seller/pkg/logger"
)

// Event types published on the auth events topic.
const (
	TypeSignedIn       = "seller.signed_in"
	TypeSigninRejected = "seller.signin_rejected"
	TypeSignedOut      = "seller.signed_out"
)

// Aggregate type constant.
const AggregateTypeSeller = "seller"

// SourceSellerDashboard identifies events originating from this server.
const SourceSellerDashboard = "seller-dashboard"

// Rejection reason codes.
const (
	ReasonInvalidInput       = "invalid_input"
	ReasonAuthFailed         = "authentication_failed"
	ReasonWrongRole          = "unauthorized_role"
	ReasonMalformed          = "malformed_response"
	ReasonBackendUnavailable = "backend_unavailable"
	ReasonTooManyAttempts    = "too_many_attempts"
	ReasonInternal           = "internal"
)

// SignedInData is the payload for a seller.signed_in event.
type SignedInData struct {
	SellerID  string    `json:"seller_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ClientIP  string    `json:"client_ip,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SigninRejectedData is the payload for a seller.signin_rejected event.
type SigninRejectedData struct {
	Email    string `json:"email"`
	Reason   string `json:"reason"`
	ClientIP string `json:"client_ip,omitempty"`
}

// SignedOutData is the payload for a seller.signed_out event.
type SignedOutData struct {
	SellerID string `json:"seller_id"`
	Email    string `json:"email"`
	ClientIP string `json:"client_ip,omitempty"`
}

// Publisher records authentication audit events. Payloads never carry
// passwords or tokens.
type Publisher interface {
	PublishSignedIn(ctx context.Context, sess domain.Session, clientIP string) error
	PublishSigninRejected(ctx context.Context, email, reason, clientIP string) error
	PublishSignedOut(ctx context.Context, sess domain.Session, clientIP string) error
}

// Producer publishes auth events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	topic  string
	now    func() time.Time
	logger *slog.Logger
}

var _ Publisher = (*Producer)(nil)

// NewProducer creates a new auth event producer writing to topic.
func NewProducer(kafka *pkgkafka.Producer, topic string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		topic:  topic,
		now:    time.Now,
		logger: logger,
	}
}

// PublishSignedIn publishes a seller.signed_in event.
func (p *Producer) PublishSignedIn(ctx context.Context, sess domain.Session, clientIP string) error {
	data := SignedInData{
		SellerID:  sess.ID,
		Email:     sess.Email,
		Role:      sess.Role,
		ClientIP:  clientIP,
		ExpiresAt: sess.ExpiresAt,
	}
	return p.publish(ctx, TypeSignedIn, sess.ID, data)
}

// PublishSigninRejected publishes a seller.signin_rejected event keyed by
// the attempted email, since no seller ID is known.
func (p *Producer) PublishSigninRejected(ctx context.Context, email, reason, clientIP string) error {
	data := SigninRejectedData{
		Email:    email,
		Reason:   reason,
		ClientIP: clientIP,
	}
	key := strings.ToLower(strings.TrimSpace(email))
	return p.publish(ctx, TypeSigninRejected, key, data)
}

// PublishSignedOut publishes a seller.signed_out event.
func (p *Producer) PublishSignedOut(ctx context.Context, sess domain.Session, clientIP string) error {
	data := SignedOutData{
		SellerID: sess.ID,
		Email:    sess.Email,
		ClientIP: clientIP,
	}
	return p.publish(ctx, TypeSignedOut, sess.ID, data)
}

func (p *Producer) publish(ctx context.Context, eventType, aggregateID string, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, aggregateID, AggregateTypeSeller, SourceSellerDashboard, p.now(), data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, p.topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published auth event",
		slog.String("event_type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// Nop discards events. It is used when Kafka is disabled.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) PublishSignedIn(context.Context, domain.Session, string) error { return nil }
func (Nop) PublishSigninRejected(context.Context, string, string, string) error {
	return nil
}
func (Nop) PublishSignedOut(context.Context, domain.Session, string) error { return nil }
