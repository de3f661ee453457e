// Package notify delivers issued passcodes to the external
// notification channel. The channel itself (email rendering, delivery)
// is another service's responsibility; this package only publishes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Notifier delivers a one-time passcode to its destination.
type Notifier interface {
	SendOTP(ctx context.Context, destination string, orderRef uuid.UUID, code string) error
}

// messageWriter is the slice of kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// otpMessage is the payload published to the notification topic.
type otpMessage struct {
	Destination string    `json:"destination"`
	OrderRef    string    `json:"orderRef"`
	Code        string    `json:"code"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// kafkaNotifier publishes OTP messages keyed by order ref.
type kafkaNotifier struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaNotifier creates a notifier publishing to the given topic on
// the comma-separated broker list.
func NewKafkaNotifier(brokersCSV, topic string, logger zerolog.Logger) Notifier {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return &kafkaNotifier{
		writer: writer,
		logger: logger.With().Str("component", "otp-notifier").Logger(),
	}
}

func (n *kafkaNotifier) SendOTP(ctx context.Context, destination string, orderRef uuid.UUID, code string) error {
	payload, err := json.Marshal(otpMessage{
		Destination: destination,
		OrderRef:    orderRef.String(),
		Code:        code,
		IssuedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal OTP message: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(orderRef.String()),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		n.logger.Error().Err(err).Str("order_ref", orderRef.String()).Msg("failed to publish OTP message")
		return fmt.Errorf("failed to publish OTP message: %w", err)
	}

	n.logger.Debug().Str("order_ref", orderRef.String()).Msg("OTP message published")
	return nil
}

// nopNotifier is used when no brokers are configured; the code is only
// visible in debug logs, which is enough for local development.
type nopNotifier struct {
	logger zerolog.Logger
}

// NewNopNotifier creates a notifier that drops messages.
func NewNopNotifier(logger zerolog.Logger) Notifier {
	return &nopNotifier{logger: logger.With().Str("component", "otp-notifier").Logger()}
}

func (n *nopNotifier) SendOTP(_ context.Context, destination string, orderRef uuid.UUID, code string) error {
	n.logger.Debug().
		Str("order_ref", orderRef.String()).
		Str("destination", destination).
		Msg("notification channel disabled, dropping OTP message")
	return nil
}
