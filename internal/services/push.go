package services

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/config"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/observability"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Presence reports whether a user has a live connection
type Presence interface {
	IsOnline(userID string) bool
}

// PushService sends APNs notifications to partners who are not connected
type PushService struct {
	client   *apns2.Client
	topic    string
	presence Presence
}

// NewPushService creates a push service. Without APNs credentials every
// notification is skipped.
func NewPushService(cfg config.APNsConfig, presence Presence) (*PushService, error) {
	s := &PushService{topic: cfg.Topic, presence: presence}
	if !cfg.Enabled() {
		log.Info().Msg("APNs not configured, push notifications disabled")
		return s, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	s.client = client
	return s, nil
}

// Enabled reports whether notifications are actually sent
func (s *PushService) Enabled() bool {
	return s.client != nil
}

// Notification builds the APNs request for one device
func (s *PushService) Notification(deviceToken, title, body string) *apns2.Notification {
	return &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default"),
	}
}

// NotifyPartner pushes to recipient unless they are connected or have no device token.
// Failures are logged, never returned.
func (s *PushService) NotifyPartner(ctx context.Context, recipient *models.Profile, title, body string) {
	if recipient == nil || recipient.PushToken == nil || *recipient.PushToken == "" {
		return
	}
	if s.presence != nil && s.presence.IsOnline(recipient.ID) {
		return
	}
	if !s.Enabled() {
		observability.PushNotificationsTotal.WithLabelValues("disabled").Inc()
		return
	}

	res, err := s.client.PushWithContext(ctx, s.Notification(*recipient.PushToken, title, body))
	if err != nil {
		observability.PushNotificationsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("user_id", recipient.ID).Msg("Failed to send push notification")
		return
	}
	if !res.Sent() {
		observability.PushNotificationsTotal.WithLabelValues("rejected").Inc()
		log.Warn().
			Str("user_id", recipient.ID).
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("Push notification rejected")
		return
	}

	observability.PushNotificationsTotal.WithLabelValues("sent").Inc()
	log.Debug().Str("user_id", recipient.ID).Str("apns_id", res.ApnsID).Msg("Push notification sent")
}
