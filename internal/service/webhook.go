package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHTTPStatusThreshold = 300
	webhookDeliveryTimeout     = 10 * time.Second
)

// WebhookService notifies the platform's notification collaborator about
// security-relevant auth events. Delivery is fire-and-forget: a slow or
// absent receiver must never block a refresh call.
type WebhookService struct {
	client     *http.Client
	log        *zap.SugaredLogger
	webhookURL string
}

func NewWebhookService(log *zap.SugaredLogger, webhookURL string) *WebhookService {
	return &WebhookService{
		client:     &http.Client{},
		log:        log,
		webhookURL: webhookURL,
	}
}

func (s *WebhookService) NotifyIPChange(ctx context.Context, userID, oldIP, newIP, userAgent string) {
	s.notify(ctx, map[string]interface{}{
		"event":      "refresh_ip_change",
		"user_id":    userID,
		"old_ip":     oldIP,
		"new_ip":     newIP,
		"user_agent": userAgent,
	})
}

func (s *WebhookService) notify(ctx context.Context, data map[string]interface{}) {
	// The handler's context dies as soon as the response is written; the
	// delivery must outlive it or the event is canceled mid-flight.
	detached := context.WithoutCancel(ctx)

	go func() {
		if s.webhookURL == "" {
			return
		}

		payload, err := json.Marshal(data)
		if err != nil {
			s.log.Errorw("failed to marshal webhook payload", "error", err)
			return
		}

		deliveryCtx, cancel := context.WithTimeout(detached, webhookDeliveryTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(deliveryCtx, http.MethodPost, s.webhookURL, bytes.NewBuffer(payload))
		if err != nil {
			s.log.Errorw("failed to create webhook request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Errorw("failed to send webhook", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= defaultHTTPStatusThreshold {
			s.log.Warnw("webhook returned non-2xx status", "status", resp.StatusCode)
		}
	}()
}
