// Package fcm sends realtime alerts to registered devices through Firebase
// Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"google.golang.org/api/option"
)

// multicastLimit is the most tokens FCM accepts in one multicast request.
const multicastLimit = 500

// SubscriberStore lists push targets and forgets dead tokens.
type SubscriberStore interface {
	ListPushSubscribers(ctx context.Context) ([]domain.UserPreferences, error)
	RemoveDeviceTokens(ctx context.Context, tokens []string) error
}

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Notifier implements realtime.AlertNotifier.
type Notifier struct {
	client    multicastSender
	store     SubscriberStore
	deadToken func(error) bool
	logger    *slog.Logger
}

// NewNotifier initializes the Firebase app from a service account file.
func NewNotifier(ctx context.Context, credentialsFile string, store SubscriberStore, logger *slog.Logger) (*Notifier, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}
	return &Notifier{client: client, store: store, deadToken: isDeadToken, logger: logger}, nil
}

// isDeadToken reports whether FCM rejected the token itself rather than the send.
func isDeadToken(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}

// NotifyAlert pushes the alert to every device whose owner follows one of
// the affected provinces and has the alert type enabled. Tokens FCM reports
// as unregistered are removed, even when a later batch fails. Returns the
// number of successful sends.
func (n *Notifier) NotifyAlert(ctx context.Context, alert domain.RealtimeAlert) (int, error) {
	subs, err := n.store.ListPushSubscribers(ctx)
	if err != nil {
		return 0, err
	}

	tokens := targetTokens(alert, subs)
	if len(tokens) == 0 {
		return 0, nil
	}

	sent := 0
	var dead []string
	for start := 0; start < len(tokens); start += multicastLimit {
		end := min(start+multicastLimit, len(tokens))
		batch := tokens[start:end]

		resp, err := n.client.SendEachForMulticast(ctx, buildMessage(alert, batch))
		if err != nil {
			n.removeDeadTokens(ctx, dead)
			return sent, fmt.Errorf("send multicast for alert %s: %w", alert.ID, err)
		}
		sent += resp.SuccessCount
		for i, r := range resp.Responses {
			if r.Success || r.Error == nil {
				continue
			}
			if n.deadToken(r.Error) {
				dead = append(dead, batch[i])
			}
		}
	}

	n.removeDeadTokens(ctx, dead)
	n.logger.Info("device push sent", "alert_id", alert.ID, "targets", len(tokens), "sent", sent, "removed", len(dead))
	return sent, nil
}

func (n *Notifier) removeDeadTokens(ctx context.Context, dead []string) {
	if len(dead) == 0 {
		return
	}
	if err := n.store.RemoveDeviceTokens(ctx, dead); err != nil {
		n.logger.Warn("removing dead device tokens failed", "count", len(dead), "error", err)
	}
}

// targetTokens selects deduplicated tokens of subscribers the alert concerns.
func targetTokens(alert domain.RealtimeAlert, subs []domain.UserPreferences) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range subs {
		if !p.Wants(alert.AlertType) {
			continue
		}
		if !domain.RealtimeRelevance(alert, nil, p.PreferredAreas).Relevant {
			continue
		}
		for _, t := range p.DeviceTokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func buildMessage(alert domain.RealtimeAlert, tokens []string) *messaging.MulticastMessage {
	sound := ""
	if alert.SeverityLevel >= domain.DefaultRealtimeMinSeverity {
		sound = "default"
	}
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: alert.Title,
			Body:  alert.Message,
		},
		Data: map[string]string{
			"alert_id":       alert.ID,
			"alert_type":     string(alert.AlertType),
			"severity_level": strconv.Itoa(alert.SeverityLevel),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: sound,
				Tag:   alert.ID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: sound},
			},
		},
	}
}
