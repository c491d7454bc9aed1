// Package billing owns the balance contract: the backend's summary.totalBalance
// is the single source of truth for both the displayed figure and payment
// eligibility, and at most one checkout may be in flight per user.
package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/observability/metrics"
)

// pendingTTL bounds how long an unconfirmed checkout blocks a new one.
// Abandoned Stripe-hosted sessions never confirm, so the marker must expire.
const pendingTTL = 15 * time.Minute

// PaymentClient is the slice of the upstream client billing needs.
type PaymentClient interface {
	MyBalance(ctx context.Context, token string) (*models.BalanceSummary, error)
	CreateCheckoutSession(ctx context.Context, token string) (string, error)
	ConfirmPayment(ctx context.Context, token, sessionID string) (json.RawMessage, error)
}

// Service resolves balances and guards checkout initiation.
type Service struct {
	client  PaymentClient
	pending *cache.Cache
	group   singleflight.Group
	logger  *zap.Logger
}

func NewService(client PaymentClient, logger *zap.Logger) *Service {
	return &Service{
		client:  client,
		pending: cache.New(pendingTTL, 5*time.Minute),
		logger:  logger,
	}
}

// Balance fetches the authoritative balance summary for the session's user.
func (s *Service) Balance(ctx context.Context, token string) (*models.BalanceSummary, error) {
	summary, err := s.client.MyBalance(ctx, token)
	if err != nil {
		s.logger.Warn("Balance fetch failed", zap.Error(err))
		return nil, err
	}
	return summary, nil
}

// Revenue aggregates catalog item costs for the admin view. Same rule as the
// per-user balance: a plain sum, rounded only at display time, so the two
// figures can only differ in scope, never in method.
func Revenue(foods []models.Food) float64 {
	var total float64
	for _, f := range foods {
		total += f.Cost
	}
	return total
}

// PaymentPending reports whether the user has an unconfirmed checkout.
func (s *Service) PaymentPending(username string) bool {
	_, found := s.pending.Get(username)
	return found
}

// Eligible applies the payment rule: members only, positive balance, and no
// checkout already in flight.
func (s *Service) Eligible(sess models.Session, summary *models.BalanceSummary) bool {
	return !sess.Role.IsAdmin() && summary.TotalBalance > 0 && !s.PaymentPending(sess.Username)
}

// InitiateCheckout re-checks eligibility against a fresh balance and asks the
// backend for a checkout URL. Concurrent duplicate submissions collapse into
// one upstream call; once a checkout exists, further initiations are refused
// until it is confirmed or the pending marker expires.
func (s *Service) InitiateCheckout(ctx context.Context, token string, sess models.Session) (string, error) {
	if sess.Role.IsAdmin() {
		return "", models.ErrForbidden
	}
	if s.PaymentPending(sess.Username) {
		return "", models.ErrPaymentPending
	}

	v, err, _ := s.group.Do(sess.Username, func() (any, error) {
		summary, err := s.client.MyBalance(ctx, token)
		if err != nil {
			return nil, err
		}
		if summary.TotalBalance <= 0 {
			return nil, models.ErrNothingToPay
		}

		checkoutURL, err := s.client.CreateCheckoutSession(ctx, token)
		if err != nil {
			return nil, err
		}
		s.pending.Set(sess.Username, checkoutURL, cache.DefaultExpiration)

		metrics.Get().PaymentsInitiatedTotal.Add(ctx, 1)
		s.logger.Info("Checkout session created", zap.String("username", sess.Username))
		return checkoutURL, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Confirm forwards the checkout session id to the backend and surfaces its
// confirmation payload verbatim. A successful confirmation releases the
// user's pending marker.
func (s *Service) Confirm(ctx context.Context, token, username, sessionID string) (json.RawMessage, error) {
	raw, err := s.client.ConfirmPayment(ctx, token, sessionID)
	if err != nil {
		metrics.Get().PaymentsConfirmedTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("outcome", "failed")))
		return nil, err
	}
	s.pending.Delete(username)
	metrics.Get().PaymentsConfirmedTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", "confirmed")))
	s.logger.Info("Payment confirmed", zap.String("username", username))
	return raw, nil
}
