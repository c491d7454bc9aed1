package billing

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/models"
)

type MockPaymentClient struct {
	mock.Mock
}

func (m *MockPaymentClient) MyBalance(ctx context.Context, token string) (*models.BalanceSummary, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BalanceSummary), args.Error(1)
}

func (m *MockPaymentClient) CreateCheckoutSession(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentClient) ConfirmPayment(ctx context.Context, token, sessionID string) (json.RawMessage, error) {
	args := m.Called(ctx, token, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func member(username string) models.Session {
	return models.Session{IsLoggedIn: true, Username: username, Role: models.RoleStudent}
}

func summaryWithBalance(balance float64) *models.BalanceSummary {
	return &models.BalanceSummary{TotalBalance: balance}
}

func TestEligible(t *testing.T) {
	svc := NewService(new(MockPaymentClient), zap.NewNop())

	t.Run("zero balance disables payment", func(t *testing.T) {
		assert.False(t, svc.Eligible(member("alice"), summaryWithBalance(0)))
	})

	t.Run("positive balance enables payment", func(t *testing.T) {
		assert.True(t, svc.Eligible(member("alice"), summaryWithBalance(250.50)))
	})

	t.Run("admins never pay", func(t *testing.T) {
		admin := models.Session{IsLoggedIn: true, Username: "root", Role: models.RoleAdmin}
		assert.False(t, svc.Eligible(admin, summaryWithBalance(250.50)))
	})

	t.Run("pending checkout disables payment", func(t *testing.T) {
		svc.pending.SetDefault("bob", "https://pay.example/cs_1")
		assert.False(t, svc.Eligible(member("bob"), summaryWithBalance(100)))
	})
}

func TestRevenue(t *testing.T) {
	foods := []models.Food{
		{Cost: 45.5},
		{Cost: 20},
		{Cost: 34.5},
	}
	assert.Equal(t, 100.0, Revenue(foods))
	assert.Equal(t, 0.0, Revenue(nil))
}

func TestInitiateCheckout(t *testing.T) {
	t.Run("creates a checkout and marks it pending", func(t *testing.T) {
		client := new(MockPaymentClient)
		client.On("MyBalance", mock.Anything, "tok").Return(summaryWithBalance(250.50), nil)
		client.On("CreateCheckoutSession", mock.Anything, "tok").Return("https://pay.example/cs_1", nil)
		svc := NewService(client, zap.NewNop())

		url, err := svc.InitiateCheckout(context.Background(), "tok", member("alice"))
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/cs_1", url)
		assert.True(t, svc.PaymentPending("alice"))
	})

	t.Run("refuses while a checkout is pending", func(t *testing.T) {
		client := new(MockPaymentClient)
		client.On("MyBalance", mock.Anything, "tok").Return(summaryWithBalance(250.50), nil)
		client.On("CreateCheckoutSession", mock.Anything, "tok").Return("https://pay.example/cs_1", nil)
		svc := NewService(client, zap.NewNop())

		_, err := svc.InitiateCheckout(context.Background(), "tok", member("alice"))
		require.NoError(t, err)

		_, err = svc.InitiateCheckout(context.Background(), "tok", member("alice"))
		assert.ErrorIs(t, err, models.ErrPaymentPending)
		client.AssertNumberOfCalls(t, "CreateCheckoutSession", 1)
	})

	t.Run("zero balance refuses without creating a session", func(t *testing.T) {
		client := new(MockPaymentClient)
		client.On("MyBalance", mock.Anything, "tok").Return(summaryWithBalance(0), nil)
		svc := NewService(client, zap.NewNop())

		_, err := svc.InitiateCheckout(context.Background(), "tok", member("alice"))
		assert.ErrorIs(t, err, models.ErrNothingToPay)
		client.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
		assert.False(t, svc.PaymentPending("alice"))
	})

	t.Run("admin is refused outright", func(t *testing.T) {
		client := new(MockPaymentClient)
		svc := NewService(client, zap.NewNop())

		admin := models.Session{IsLoggedIn: true, Username: "root", Role: models.RoleAdmin}
		_, err := svc.InitiateCheckout(context.Background(), "tok", admin)
		assert.ErrorIs(t, err, models.ErrForbidden)
		client.AssertNotCalled(t, "MyBalance", mock.Anything, mock.Anything)
	})

	t.Run("concurrent submissions collapse into one checkout", func(t *testing.T) {
		var balanceCalls atomic.Int32
		client := new(MockPaymentClient)
		client.On("MyBalance", mock.Anything, "tok").
			Run(func(mock.Arguments) {
				balanceCalls.Add(1)
				time.Sleep(50 * time.Millisecond) // hold the flight open
			}).
			Return(summaryWithBalance(250.50), nil)
		client.On("CreateCheckoutSession", mock.Anything, "tok").Return("https://pay.example/cs_1", nil)
		svc := NewService(client, zap.NewNop())

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes []string
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				url, err := svc.InitiateCheckout(context.Background(), "tok", member("alice"))
				if err == nil {
					mu.Lock()
					successes = append(successes, url)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), balanceCalls.Load())
		client.AssertNumberOfCalls(t, "CreateCheckoutSession", 1)
		require.NotEmpty(t, successes)
		for _, url := range successes {
			assert.Equal(t, "https://pay.example/cs_1", url)
		}
	})
}

func TestConfirm(t *testing.T) {
	t.Run("success clears the pending marker", func(t *testing.T) {
		client := new(MockPaymentClient)
		client.On("ConfirmPayment", mock.Anything, "tok", "cs_1").
			Return(json.RawMessage(`{"status":"paid"}`), nil)
		svc := NewService(client, zap.NewNop())
		svc.pending.SetDefault("alice", "https://pay.example/cs_1")

		raw, err := svc.Confirm(context.Background(), "tok", "alice", "cs_1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"paid"}`, string(raw))
		assert.False(t, svc.PaymentPending("alice"))
	})

	t.Run("failure keeps the pending marker", func(t *testing.T) {
		client := new(MockPaymentClient)
		client.On("ConfirmPayment", mock.Anything, "tok", "cs_1").
			Return(nil, &models.UpstreamError{Status: 400, Message: "Unknown session"})
		svc := NewService(client, zap.NewNop())
		svc.pending.SetDefault("alice", "https://pay.example/cs_1")

		_, err := svc.Confirm(context.Background(), "tok", "alice", "cs_1")
		require.Error(t, err)
		assert.True(t, svc.PaymentPending("alice"))
	})
}
