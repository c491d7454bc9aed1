package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mess-suite/mess-web/internal/app/domain"
	"github.com/mess-suite/mess-web/internal/app/domain/billing"
	"github.com/mess-suite/mess-web/internal/app/middleware"
	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/session"
)

// DashboardClient is the slice of the upstream client the dashboard needs.
type DashboardClient interface {
	ListFood(ctx context.Context, token, startDate, endDate string) ([]models.Food, error)
	FoodByDate(ctx context.Context, token, date string) ([]models.Food, error)
	MyHistory(ctx context.Context, token string, month, year int) ([]models.MealHistoryEntry, error)
	MyHistoryRange(ctx context.Context, token, startDate, endDate string) ([]models.MealHistoryEntry, error)
}

type DashboardHandlers struct {
	*domain.BaseHandler
	client  DashboardClient
	billing *billing.Service
}

func NewDashboardHandlers(base *domain.BaseHandler, client DashboardClient, billingSvc *billing.Service) *DashboardHandlers {
	return &DashboardHandlers{BaseHandler: base, client: client, billing: billingSvc}
}

// Show renders the role-scoped dashboard payload. Admins see the catalog and
// aggregate revenue; members see their own balance, history and today's
// meals. The auth gate has already run, so every fetch here is authorized.
func (h *DashboardHandlers) Show(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	token := session.Token(c)
	ctx := c.Request.Context()

	if sess.Role.IsAdmin() {
		foods, err := h.client.ListFood(ctx, token, "", "")
		if err != nil {
			h.RespondError(c, err, "Failed to load the meal catalog")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"username":     sess.Username,
			"role":         sess.Role,
			"meals":        foods,
			"totalRevenue": billing.Revenue(foods),
		})
		return
	}

	now := time.Now()
	var (
		summary *models.BalanceSummary
		history []models.MealHistoryEntry
		today   []models.Food
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = h.billing.Balance(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = h.client.MyHistory(gctx, token, int(now.Month()), now.Year())
		return err
	})
	g.Go(func() error {
		var err error
		today, err = h.client.FoodByDate(gctx, token, now.Format("2006-01-02"))
		return err
	})
	if err := g.Wait(); err != nil {
		h.RespondError(c, err, "Failed to load the dashboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":    sess.Username,
		"role":        sess.Role,
		"balance":     summary,
		"payEnabled":  h.billing.Eligible(sess, summary),
		"mealHistory": history,
		"todayMeals":  today,
	})
}

// History serves the member's meal history with either a month/year filter or
// an explicit date range.
func (h *DashboardHandlers) History(c *gin.Context) {
	token := session.Token(c)
	ctx := c.Request.Context()

	var (
		history []models.MealHistoryEntry
		err     error
	)
	switch c.DefaultQuery("type", "month") {
	case "range":
		start, end := c.Query("startDate"), c.Query("endDate")
		if start == "" || end == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"banner": models.ErrorBanner("Both start and end dates are required"),
			})
			return
		}
		history, err = h.client.MyHistoryRange(ctx, token, start, end)
	default:
		now := time.Now()
		month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
		year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
		history, err = h.client.MyHistory(ctx, token, month, year)
	}
	if err != nil {
		h.RespondError(c, err, "Failed to load meal history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"mealHistory": history})
}

// Pay initiates a checkout for the session's user and returns the URL the
// browser should navigate to. A second submission while one is pending is
// refused, not queued.
func (h *DashboardHandlers) Pay(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	token := session.Token(c)

	checkoutURL, err := h.billing.InitiateCheckout(c.Request.Context(), token, sess)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPaymentPending):
			h.RespondError(c, err, "A payment is already in progress")
		case errors.Is(err, models.ErrNothingToPay):
			h.RespondError(c, err, "No outstanding balance to pay")
		case errors.Is(err, models.ErrForbidden):
			h.RespondError(c, err, "Administrators cannot make payments")
		default:
			h.RespondError(c, err, "Failed to initiate payment")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkoutUrl": checkoutURL})
}

// PaymentSuccess confirms a completed checkout. The provider redirects the
// browser here with the checkout session id; the confirmation outcome is
// surfaced verbatim.
func (h *DashboardHandlers) PaymentSuccess(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	token := session.Token(c)

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Invalid payment session. No session ID found."),
		})
		return
	}

	payment, err := h.billing.Confirm(c.Request.Context(), token, sess.Username, sessionID)
	if err != nil {
		h.RespondError(c, err, "Payment confirmation failed. Please contact support.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner":  models.SuccessBanner("Payment successful! Your balance has been updated."),
		"payment": payment,
	})
}

// Admin serves the admin landing page payload: the catalog plus total
// revenue over it, computed with the same summation rule as member balances.
func (h *DashboardHandlers) Admin(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c)
	token := session.Token(c)

	foods, err := h.client.ListFood(c.Request.Context(), token, "", "")
	if err != nil {
		h.RespondError(c, err, "Failed to load the meal catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":     sess.Username,
		"role":         sess.Role,
		"meals":        foods,
		"totalRevenue": billing.Revenue(foods),
	})
}
