package attendance

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mess-suite/mess-web/internal/app/domain"
	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/session"
	"github.com/mess-suite/mess-web/internal/app/upstream"
)

// AttendanceClient is the slice of the upstream client the attendance views
// need. The list page also needs users and the meal catalog to resolve names
// in its pickers.
type AttendanceClient interface {
	ListAttendance(ctx context.Context, token string, filter upstream.AttendanceFilter) ([]models.AttendanceRecord, error)
	MarkAttendance(ctx context.Context, token string, userID, foodID int) error
	DeleteAttendance(ctx context.Context, token string, attendanceID int) error
	AddWaterCharge(ctx context.Context, token, date string, charge float64) (*upstream.WaterChargeResult, error)
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	ListFood(ctx context.Context, token, startDate, endDate string) ([]models.Food, error)
}

type AttendanceHandlers struct {
	*domain.BaseHandler
	client AttendanceClient
}

func NewAttendanceHandlers(base *domain.BaseHandler, client AttendanceClient) *AttendanceHandlers {
	return &AttendanceHandlers{BaseHandler: base, client: client}
}

// List serves the attendance page payload: the (optionally filtered) records
// plus the user and meal lists its forms select from. The three fetches are
// independent, so they run concurrently.
func (h *AttendanceHandlers) List(c *gin.Context) {
	token := session.Token(c)
	filter := upstream.AttendanceFilter{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		UserID:    c.Query("userId"),
	}

	var (
		records []models.AttendanceRecord
		users   []models.User
		foods   []models.Food
	)
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		records, err = h.client.ListAttendance(gctx, token, filter)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = h.client.ListUsers(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		foods, err = h.client.ListFood(gctx, token, "", "")
		return err
	})
	if err := g.Wait(); err != nil {
		h.RespondError(c, err, "Failed to load attendance records")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attendance": records,
		"users":      users,
		"meals":      foods,
	})
}

type markForm struct {
	UserID int `json:"userId" binding:"required"`
	FoodID int `json:"foodId" binding:"required"`
}

func (h *AttendanceHandlers) Mark(c *gin.Context) {
	var form markForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Please select a user and a meal"),
		})
		return
	}

	if err := h.client.MarkAttendance(c.Request.Context(), session.Token(c), form.UserID, form.FoodID); err != nil {
		h.RespondError(c, err, "Failed to mark attendance")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner("Attendance marked successfully!"),
	})
}

func (h *AttendanceHandlers) Delete(c *gin.Context) {
	id, ok := domain.IntParam(c, "id")
	if !ok {
		return
	}

	if err := h.client.DeleteAttendance(c.Request.Context(), session.Token(c), id); err != nil {
		h.RespondError(c, err, "Failed to delete attendance record")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner("Attendance record deleted successfully!"),
	})
}

type waterChargeForm struct {
	Date        string  `json:"date" binding:"required"`
	WaterCharge float64 `json:"waterCharge" binding:"required"`
}

// WaterCharge applies a flat water charge to every attendance record on the
// given date and reports how many records and users it touched.
func (h *AttendanceHandlers) WaterCharge(c *gin.Context) {
	var form waterChargeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Date and water charge are required"),
		})
		return
	}

	res, err := h.client.AddWaterCharge(c.Request.Context(), session.Token(c), form.Date, form.WaterCharge)
	if err != nil {
		h.RespondError(c, err, "Failed to add water charge")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner(fmt.Sprintf(
			"Water charge added! %d records updated for %d users.",
			res.RecordsUpdated, res.UsersAffected)),
	})
}
