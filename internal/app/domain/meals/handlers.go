package meals

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mess-suite/mess-web/internal/app/domain"
	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/session"
	"github.com/mess-suite/mess-web/internal/app/upstream"
)

// MealsClient is the slice of the upstream client the meal views need.
type MealsClient interface {
	ListFood(ctx context.Context, token, startDate, endDate string) ([]models.Food, error)
	CreateFood(ctx context.Context, token string, req upstream.FoodRequest) error
	UpdateFood(ctx context.Context, token string, id int, req upstream.FoodRequest) error
	DeleteFood(ctx context.Context, token string, id int) error
}

type MealsHandlers struct {
	*domain.BaseHandler
	client MealsClient
}

func NewMealsHandlers(base *domain.BaseHandler, client MealsClient) *MealsHandlers {
	return &MealsHandlers{BaseHandler: base, client: client}
}

// List returns the meal catalog, optionally bounded by a date range. Both
// filters empty means the full catalog; clearing the filters is the same
// request again.
func (h *MealsHandlers) List(c *gin.Context) {
	foods, err := h.client.ListFood(c.Request.Context(), session.Token(c),
		c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.RespondError(c, err, "Failed to load meals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"meals": foods})
}

type mealForm struct {
	Date     string  `json:"date" binding:"required"`
	MealType string  `json:"mealType" binding:"required"`
	ItemName string  `json:"itemName" binding:"required"`
	Cost     float64 `json:"cost"`
}

func (f mealForm) toRequest() upstream.FoodRequest {
	return upstream.FoodRequest{
		Date:     f.Date,
		MealType: f.MealType,
		ItemName: f.ItemName,
		Cost:     f.Cost,
	}
}

func (h *MealsHandlers) Create(c *gin.Context) {
	var form mealForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Please fill in all fields"),
		})
		return
	}

	if err := h.client.CreateFood(c.Request.Context(), session.Token(c), form.toRequest()); err != nil {
		h.RespondError(c, err, "Failed to add food item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner("Food item added successfully!"),
	})
}

func (h *MealsHandlers) Update(c *gin.Context) {
	id, ok := domain.IntParam(c, "id")
	if !ok {
		return
	}

	var form mealForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"banner": models.ErrorBanner("Please fill in all fields"),
		})
		return
	}

	if err := h.client.UpdateFood(c.Request.Context(), session.Token(c), id, form.toRequest()); err != nil {
		h.RespondError(c, err, "Failed to update meal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner("Meal updated successfully!"),
	})
}

func (h *MealsHandlers) Delete(c *gin.Context) {
	id, ok := domain.IntParam(c, "id")
	if !ok {
		return
	}

	if err := h.client.DeleteFood(c.Request.Context(), session.Token(c), id); err != nil {
		h.RespondError(c, err, "Failed to delete meal")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banner": models.SuccessBanner("Meal deleted successfully!"),
	})
}
