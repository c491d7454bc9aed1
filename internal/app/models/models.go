package models

// Session is the request-scoped view of the authenticated user. It is rebuilt
// on every request from the cookie session by the auth gate; nothing holds it
// across requests.
type Session struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
}

// BalanceSummary is the backend-computed balance for one user. It is derived
// data: the gateway displays it and gates payment on it, never recomputes it.
type BalanceSummary struct {
	TotalMeals       int     `json:"totalMeals"`
	TotalFoodCost    float64 `json:"totalFoodCost"`
	TotalWaterCharge float64 `json:"totalWaterCharge"`
	TotalBalance     float64 `json:"totalBalance"`
}

// Food is one meal catalog entry.
type Food struct {
	ID       int     `json:"id"`
	Date     string  `json:"date"`
	MealType string  `json:"mealType"`
	ItemName string  `json:"itemName"`
	Cost     float64 `json:"cost"`
}

// User is one account as listed by the backend.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AttendanceRecord is one marked meal for one user.
type AttendanceRecord struct {
	ID          int     `json:"id"`
	UserID      int     `json:"userId"`
	Username    string  `json:"username"`
	Date        string  `json:"date"`
	MealType    string  `json:"mealType"`
	ItemName    string  `json:"itemName"`
	FoodCost    float64 `json:"foodCost"`
	WaterCharge float64 `json:"waterCharge"`
	TotalCost   float64 `json:"totalCost"`
}

// MealHistoryEntry is one row of a member's own meal history.
type MealHistoryEntry struct {
	ID          int     `json:"id"`
	Date        string  `json:"date"`
	MealType    string  `json:"mealType"`
	ItemName    string  `json:"itemName"`
	FoodCost    float64 `json:"foodCost"`
	WaterCharge float64 `json:"waterCharge"`
	TotalCost   float64 `json:"totalCost"`
}

// Banner is the single inline success/error message a page action produces.
// Each new action replaces the previous banner; they never accumulate.
type Banner struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	BannerSuccess = "success"
	BannerError   = "error"
)

func SuccessBanner(text string) Banner { return Banner{Type: BannerSuccess, Text: text} }

func ErrorBanner(text string) Banner { return Banner{Type: BannerError, Text: text} }
