package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/mess-suite/mess-web/internal/app/models"
	"github.com/mess-suite/mess-web/internal/app/observability/metrics"
	"github.com/mess-suite/mess-web/internal/pkg/config"
)

// Ensure implementation satisfies the interface
var _ Client = (*HTTPClient)(nil)

// VerifyResult is the payload of a successful token verification.
type VerifyResult struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthResult is the payload of a successful login or signup. Raw keeps the
// exact response body so the session can persist the user blob verbatim.
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Raw      []byte `json:"-"`
}

// FoodRequest is the PascalCase body the backend expects for catalog writes.
type FoodRequest struct {
	Date     string  `json:"Date"`
	MealType string  `json:"MealType"`
	ItemName string  `json:"ItemName"`
	Cost     float64 `json:"Cost"`
}

// UserUpdate carries partial user fields; zero values are omitted.
type UserUpdate struct {
	Username string `json:"Username,omitempty"`
	Password string `json:"Password,omitempty"`
	Role     string `json:"Role,omitempty"`
}

// AttendanceFilter narrows the attendance listing. Empty fields are skipped.
type AttendanceFilter struct {
	StartDate string
	EndDate   string
	UserID    string
}

// WaterChargeResult reports how many attendance records a bulk water charge
// touched.
type WaterChargeResult struct {
	RecordsUpdated int `json:"recordsUpdated"`
	UsersAffected  int `json:"usersAffected"`
}

// Client is the typed surface of the mess backend's REST contract. Everything
// the gateway knows about users, meals, attendance and balances lives behind
// this interface.
type Client interface {
	VerifyToken(ctx context.Context, token string) (*VerifyResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	Signup(ctx context.Context, username, password string) (*AuthResult, error)

	ListUsers(ctx context.Context, token string) ([]models.User, error)
	UpdateUser(ctx context.Context, token string, userID int, update UserUpdate) error
	DeleteUser(ctx context.Context, token string, userID int) error

	ListFood(ctx context.Context, token, startDate, endDate string) ([]models.Food, error)
	CreateFood(ctx context.Context, token string, req FoodRequest) error
	UpdateFood(ctx context.Context, token string, foodID int, req FoodRequest) error
	DeleteFood(ctx context.Context, token string, foodID int) error
	FoodByDate(ctx context.Context, token, date string) ([]models.Food, error)

	ListAttendance(ctx context.Context, token string, filter AttendanceFilter) ([]models.AttendanceRecord, error)
	MarkAttendance(ctx context.Context, token string, userID, foodID int) error
	DeleteAttendance(ctx context.Context, token string, attendanceID int) error
	AddWaterCharge(ctx context.Context, token, date string, charge float64) (*WaterChargeResult, error)

	MyBalance(ctx context.Context, token string) (*models.BalanceSummary, error)
	MyHistory(ctx context.Context, token string, month, year int) ([]models.MealHistoryEntry, error)
	MyHistoryRange(ctx context.Context, token, startDate, endDate string) ([]models.MealHistoryEntry, error)

	CreateCheckoutSession(ctx context.Context, token string) (string, error)
	ConfirmPayment(ctx context.Context, token, sessionID string) (json.RawMessage, error)
}

// HTTPClient talks to the mess backend over HTTP.
type HTTPClient struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

// NewHTTPClient creates a backend client from the upstream config section.
func NewHTTPClient(cfg config.UpstreamConfig, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		base:   cfg.BaseURL,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Close releases pooled connections to the backend.
func (c *HTTPClient) Close() {
	c.http.CloseIdleConnections()
}

// do performs one backend call and maps the outcome onto the error taxonomy:
// transport or decode problems wrap ErrTransport, non-2xx responses become an
// UpstreamError carrying the backend's message. No call is ever retried.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) ([]byte, error) {
	tracer := otel.Tracer("mess-web/upstream")
	ctx, span := tracer.Start(ctx, method+" "+path)
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s %s request", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s %s request", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	m := metrics.Get()
	start := time.Now()
	resp, err := c.http.Do(req)
	m.UpstreamRequestDuration.Record(ctx, time.Since(start).Seconds(), metricAttrs(method, path))
	if err != nil {
		span.RecordError(err)
		m.UpstreamErrorsTotal.Add(ctx, 1, metricAttrs(method, path))
		c.logger.Warn("Upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, errors.Wrapf(models.ErrTransport, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(models.ErrTransport, "%s %s: read body: %v", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.UpstreamErrorsTotal.Add(ctx, 1, metricAttrs(method, path))
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		c.logger.Warn("Upstream returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, &models.UpstreamError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			span.RecordError(err)
			return nil, errors.Wrapf(models.ErrTransport, "%s %s: decode response: %v", method, path, err)
		}
	}
	return data, nil
}

// metricAttrs labels an upstream measurement with method and route. The query
// string is dropped to keep label cardinality bounded.
func metricAttrs(method, path string) metric.MeasurementOption {
	route, _, _ := strings.Cut(path, "?")
	return metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", route),
	)
}

func (c *HTTPClient) VerifyToken(ctx context.Context, token string) (*VerifyResult, error) {
	var out VerifyResult
	if _, err := c.do(ctx, http.MethodPost, "/Auth/verify", "", map[string]string{"Token": token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var out AuthResult
	raw, err := c.do(ctx, http.MethodPost, "/Auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

func (c *HTTPClient) Signup(ctx context.Context, username, password string) (*AuthResult, error) {
	var out AuthResult
	raw, err := c.do(ctx, http.MethodPost, "/Auth/signup", "", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/Auth/users", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *HTTPClient) UpdateUser(ctx context.Context, token string, userID int, update UserUpdate) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/Auth/users/%d", userID), token, update, nil)
	return err
}

func (c *HTTPClient) DeleteUser(ctx context.Context, token string, userID int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/Auth/users/%d", userID), token, nil, nil)
	return err
}

func (c *HTTPClient) ListFood(ctx context.Context, token, startDate, endDate string) ([]models.Food, error) {
	params := url.Values{}
	if startDate != "" {
		params.Set("startDate", startDate)
	}
	if endDate != "" {
		params.Set("endDate", endDate)
	}
	path := "/Food"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var out []models.Food
	if _, err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateFood(ctx context.Context, token string, req FoodRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/Food", token, req, nil)
	return err
}

func (c *HTTPClient) UpdateFood(ctx context.Context, token string, foodID int, req FoodRequest) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/Food/%d", foodID), token, req, nil)
	return err
}

func (c *HTTPClient) DeleteFood(ctx context.Context, token string, foodID int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/Food/%d", foodID), token, nil, nil)
	return err
}

func (c *HTTPClient) FoodByDate(ctx context.Context, token, date string) ([]models.Food, error) {
	var out struct {
		Meals []models.Food `json:"meals"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/Food/date/"+url.PathEscape(date), token, nil, &out); err != nil {
		return nil, err
	}
	return out.Meals, nil
}

func (c *HTTPClient) ListAttendance(ctx context.Context, token string, filter AttendanceFilter) ([]models.AttendanceRecord, error) {
	params := url.Values{}
	if filter.StartDate != "" {
		params.Set("startDate", filter.StartDate)
	}
	if filter.EndDate != "" {
		params.Set("endDate", filter.EndDate)
	}
	if filter.UserID != "" {
		params.Set("userId", filter.UserID)
	}
	path := "/FoodAttendance"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var out struct {
		Attendance []models.AttendanceRecord `json:"attendance"`
	}
	if _, err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.Attendance, nil
}

func (c *HTTPClient) MarkAttendance(ctx context.Context, token string, userID, foodID int) error {
	_, err := c.do(ctx, http.MethodPost, "/FoodAttendance", token, map[string]int{
		"UserId": userID,
		"FoodId": foodID,
	}, nil)
	return err
}

func (c *HTTPClient) DeleteAttendance(ctx context.Context, token string, attendanceID int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/FoodAttendance/%d", attendanceID), token, nil, nil)
	return err
}

func (c *HTTPClient) AddWaterCharge(ctx context.Context, token, date string, charge float64) (*WaterChargeResult, error) {
	var out WaterChargeResult
	if _, err := c.do(ctx, http.MethodPost, "/FoodAttendance/water-charge", token, map[string]any{
		"Date":        date,
		"WaterCharge": charge,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) MyBalance(ctx context.Context, token string) (*models.BalanceSummary, error) {
	var out struct {
		Summary models.BalanceSummary `json:"summary"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/FoodAttendance/my-balance", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.Summary, nil
}

func (c *HTTPClient) MyHistory(ctx context.Context, token string, month, year int) ([]models.MealHistoryEntry, error) {
	path := fmt.Sprintf("/FoodAttendance/my-history?month=%d&year=%d", month, year)
	var out struct {
		MealHistory []models.MealHistoryEntry `json:"mealHistory"`
	}
	if _, err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out.MealHistory, nil
}

func (c *HTTPClient) MyHistoryRange(ctx context.Context, token, startDate, endDate string) ([]models.MealHistoryEntry, error) {
	params := url.Values{}
	params.Set("startDate", startDate)
	params.Set("endDate", endDate)
	var out struct {
		MealHistory []models.MealHistoryEntry `json:"mealHistory"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/FoodAttendance/my-history-range?"+params.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return out.MealHistory, nil
}

func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, token string) (string, error) {
	var out struct {
		CheckoutURL string `json:"checkoutUrl"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/payment/create-checkout-session", token, nil, &out); err != nil {
		return "", err
	}
	if out.CheckoutURL == "" {
		return "", &models.UpstreamError{Status: http.StatusBadGateway, Message: "Failed to create checkout session"}
	}
	return out.CheckoutURL, nil
}

func (c *HTTPClient) ConfirmPayment(ctx context.Context, token, sessionID string) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodPost, "/payment/confirm-payment", token, map[string]string{
		"sessionId": sessionID,
	}, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
