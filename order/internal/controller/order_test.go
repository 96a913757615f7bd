package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/foodorder/cart/pkg/ledger"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/cart/pkg/pricing"
	"github.com/Alturino/foodorder/internal/auth"
	"github.com/Alturino/foodorder/internal/config"
	inErrors "github.com/Alturino/foodorder/internal/errors"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/kvstore"
	"github.com/Alturino/foodorder/internal/pubsub"
	"github.com/Alturino/foodorder/order/internal/repository"
	"github.com/Alturino/foodorder/order/internal/service"
)

const secretKey = "test-secret"

type memoryRepository struct {
	orders []repository.Order
}

func (r *memoryRepository) InsertOrder(_ context.Context, arg repository.InsertOrderParams) (repository.Order, error) {
	o := repository.Order{
		ID:              arg.ID,
		OrderNumber:     int64(len(r.orders) + 1),
		DeviceID:        arg.DeviceID,
		CustomerName:    arg.CustomerName,
		CustomerPhone:   arg.CustomerPhone,
		CustomerAddress: arg.CustomerAddress,
		Note:            arg.Note,
		Items:           arg.Items,
		District:        arg.District,
		Village:         arg.Village,
		Subtotal:        arg.Subtotal,
		DeliveryFee:     arg.DeliveryFee,
		PlatformFee:     arg.PlatformFee,
		GrandTotal:      arg.GrandTotal,
		Status:          arg.Status,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *memoryRepository) FindOrderByNumber(_ context.Context, orderNumber int64) (repository.Order, error) {
	if orderNumber < 1 || orderNumber > int64(len(r.orders)) {
		return repository.Order{}, inErrors.ErrOrderNotFound
	}
	return r.orders[orderNumber-1], nil
}

func (r *memoryRepository) FindOrdersByDevice(_ context.Context, deviceID string) ([]repository.Order, error) {
	orders := []repository.Order{}
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].DeviceID == deviceID {
			orders = append(orders, r.orders[i])
		}
	}
	return orders, nil
}

func (r *memoryRepository) UpdateOrderStatus(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
	o, err := r.FindOrderByNumber(context.Background(), arg.OrderNumber)
	if err != nil || o.Status != arg.From {
		return repository.Order{}, inErrors.ErrInvalidTransition
	}
	o.Status = arg.To
	r.orders[arg.OrderNumber-1] = o
	return o, nil
}

type envelope struct {
	Status     string                     `json:"status"`
	StatusCode int                        `json:"statusCode"`
	Message    string                     `json:"message"`
	Data       map[string]json.RawMessage `json:"data"`
}

type testServer struct {
	router   *mux.Router
	sessions *kvstore.Memory
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := kvstore.NewMemory()
	directory := location.NewDirectory([]config.District{
		{Name: "Central", Villages: []config.Village{{Name: "Riverside", DeliveryFee: 20}}},
	})
	svc := service.NewOrderService(&memoryRepository{}, sessions, client, pubsub.NewMemory(), service.Config{
		Fees:         pricing.DefaultFeeSchedule(),
		Directory:    directory,
		HandoffPhone: "+15550100200",
	})

	router := mux.NewRouter()
	AttachOrderController(router, svc, secretKey)
	return testServer{router: router, sessions: sessions}
}

func (s testServer) fillCart(t *testing.T, deviceID string) {
	t.Helper()
	c := context.Background()
	store := kvstore.ForDevice(s.sessions, deviceID)
	require.NoError(t, ledger.New(store).AddItem(c, ledger.AddItemInput{
		ProductID: "pizza-1", Name: "Pizza", Price: decimal.NewFromInt(80), Quantity: 1,
	}))
	directory := location.NewDirectory([]config.District{
		{Name: "Central", Villages: []config.Village{{Name: "Riverside", DeliveryFee: 20}}},
	})
	_, err := location.NewSelector(directory, store).Select(c, "Central", "Riverside")
	require.NoError(t, err)
}

func (s testServer) do(t *testing.T, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	env := envelope{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func device(id string) map[string]string {
	return map[string]string{inHttp.KEY_HEADER_DEVICE_ID: id}
}

const checkoutBody = `{"customer":{"name":"Ana","phone":"+15550100111","address":"1 Market Square"}}`

func TestCheckoutAndTrack(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/orders/checkout", checkoutBody, device("device-1"))
	require.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	s.fillCart(t, "device-1")
	rec, env := s.do(t, http.MethodPost, "/orders/checkout", checkoutBody, device("device-1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	handoff := ""
	require.NoError(t, json.Unmarshal(env.Data["handoffUrl"], &handoff))
	assert.True(t, strings.HasPrefix(handoff, "https://wa.me/15550100200?text="))

	rec, env = s.do(t, http.MethodGet, "/orders/1", "", device("device-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	timeline := []map[string]interface{}{}
	require.NoError(t, json.Unmarshal(env.Data["timeline"], &timeline))
	assert.Len(t, timeline, 5)

	rec, _ = s.do(t, http.MethodGet, "/orders/1", "", device("device-2"))
	assert.Equal(t, http.StatusNotFound, rec.Code, "other devices cannot see the order")

	rec, env = s.do(t, http.MethodGet, "/orders", "", device("device-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	orders := []map[string]interface{}{}
	require.NoError(t, json.Unmarshal(env.Data["orders"], &orders))
	assert.Len(t, orders, 1)

	rec, _ = s.do(t, http.MethodGet, "/orders/profile", "", device("device-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/orders/profile", "", device("device-2"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutValidation(t *testing.T) {
	s := newTestServer(t)
	s.fillCart(t, "device-1")

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{`},
		{name: "missing name", body: `{"customer":{"phone":"+15550100111","address":"x"}}`},
		{name: "bad phone", body: `{"customer":{"name":"Ana","phone":"0812","address":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/orders/checkout", tt.body, device("device-1"))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, inHttp.STATUS_FAILED, env.Status)
		})
	}

	rec, _ := s.do(t, http.MethodPost, "/orders/checkout", checkoutBody, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "device id is required")
}

func TestUpdateStatus(t *testing.T) {
	s := newTestServer(t)
	s.fillCart(t, "device-1")
	rec, _ := s.do(t, http.MethodPost, "/orders/checkout", checkoutBody, device("device-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	token, err := auth.GenerateAdminToken(secretKey, "admin", time.Minute)
	require.NoError(t, err)
	admin := map[string]string{inHttp.KEY_HEADER_AUTHORIZATION: "Bearer " + token}

	rec, _ = s.do(t, http.MethodPatch, "/orders/1/status", `{"status":"confirmed"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{name: "forward", target: "/orders/1/status", body: `{"status":"confirmed"}`, want: http.StatusOK},
		{name: "backwards", target: "/orders/1/status", body: `{"status":"pending"}`, want: http.StatusConflict},
		{name: "unknown status", target: "/orders/1/status", body: `{"status":"lost"}`, want: http.StatusBadRequest},
		{name: "missing status", target: "/orders/1/status", body: `{}`, want: http.StatusBadRequest},
		{name: "missing order", target: "/orders/7/status", body: `{"status":"delivered"}`, want: http.StatusNotFound},
		{name: "bad order number", target: "/orders/abc/status", body: `{"status":"delivered"}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := s.do(t, http.MethodPatch, tt.target, tt.body, admin)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec, env := s.do(t, http.MethodGet, "/orders/1", "", device("device-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	order := struct {
		Status string `json:"status"`
	}{}
	require.NoError(t, json.Unmarshal(env.Data["order"], &order))
	assert.Equal(t, "confirmed", order.Status)
}

