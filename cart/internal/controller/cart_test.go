package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/foodorder/cart/internal/service"
	"github.com/Alturino/foodorder/cart/pkg/ledger"
	"github.com/Alturino/foodorder/cart/pkg/location"
	"github.com/Alturino/foodorder/cart/pkg/pricing"
	"github.com/Alturino/foodorder/internal/config"
	inHttp "github.com/Alturino/foodorder/internal/http"
	"github.com/Alturino/foodorder/internal/kvstore"
)

type envelope struct {
	Status     string                     `json:"status"`
	StatusCode int                        `json:"statusCode"`
	Message    string                     `json:"message"`
	Data       map[string]json.RawMessage `json:"data"`
}

func newTestRouter() *mux.Router {
	directory := location.NewDirectory([]config.District{
		{Name: "Central", Villages: []config.Village{{Name: "Riverside", DeliveryFee: 20}}},
	})
	svc := service.NewCartService(kvstore.NewMemory(), directory, pricing.DefaultFeeSchedule())
	router := mux.NewRouter()
	AttachCartController(router, &svc)
	AttachLocationController(router, &svc)
	return router
}

func do(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set(inHttp.KEY_HEADER_DEVICE_ID, "device-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	env := envelope{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestCartFlow(t *testing.T) {
	router := newTestRouter()

	rec, _ := do(t, router, http.MethodPost, "/cart/items", `{"productId":"pizza-1","name":"Pizza","price":"80","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, router, http.MethodPost, "/cart/items", `{"productId":"soda-1","name":"Soda","price":15,"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, router, http.MethodGet, "/cart/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := struct {
		ReadyForCheckout bool `json:"readyForCheckout"`
		Breakdown        struct {
			ItemCount  int    `json:"itemCount"`
			GrandTotal string `json:"grandTotal"`
		} `json:"breakdown"`
	}{}
	require.NoError(t, json.Unmarshal(env.Data["summary"], &summary))
	assert.False(t, summary.ReadyForCheckout)
	assert.Equal(t, 3, summary.Breakdown.ItemCount)

	rec, _ = do(t, router, http.MethodPut, "/location", `{"district":"Central","village":"Riverside"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, env = do(t, router, http.MethodGet, "/cart/summary", "")
	require.NoError(t, json.Unmarshal(env.Data["summary"], &summary))
	assert.True(t, summary.ReadyForCheckout)
	assert.Equal(t, "150", summary.Breakdown.GrandTotal)

	rec, env = do(t, router, http.MethodPatch, "/cart/items/soda-1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := struct {
		ItemCount int `json:"itemCount"`
	}{}
	require.NoError(t, json.Unmarshal(env.Data["cart"], &cart))
	assert.Equal(t, 1, cart.ItemCount)

	rec, _ = do(t, router, http.MethodDelete, "/cart/items/pizza-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, router, http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCartLineWithSlashInProductID(t *testing.T) {
	router := newTestRouter()

	rec, _ := do(t, router, http.MethodPost, "/cart/items", `{"productId":"combo/1","name":"Combo","price":"40","quantity":1,"size":"1/2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, router, http.MethodPost, "/cart/items", `{"productId":"combo","name":"Other","price":"10","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	lineID := ledger.LineID("combo/1", "1/2")
	cart := struct {
		Items []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
		ItemCount int `json:"itemCount"`
	}{}

	rec, env := do(t, router, http.MethodPatch, "/cart/items/"+lineID, `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data["cart"], &cart))
	require.Len(t, cart.Items, 2)
	assert.Equal(t, lineID, cart.Items[0].ID)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 6, cart.ItemCount)

	rec, env = do(t, router, http.MethodDelete, "/cart/items/"+lineID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data["cart"], &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "combo", cart.Items[0].ID)
}

func TestCartRejectsInvalidInput(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "zero quantity", method: http.MethodPost, target: "/cart/items", body: `{"productId":"p","name":"P","price":"1","quantity":0}`, want: http.StatusBadRequest},
		{name: "negative price", method: http.MethodPost, target: "/cart/items", body: `{"productId":"p","name":"P","price":"-1","quantity":1}`, want: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, target: "/cart/items", body: `{`, want: http.StatusBadRequest},
		{name: "missing quantity", method: http.MethodPatch, target: "/cart/items/p", body: `{}`, want: http.StatusBadRequest},
		{name: "unknown village", method: http.MethodPut, target: "/location", body: `{"district":"Central","village":"Nowhere"}`, want: http.StatusBadRequest},
		{name: "no location selected", method: http.MethodGet, target: "/location", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, inHttp.STATUS_FAILED, env.Status)
		})
	}
}

func TestCartRequiresDeviceID(t *testing.T) {
	router := newTestRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/locations", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "listing districts needs no device")
}
