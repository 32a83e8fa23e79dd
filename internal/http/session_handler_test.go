package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nakanohidekatsu/pos-terminal/internal/catalog"
	"github.com/nakanohidekatsu/pos-terminal/internal/pos"
	"github.com/nakanohidekatsu/pos-terminal/internal/register"
	"github.com/nakanohidekatsu/pos-terminal/internal/scanner"
)

// backend fakes the catalog and transaction recording services.
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/shouhin", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("CODE") == "4901234567894" {
			w.Write([]byte(`{"PRD_ID":"P1","CODE":"4901234567894","NAME":"Tea","PRICE":150,"PRICE_INC_TAX":165}`))
			return
		}
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/torihiki", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"TRD_ID":"T100"}`))
	})
	mux.HandleFunc("/torimei", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAPI(t *testing.T) (http.Handler, *scanner.Simulator) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	be := backend(t)

	cache := catalog.NewMemoryCache(time.Minute)
	t.Cleanup(func() { cache.Close() })

	catalogService := catalog.NewService(
		catalog.NewHTTPClient(be.URL, be.Client(), logger),
		cache,
		logger,
	)
	recorder := register.NewClient(be.URL, be.Client(), logger)
	simulator := scanner.NewSimulator(logger)
	t.Cleanup(func() { simulator.Stop() })

	session := pos.NewSession(catalogService, recorder, simulator,
		pos.Identity{EmpCD: "1", StoreCD: "30", PosNo: "1"}, logger)

	router := NewRouter(
		NewSessionHandler(session, logger, 5*time.Second),
		NewScannerHandler(simulator),
		5*time.Second,
	)
	return router, simulator
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, StateResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var state StateResponse
	if rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	}
	return rec, state
}

func TestAPI_FullTransactionFlow(t *testing.T) {
	api, _ := newTestAPI(t)

	rec, state := doJSON(t, api, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IDLE", state.Phase)

	rec, state = doJSON(t, api, http.MethodPost, "/api/v1/session/code", SetCodeRequestDTO{Code: "4901234567894"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4901234567894", state.Code)

	rec, state = doJSON(t, api, http.MethodPost, "/api/v1/session/lookup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, state.Product)
	assert.Equal(t, "Tea", state.Product.Name)
	assert.EqualValues(t, 150, state.Product.Price)

	rec, state = doJSON(t, api, http.MethodPost, "/api/v1/session/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, state = doJSON(t, api, http.MethodPost, "/api/v1/session/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, state.Cart.Lines, 2)
	assert.EqualValues(t, 300, state.Cart.TotalExTax)
	assert.EqualValues(t, 330, state.Cart.TotalIncTax)
	assert.Equal(t, 1, state.Cart.Lines[0].DtlID)
	assert.Equal(t, 2, state.Cart.Lines[1].DtlID)

	rec, state = doJSON(t, api, http.MethodPost, "/api/v1/session/purchase", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PURCHASE_COMPLETED", state.Phase)
	require.NotNil(t, state.Receipt)
	assert.Equal(t, "T100", state.Receipt.TrdID)
	assert.EqualValues(t, 300, state.Receipt.TotalExTax)

	rec, state = doJSON(t, api, http.MethodPost, "/api/v1/session/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IDLE", state.Phase)
	assert.Empty(t, state.Cart.Lines)
	assert.Nil(t, state.Receipt)
	assert.Nil(t, state.Product)
}

func TestAPI_LookupUnknownCodeShowsNotice(t *testing.T) {
	api, _ := newTestAPI(t)

	rec, _ := doJSON(t, api, http.MethodPost, "/api/v1/session/code", SetCodeRequestDTO{Code: "0000000000000"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, state := doJSON(t, api, http.MethodPost, "/api/v1/session/lookup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, state.Product)
	assert.Equal(t, "not registered in master data", state.Notice)
	assert.Equal(t, "PRODUCT_UNRESOLVED", state.Phase)
}

func TestAPI_LookupWithoutCodeIsRejected(t *testing.T) {
	api, _ := newTestAPI(t)

	rec, _ := doJSON(t, api, http.MethodPost, "/api/v1/session/lookup", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_AddWithoutProductIsRejected(t *testing.T) {
	api, _ := newTestAPI(t)

	rec, _ := doJSON(t, api, http.MethodPost, "/api/v1/session/cart", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_PurchaseEmptyCartIsRejected(t *testing.T) {
	api, _ := newTestAPI(t)

	rec, _ := doJSON(t, api, http.MethodPost, "/api/v1/session/purchase", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_ScanDecodeFlow(t *testing.T) {
	api, _ := newTestAPI(t)

	rec, state := doJSON(t, api, http.MethodPost, "/api/v1/session/scan", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, state.Scanning)

	rec, _ = doJSON(t, api, http.MethodPost, "/api/v1/scanner/decode", DecodeRequestDTO{Code: "4901234567894"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		_, state := doJSON(t, api, http.MethodGet, "/api/v1/session", nil)
		return state.Product != nil && state.Product.Name == "Tea"
	}, time.Second, 10*time.Millisecond)
}

func TestAPI_CancelScanReleasesScanner(t *testing.T) {
	api, _ := newTestAPI(t)

	rec, _ := doJSON(t, api, http.MethodPost, "/api/v1/session/scan", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// A second scan trigger is a precondition violation.
	rec, _ = doJSON(t, api, http.MethodPost, "/api/v1/session/scan", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, state := doJSON(t, api, http.MethodDelete, "/api/v1/session/scan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, state.Scanning)

	// Decoding after cancel has no session to deliver to.
	rec, _ = doJSON(t, api, http.MethodPost, "/api/v1/scanner/decode", DecodeRequestDTO{Code: "4901234567894"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
