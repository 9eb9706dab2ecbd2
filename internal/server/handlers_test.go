package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utopialabs/utopia/internal/domain"
	"github.com/utopialabs/utopia/internal/query"
	"github.com/utopialabs/utopia/internal/report"
	"github.com/utopialabs/utopia/internal/store"
)

func newTestRouter(t *testing.T, cacheDir string) http.Handler {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "store"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	putRecord := func(table string, key, value []byte) {
		require.NoError(t, st.Put(table, key, value))
	}
	userBuf, err := store.EncodeUser(domain.User{FirstName: "Hazel", LastName: "Robinson", Email: "hazel@example.com"})
	require.NoError(t, err)
	putRecord(store.TableUsers, store.UserKey(12), userBuf)

	cardBuf, err := store.EncodeCard(domain.Card{Type: domain.CardVisa, ExpMonth: 3, ExpYear: 27, CVV: 623, PAN: "4344676511950444"})
	require.NoError(t, err)
	putRecord(store.TableCards, store.CardKey(12, 1), cardBuf)

	merchantBuf, err := store.EncodeMerchant(domain.Merchant{
		Name: "La Cascada", MCC: 5812, Category: domain.CategoryMiscStore,
		Locations: []domain.Location{{Zip: 43215, City: "Columbus", State: "OH"}},
	})
	require.NoError(t, err)
	putRecord(store.TableMerchants, store.MerchantKey(998877), merchantBuf)

	logPath := filepath.Join(dir, "transactions.csv")
	log := "User,Card,Year,Month,Day,Time,Amount,Use Chip,Merchant Name,Merchant City,Merchant State,Zip,MCC,Errors?,Is Fraud?\n" +
		"12,1,2020,05,14,20:31,$45.23,Swipe Transaction,998877,Columbus,OH,43215,5812,,No\n" +
		"12,1,2020,06,01,10:00,$120.00,Chip Transaction,998877,Cincinnati,OH,45202,5812,,No\n"
	require.NoError(t, os.WriteFile(logPath, []byte(log), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := query.NewEngine(st, logPath, logger)

	var cache *query.ResultCache
	if cacheDir != "" {
		cache = query.NewResultCache(cacheDir)
	}

	api := NewAPIHandlers(logger, engine, cache, report.NewSerializer(nil), st)
	return NewRouter(logger, RouterDependencies{
		Health: StoreHealthService{Store: st},
		API:    api,
	})
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleTransactions(t *testing.T) {
	router := newTestRouter(t, "")

	rec := get(t, router, "/transactions?group_by=state&count=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `<Transactions GroupedBy="state">`)
	assert.Contains(t, body, `<Result State="OH">`)
	assert.Contains(t, body, "<Amount>$120.00</Amount>")
	assert.NotContains(t, body, "$45.23")
}

func TestHandleTransactionsMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodDelete, "/transactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleTransactionsCaches(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	router := newTestRouter(t, cacheDir)

	rec := get(t, router, "/transactions?group_by=month")
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "month_c0_descending_v0_s0_p0_n0_g0.xml", entries[0].Name())

	// A second request is served from the cached file verbatim.
	cached, err := os.ReadFile(filepath.Join(cacheDir, entries[0].Name()))
	require.NoError(t, err)
	rec = get(t, router, "/transactions?group_by=month")
	assert.Equal(t, string(cached), rec.Body.String())
}

func TestHandleTransactionsConcurrentCacheMiss(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	router := newTestRouter(t, cacheDir)

	// Identical cacheable requests racing on an empty cache: each may
	// miss and compute, but every response must be byte-identical.
	const workers = 8
	bodies := make([]string, workers)
	codes := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/transactions?group_by=month", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			codes[i] = rec.Code
			bodies[i] = rec.Body.String()
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.Equal(t, http.StatusOK, codes[i])
		assert.Equal(t, bodies[0], bodies[i])
	}

	cached, err := os.ReadFile(filepath.Join(cacheDir, "month_c0_descending_v0_s0_p0_n0_g0.xml"))
	require.NoError(t, err)
	assert.Equal(t, string(cached), bodies[0])
}

func TestHandleTransactionQuery(t *testing.T) {
	router := newTestRouter(t, "")

	doc := `{"selectors": [{"field": "amount", "type": "greaterThan", "value": ["10000"]}]}`
	req := httptest.NewRequest(http.MethodPost, "/transactions/query", strings.NewReader(doc))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Amount>$120.00</Amount>")
	assert.NotContains(t, rec.Body.String(), "$45.23")
}

func TestHandleTransactionQueryValidation(t *testing.T) {
	router := newTestRouter(t, "")

	doc := `{"selectors": [{"field": "amount", "type": "inRange", "value": ["1", "2", "3"]}]}`
	req := httptest.NewRequest(http.MethodPost, "/transactions/query", strings.NewReader(doc))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Error>Selector must be matched against pairs of values!</Error>")
}

func TestHandleUsers(t *testing.T) {
	router := newTestRouter(t, "")

	rec := get(t, router, "/users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<User ID="12">`)
	assert.Contains(t, rec.Body.String(), "<FirstName>Hazel</FirstName>")
}

func TestHandleUserByID(t *testing.T) {
	router := newTestRouter(t, "")

	rec := get(t, router, "/users/12")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Email>hazel@example.com</Email>")

	rec = get(t, router, "/users/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, router, "/users/roger")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTransactionTypes(t *testing.T) {
	router := newTestRouter(t, "")

	rec := get(t, router, "/transaction-types")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<Type>Chip Transaction</Type>")
	assert.Contains(t, body, "<Type>Online Transaction</Type>")
	assert.Contains(t, body, "<Type>Swipe Transaction</Type>")
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, "")

	rec := get(t, router, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
