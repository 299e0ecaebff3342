package quote_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/webquote/internal/events"
	"github.com/noah-isme/webquote/internal/quote"
	"github.com/noah-isme/webquote/internal/session"
)

type captured struct {
	events []events.Event
}

func (c *captured) Handle(_ context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return nil
}

type fixture struct {
	router http.Handler
	sink   *captured
}

func newFixture(t *testing.T, configure ...func(*quote.Handler)) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus := events.NewBus()
	sink := &captured{}
	bus.Subscribe(events.TopicQuoteRequested, sink)

	h := &quote.Handler{
		Service:  quote.NewService(nil),
		Sessions: session.NewStore(client, time.Hour),
		Share:    quote.NewShareSigner("test-secret", time.Hour),
		Events:   bus,
		Validate: validator.New(),
		Logger:   zerolog.Nop(),
		BaseURL:  "https://quotes.example.com/",
	}
	for _, fn := range configure {
		fn(h)
	}
	r := chi.NewRouter()
	r.Route("/api/v1", h.Routes)
	return fixture{router: r, sink: sink}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func data[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env.Data
}

type viewBody struct {
	Totals struct {
		OneTimeDevelopmentCost    int64 `json:"oneTimeDevelopmentCost"`
		TotalMonthlyCost          int64 `json:"totalMonthlyCost"`
		DiscountedDevelopmentCost int64 `json:"discountedDevelopmentCost"`
	} `json:"totals"`
	Extras []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"extras"`
	Selection struct {
		BundleID string `json:"bundleId"`
		Hosting  struct {
			ID string `json:"id"`
		} `json:"hosting"`
	} `json:"selection"`
}

type sessionBody struct {
	ID    string                     `json:"id"`
	Quote viewBody                   `json:"quote"`
	Steps map[string]json.RawMessage `json:"steps"`
}

func TestCatalogAndBundles(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/v1/catalog", "")
	require.Equal(t, http.StatusOK, rr.Code)
	cat := data[struct {
		Categories []struct {
			Category string            `json:"category"`
			Items    []json.RawMessage `json:"items"`
		} `json:"categories"`
	}](t, rr)
	require.Len(t, cat.Categories, 9)
	require.Equal(t, "backend", cat.Categories[0].Category)
	require.NotEmpty(t, cat.Categories[0].Items)

	rr = f.do(t, http.MethodGet, "/api/v1/bundles?mode=multi", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := data[struct {
		Mode    string `json:"mode"`
		Bundles []struct {
			ID    string `json:"id"`
			Mode  string `json:"mode"`
			Price int64  `json:"price"`
		} `json:"bundles"`
	}](t, rr)
	require.Equal(t, "multi", list.Mode)
	require.NotEmpty(t, list.Bundles)
	for i, b := range list.Bundles {
		require.Equal(t, "multi", b.Mode)
		require.True(t, strings.HasSuffix(b.ID, "-mp"), b.ID)
		if i > 0 {
			require.GreaterOrEqual(t, b.Price, list.Bundles[i-1].Price)
		}
	}
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/quotes/preview",
		`{"bundleId":"business-starter","websiteType":"single","sections":"gallery"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	v := data[viewBody](t, rr)
	require.EqualValues(t, 725, v.Totals.OneTimeDevelopmentCost)
	require.Len(t, v.Extras, 1)
	require.Equal(t, "Photo gallery", v.Extras[0].Name)

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/preview", `{"sections":42}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestValidatePromo(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/promo/validate", `{"code":" NewSite "}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"data":{"applied":true,"discountPercent":10}}`, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/api/v1/promo/validate", `{"code":"nope"}`)
	require.JSONEq(t, `{"data":{"applied":false,"error":"Invalid promo code"}}`, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/api/v1/promo/validate", `{"code":""}`)
	require.JSONEq(t, `{"data":{"applied":false,"error":"Please enter a promo code"}}`, rr.Body.String())
}

func TestPromoRouteUsesLimiter(t *testing.T) {
	limited := false
	f := newFixture(t, func(h *quote.Handler) {
		h.PromoLimit = func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				limited = true
				w.WriteHeader(http.StatusTooManyRequests)
			})
		}
	})
	rr := f.do(t, http.MethodPost, "/api/v1/promo/validate", `{"code":"2026"}`)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.True(t, limited)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/sessions", `{"bundleId":"business-professional","websiteType":"single"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := data[sessionBody](t, rr)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "/api/v1/sessions/"+created.ID, rr.Header().Get("Location"))
	require.Equal(t, "standard", created.Quote.Selection.Hosting.ID)
	require.EqualValues(t, 1200, created.Quote.Totals.OneTimeDevelopmentCost)
	require.Contains(t, created.Steps, "step3")

	base := "/api/v1/sessions/" + created.ID
	rr = f.do(t, http.MethodPost, base+"/items", `{"category":"addons","add":["live-chat"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	edited := data[sessionBody](t, rr)
	require.EqualValues(t, 1275, edited.Quote.Totals.OneTimeDevelopmentCost)
	require.Equal(t, "live-chat", edited.Quote.Extras[0].ID)

	rr = f.do(t, http.MethodPost, base+"/bundle", `{"bundleId":"business-starter"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	swapped := data[sessionBody](t, rr)
	require.Equal(t, "business-starter", swapped.Quote.Selection.BundleID)
	require.Empty(t, swapped.Quote.Selection.Hosting.ID, "bundle-origin hosting is dropped on swap")
	require.EqualValues(t, 675, swapped.Quote.Totals.OneTimeDevelopmentCost)

	rr = f.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 675, data[sessionBody](t, rr).Quote.Totals.OneTimeDevelopmentCost)

	rr = f.do(t, http.MethodDelete, base, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionValidation(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/v1/sessions/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	id := session.NewID()
	rr = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/items", `{"category":"addons","add":["teleporter"]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION_ERROR")

	rr = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/items", `{"category":"colors","add":["red"]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/bundle", `{"bundleId":"mystery"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPut, "/api/v1/sessions/"+id, `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReplaceSessionFromSteps(t *testing.T) {
	f := newFixture(t)
	id := session.NewID()
	body := `{"steps":{
		"step1":{"step":1,"name":"Website type","value":"single"},
		"step3":{"step":3,"name":"Bundle","id":"business-starter"},
		"step9":{"step":9,"name":"Sections","items":["hero","gallery"],"cost":9999,"includedInBundle":["hero"]}
	}}`
	rr := f.do(t, http.MethodPut, "/api/v1/sessions/"+id, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := data[sessionBody](t, rr)
	require.EqualValues(t, 725, got.Quote.Totals.OneTimeDevelopmentCost)
	require.Contains(t, got.Steps, "step9")
}

func TestShareLink(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/sessions", `{"bundleId":"business-starter"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := data[sessionBody](t, rr).ID

	rr = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/share", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	share := data[struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}](t, rr)
	require.Equal(t, "https://quotes.example.com/api/v1/shared/"+share.Token, share.URL)

	rr = f.do(t, http.MethodGet, "/api/v1/shared/"+share.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 600, data[viewBody](t, rr).Totals.OneTimeDevelopmentCost)

	rr = f.do(t, http.MethodGet, "/api/v1/shared/garbage", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/v1/sessions/"+session.NewID()+"/share", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEditingMissingSessionIsNotFound(t *testing.T) {
	f := newFixture(t)
	base := "/api/v1/sessions/" + session.NewID()

	rr := f.do(t, http.MethodPost, base+"/items", `{"category":"addons","add":["live-chat"]}`)
	require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPost, base+"/bundle", `{"bundleId":"business-starter"}`)
	require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEmailQueuesEvent(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/quotes/email", `{
		"name":" Ada ","email":"ada@example.com",
		"selection":{"bundleId":"business-starter","sections":["gallery"],"promoCode":"2026"}
	}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	accepted := data[struct {
		RequestID string `json:"requestId"`
		Status    string `json:"status"`
	}](t, rr)
	require.Equal(t, "queued", accepted.Status)

	require.Len(t, f.sink.events, 1)
	ev := f.sink.events[0]
	require.Equal(t, accepted.RequestID, ev.ID)
	var req events.QuoteRequested
	require.NoError(t, ev.Decode(&req))
	require.Equal(t, "Ada", req.Name)
	require.EqualValues(t, 725, req.OneTimeDevelopmentCost)
	require.EqualValues(t, 652, req.DiscountedFirstYearTotal)
}

func TestEmailFromSession(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/sessions", `{"bundleId":"business-starter"}`)
	id := data[sessionBody](t, rr).ID

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/email", `{"name":"Ada","email":"ada@example.com","sessionId":"`+id+`"}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	require.Len(t, f.sink.events, 1)
	require.Equal(t, id, f.sink.events[0].AggregateID)
}

func TestEmailValidation(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/quotes/email", `{"name":"Ada","email":"not-an-email","selection":{}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Equal(t, "email", body.Error.Details["email"])

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/email", `{"name":"Ada","email":"ada@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, f.sink.events)

	disabled := newFixture(t, func(h *quote.Handler) { h.Events = nil })
	rr = disabled.do(t, http.MethodPost, "/api/v1/quotes/email", `{"name":"Ada","email":"ada@example.com","selection":{}}`)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestDocumentDownloads(t *testing.T) {
	f := newFixture(t)
	body := `{"bundleId":"business-starter","sections":["gallery"],"customer":"Ada"}`

	rr := f.do(t, http.MethodPost, "/api/v1/quotes/pdf", body)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), ".pdf")
	require.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/xlsx", body)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Disposition"), ".xlsx")
	require.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/pdf", `{"sessionId":"`+session.NewID()+`"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
