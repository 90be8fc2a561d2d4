package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func staticProvider(name string, srv *httptest.Server) provider {
	return provider{
		name: name,
		request: func(base string) (string, url.Values) {
			return srv.URL, url.Values{"base": {base}}
		},
	}
}

func TestClientCrossRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// USD-based table: cross-rate math must still produce EUR rates.
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.5,"GBP":0.4}}`))
	}))
	defer srv.Close()

	c := newClient(ClientConfig{}, []provider{staticProvider("test", srv)})

	rate, err := c.Rate(context.Background(), "GBP", time.Now())
	require.NoError(t, err)
	// 1 GBP = table[EUR]/table[GBP] = 0.5/0.4 = 1.25 EUR
	require.Equal(t, "1.25", rate.String())

	one, err := c.Rate(context.Background(), "EUR", time.Now())
	require.NoError(t, err)
	require.Equal(t, "1", one.String())

	usd, err := c.Rate(context.Background(), "USD", time.Now())
	require.NoError(t, err)
	require.Equal(t, "0.5", usd.String())
}

func TestClientProviderFallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// open.er-api.com response shape.
		_, _ = w.Write([]byte(`{"result":"success","base_code":"EUR","rates":{"USD":1.25}}`))
	}))
	defer good.Close()

	c := newClient(ClientConfig{}, []provider{
		staticProvider("bad", bad),
		staticProvider("good", good),
	})

	rate, err := c.Rate(context.Background(), "USD", time.Now())
	require.NoError(t, err)
	require.Equal(t, "0.8", rate.String())
}

func TestClientUnknownCodeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{"USD":1.1}}`))
	}))
	defer srv.Close()

	c := newClient(ClientConfig{}, []provider{staticProvider("test", srv)})

	_, err := c.Rate(context.Background(), "ZZZ", time.Now())
	require.ErrorIs(t, err, ErrRateUnavailable)
}

func TestClientCachesTable(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{"USD":1.1}}`))
	}))
	defer srv.Close()

	c := newClient(ClientConfig{TTL: time.Hour}, []provider{staticProvider("test", srv)})

	for range 3 {
		_, err := c.Rate(context.Background(), "USD", time.Now())
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls, "table should be fetched once within the TTL")
}

func TestClientSeedFallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	c := newClient(ClientConfig{}, []provider{staticProvider("bad", bad)})

	rate, err := c.Rate(context.Background(), "USD", time.Now())
	require.NoError(t, err)
	require.True(t, rate.IsPositive())

	_, err = c.Rate(context.Background(), "ZZZ", time.Now())
	require.ErrorIs(t, err, ErrRateUnavailable)
}

func TestClientDiskCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{"USD":1.3}}`))
	}))
	first := newClient(ClientConfig{CachePath: path}, []provider{staticProvider("live", srv)})
	_, err := first.Rate(context.Background(), "USD", time.Now())
	require.NoError(t, err)
	srv.Close()

	// A fresh client with every provider down must serve from disk.
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer down.Close()
	second := newClient(ClientConfig{CachePath: path}, []provider{staticProvider("down", down)})

	rate, err := second.Rate(context.Background(), "USD", time.Now())
	require.NoError(t, err)
	require.Equal(t, "0.7692307692307692", rate.StringFixed(16))
}
