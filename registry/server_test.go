package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/internal/testutil"
)

func newDiscovery(t *testing.T, src Source) *httptest.Server {
	t.Helper()
	r := newTestRegistry(t, testutil.NewKeywordEmbedder("price", "buyer", "trade"))
	_, err := r.Load(context.Background(), src)
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(r, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_FindAgent(t *testing.T) {
	srv := newDiscovery(t, catalog())

	resp, err := http.Post(srv.URL+"/find_agent", "application/json", strings.NewReader(`{"query":"set up a trade"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var d core.AgentDescriptor
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	assert.Equal(t, "trade_agent", d.Name)
	assert.Contains(t, d.Endpoint, "/invoke/?agent_name=trade_agent")
}

func TestServer_FindAgentBadRequest(t *testing.T) {
	srv := newDiscovery(t, catalog())

	resp, err := http.Post(srv.URL+"/find_agent", "application/json", strings.NewReader(`{"query":"  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_AgentsAndHealth(t *testing.T) {
	srv := newDiscovery(t, catalog())

	resp, err := http.Get(srv.URL + "/agents")
	require.NoError(t, err)
	var ds []core.AgentDescriptor
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ds))
	resp.Body.Close()
	assert.Len(t, ds, 3)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_Resolve(t *testing.T) {
	srv := newDiscovery(t, catalog())
	c := NewClient(srv.URL)

	d, err := c.Resolve(context.Background(), "predict the price of rice")
	require.NoError(t, err)
	assert.Equal(t, "price_agent", d.Name)
}

func TestClient_NoAgentFound(t *testing.T) {
	srv := newDiscovery(t, StaticSource{})
	c := NewClient(srv.URL)

	_, err := c.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, core.ErrNoAgentFound)
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, func(o *ClientOptions) { o.Timeout = time.Second })
	_, err := c.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrDiscoveryUnavailable)
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Resolve(context.Background(), "anything")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrNoAgentFound)
}
