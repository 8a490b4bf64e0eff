package discovery

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceID(t *testing.T) {
	assert.Equal(t, "storefront-api-10.0.0.7-8080", ServiceID("storefront-api", "10.0.0.7", 8080))
}

func TestDeregister(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := api.DefaultConfig()
	cfg.Address = strings.TrimPrefix(srv.URL, "http://")
	client, err := api.NewClient(cfg)
	require.NoError(t, err)

	reg := &Registration{client: client, id: "storefront-api-10.0.0.7-8080"}
	require.NoError(t, reg.Deregister())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PUT /v1/agent/service/deregister/storefront-api-10.0.0.7-8080"}, paths)
}
