package acapy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/core"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ssi.AgentBackend = (*Backend)(nil)

func newAdmin(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/connections/{id}/send-ping", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerAPIKey) != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req pingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if mux.Vars(r)["id"] == "unknown" {
			http.Error(w, "connection not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(pingResult{ThreadID: "thread-of-" + mux.Vars(r)["id"]})
	}).Methods(http.MethodPost)
	r.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"0.7.4","label":"acapy"}`))
	}).Methods(http.MethodGet)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestBackend_SendPing(t *testing.T) {
	ts := newAdmin(t)
	b := &Backend{AdminURL: ts.URL + "/", Endpoint: "http://acapy:8030", APIKey: "secret", Client: ts.Client()}

	assert.Equal(t, core.AgentAcaPy, b.Type())
	assert.Equal(t, "http://acapy:8030", b.EndpointURL())

	thid, err := b.SendPing(context.Background(), "conn-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "thread-of-conn-1", thid)

	_, err = b.SendPing(context.Background(), "unknown", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection not found")

	b.APIKey = ""
	_, err = b.SendPing(context.Background(), "conn-1", "hello")
	assert.Error(t, err)
}

func TestBackend_Status(t *testing.T) {
	ts := newAdmin(t)
	b := &Backend{AdminURL: ts.URL, Client: ts.Client()}

	status, err := b.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.7.4", status["version"])
}
