package endp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/trans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerAddr(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		wantEa *Addr
	}{
		{"basic", "/a/alice", &Addr{Service: "a", Wallet: "alice"}},
		{"ws", "/ws/bob", &Addr{Service: "ws", Wallet: "bob"}},
		{"only service", "/a", &Addr{Service: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotEa := NewServerAddr(tt.path); !reflect.DeepEqual(gotEa, tt.wantEa) {
				t.Errorf("NewServerAddr() = %v, want %v", gotEa, tt.wantEa)
			}
		})
	}
}

func TestAddr_Address(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantWS string
	}{
		{"http", "http://localhost:8090/a/alice", "http://localhost:8090/a/alice", "ws://localhost:8090/ws/alice"},
		{"https", "https://agent.example.com/ws/bob", "https://agent.example.com/a/bob", "wss://agent.example.com/ws/bob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ea, err := NewClientAddr(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ea.Address())
			assert.Equal(t, tt.wantWS, ea.WSAddress())
		})
	}
	_, err := NewClientAddr("/a/alice")
	assert.Error(t, err)
}

type recorder struct {
	lk      sync.Mutex
	bodies  [][]byte
	headers []map[string]string
	err     error
}

func (r *recorder) handle(_ context.Context, body []byte, headers map[string]string) error {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.bodies = append(r.bodies, body)
	r.headers = append(r.headers, headers)
	return r.err
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer("")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	s.SetBase(ts.URL)
	return s, ts
}

func TestServer_Post(t *testing.T) {
	s, ts := newTestServer(t)
	rec := &recorder{}
	addr := s.Mount("alice", rec.handle)
	assert.Equal(t, ts.URL+"/a/alice", addr.Address())

	body := []byte(`{"protected":"x"}`)
	resp, err := ts.Client().Post(addr.Address(), "application/didcomm-enc-env", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, body, rec.bodies[0])
	assert.Equal(t, "application/didcomm-enc-env", rec.headers[0][didcomm.HeaderContentType])

	resp, err = ts.Client().Post(ts.URL+"/a/nobody", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.Unmount("alice")
	resp, err = ts.Client().Post(addr.Address(), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ErrorStatus(t *testing.T) {
	s, ts := newTestServer(t)
	rec := &recorder{err: didcomm.UnsupportedMessageType("https://didcomm.org/unknown/1.0/x")}
	addr := s.Mount("alice", rec.handle)

	resp, err := ts.Client().Post(addr.Address(), "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	rec.err = errors.New("disk full")
	resp, err = ts.Client().Post(addr.Address(), "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_Dispatchers(t *testing.T) {
	s, ts := newTestServer(t)
	rec := &recorder{}
	addr := s.Mount("bob", rec.handle)

	epm := didcomm.New([]byte(`{"@id":"1","@type":"test"}`), nil, didcomm.Outbound)
	tests := []struct {
		name       string
		dispatcher trans.Dispatcher
		url        string
	}{
		{"http", &trans.HTTP{Client: ts.Client()}, addr.Address()},
		{"http zstd", &trans.HTTP{Client: ts.Client(), Compress: true}, addr.Address()},
		{"ws", &trans.WS{}, addr.WSAddress()},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.dispatcher.DispatchToEndpoint(context.Background(), tt.url, epm))
			rec.lk.Lock()
			defer rec.lk.Unlock()
			require.Len(t, rec.bodies, i+1)
			assert.Equal(t, epm.Body(), rec.bodies[i])
		})
	}

	rec.err = didcomm.InvalidMessageType("a", "b")
	err := (&trans.WS{}).DispatchToEndpoint(context.Background(), addr.WSAddress(), epm)
	assert.Error(t, err)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(didcomm.Verification("bad")))
	assert.Equal(t, http.StatusBadRequest, statusOf(didcomm.PreconditionFailed("wallet")))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("x")))
}
