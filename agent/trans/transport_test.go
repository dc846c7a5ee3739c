package trans

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/trans/mock_trans"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEPM() *didcomm.EndpointMessage {
	return didcomm.New([]byte(`{"@id":"1","@type":"test"}`),
		map[string]string{didcomm.HeaderContentType: "application/json"},
		didcomm.Outbound)
}

func TestRouter_DispatchToEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	epm := testEPM()
	mem := mock_trans.NewMockDispatcher(ctrl)
	mem.EXPECT().DispatchToEndpoint(gomock.Any(), "mem://alice", epm).Return(nil)

	r := NewRouter()
	r.Handle(MemScheme, mem)

	assert.NoError(t, r.DispatchToEndpoint(context.Background(), "mem://alice", epm))
	assert.Error(t, r.DispatchToEndpoint(context.Background(), "ftp://alice", epm))
	assert.Error(t, r.DispatchToEndpoint(context.Background(), "::bad", epm))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	url := m.URL("bob")
	assert.Equal(t, "mem://bob", url)

	var got []byte
	var gotHeaders map[string]string
	m.Listen(url, func(_ context.Context, body []byte, headers map[string]string) error {
		got = body
		gotHeaders = headers
		return nil
	})

	epm := testEPM()
	require.NoError(t, m.DispatchToEndpoint(context.Background(), url, epm))
	assert.Equal(t, epm.Body(), got)
	assert.Equal(t, "application/json", gotHeaders[didcomm.HeaderContentType])

	handlerErr := errors.New("handler failed")
	m.Listen(url, func(context.Context, []byte, map[string]string) error {
		return handlerErr
	})
	assert.ErrorIs(t, m.DispatchToEndpoint(context.Background(), url, epm), handlerErr)

	m.Close(url)
	assert.Error(t, m.DispatchToEndpoint(context.Background(), url, epm))
}

func TestHTTP_Retry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	h := &HTTP{Client: srv.Client(), Retries: 5}
	require.NoError(t, h.DispatchToEndpoint(context.Background(), srv.URL, testEPM()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTP_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unsupported message type", http.StatusBadRequest)
	}))
	defer srv.Close()

	h := &HTTP{Client: srv.Client(), Retries: 5}
	err := h.DispatchToEndpoint(context.Background(), srv.URL, testEPM())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported message type")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTP_Compress(t *testing.T) {
	epm := testEPM()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ContentEncodingZstd, r.Header.Get("Content-Encoding"))
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		body, err := Decompress(data)
		require.NoError(t, err)
		assert.Equal(t, epm.Body(), body)
	}))
	defer srv.Close()

	h := &HTTP{Client: srv.Client(), Compress: true}
	require.NoError(t, h.DispatchToEndpoint(context.Background(), srv.URL, epm))
}

func TestCompress(t *testing.T) {
	data := []byte(`{"content":"` + string(make([]byte, 1024)) + `"}`)
	c := Compress(data)
	assert.Less(t, len(c), len(data))
	got, err := Decompress(c)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = Decompress([]byte("not zstd"))
	assert.Error(t, err)
}
