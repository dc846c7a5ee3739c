package endp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/trans"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"nhooyr.io/websocket"
)

const maxBodySize = 4 << 20

// Server serves the inbound endpoints of the mounted wallets.
type Server struct {
	router *mux.Router

	lk       sync.RWMutex
	base     string
	handlers map[string]trans.Handler
	srv      *http.Server
}

// NewServer creates a server whose endpoint URLs start with the base, e.g.
// http://localhost:8090.
func NewServer(base string) *Server {
	s := &Server{
		base:     strings.TrimSuffix(base, "/"),
		handlers: make(map[string]trans.Handler),
		router:   mux.NewRouter(),
	}
	s.router.HandleFunc("/"+ServiceHTTP+"/{wallet}", s.handlePost).Methods(http.MethodPost)
	s.router.HandleFunc("/"+ServiceWS+"/{wallet}", s.handleWS).Methods(http.MethodGet)
	return s
}

// SetBase sets the base URL, e.g. when the listen address is known only
// after the start.
func (s *Server) SetBase(base string) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.base = strings.TrimSuffix(base, "/")
}

// Addr returns the endpoint address of the wallet.
func (s *Server) Addr(wallet string) *Addr {
	s.lk.RLock()
	defer s.lk.RUnlock()
	return &Addr{BasePath: s.base, Service: ServiceHTTP, Wallet: wallet}
}

// Mount adds the wallet's inbound handler and returns its address.
func (s *Server) Mount(wallet string, h trans.Handler) *Addr {
	s.lk.Lock()
	s.handlers[wallet] = h
	s.lk.Unlock()

	addr := s.Addr(wallet)
	glog.V(1).Infoln("mounted endpoint", addr)
	return addr
}

func (s *Server) Unmount(wallet string) {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.handlers, wallet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.lk.Lock()
	s.srv = srv
	s.lk.Unlock()

	glog.V(0).Infoln("listening", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.lk.RLock()
	srv := s.srv
	s.lk.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handler(wallet string) (trans.Handler, bool) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	h, ok := s.handlers[wallet]
	return h, ok
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["wallet"]
	h, ok := s.handler(wallet)
	if !ok {
		http.Error(w, "no endpoint "+wallet, http.StatusNotFound)
		return
	}
	if err := receive(r, h); err != nil {
		glog.Warningln("inbound:", err)
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func receive(r *http.Request, h trans.Handler) (err error) {
	defer err2.Handle(&err, "receive")

	body := try.To1(io.ReadAll(io.LimitReader(r.Body, maxBodySize)))
	if r.Header.Get("Content-Encoding") == trans.ContentEncodingZstd {
		body = try.To1(trans.Decompress(body))
	}
	headers := map[string]string{
		didcomm.HeaderContentType: r.Header.Get("Content-Type"),
	}
	return h(r.Context(), body, headers)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	wallet := mux.Vars(r)["wallet"]
	h, ok := s.handler(wallet)
	if !ok {
		http.Error(w, "no endpoint "+wallet, http.StatusNotFound)
		return
	}

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		glog.Warningln("ws accept:", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")
	glog.V(2).Info("incoming WebSocket connection to: ", wallet)

	ctx := r.Context()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			glog.V(3).Info("websocket is closed: ", err)
			return
		}
		reply := trans.WSAck
		if err := h(ctx, data, nil); err != nil {
			glog.Warningln("inbound ws:", err)
			reply = err.Error()
		}
		if err := c.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
			glog.V(3).Info("websocket write: ", err)
			return
		}
	}
}

// statusOf maps the error taxonomy to HTTP status codes. The client errors
// aren't retried by the sender.
func statusOf(err error) int {
	for _, clientErr := range []error{
		didcomm.ErrUnsupportedMessageType,
		didcomm.ErrInvalidMessageType,
		didcomm.ErrVerification,
		didcomm.ErrPreconditionFailed,
		didcomm.ErrInvalidConnectionState,
	} {
		if errors.Is(err, clientErr) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
