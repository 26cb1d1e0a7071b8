package integrations

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	callbackHost = "127.0.0.1"
	callbackPath = "/callback"
)

// CallbackReceiver is a one-shot local HTTP listener that captures the
// provider redirect for terminal-driven OAuth flows.
type CallbackReceiver struct {
	server   *http.Server
	listener net.Listener
	results  chan url.Values
	errs     chan error
}

// StartCallbackReceiver listens on the IPv4 loopback at port. Port 0 picks a
// free port.
func StartCallbackReceiver(port int) (*CallbackReceiver, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(callbackHost, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("start callback server: %w", err)
	}

	r := &CallbackReceiver{
		listener: listener,
		results:  make(chan url.Values, 1),
		errs:     make(chan error, 1),
	}

	router := chi.NewRouter()
	router.Get(callbackPath, r.handle)
	r.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := r.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.errs <- err
		}
	}()

	return r, nil
}

// RedirectURI is the URL to register as the OAuth redirect. It names the
// loopback address the listener is bound to, not localhost, which may
// resolve to ::1 first.
func (r *CallbackReceiver) RedirectURI() string {
	return fmt.Sprintf("http://%s%s", r.listener.Addr().String(), callbackPath)
}

func (r *CallbackReceiver) handle(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	if q.Get("code") == "" && q.Get("error") == "" {
		http.Error(w, "No code received", http.StatusBadRequest)
		return
	}

	select {
	case r.results <- q:
	default:
		http.Error(w, "Callback already received", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<html><body><h1>Authorization received</h1><p>You can close this tab and return to the terminal.</p></body></html>`)
}

// Wait blocks until the redirect arrives, the server fails, or timeout
// passes.
func (r *CallbackReceiver) Wait(ctx context.Context, timeout time.Duration) (url.Values, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case q := <-r.results:
		return q, nil
	case err := <-r.errs:
		return nil, fmt.Errorf("callback server: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("authorization timeout - no response received")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the listener down.
func (r *CallbackReceiver) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.server.Shutdown(ctx)
}
