package signing

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketIO adapts a socket.io client socket to Channel. Incoming server
// events are delivered to handlers registered with On; Emit sends to the
// server.
type SocketIO struct {
	sock *socket.Socket
}

// NewSocketIO wraps an already connected socket.
func NewSocketIO(sock *socket.Socket) *SocketIO {
	return &SocketIO{sock: sock}
}

// DialOptions configures Dial.
type DialOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Dial connects to a socket.io signer bridge and waits until the connection
// is established, fails, or ctx/timeout expires.
func Dial(ctx context.Context, o DialOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("component", "signing.socketio", "url", o.URL)

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer URL: %w", err)
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to signer", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Connecting to signer...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return NewSocketIO(io), nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(o.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", o.Timeout)
	}
}

// Emit sends the event to the signer bridge.
func (s *SocketIO) Emit(event string, payload any) error {
	if !s.sock.Connected() {
		return fmt.Errorf("signer socket %s is not connected", s.sock.Id())
	}
	return s.sock.Emit(event, payload)
}

// On listens for event from the signer bridge. Correlated event names are
// unique per node, so removal drops every listener of that name.
func (s *SocketIO) On(event string, h Handler) func() {
	name := types.EventName(event)
	_ = s.sock.On(name, func(args ...any) {
		var payload any
		if len(args) > 0 {
			payload = args[0]
		}
		h(payload)
	})
	var once sync.Once
	return func() {
		once.Do(func() { s.sock.RemoveAllListeners(name) })
	}
}

// Close disconnects the socket.
func (s *SocketIO) Close() error {
	s.sock.Disconnect()
	return nil
}
