package wsinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/walletd/walletd/internal/core/application"
	"github.com/walletd/walletd/internal/interfaces"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16
	shutdownWait   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ServiceOpts struct {
	Address   string
	Handle    *application.Handle
	QueueSize int
}

func (o ServiceOpts) validate() error {
	if o.Address == "" {
		return fmt.Errorf("missing listening address")
	}
	if o.Handle == nil {
		return fmt.Errorf("missing session handle")
	}
	if o.QueueSize < 0 {
		return fmt.Errorf("peer queue size must not be negative")
	}
	return nil
}

type service struct {
	opts     ServiceOpts
	server   *http.Server
	listener net.Listener

	lock     sync.Mutex
	conns    map[*websocket.Conn]struct{}
	stopping bool
	wg       sync.WaitGroup
}

// NewService returns the websocket server every peer connects to. Each
// connection is registered as a peer of the session and receives the
// session notifications in commit order.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	svc := &service{
		opts:  opts,
		conns: make(map[*websocket.Conn]struct{}),
	}
	svc.server = &http.Server{
		Handler:           svc,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return svc, nil
}

func (s *service) Start() error {
	listener, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("peer server stopped unexpectedly")
		}
	}()

	log.Infof("peer interface is listening on %s", listener.Addr())
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()

	// Hijacked connections are not tracked by the http server.
	s.lock.Lock()
	s.stopping = true
	for conn := range s.conns {
		conn.Close()
	}
	s.lock.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop peer server")
	}
	s.wg.Wait()

	log.Debug("stopped peer interface")
}

func (s *service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.acquire() {
		http.Error(w, "peer server is stopping", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	if !s.track(conn) {
		conn.Close()
		return
	}

	peer := application.NewPeer(r.RemoteAddr, s.opts.QueueSize)
	if err := s.opts.Handle.Do(r.Context(), func(session *application.Session) error {
		return session.AddPeer(peer)
	}); err != nil {
		log.WithError(err).Warn("failed to register peer")
		s.untrack(conn)
		conn.Close()
		return
	}

	// The handler still holds its own slot, so the counter is positive here.
	s.wg.Add(2)
	go s.writePump(conn, peer)
	go s.readPump(conn, peer)
}

// readPump discards inbound frames and keeps the connection alive. When the
// connection breaks the peer is unregistered, which ends the write pump.
func (s *service) readPump(conn *websocket.Conn, peer *application.Peer) {
	defer s.wg.Done()
	defer s.unregister(peer)

	conn.SetReadLimit(maxMessageSize)
	// nolint
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseNormalClosure,
			) {
				log.WithError(err).WithField("peer", peer.Addr()).
					Debug("peer connection closed")
			}
			return
		}
	}
}

func (s *service) writePump(conn *websocket.Conn, peer *application.Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.untrack(conn)
		conn.Close()
		s.wg.Done()
	}()

	for {
		select {
		case msg, ok := <-peer.Messages():
			// nolint
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// nolint
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.WithError(err).WithField("peer", peer.Addr()).
					Debug("failed to write to peer")
				return
			}
		case <-ticker.C:
			// nolint
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *service) unregister(peer *application.Peer) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()

	if err := s.opts.Handle.Do(ctx, func(session *application.Session) error {
		session.RemovePeer(peer)
		return nil
	}); err != nil {
		// The session is still guarded: at least close the outbound queue.
		peer.Close()
	}
}

// acquire reserves a slot in the wait group for a new connection, unless
// the service is stopping
func (s *service) acquire() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopping {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *service) track(conn *websocket.Conn) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopping {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *service) untrack(conn *websocket.Conn) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.conns, conn)
}
