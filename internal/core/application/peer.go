package application

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/walletd/walletd/pkg/stats"
)

// DefaultPeerQueueSize is the number of notifications a peer can have
// pending before it is considered too slow and dropped.
const DefaultPeerQueueSize = 64

// Peer is the outbound side of a connected client. The transport drains
// Messages() and writes them to the wire in order.
type Peer struct {
	id     string
	addr   string
	outbox chan []byte

	lock   sync.Mutex
	closed bool
}

func NewPeer(addr string, queueSize int) *Peer {
	if queueSize <= 0 {
		queueSize = DefaultPeerQueueSize
	}
	return &Peer{
		id:     uuid.New().String(),
		addr:   addr,
		outbox: make(chan []byte, queueSize),
	}
}

func (p *Peer) ID() string {
	return p.id
}

func (p *Peer) Addr() string {
	return p.addr
}

// Messages returns the queue of serialized notifications. It is closed once
// the peer is closed.
func (p *Peer) Messages() <-chan []byte {
	return p.outbox
}

// Send enqueues msg without blocking
func (p *Peer) Send(msg []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.closed {
		return ErrPeerClosed
	}
	select {
	case p.outbox <- msg:
		return nil
	default:
		return ErrPeerQueueFull
	}
}

// Close is idempotent
func (p *Peer) Close() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.outbox)
}

// PeerRegistry maps peer addresses to their outbound queues. It holds no lock
// of its own: it is only accessed while holding the session guard.
type PeerRegistry struct {
	peers map[string]*Peer
}

func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{peers: make(map[string]*Peer)}
}

// Add registers the peer, replacing (and closing) any previous peer
// registered with the same address
func (r *PeerRegistry) Add(peer *Peer) {
	if prev, ok := r.peers[peer.Addr()]; ok && prev != peer {
		prev.Close()
	}
	r.peers[peer.Addr()] = peer
	stats.Peers.Set(float64(len(r.peers)))
}

// Remove unregisters the peer with the given address, if any, and returns it
func (r *PeerRegistry) Remove(addr string) *Peer {
	peer, ok := r.peers[addr]
	if !ok {
		return nil
	}
	delete(r.peers, addr)
	stats.Peers.Set(float64(len(r.peers)))
	return peer
}

func (r *PeerRegistry) Get(addr string) (*Peer, bool) {
	peer, ok := r.peers[addr]
	return peer, ok
}

func (r *PeerRegistry) Len() int {
	return len(r.peers)
}

// Addrs returns the sorted addresses of the registered peers
func (r *PeerRegistry) Addrs() []string {
	addrs := make([]string, 0, len(r.peers))
	for addr := range r.peers {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// Broadcast serializes the notification once and enqueues it to every
// registered peer. A peer that cannot accept the message is dropped and
// closed, so that it never observes a gap in its stream; delivery to the
// other peers goes on. It returns the number of peers that got the message.
func (r *PeerRegistry) Broadcast(notification Notification) (int, error) {
	msg, err := json.Marshal(notification)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"method": notification.Method,
		"peers":  len(r.peers),
	}).Info("broadcasting notification")
	stats.Notifications.WithLabelValues(notification.Method).Inc()

	delivered := 0
	for addr, peer := range r.peers {
		if err := peer.Send(msg); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"peer":    addr,
				"peer_id": peer.ID(),
			}).Warn("dropping peer")
			stats.PeerSendFailures.Inc()

			delete(r.peers, addr)
			peer.Close()
			continue
		}
		delivered++
	}
	stats.Peers.Set(float64(len(r.peers)))

	return delivered, nil
}

func (r *PeerRegistry) closeAll() {
	for addr, peer := range r.peers {
		peer.Close()
		delete(r.peers, addr)
	}
	stats.Peers.Set(0)
}
