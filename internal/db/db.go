package db

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/oxidb"
)

const (
	dialTimeout       = 5 * time.Second
	keepaliveInterval = 10 * time.Second
)

// Pool is a round-robin connection pool for OxiDB with auto-reconnect.
type Pool struct {
	addr    string
	log     logrus.FieldLogger
	clients []*oxidb.Client
	mu      []sync.Mutex
	idx     uint64
	stop    chan struct{}
	once    sync.Once
}

// NewPool opens size connections to addr and starts the keepalive loop.
func NewPool(addr string, size int, log logrus.FieldLogger) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		addr:    addr,
		log:     log,
		clients: make([]*oxidb.Client, size),
		mu:      make([]sync.Mutex, size),
		stop:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		c, err := oxidb.Connect(addr, dialTimeout)
		if err != nil {
			p.Close()
			return nil, errors.Wrapf(err, "pool: connect client %d", i)
		}
		p.clients[i] = c
	}
	go p.keepalive(keepaliveInterval)
	return p, nil
}

// Get returns the next client in round-robin order. A slot whose client is
// missing or broken is redialed first.
func (p *Pool) Get() (*oxidb.Client, error) {
	n := atomic.AddUint64(&p.idx, 1)
	i := int(n % uint64(len(p.clients)))

	p.mu[i].Lock()
	defer p.mu[i].Unlock()
	if c := p.clients[i]; c != nil && !c.Broken() {
		return c, nil
	}
	if err := p.redial(i); err != nil {
		return nil, errors.Wrapf(err, "pool: client %d unavailable", i)
	}
	return p.clients[i], nil
}

func (p *Pool) client(i int) *oxidb.Client {
	p.mu[i].Lock()
	defer p.mu[i].Unlock()
	return p.clients[i]
}

func (p *Pool) reconnect(i int) {
	p.mu[i].Lock()
	defer p.mu[i].Unlock()
	if err := p.redial(i); err != nil {
		p.log.WithError(err).WithField("client", i).Warn("pool: reconnect failed")
	}
}

// redial replaces slot i. On failure the slot is left empty. Callers hold p.mu[i].
func (p *Pool) redial(i int) error {
	if p.clients[i] != nil {
		p.clients[i].Close()
		p.clients[i] = nil
	}
	c, err := oxidb.Connect(p.addr, dialTimeout)
	if err != nil {
		return err
	}
	p.clients[i] = c
	return nil
}

func (p *Pool) keepalive(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := range p.clients {
				if _, err := p.client(i).Ping(); err != nil {
					p.log.WithError(err).WithField("client", i).Warn("pool: ping failed, reconnecting")
					p.reconnect(i)
				}
			}
		}
	}
}

// Close stops the keepalive loop and closes all connections.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.stop)
		for i := range p.clients {
			p.mu[i].Lock()
			if p.clients[i] != nil {
				p.clients[i].Close()
			}
			p.mu[i].Unlock()
		}
	})
}
