package netpool

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Group owns one Pool per target key. Keys identify everything that
// makes connections interchangeable: scheme, host, port and the proxy
// in use, typically joined into one string.
type Group struct {
	sync.RWMutex
	pools map[string]*Pool

	maxConnsPerHost, maxIdlePerHost uint
	maxIdleAge                      time.Duration
	logger                          *zap.Logger
}

func NewGroup(maxConnsPerHost, maxIdlePerHost uint) *Group {
	return &Group{
		pools:           map[string]*Pool{},
		maxConnsPerHost: maxConnsPerHost, maxIdlePerHost: maxIdlePerHost,
		logger: zap.NewNop(),
	}
}

// SetLogger must be called before the group is used.
func (g *Group) SetLogger(l *zap.Logger) {
	if l != nil {
		g.logger = l
	}
}

// SetMaxIdleAge applies to pools created afterwards.
func (g *Group) SetMaxIdleAge(d time.Duration) { g.maxIdleAge = d }

func (g *Group) Connect(ctx context.Context, key string, dial func(ctx context.Context) (net.Conn, error)) (Conn, error) {
	g.RLock()
	p, ok := g.pools[key]
	g.RUnlock()
	if ok {
		return p.Connect(ctx, dial)
	}
	g.Lock()
	if p, ok = g.pools[key]; !ok {
		p = NewPool(g.maxIdlePerHost, g.maxConnsPerHost)
		p.maxIdleAge = g.maxIdleAge
		p.logger = g.logger
		g.pools[key] = p
	}
	g.Unlock()
	return p.Connect(ctx, dial)
}
