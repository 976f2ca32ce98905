package gateway

import (
	"strconv"
	"sync/atomic"
	"time"
)

// nonceSource yields millisecond timestamps that never repeat within a
// process, even for two requests issued in the same millisecond.
type nonceSource struct {
	last atomic.Int64
	now  func() time.Time
}

func newNonceSource(now func() time.Time) *nonceSource {
	return &nonceSource{now: now}
}

func (n *nonceSource) Next() string {
	for {
		last := n.last.Load()
		next := n.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if n.last.CompareAndSwap(last, next) {
			return strconv.FormatInt(next, 10)
		}
	}
}
