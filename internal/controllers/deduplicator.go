package controllers

import (
	"sync"
	"time"
)

// RequestDeduplicator не пускает одну и ту же операцию дважды, пока первая
// не завершилась. TTL снимает блокировку, если Release так и не был вызван.
type RequestDeduplicator struct {
	locks sync.Map
	now   func() time.Time
}

func NewRequestDeduplicator() *RequestDeduplicator {
	return &RequestDeduplicator{now: time.Now}
}

func (d *RequestDeduplicator) TryAcquire(key string, ttl time.Duration) bool {
	now := d.now()
	expiry := now.Add(ttl)

	for {
		val, loaded := d.locks.LoadOrStore(key, expiry)
		if !loaded {
			return true
		}
		current := val.(time.Time)
		if now.Before(current) {
			return false
		}
		// просроченная блокировка: забираем, если её не успел забрать другой
		if d.locks.CompareAndSwap(key, current, expiry) {
			return true
		}
	}
}

func (d *RequestDeduplicator) Release(key string) {
	d.locks.Delete(key)
}
