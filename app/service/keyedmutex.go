package service

import "sync"

const mutexStripes = 64

// keyedMutex serializes work per transaction id with a fixed stripe set, so
// a callback and the reconcile poller never process the same transaction
// concurrently. Distinct ids may share a stripe; that only costs contention.
type keyedMutex struct {
	stripes [mutexStripes]sync.Mutex
}

func (m *keyedMutex) lock(id uint64) func() {
	stripe := &m.stripes[id%mutexStripes]
	stripe.Lock()
	return stripe.Unlock
}
