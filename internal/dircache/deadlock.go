package dircache

import (
	"sync"
	"time"

	"github.com/unused-finder/monorepo-core/internal/diagnostic"
)

// deadlockPollInterval is how often LockWithTimeout retries TryLock while
// waiting for the timeout to elapse.
const deadlockPollInterval = 2 * time.Millisecond

// LockWithTimeout attempts to acquire mu within timeout using repeated
// TryLock polls. If the timeout elapses without success it logs a
// KindDeadlockWarning diagnostic (naming label) and then falls back to a
// blocking Lock, so correctness is never sacrificed for the warning — only
// a slow-lock signal is produced. A zero timeout disables detection and
// acquires mu directly.
func LockWithTimeout(mu *sync.RWMutex, timeout time.Duration, log *diagnostic.Log, label string) {
	if timeout <= 0 || log == nil {
		mu.Lock()
		return
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if mu.TryLock() {
			return
		}
		time.Sleep(deadlockPollInterval)
	}

	log.Warn(diagnostic.KindDeadlockWarning, "lock held longer than "+timeout.String()+" for "+label, nil)
	mu.Lock()
}
