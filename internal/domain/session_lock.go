package domain

import "sync"

// sessionLocker hands out one mutex per roulette session. The mutex of a
// session is dropped once no spin holds or waits for it.
type sessionLocker struct {
	mutex sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocker() *sessionLocker {
	return &sessionLocker{locks: make(map[string]*sessionLock)}
}

// Lock blocks until the session is free and returns the function releasing it.
func (l *sessionLocker) Lock(sessionID string) func() {
	l.mutex.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		l.locks[sessionID] = lock
	}
	lock.refs++
	l.mutex.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()

		l.mutex.Lock()
		defer l.mutex.Unlock()

		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, sessionID)
		}
	}
}

func (l *sessionLocker) len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return len(l.locks)
}
