package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// patientLocks hands out one mutex per patient and frees it once the last
// holder or waiter is done.
type patientLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*patientLock
}

type patientLock struct {
	sync.Mutex
	refs int
}

func newPatientLocks() *patientLocks {
	return &patientLocks{locks: make(map[uuid.UUID]*patientLock)}
}

// Lock blocks until id is free and returns the matching unlock.
func (p *patientLocks) Lock(id uuid.UUID) func() {
	p.mu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &patientLock{}
		p.locks[id] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, id)
		}
		p.mu.Unlock()
	}
}

func (p *patientLocks) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
