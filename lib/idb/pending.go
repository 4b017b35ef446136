package idb

import (
	"context"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// transaction is one in-flight engine transaction. Aborting it cancels its
// context, which every proxied request and the cursor reader check.
type transaction struct {
	id     uuid.UUID
	store  string
	mode   Mode
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *transaction) aborted() bool {
	return t.ctx.Err() != nil
}

// pendingSet holds the in-flight transactions of a Database so Close can abort them.
//
// Thread-safety: all methods can be called concurrently.
type pendingSet struct {
	txns *xsync.MapOf[uuid.UUID, *transaction]
}

func newPendingSet() *pendingSet {
	return &pendingSet{txns: xsync.NewMapOf[uuid.UUID, *transaction]()}
}

// add registers a new transaction whose context is derived from parent.
func (p *pendingSet) add(parent context.Context, store string, mode Mode) *transaction {
	ctx, cancel := context.WithCancel(parent)
	t := &transaction{
		id:     uuid.New(),
		store:  store,
		mode:   mode,
		ctx:    ctx,
		cancel: cancel,
	}
	p.txns.Store(t.id, t)
	return t
}

// remove deregisters t. A transaction already taken out by abortAll is not
// removed a second time.
func (p *pendingSet) remove(t *transaction) {
	p.txns.Delete(t.id)
	t.cancel()
}

// abortAll takes every transaction out of the set and aborts it.
// It returns the number of aborted transactions.
func (p *pendingSet) abortAll() int {
	n := 0
	p.txns.Range(func(id uuid.UUID, t *transaction) bool {
		if _, loaded := p.txns.LoadAndDelete(id); loaded {
			t.cancel()
			n++
		}
		return true
	})
	return n
}

func (p *pendingSet) len() int {
	return p.txns.Size()
}
