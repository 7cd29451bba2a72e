package executor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrPayloadConsumed is returned when a fallback needs bytes whose ownership
// already moved to a background worker.
var ErrPayloadConsumed = errors.New("payload consumed by background worker")

// Handoff selects how a payload is passed to a background worker.
type Handoff string

const (
	// HandoffShare lends the bytes; the caller keeps a valid view for fallback.
	HandoffShare Handoff = "share"
	// HandoffTransfer moves ownership to the worker and detaches the caller's view.
	HandoffTransfer Handoff = "transfer"
)

// ParseHandoff accepts "share" or "transfer"; empty means share.
func ParseHandoff(s string) (Handoff, error) {
	switch Handoff(strings.ToLower(strings.TrimSpace(s))) {
	case "", HandoffShare:
		return HandoffShare, nil
	case HandoffTransfer:
		return HandoffTransfer, nil
	}
	return "", fmt.Errorf("unknown handoff %q", s)
}

// Payload holds raw file bytes for one ingest call and tracks who owns them.
// Readers must not modify the returned slices.
type Payload struct {
	mu       sync.Mutex
	data     []byte
	consumed bool
}

func NewPayload(data []byte) *Payload {
	return &Payload{data: data}
}

// Len returns the payload size, or 0 once consumed.
func (p *Payload) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.data)
}

// Bytes returns the caller's view of the payload.
func (p *Payload) Bytes() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumed {
		return nil, ErrPayloadConsumed
	}
	return p.data, nil
}

// Take hands the bytes to a worker. With HandoffTransfer the payload is
// detached and later Bytes calls fail.
func (p *Payload) Take(h Handoff) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumed {
		return nil, ErrPayloadConsumed
	}
	data := p.data
	if h == HandoffTransfer {
		p.data = nil
		p.consumed = true
	}
	return data, nil
}
