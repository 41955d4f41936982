package regs

import (
	"slices"
	"sync"
)

// Access is a single register load or store seen by a Sim.
type Access struct {
	Off   Offset
	Value uint32
	Store bool
}

// Sim is an in-memory register block.  Hooks emulate hardware side effects
// like self-clearing or write-1-to-clear bits.
//
// Sim is safe for concurrent use.  Hooks are called with the Sim locked and
// must not access it, observers are called without the lock held.
type Sim struct {
	mtx       sync.Mutex
	mem       map[Offset]uint32
	onStore   map[Offset]func(old, v uint32) uint32
	onLoad    map[Offset]func(v uint32) uint32
	observers []func(Access)
	trace     []Access
}

func NewSim() *Sim {
	return &Sim{
		mem:     make(map[Offset]uint32),
		onStore: make(map[Offset]func(old, v uint32) uint32),
		onLoad:  make(map[Offset]func(v uint32) uint32),
	}
}

func (s *Sim) Load(off Offset) uint32 {
	s.mtx.Lock()
	v := s.mem[off]
	if hook := s.onLoad[off]; hook != nil {
		v = hook(v)
		s.mem[off] = v
	}
	observers := s.observers
	s.mtx.Unlock()

	for _, fn := range observers {
		fn(Access{Off: off, Value: v})
	}
	return v
}

func (s *Sim) Store(off Offset, v uint32) {
	s.mtx.Lock()
	stored := v
	if hook := s.onStore[off]; hook != nil {
		stored = hook(s.mem[off], v)
	}
	s.mem[off] = stored
	s.trace = append(s.trace, Access{Off: off, Value: v, Store: true})
	observers := s.observers
	s.mtx.Unlock()

	for _, fn := range observers {
		fn(Access{Off: off, Value: v, Store: true})
	}
}

// Peek returns a register's value without running hooks or observers.
func (s *Sim) Peek(off Offset) uint32 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.mem[off]
}

// Poke sets a register's value the way hardware would, without running hooks,
// observers or recording it in the trace.
func (s *Sim) Poke(off Offset, v uint32) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.mem[off] = v
}

// Modify atomically updates a register with fn, bypassing hooks.
func (s *Sim) Modify(off Offset, fn func(v uint32) uint32) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.mem[off] = fn(s.mem[off])
}

// OnStore installs a hook deciding which value a store actually leaves in the
// register.  It receives the previous and the written value.
func (s *Sim) OnStore(off Offset, hook func(old, v uint32) uint32) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.onStore[off] = hook
}

// OnLoad installs a hook that may change a register's value when it's read.
func (s *Sim) OnLoad(off Offset, hook func(v uint32) uint32) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.onLoad[off] = hook
}

// Observe registers fn to be called after every load and store.
func (s *Sim) Observe(fn func(Access)) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.observers = append(slices.Clip(s.observers), fn)
}

// Trace returns all stores since the last call to ResetTrace.
func (s *Sim) Trace() []Access {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return slices.Clone(s.trace)
}

func (s *Sim) ResetTrace() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.trace = s.trace[:0]
}

// Stores returns the values stored to off since the last ResetTrace.
func (s *Sim) Stores(off Offset) (vals []uint32) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, a := range s.trace {
		if a.Off == off {
			vals = append(vals, a.Value)
		}
	}
	return
}
