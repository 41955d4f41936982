package regs

import (
	"fmt"
	"sync/atomic"

	"periph.io/x/host/v3/pmem"
)

// Phys is a register block mapped from physical memory into the process.
type Phys struct {
	view  *pmem.View
	words []uint32
}

// Map maps size bytes of registers at physical address base.  It usually
// requires root privileges to access /dev/mem.
func Map(base uint64, size int) (*Phys, error) {
	view, err := pmem.Map(base, size)
	if err != nil {
		return nil, fmt.Errorf("regs: map %#x: %w", base, err)
	}
	return &Phys{view: view, words: view.Uint32()}, nil
}

func (p *Phys) Load(off Offset) uint32 {
	return atomic.LoadUint32(&p.words[off>>2])
}

func (p *Phys) Store(off Offset, v uint32) {
	atomic.StoreUint32(&p.words[off>>2], v)
}

func (p *Phys) Close() error {
	return p.view.Close()
}
