package regs

import (
	"testing"
)

func TestSetBits(t *testing.T) {
	tests := map[string]struct {
		reg, mask, v, want uint32
	}{
		"set":       {0x0000_0000, 0x0000_00f0, 0xffff_ffff, 0x0000_00f0},
		"clear":     {0xffff_ffff, 0x0000_ff00, 0x0000_0000, 0xffff_00ff},
		"replace":   {0x1234_5678, 0x00ff_0000, 0x00ab_0000, 0x12ab_5678},
		"emptyMask": {0x1234_5678, 0x0000_0000, 0xffff_ffff, 0x1234_5678},
		"outside":   {0x0000_0000, 0x0000_000f, 0x0000_00ff, 0x0000_000f},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			sim := NewSim()
			sim.Poke(0x10, tc.reg)
			File{sim}.SetBits(0x10, tc.mask, tc.v)
			if got := sim.Peek(0x10); got != tc.want {
				t.Fatalf("expected %#08x, got %#08x", tc.want, got)
			}
		})
	}
}

func TestField(t *testing.T) {
	f := Field[uint8]{Shift: 11, Width: 11}
	if f.Mask() != 0x003f_f800 {
		t.Fatalf("unexpected mask %#x", f.Mask())
	}
	r := f.Encode(200) | 0x7ff
	if got := f.Decode(r); got != 200 {
		t.Errorf("expected 200, got %d", got)
	}
	wide := Field[uint16]{Shift: 0, Width: 4}
	if wide.Fits(16) || !wide.Fits(15) {
		t.Error("wrong range check")
	}
	if wide.Encode(0x1f) != 0xf {
		t.Error("encode must truncate")
	}
}

func TestSimHooks(t *testing.T) {
	sim := NewSim()
	// self-clearing bit 0, write-1-to-clear bits 4..7
	sim.OnStore(0x0, func(old, v uint32) uint32 { return v &^ 1 })
	sim.OnStore(0x4, func(old, v uint32) uint32 { return old &^ (v & 0xf0) })

	sim.Store(0x0, 0x3)
	if v := sim.Load(0x0); v != 0x2 {
		t.Errorf("self-clearing: got %#x", v)
	}
	sim.Poke(0x4, 0xf0)
	sim.Store(0x4, 0x30)
	if v := sim.Load(0x4); v != 0xc0 {
		t.Errorf("w1c: got %#x", v)
	}

	trace := sim.Trace()
	if len(trace) != 2 || trace[0].Value != 0x3 || trace[1].Off != 0x4 {
		t.Errorf("unexpected trace %v", trace)
	}
	sim.ResetTrace()
	if len(sim.Trace()) != 0 {
		t.Error("trace not reset")
	}
}

func TestSignature(t *testing.T) {
	a, b := NewSim(), NewSim()
	for _, sim := range []*Sim{a, b} {
		sim.Poke(0x00, 0xdead_beef)
		sim.Poke(0x20, 0x0000_002d)
	}
	if Signature(a, 0x00, 0x20) != Signature(b, 0x00, 0x20) {
		t.Fatal("equal registers must have equal signatures")
	}
	b.Poke(0x20, 0x0000_002c)
	if Signature(a, 0x00, 0x20) == Signature(b, 0x00, 0x20) {
		t.Fatal("single bit difference not detected")
	}
	if got := Snapshot(b, 0x20, 0x00); got[0] != 0x2c || got[1] != 0xdead_beef {
		t.Errorf("unexpected snapshot %x", got)
	}
}
