package regs

import (
	"encoding/binary"

	"github.com/sigurn/crc8"
)

var signatureTable = crc8.MakeTable(crc8.CRC8)

// Signature returns a CRC-8 over the current values of the registers at offs.
// Two identical register snapshots always produce the same signature.
func Signature(bus Bus, offs ...Offset) uint8 {
	var buf [4]byte
	csum := crc8.Init(signatureTable)
	for _, off := range offs {
		binary.BigEndian.PutUint32(buf[:], bus.Load(off))
		csum = crc8.Update(csum, buf[:], signatureTable)
	}
	return crc8.Complete(csum, signatureTable)
}

// Snapshot reads the registers at offs in order.
func Snapshot(bus Bus, offs ...Offset) []uint32 {
	vals := make([]uint32, len(offs))
	for i, off := range offs {
		vals[i] = bus.Load(off)
	}
	return vals
}
