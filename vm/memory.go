package vm

import (
	"encoding/binary"
	"math"

	"github.com/jhlagado/ts-tacitus-sub002/errs"
)

// Memory size in bytes and cells, per the persisted state layout.
const (
	MemSize  = 65536
	CellSize = 4
	NumCells = MemSize / CellSize
)

// Memory is the single contiguous buffer backing the code segment and the
// three stack regions. All multi-byte access is little-endian; cell access
// is 4-byte aligned.
type Memory struct {
	buf [MemSize]byte
}

// NewMemory returns a freshly zeroed Memory.
func NewMemory() *Memory {
	return &Memory{}
}

func boundsCheck(op string, addr, size int) error {
	if addr < 0 || addr+size > MemSize {
		return errs.New(errs.MemoryBounds, op).WithIndex(addr)
	}
	return nil
}

// ReadCell reads the tagged value stored at the given cell index.
func (m *Memory) ReadCell(cell int) (Value, error) {
	addr := cell * CellSize
	if err := boundsCheck("read_cell", addr, CellSize); err != nil {
		return 0, err
	}
	return Value(binary.LittleEndian.Uint32(m.buf[addr:])), nil
}

// MustReadCell reads a cell and panics on bounds failure; a panic raised
// while Run is executing is recovered there into an errs.Error.
func (m *Memory) MustReadCell(cell int) Value {
	v, err := m.ReadCell(cell)
	if err != nil {
		panic(err)
	}
	return v
}

// WriteCell writes a tagged value at the given cell index.
func (m *Memory) WriteCell(cell int, v Value) error {
	addr := cell * CellSize
	if err := boundsCheck("write_cell", addr, CellSize); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.buf[addr:], uint32(v))
	return nil
}

// MustWriteCell writes a cell and panics on bounds failure.
func (m *Memory) MustWriteCell(cell int, v Value) {
	if err := m.WriteCell(cell, v); err != nil {
		panic(err)
	}
}

// ReadU8 reads a single byte from the code segment at byte address addr.
func (m *Memory) ReadU8(addr int) (uint8, error) {
	if err := boundsCheck("read_u8", addr, 1); err != nil {
		return 0, err
	}
	return m.buf[addr], nil
}

// WriteU8 writes a single byte at byte address addr.
func (m *Memory) WriteU8(addr int, v uint8) error {
	if err := boundsCheck("write_u8", addr, 1); err != nil {
		return err
	}
	m.buf[addr] = v
	return nil
}

// ReadI16 reads a little-endian signed 16-bit immediate at byte address addr.
func (m *Memory) ReadI16(addr int) (int16, error) {
	if err := boundsCheck("read_i16", addr, 2); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(m.buf[addr:])), nil
}

// WriteI16 writes a little-endian signed 16-bit immediate at byte address addr.
func (m *Memory) WriteI16(addr int, v int16) error {
	if err := boundsCheck("write_i16", addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.buf[addr:], uint16(v))
	return nil
}

// ReadU16 reads a little-endian unsigned 16-bit immediate at byte address addr.
func (m *Memory) ReadU16(addr int) (uint16, error) {
	if err := boundsCheck("read_u16", addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.buf[addr:]), nil
}

// WriteU16 writes a little-endian unsigned 16-bit immediate at byte address addr.
func (m *Memory) WriteU16(addr int, v uint16) error {
	if err := boundsCheck("write_u16", addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.buf[addr:], v)
	return nil
}

// ReadF32 reads a little-endian IEEE-754 single at byte address addr.
func (m *Memory) ReadF32(addr int) (float32, error) {
	if err := boundsCheck("read_f32", addr, 4); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(m.buf[addr:])), nil
}

// WriteF32 writes a little-endian IEEE-754 single at byte address addr.
func (m *Memory) WriteF32(addr int, v float32) error {
	if err := boundsCheck("write_f32", addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.buf[addr:], math.Float32bits(v))
	return nil
}

// Bytes exposes the raw backing buffer, e.g. for image persistence.
func (m *Memory) Bytes() []byte {
	return m.buf[:]
}
