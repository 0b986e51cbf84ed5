package vm

import (
	"encoding/binary"
	"io"
	"strconv"

	"github.com/jhlagado/ts-tacitus-sub002/errs"
)

// imageMagic tags a persisted image so LoadImage can reject foreign files
// before trusting their contents as raw memory.
const imageMagic = "TACI"

// SaveImage writes mem's entire backing buffer to w, little-endian, prefixed
// by a magic header and the current IP/BP. The data, return and global stack
// cursors and the list depth are not written.
func (i *Instance) SaveImage(w io.Writer) error {
	if _, err := w.Write([]byte(imageMagic)); err != nil {
		return err
	}
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(i.IP))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(i.BP))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(i.Mem.Bytes())
	return err
}

// LoadImage replaces i's memory, IP and BP with a previously saved image and
// sets retFloor to the restored BP. The stack cursors keep their current
// values.
func (i *Instance) LoadImage(r io.Reader) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return err
	}
	if string(magic[:]) != imageMagic {
		return errs.New(errs.MemoryBounds, "load_image").WithName("bad magic")
	}
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	buf := make([]byte, MemSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	copy(i.Mem.buf[:], buf)
	i.IP = int(binary.LittleEndian.Uint32(hdr[0:]))
	i.BP = int(binary.LittleEndian.Uint32(hdr[4:]))
	i.retFloor = i.BP
	return nil
}

// Disassemble decodes one instruction at byte address addr in mem's code
// segment, returning the address of the next instruction and a short
// mnemonic rendering (opcode name, plus any inline immediate).
func Disassemble(mem *Memory, addr int) (next int, text string) {
	b, err := mem.ReadU8(addr)
	if err != nil {
		return addr + 1, "<oob>"
	}
	if b&0x80 != 0 {
		hi, err := mem.ReadU8(addr + 1)
		if err != nil {
			return addr + 1, "<oob>"
		}
		target := int(b&0x7F) | (int(hi) << 7)
		return addr + 2, "call " + strconv.Itoa(target)
	}
	op := Opcode(b)
	w := immediateWidth(op)
	next = addr + 1 + w
	switch w {
	case 0:
		return next, op.String()
	case 1:
		v, _ := mem.ReadU8(addr + 1)
		return next, op.String() + " " + strconv.Itoa(int(v))
	case 2:
		v, _ := mem.ReadU16(addr + 1)
		return next, op.String() + " " + strconv.Itoa(int(v))
	case 4:
		f, _ := mem.ReadF32(addr + 1)
		return next, op.String() + " " + strconv.FormatFloat(float64(f), 'g', -1, 32)
	default:
		return next, op.String()
	}
}
