package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eNC1020State"
	stateHeaderSize = 18 // magic(12) + version(2) + dataCRC(4)
)

// Save state errors.
var (
	ErrStateTooShort  = errors.New("save state too short")
	ErrStateMagic     = errors.New("invalid save state magic")
	ErrStateVersion   = errors.New("unsupported save state version")
	ErrStateCorrupted = errors.New("save state data is corrupted")
	ErrStateLCDAddr   = errors.New("save state LCD address out of range")
)

const registersSize = 7

// maxLCDAddr is the highest LCD start address that leaves a full frame in RAM.
const maxLCDAddr = ramSize - PackedSize

// lcdAddrOffset locates the LCD address in a state; only the keypad follows it.
func lcdAddrOffset() int {
	return SerializeSize() - 8 - 2
}

// SerializeSize returns the size in bytes of a save state.
func SerializeSize() int {
	return stateHeaderSize +
		registersSize +
		ramSize +
		0x40 + // bak40
		80 + 1 + // clock data, flags
		5 + // sleep/wake flags, timer0 toggle
		1 + 8 + 8 + 8 + // irq, cycles, timers
		2 + // lcd address
		8 // keypad matrix
}

// Serialize captures the machine state.
func (m *Machine) Serialize() []byte {
	data := make([]byte, SerializeSize())

	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)

	w := stateWriter{data: data, off: stateHeaderSize}
	w.u8(m.regs.A)
	w.u8(m.regs.X)
	w.u8(m.regs.Y)
	w.u8(m.regs.SP)
	w.u8(m.regs.PS)
	w.u16(m.regs.PC)
	w.bytes(m.mem.ram[:])
	w.bytes(m.bak40[:])
	w.bytes(m.clock[:])
	w.u8(m.clockFlags)
	w.bool(m.slept)
	w.bool(m.shouldWakeUp)
	w.bool(m.pendingWakeUp)
	w.u8(m.wakeUpFlags)
	w.bool(m.timer0Toggle)
	w.bool(m.shouldIRQ)
	w.u64(m.cycles)
	w.u64(m.timer0Cycles)
	w.u64(m.timer1Cycles)
	w.u16(m.lcdAddr)
	w.bytes(m.keypad[:])

	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[14:18], dataCRC)
	return data
}

// VerifyState checks the header and checksum of a save state.
func VerifyState(data []byte) error {
	if len(data) < SerializeSize() {
		return ErrStateTooShort
	}
	if string(data[0:12]) != stateMagic {
		return ErrStateMagic
	}
	if binary.LittleEndian.Uint16(data[12:14]) != stateVersion {
		return ErrStateVersion
	}
	expectedCRC := binary.LittleEndian.Uint32(data[14:18])
	if crc32.ChecksumIEEE(data[stateHeaderSize:]) != expectedCRC {
		return ErrStateCorrupted
	}
	return nil
}

// Deserialize restores a state produced by Serialize and remaps memory.
func (m *Machine) Deserialize(data []byte) error {
	if err := VerifyState(data); err != nil {
		return err
	}
	if binary.LittleEndian.Uint16(data[lcdAddrOffset():]) > maxLCDAddr {
		return ErrStateLCDAddr
	}

	r := stateReader{data: data, off: stateHeaderSize}
	m.regs.A = r.u8()
	m.regs.X = r.u8()
	m.regs.Y = r.u8()
	m.regs.SP = r.u8()
	m.regs.PS = r.u8()
	m.regs.PC = r.u16()
	r.bytes(m.mem.ram[:])
	r.bytes(m.bak40[:])
	r.bytes(m.clock[:])
	m.clockFlags = r.u8()
	m.slept = r.bool()
	m.shouldWakeUp = r.bool()
	m.pendingWakeUp = r.bool()
	m.wakeUpFlags = r.u8()
	m.timer0Toggle = r.bool()
	m.shouldIRQ = r.bool()
	m.cycles = r.u64()
	m.timer0Cycles = r.u64()
	m.timer1Cycles = r.u64()
	m.lcdAddr = r.u16()
	r.bytes(m.keypad[:])

	m.mem.switchVolume()
	return nil
}

type stateWriter struct {
	data []byte
	off  int
}

func (w *stateWriter) u8(v uint8) {
	w.data[w.off] = v
	w.off++
}

func (w *stateWriter) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *stateWriter) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.data[w.off:], v)
	w.off += 2
}

func (w *stateWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.data[w.off:], v)
	w.off += 8
}

func (w *stateWriter) bytes(b []byte) {
	w.off += copy(w.data[w.off:], b)
}

type stateReader struct {
	data []byte
	off  int
}

func (r *stateReader) u8() uint8 {
	v := r.data[r.off]
	r.off++
	return v
}

func (r *stateReader) bool() bool {
	return r.u8() != 0
}

func (r *stateReader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *stateReader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

func (r *stateReader) bytes(b []byte) {
	r.off += copy(b, r.data[r.off:])
}
