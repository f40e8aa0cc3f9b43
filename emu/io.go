package emu

// I/O registers occupy the first 0x40 bytes of RAM.
const ioLimit = 0x40

const (
	ioBankSwitch   = 0x00
	ioClockCtrl    = 0x05
	ioLCDStart     = 0x06
	ioPort0        = 0x08
	ioPort1        = 0x09
	ioROABBS       = 0x0A
	ioLCDHigh      = 0x0C
	ioVolumeSwitch = 0x0D
	ioZeroPage     = 0x0F
	ioTimerFlags   = 0x3D
	ioClockIndex   = 0x3E
	ioClockData    = 0x3F
)

func (m *Machine) io() []byte {
	return m.mem.ram[:ioLimit]
}

func (m *Machine) readIO(addr uint8) uint8 {
	io := m.io()
	switch addr {
	case 0x3B:
		if io[ioTimerFlags]&0x03 == 0 {
			return m.clock[0x3B] & 0xFE
		}
		return io[addr]
	case ioClockData:
		if idx := io[ioClockIndex]; idx < uint8(len(m.clock)) {
			return m.clock[idx]
		}
		return 0
	}
	return io[addr]
}

func (m *Machine) writeIO(addr uint8, value uint8) {
	io := m.io()
	old := io[addr]
	io[addr] = value

	switch addr {
	case ioBankSwitch:
		if value != old {
			m.mem.switchBank()
		}
	case ioClockCtrl:
		if (old^value)&0x08 != 0 {
			m.slept = value&0x08 == 0
		}
	case ioLCDStart:
		if m.lcdAddr == 0 {
			m.lcdAddr = uint16(io[ioLCDHigh]&0x03)<<12 | uint16(value)<<4
		}
		io[ioPort1] &= 0xFE
	case ioPort0:
		io[0x0B] &= 0xFE
	case ioPort1:
		m.scanKeypad(value)
	case ioROABBS:
		if value != old {
			m.mem.mapBBS(value)
		}
	case ioVolumeSwitch:
		if value != old {
			m.mem.switchVolume()
		}
	case ioZeroPage:
		m.switchZeroPage(old&0x07, value&0x07)
	case ioClockData:
		m.writeClock(value)
	}
}

// scanKeypad latches the selected keypad matrix row into port 0.
func (m *Machine) scanKeypad(sel uint8) {
	io := m.io()
	switch sel {
	case 0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80:
		row := 0
		for sel>>uint(row) != 1 {
			row++
		}
		io[ioPort0] = m.keypad[row]
	case 0x00:
		io[0x0B] |= 0x01
		if m.keypad[7] == 0xFE {
			io[0x0B] &= 0xFE
		}
	case 0x7F:
		if io[0x15] == 0x7F {
			var all uint8
			for _, r := range m.keypad {
				all |= r
			}
			io[ioPort0] = all
		}
	}
}

func (m *Machine) zeroPage(index uint8) []byte {
	if index < 4 {
		return m.mem.ram[:ioLimit]
	}
	off := int(index) << 6
	return m.mem.ram[off : off+ioLimit]
}

// switchZeroPage swaps the 0x40..0x7F window with one of the banked copies.
func (m *Machine) switchZeroPage(old, value uint8) {
	if old == value {
		return
	}
	window := m.mem.ram[0x40:0x80]
	if old != 0 {
		copy(m.zeroPage(old), window)
		if value != 0 {
			copy(window, m.zeroPage(value))
		} else {
			copy(window, m.bak40[:])
		}
		return
	}
	copy(m.bak40[:], window)
	copy(window, m.zeroPage(value))
}

func (m *Machine) writeClock(value uint8) {
	idx := m.io()[ioClockIndex]
	if idx >= 0x07 {
		switch idx {
		case 0x0B:
			m.io()[ioTimerFlags] = 0xF8
			m.clockFlags |= value & 0x07
			m.clock[0x0B] = value ^ ((m.clock[0x0B] ^ value) & 0x7F)
		case 0x0A:
			m.clockFlags |= value & 0x07
			m.clock[0x0A] = value
		default:
			m.clock[int(idx)%len(m.clock)] = value
		}
		return
	}
	if m.clock[0x0B]&0x80 == 0 {
		m.clock[idx] = value
	}
}

// adjustTime advances the real-time clock by one second.
func (m *Machine) adjustTime() {
	m.clock[0]++
	if m.clock[0] < 60 {
		return
	}
	m.clock[0] = 0
	m.clock[1]++
	if m.clock[1] < 60 {
		return
	}
	m.clock[1] = 0
	m.clock[2]++
	if m.clock[2] < 24 {
		return
	}
	m.clock[2] &= 0xC0
	m.clock[3]++
}

func (m *Machine) isCountDown() bool {
	if m.clock[10]&0x02 == 0 || m.clockFlags&0x02 == 0 {
		return false
	}
	return (m.clock[7]&0x80 != 0 && (m.clock[7]^m.clock[2])&0x1F == 0) ||
		(m.clock[6]&0x80 != 0 && (m.clock[6]^m.clock[1])&0x3F == 0) ||
		(m.clock[5]&0x80 != 0 && (m.clock[5]^m.clock[0])&0x3F == 0)
}
