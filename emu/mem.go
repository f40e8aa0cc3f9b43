package emu

// Image sizes. The ROM holds three volumes of 0x100 banks, the NOR flash
// 0x20 banks, every bank 32KB.
const (
	bankSize   = 0x8000
	pageSize   = 0x2000
	ROMSize    = bankSize * 0x300
	NORSize    = bankSize * 0x20
	ramSize    = 0x8000
	volumeSize = 0x100
	norBanks   = 0x20
)

// Memory holds the ROM, NOR flash and RAM images and the 8KB page map the
// CPU sees. Pages are slices into the backing images.
type Memory struct {
	rom []byte
	nor []byte
	ram [ramSize]byte

	pages    [8][]byte
	writable [8]bool
	bbs      [16][]byte

	blank []byte // unmapped banks read as zero
}

// NewMemory allocates empty images.
func NewMemory() *Memory {
	return &Memory{
		rom:   make([]byte, ROMSize),
		nor:   make([]byte, NORSize),
		blank: make([]byte, bankSize),
	}
}

// processBinary swaps the two 16KB halves of every 32KB bank. Images on
// disk store banks in this swapped order; the operation is its own inverse.
func processBinary(dst, src []byte) {
	for offset := 0; offset+bankSize <= len(src) && offset+bankSize <= len(dst); offset += bankSize {
		copy(dst[offset+0x4000:offset+bankSize], src[offset:offset+0x4000])
		copy(dst[offset:offset+0x4000], src[offset+0x4000:offset+bankSize])
	}
}

func (m *Memory) ramPage(n int) []byte {
	return m.ram[n*pageSize : (n+1)*pageSize]
}

func (m *Memory) romBank(volume, bank int) []byte {
	off := (volume*volumeSize + bank) * bankSize
	return m.rom[off : off+bankSize]
}

func (m *Memory) norBank(bank int) []byte {
	return m.nor[bank*bankSize : (bank+1)*bankSize]
}

// selectedVolume decodes the volume register for BBS paging.
func selectedVolume(reg uint8) int {
	switch reg & 0x03 {
	case 0x01:
		return 1
	case 0x03:
		return 2
	}
	return 0
}

// bank returns the 32KB bank selected by idx: NOR banks below 0x20, ROM
// banks of the current volume from 0x80.
func (m *Memory) bank(idx uint8) []byte {
	volumeReg := m.ram[0x0D]
	switch {
	case idx < norBanks:
		return m.norBank(int(idx))
	case idx >= 0x80:
		if volumeReg&0x01 != 0 {
			return m.romBank(1, int(idx))
		} else if volumeReg&0x02 != 0 {
			return m.romBank(2, int(idx))
		}
		return m.romBank(0, int(idx))
	}
	return m.blank
}

func (m *Memory) switchBank() {
	b := m.bank(m.ram[0x00])
	for i := 0; i < 4; i++ {
		m.pages[2+i] = b[i*pageSize : (i+1)*pageSize]
		m.writable[2+i] = false
	}
}

func (m *Memory) switchVolume() {
	volume := selectedVolume(m.ram[0x0D])
	for i := 0; i < 4; i++ {
		b := m.romBank(volume, i)
		for k := 0; k < 4; k++ {
			m.bbs[i*4+k] = b[k*pageSize : (k+1)*pageSize]
		}
	}
	m.bbs[1] = m.ramPage(3)

	m.pages[0] = m.ramPage(0)
	m.writable[0] = true

	roaBBS := m.ram[0x0A]
	if roaBBS&0x04 != 0 {
		m.pages[1] = m.ramPage(2)
	} else {
		m.pages[1] = m.ramPage(1)
	}
	m.writable[1] = true

	m.mapBBS(roaBBS)
	m.pages[7] = m.romBank(volume, 0)[pageSize : 2*pageSize]
	m.writable[7] = false
	m.switchBank()
}

func (m *Memory) mapBBS(roaBBS uint8) {
	idx := roaBBS & 0x0F
	m.pages[6] = m.bbs[idx]
	m.writable[6] = idx == 1
}

func (m *Memory) peek(addr uint16) uint8 {
	return m.pages[addr>>13][addr&0x1FFF]
}

func (m *Memory) peekWord(addr uint16) uint16 {
	return uint16(m.peek(addr)) | uint16(m.peek(addr+1))<<8
}

// poke stores into RAM-backed pages only. Writes into flash or ROM space
// are dropped; the flash programming sequence is not emulated.
func (m *Memory) poke(addr uint16, value uint8) {
	page := addr >> 13
	if page < 2 || m.writable[page] {
		m.pages[page][addr&0x1FFF] = value
	}
}
