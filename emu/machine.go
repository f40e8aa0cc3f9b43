package emu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time interface checks.
var _ Core = (*Machine)(nil)
var _ Bus = (*Machine)(nil)

// Timing constants. The CPU runs at 5.12 MHz; timer 0 fires at 2 Hz and
// timer 1 at 256 Hz (20x faster in speed-up mode).
const (
	CyclesPerSecond     = 5120000
	CyclesPerMs         = CyclesPerSecond / 1000
	cyclesTimer0        = CyclesPerSecond / 2
	cyclesTimer1        = CyclesPerSecond / 0x100
	cyclesTimer1SpeedUp = cyclesTimer1 / 20
)

const resetVector = 0xFFFC

// Machine is the NC1020 machine shell: memory map, I/O registers, timers,
// keypad matrix and the on-disk image layout. Instruction execution is
// delegated to a Processor.
type Machine struct {
	paths Paths
	cpu   Processor
	mem   *Memory

	regs       Registers
	clock      [80]uint8
	clockFlags uint8
	bak40      [0x40]uint8
	keypad     [8]uint8

	slept         bool
	shouldWakeUp  bool
	pendingWakeUp bool
	wakeUpFlags   uint8

	timer0Toggle bool
	cycles       uint64
	timer0Cycles uint64
	timer1Cycles uint64
	shouldIRQ    bool

	lcdAddr uint16

	initialized bool
}

// NewMachine creates a machine driven by cpu. A nil cpu selects IdleProcessor.
func NewMachine(cpu Processor) *Machine {
	if cpu == nil {
		cpu = IdleProcessor{}
	}
	return &Machine{
		cpu: cpu,
		mem: NewMemory(),
	}
}

// Initialize loads the ROM and NOR images and resets the machine. Both
// images must be readable; the state image is optional.
func (m *Machine) Initialize(paths Paths) error {
	if err := readImage(paths.ROM, m.mem.rom); err != nil {
		return fmt.Errorf("failed to load ROM: %w", err)
	}
	if err := readImage(paths.NOR, m.mem.nor); err != nil {
		return fmt.Errorf("failed to load NOR flash: %w", err)
	}
	m.paths = paths
	m.initialized = true
	m.resetState()
	return nil
}

// readImage fills dst with the bank-swapped contents of path. Short images
// leave the remainder zeroed.
func readImage(path string, dst []byte) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrImageMissing, path)
		}
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrImageMissing, path)
	}
	buf := make([]byte, len(dst))
	copy(buf, data)
	processBinary(dst, buf)
	return nil
}

func (m *Machine) loadNOR() error {
	if !m.initialized {
		return errors.New("machine not initialized")
	}
	return readImage(m.paths.NOR, m.mem.nor)
}

func (m *Machine) saveNOR() error {
	buf := make([]byte, NORSize)
	processBinary(buf, m.mem.nor)
	return writeFileAtomic(m.paths.NOR, buf)
}

func (m *Machine) resetState() {
	m.mem.ram = [ramSize]byte{}
	m.mem.switchVolume()

	m.keypad = [8]uint8{}
	m.clock = [80]uint8{}
	m.clockFlags = 0
	m.bak40 = [0x40]uint8{}
	m.timer0Toggle = false
	m.slept = false
	m.shouldWakeUp = false
	m.pendingWakeUp = false
	m.wakeUpFlags = 0
	m.shouldIRQ = false
	m.lcdAddr = 0

	m.cycles = 0
	m.regs = Registers{
		SP: 0xFF,
		PS: 0x24,
		PC: m.mem.peekWord(resetVector),
	}
	m.timer0Cycles = cyclesTimer0
	m.timer1Cycles = cyclesTimer1
}

// Reset reloads the NOR image and restores power-on state.
func (m *Machine) Reset() error {
	if err := m.loadNOR(); err != nil {
		return err
	}
	m.resetState()
	return nil
}

// Load reloads the NOR image and the saved state. A missing state file
// leaves the machine in its power-on state.
func (m *Machine) Load() error {
	if err := m.loadNOR(); err != nil {
		return err
	}
	m.resetState()

	data, err := os.ReadFile(m.paths.State)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	if err := m.Deserialize(data); err != nil {
		m.resetState()
		return err
	}
	return nil
}

// Save writes the NOR image and the machine state.
func (m *Machine) Save() error {
	if !m.initialized {
		return errors.New("machine not initialized")
	}
	if err := m.saveNOR(); err != nil {
		return fmt.Errorf("failed to save NOR flash: %w", err)
	}
	if err := writeFileAtomic(m.paths.State, m.Serialize()); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// DeleteStateAndNOR removes the persisted NOR and state images. Missing
// files are not an error.
func (m *Machine) DeleteStateAndNOR() error {
	for _, p := range []string{m.paths.NOR, m.paths.State} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SetKey updates the keypad matrix. The power key puts a running machine
// to sleep; most function keys wake a sleeping one.
func (m *Machine) SetKey(code Keycode, pressed bool) {
	if !code.Valid() {
		return
	}
	row, bits := code.matrixBits()
	if pressed {
		m.keypad[row] |= bits
	} else {
		m.keypad[row] &^= bits
	}
	if !pressed {
		return
	}

	if m.slept {
		if flags, ok := wakeUpFlags[code]; ok {
			m.wakeUpFlags = flags
			m.shouldWakeUp = true
			m.pendingWakeUp = true
			m.slept = false
		}
	} else if code == KeyPower {
		m.slept = true
	}
}

// Step runs the processor for sliceMs milliseconds of emulated time.
func (m *Machine) Step(sliceMs int, speedUp bool) {
	if !m.initialized || sliceMs <= 0 {
		return
	}
	end := uint64(sliceMs) * CyclesPerMs
	io := m.io()

	var cycles uint64
	for cycles < end {
		cycles += stepCycles(m.cpu.Execute(&m.regs, m))

		if cycles >= m.timer0Cycles {
			m.timer0Cycles += cyclesTimer0
			m.timer0Toggle = !m.timer0Toggle
			if !m.timer0Toggle {
				m.adjustTime()
			}
			if !m.isCountDown() || m.timer0Toggle {
				io[ioTimerFlags] = 0
			} else {
				io[ioTimerFlags] = 0x20
				m.clockFlags &= 0xFD
			}
			m.shouldIRQ = true
		}
		if m.shouldIRQ {
			m.shouldIRQ = false
			cycles += stepCycles(m.cpu.IRQ(&m.regs, m))
		}
		if cycles >= m.timer1Cycles {
			if speedUp {
				m.timer1Cycles += cyclesTimer1SpeedUp
			} else {
				m.timer1Cycles += cyclesTimer1
			}
			m.clock[4]++
			if m.shouldWakeUp {
				m.shouldWakeUp = false
				io[0x01] |= 0x01
				io[0x02] |= 0x01
				m.regs.PC = m.mem.peekWord(resetVector)
			} else {
				io[0x01] |= 0x08
				m.shouldIRQ = true
			}
		}
	}

	m.cycles += cycles
	m.timer0Cycles = rebase(m.timer0Cycles, end)
	m.timer1Cycles = rebase(m.timer1Cycles, end)
}

func stepCycles(n int) uint64 {
	if n <= 0 {
		return 1
	}
	return uint64(n)
}

// rebase moves a timer deadline into the next slice's cycle origin.
func rebase(deadline, end uint64) uint64 {
	if deadline < end {
		return 0
	}
	return deadline - end
}

// CopyDisplayBuffer copies LCD RAM into dst once the display controller
// has been given a start address.
func (m *Machine) CopyDisplayBuffer(dst []byte) bool {
	if m.lcdAddr == 0 || m.lcdAddr > maxLCDAddr || len(dst) < PackedSize {
		return false
	}
	copy(dst, m.mem.ram[m.lcdAddr:int(m.lcdAddr)+PackedSize])
	return true
}

// Cycles returns the cumulative cycle count.
func (m *Machine) Cycles() uint64 {
	return m.cycles
}

// Read implements Bus.
func (m *Machine) Read(addr uint16) uint8 {
	if addr < ioLimit {
		return m.readIO(uint8(addr))
	}
	if addr == 0x45F && m.pendingWakeUp {
		m.pendingWakeUp = false
		m.mem.pages[0][0x45F] = m.wakeUpFlags
	}
	return m.mem.peek(addr)
}

// Write implements Bus.
func (m *Machine) Write(addr uint16, value uint8) {
	if addr < ioLimit {
		m.writeIO(uint8(addr), value)
		return
	}
	m.mem.poke(addr, value)
}

// writeFileAtomic writes data to a temp file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
