package emu

// Registers is the 6502 register file. It lives in the machine state so it
// is saved and restored with everything else.
type Registers struct {
	A, X, Y uint8
	SP      uint8
	PS      uint8
	PC      uint16
}

// Bus is the address space a processor executes against.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Processor executes instructions for a Machine. Execute runs one
// instruction and IRQ services a pending interrupt; both return the number
// of cycles consumed.
type Processor interface {
	Execute(regs *Registers, bus Bus) int
	IRQ(regs *Registers, bus Bus) int
}

// IdleProcessor burns cycles without executing code. It keeps the timers
// and the cycle counter advancing when no instruction core is plugged in.
type IdleProcessor struct{}

const (
	idleCycles = 2 // NOP
	irqCycles  = 7
)

func (IdleProcessor) Execute(regs *Registers, bus Bus) int { return idleCycles }
func (IdleProcessor) IRQ(regs *Registers, bus Bus) int     { return irqCycles }
