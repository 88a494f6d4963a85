package asmsim

const (
	rax = iota
	rcx
	rdx
	rsi
	rdi
	rsp
	numRegs
)

var regNames = [numRegs]string{"rax", "rcx", "rdx", "rsi", "rdi", "rsp"}

// register names one of the general registers, or its low byte when size
// is 1.
type register struct {
	id   int
	size int
}

func (reg register) String() string {
	if reg.size == 1 {
		for name, r := range registers {
			if r == reg {
				return "%" + name
			}
		}
	}
	return "%" + regNames[reg.id]
}

var registers = map[string]register{
	"rax": {rax, 8},
	"rcx": {rcx, 8},
	"rdx": {rdx, 8},
	"rsi": {rsi, 8},
	"rdi": {rdi, 8},
	"rsp": {rsp, 8},
	"al":  {rax, 1},
	"cl":  {rcx, 1},
	"dl":  {rdx, 1},
	"sil": {rsi, 1},
	"dil": {rdi, 1},
	"spl": {rsp, 1},
}
