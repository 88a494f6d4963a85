package codegen

// Instructions are tab indented; labels are flush left. Operands use AT&T
// order, source first.

const headerTemplate = "\t.section .text\n" +
	"\t.global _start\n" +
	"_start:\n"

// tapeTemplate reserves and zeroes the tape on the stack, then points the
// cursor at its middle. Arguments: size, size, size/2.
const tapeTemplate = "\tsubq $%[1]d, %%rsp\n" +
	"\tmovq %%rsp, %%rdi\n" +
	"\tmovq $%[2]d, %%rcx\n" +
	"_zero:\n" +
	"\tmovb $0, (%%rdi)\n" +
	"\taddq $1, %%rdi\n" +
	"\tsubq $1, %%rcx\n" +
	"\tjne _zero\n" +
	"\tmovq %%rsp, %%rdi\n" +
	"\taddq $%[3]d, %%rdi\n"

const (
	addCursorTemplate  = "\taddq $%d, %%rdi\n"
	subCursorTemplate  = "\tsubq $%d, %%rdi\n"
	addCellTemplate    = "\taddb $%d, (%%rdi)\n"
	subCellTemplate    = "\tsubb $%d, (%%rdi)\n"
	presetCellTemplate = "\tmovb $%d, (%%rdi)\n"
)

// write(1, cursor, 1)
const writeTemplate = "\tpushq %rdi\n" +
	"\tmovq %rdi, %rsi\n" +
	"\tmovq $1, %rdx\n" +
	"\tmovq $1, %rdi\n" +
	"\tmovq $1, %rax\n" +
	"\tsyscall\n" +
	"\tpopq %rdi\n"

// read(0, cursor, 1); at end of input the cell keeps whatever was preset.
const readTemplate = "\tpushq %rdi\n" +
	"\tmovq %rdi, %rsi\n" +
	"\tmovq $1, %rdx\n" +
	"\tmovq $0, %rdi\n" +
	"\tmovq $0, %rax\n" +
	"\tsyscall\n" +
	"\tpopq %rdi\n"

// Loop templates take the loop label.
const loopOpenTemplate = "\tmovb (%%rdi), %%al\n" +
	"\tcmpb $0, %%al\n" +
	"\tje b_%[1]s_end\n" +
	"b_%[1]s_start:\n"

const loopCloseTemplate = "\tmovb (%%rdi), %%al\n" +
	"\tcmpb $0, %%al\n" +
	"\tjne b_%[1]s_start\n" +
	"b_%[1]s_end:\n"

// exit(0)
const exitTemplate = "\tmovq $0, %rdi\n" +
	"\tmovq $60, %rax\n" +
	"\tsyscall\n"
