/* Package main: gobfc, a compiler for the eight operator tape language.

A program runs against a tape of byte cells and a cursor, which starts in the
middle of the tape. Every cell starts at zero, and cell arithmetic wraps
modulo 256. There are eight operators:

	>  move the cursor one cell right
	<  move the cursor one cell left
	+  increment the cell under the cursor
	-  decrement the cell under the cursor
	.  write the cell under the cursor to standard output
	,  read one byte from standard input into the cell under the cursor
	[  skip past the matching ] if the cell under the cursor is zero
	]  jump back past the matching [ if the cell under the cursor is not zero

Every other byte is a comment. Brackets must balance.

The compiler reads a source file, folds runs of + - and < > into single
additions and moves, and then emits x86-64 assembly in GAS AT&T syntax
targeting the Linux system call interface. By default the assembly is piped
into as(1), and the resulting object is linked by ld(1):

	gobfc -o hello hello.b
	gobfc -S -o hello.s hello.b
	gobfc -c -o hello.o hello.b

Loops that can be shown never to run are left out, since the cell under the
cursor is still zero when the loop is reached. That is at program start, and
directly after another loop closes. Pass --no-dead-loops to emit them anyway.

The end of input policy decides what a read leaves in its cell once standard
input is exhausted: zero (the default), neg for 255, or unchanged.

Options may also come from a YAML file given with --config:

	tape_size: 65536
	eof: neg
	debug: true
	dead_loops: true
	output: hello.s
	assemble: false
	link: true
	as: /usr/bin/as
	ld: /usr/bin/ld

Flags given explicitly on the command line override the file.

The sim subcommand compiles a program, then runs the generated assembly on a
built-in simulator of the few instructions the compiler emits, without
needing an assembler or an x86-64 host:

	echo hi | gobfc sim cat.b

*/
package main
