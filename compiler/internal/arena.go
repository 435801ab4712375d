package internal

import "fmt"

// Objects live in a bump allocated arena in linear memory. Address 0 is never handed out: it is the None
// reference, so the arena starts one word in. Nothing is ever freed.

const (
	noneGlobal = "$$none"
	heapGlobal = "$$heap"
	heapBase   = WordSize
)

type heapArena struct {
	gen *codeGenerator
}

func (arena heapArena) declare() {
	arena.gen.writeOutput(fmt.Sprintf("(global %s (mut i32) (i32.const 0))", noneGlobal))
	arena.gen.writeOutput(fmt.Sprintf("(global %s (mut i32) (i32.const %d))", heapGlobal, heapBase))
}

// storeWord writes word at offset bytes past the current heap pointer without moving it.
func (arena heapArena) storeWord(offset int, word int32) {
	arena.gen.writeOutput(fmt.Sprintf("(global.get %s)", heapGlobal))
	arena.gen.writeOutput(fmt.Sprintf("(i32.const %d)", word))
	arena.gen.writeOutput(fmt.Sprintf("(i32.store offset=%d)", offset))
}

// base pushes the current heap pointer.
func (arena heapArena) base() {
	arena.gen.writeOutput(fmt.Sprintf("(global.get %s)", heapGlobal))
}

// allocate pushes the base of a new block of size bytes and moves the heap pointer past it.
func (arena heapArena) allocate(size int) {
	arena.base()
	arena.base()
	arena.gen.writeOutput(fmt.Sprintf("(i32.const %d)", size))
	arena.gen.writeOutput("(i32.add)")
	arena.gen.writeOutput(fmt.Sprintf("(global.set %s)", heapGlobal))
}
