package vm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v25"
)

// Trap is an error raised by the machine itself, as opposed to an error returned by a host function.
type Trap struct {
	Msg string
}

func (trap *Trap) Error() string {
	return "trap: " + trap.Msg
}

// Instance is a module linked against a host, with its own store, globals and memory. It is not safe for
// concurrent use.
type Instance struct {
	store    *wasmtime.Store
	instance *wasmtime.Instance
	memory   *wasmtime.Memory
	// The error of the host function that stopped the running invocation.
	hostErr error
}

// NewInstance links m against host. Function imports are resolved by host, memory imports are created here with
// the size the module asks for.
func NewInstance(m *Module, host Host) (*Instance, error) {
	inst := &Instance{store: wasmtime.NewStore(m.engine)}
	linker := wasmtime.NewLinker(m.engine)
	for _, imp := range m.module.Imports() {
		module, name := imp.Module(), ""
		if imp.Name() != nil {
			name = *imp.Name()
		}
		externType := imp.Type()
		if memoryType := externType.MemoryType(); memoryType != nil {
			memory, err := wasmtime.NewMemory(inst.store, memoryType)
			if err != nil {
				return nil, fmt.Errorf("create memory %s.%s: %w", module, name, err)
			}
			err = linker.Define(inst.store, module, name, memory)
			if err != nil {
				return nil, fmt.Errorf("LinkError: %w", err)
			}
			inst.memory = memory
			continue
		}
		fnType := externType.FuncType()
		if fnType == nil {
			return nil, fmt.Errorf("LinkError: unsupported import %s.%s", module, name)
		}
		hostFunc, ok := host.Resolve(module, name)
		if !ok {
			return nil, fmt.Errorf("LinkError: unresolved import %s.%s", module, name)
		}
		err := linker.FuncNew(module, name, fnType, inst.wrap(hostFunc, len(fnType.Results()) > 0))
		if err != nil {
			return nil, fmt.Errorf("LinkError: %w", err)
		}
	}
	instance, err := linker.Instantiate(inst.store, m.module)
	if err != nil {
		return nil, fmt.Errorf("LinkError: %w", err)
	}
	inst.instance = instance
	return inst, nil
}

// wrap adapts a host function to the wasmtime calling convention. A host error becomes a trap that unwinds the
// whole invocation, and is kept so Invoke can return it unchanged.
func (inst *Instance) wrap(hostFunc HostFunc, hasResult bool) func(*wasmtime.Caller, []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
	return func(_ *wasmtime.Caller, params []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
		args := make([]int32, len(params))
		for i, param := range params {
			args[i] = param.I32()
		}
		result, err := hostFunc(args)
		if err != nil {
			inst.hostErr = err
			return nil, wasmtime.NewTrap(err.Error())
		}
		if !hasResult {
			return nil, nil
		}
		return []wasmtime.Val{wasmtime.ValI32(result)}, nil
	}
}

// Invoke calls the exported function name. hasValue is false for functions without a result.
func (inst *Instance) Invoke(name string, args ...int32) (value int32, hasValue bool, err error) {
	fn := inst.instance.GetFunc(inst.store, name)
	if fn == nil {
		return 0, false, fmt.Errorf("no exported function %q", name)
	}
	fnType := fn.Type(inst.store)
	if len(fnType.Params()) != len(args) {
		return 0, false, fmt.Errorf("function %q takes %d arguments, %d given", name, len(fnType.Params()), len(args))
	}
	params := make([]interface{}, len(args))
	for i, arg := range args {
		params[i] = arg
	}
	inst.hostErr = nil
	result, err := fn.Call(inst.store, params...)
	if err != nil {
		if inst.hostErr != nil {
			return 0, false, inst.hostErr
		}
		var trap *wasmtime.Trap
		if errors.As(err, &trap) {
			return 0, false, &Trap{Msg: trap.Message()}
		}
		return 0, false, err
	}
	if len(fnType.Results()) == 0 {
		return 0, false, nil
	}
	return result.(int32), true, nil
}

// LoadWord reads the little endian word at addr of the imported memory, as i32.load would. It returns false when
// the module imports no memory or addr is out of bounds.
func (inst *Instance) LoadWord(addr uint32) (int32, bool) {
	if inst.memory == nil {
		return 0, false
	}
	data := inst.memory.UnsafeData(inst.store)
	if uint64(addr)+4 > uint64(len(data)) {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(data[addr:])), true
}
