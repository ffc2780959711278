package vm

import (
	"fmt"
	"sort"

	"github.com/hackforge/n2t/pkg/asm"
)

// segmentBase names the Hack register each indirect segment is based on.
var segmentBase = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a vm.Program (one Module per source file) and produces its
// asm.Program counterpart, realizing the four memory segments, the arithmetic/logic
// operations, branching, and the function-call convention (spec.md §4.3) on top of
// the two-register, single address/data path Hack machine.
type Lowerer struct {
	program Program

	file          string // current module's file stem, namespaces that file's statics
	function      string // current function's fully qualified name, namespaces its labels
	cmpCounter    int     // shared monotonic counter for eq/gt/lt label pairs
	callCounter   int     // shared monotonic counter for call-site return-address labels
	noStaticLimit bool    // when true, skip the 240-slot static bound (spec.md's "basic" variant)
}

// NewLowerer initializes a Lowerer over the given vm.Program.
func NewLowerer(p Program) *Lowerer {
	return &Lowerer{program: p}
}

// AllowUnboundedStatics switches off the 240-slot static cap the full translator
// enforces by default (supplemented --no-static-limit flag).
func (l *Lowerer) AllowUnboundedStatics() { l.noStaticLimit = true }

// Bootstrap produces the prelude that the textbook VM-II convention prepends to a
// full program: initializes the stack pointer to the first usable RAM address (256)
// and then calls Sys.init like any other function call, so that a correctly-formed
// return frame exists for Sys.init to eventually return into (supplemented --bootstrap
// flag). It must be called before Lower, on the same Lowerer, so the ReturnAddress<n>
// label minted here doesn't collide with the ones the rest of the program mints.
func (l *Lowerer) Bootstrap() ([]asm.Instruction, error) {
	inst := []asm.Instruction{
		asm.AInstruction{Location: "256"}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"},
	}
	call, err := l.lowerFuncCallOp(FuncCallOp{Name: "Sys.init", NArgs: 0})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return append(inst, call...), nil
}

// Lower expands every module into a single, flattened asm.Program, namespacing each
// file's static variables by its file stem, and appends the ENDLOOP safety net once
// at the very end (spec.md §4.3).
func (l *Lowerer) Lower() (asm.Program, error) {
	var program asm.Program

	files := make([]string, 0, len(l.program))
	for file := range l.program {
		files = append(files, file)
	}
	sort.Strings(files)

	for _, file := range files {
		l.file = file
		for _, op := range l.program[file] {
			inst, err := l.lowerOp(op)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			program = append(program, inst...)
		}
	}

	program = append(program, asm.LabelDecl{Name: "ENDLOOP"},
		asm.AInstruction{Location: "ENDLOOP"}, asm.CInstruction{Comp: "0", Jump: "JMP"})
	return program, nil
}

func (l *Lowerer) lowerOp(op Operation) ([]asm.Instruction, error) {
	switch o := op.(type) {
	case MemoryOp:
		return l.lowerMemoryOp(o)
	case ArithmeticOp:
		return l.lowerArithmeticOp(o)
	case LabelDecl:
		return []asm.Instruction{asm.LabelDecl{Name: l.qualify(o.Name)}}, nil
	case GotoOp:
		return l.lowerGotoOp(o)
	case FuncDecl:
		return l.lowerFuncDecl(o)
	case FuncCallOp:
		return l.lowerFuncCallOp(o)
	case ReturnOp:
		return l.lowerReturnOp(), nil
	default:
		return nil, fmt.Errorf("unrecognized operation %T", op)
	}
}

// qualify namespaces a VM-level label by the enclosing function, so that same-named
// labels in different functions of the same file don't collide once flattened.
func (l *Lowerer) qualify(label string) string {
	if l.function == "" {
		return label
	}
	return fmt.Sprintf("%s$%s", l.function, label)
}

func pushD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

func popToD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
	}
}

func (l *Lowerer) lowerMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	if op.Segment == Pointer && op.Offset > 1 {
		return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}
	if op.Segment == Static && !l.noStaticLimit && op.Offset >= 240 {
		return nil, fmt.Errorf("static offset %d exceeds the 240-slot bound (use --no-static-limit)", op.Offset)
	}

	switch op.Segment {
	case Constant:
		if op.Operation == Pop {
			return nil, fmt.Errorf("cannot pop into the 'constant' segment")
		}
		inst := []asm.Instruction{asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Dest: "D", Comp: "A"}}
		return append(inst, pushD()...), nil

	case Local, Argument, This, That:
		base := segmentBase[op.Segment]
		if op.Operation == Push {
			inst := []asm.Instruction{
				asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Dest: "D", Comp: "A"},
				asm.AInstruction{Location: base}, asm.CInstruction{Dest: "A", Comp: "D+M"}, asm.CInstruction{Dest: "D", Comp: "M"},
			}
			return append(inst, pushD()...), nil
		}
		inst := []asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)}, asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: base}, asm.CInstruction{Dest: "D", Comp: "D+M"},
			asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"},
		}
		inst = append(inst, popToD()...)
		return append(inst, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case Pointer:
		reg := map[uint16]string{0: "THIS", 1: "THAT"}[op.Offset]
		if op.Operation == Push {
			inst := []asm.Instruction{asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "D", Comp: "M"}}
			return append(inst, pushD()...), nil
		}
		inst := popToD()
		return append(inst, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case Temp:
		addr := fmt.Sprint(5 + op.Offset)
		if op.Operation == Push {
			inst := []asm.Instruction{asm.AInstruction{Location: addr}, asm.CInstruction{Dest: "D", Comp: "M"}}
			return append(inst, pushD()...), nil
		}
		inst := popToD()
		return append(inst, asm.AInstruction{Location: addr}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case Static:
		symbol := fmt.Sprintf("%s.%d", l.file, op.Offset)
		if op.Operation == Push {
			inst := []asm.Instruction{asm.AInstruction{Location: symbol}, asm.CInstruction{Dest: "D", Comp: "M"}}
			return append(inst, pushD()...), nil
		}
		inst := popToD()
		return append(inst, asm.AInstruction{Location: symbol}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	default:
		return nil, fmt.Errorf("unrecognized segment %q", op.Segment)
	}
}

func (l *Lowerer) lowerArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	switch op.Operation {
	case Neg, Not:
		comp := map[ArithOpType]string{Neg: "-M", Not: "!M"}[op.Operation]
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "M", Comp: comp},
		}, nil

	case Add, Sub, And, Or:
		comp := map[ArithOpType]string{Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M"}[op.Operation]
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"}, asm.CInstruction{Dest: "M", Comp: comp},
		}, nil

	case Eq, Gt, Lt:
		jump := map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}[op.Operation]
		n := l.cmpCounter
		l.cmpCounter++
		trueLabel, endLabel := fmt.Sprintf("TRUECASE%d", n), fmt.Sprintf("RESULT%d", n)
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
			asm.CInstruction{Dest: "A", Comp: "A-1"}, asm.CInstruction{Dest: "D", Comp: "M-D"},
			asm.AInstruction{Location: trueLabel}, asm.CInstruction{Comp: "D", Jump: jump},
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "M", Comp: "0"},
			asm.AInstruction{Location: endLabel}, asm.CInstruction{Comp: "0", Jump: "JMP"},
			asm.LabelDecl{Name: trueLabel},
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"}, asm.CInstruction{Dest: "M", Comp: "-1"},
			asm.LabelDecl{Name: endLabel},
		}, nil

	default:
		return nil, fmt.Errorf("unrecognized arithmetic operation %q", op.Operation)
	}
}

func (l *Lowerer) lowerGotoOp(op GotoOp) ([]asm.Instruction, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to produce empty jump label")
	}
	target := l.qualify(op.Label)

	if op.Jump == Unconditional {
		return []asm.Instruction{asm.AInstruction{Location: target}, asm.CInstruction{Comp: "0", Jump: "JMP"}}, nil
	}
	inst := popToD()
	return append(inst, asm.AInstruction{Location: target}, asm.CInstruction{Comp: "D", Jump: "JNE"}), nil
}

func (l *Lowerer) lowerFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty function declaration")
	}
	l.function = op.Name

	inst := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	for i := uint8(0); i < op.NLocal; i++ {
		inst = append(inst,
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "0"},
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "M+1"})
	}
	return inst, nil
}

// lowerFuncCallOp realizes the standard calling convention (spec.md §4.3): it saves
// the caller's LCL/ARG/THIS/THAT by VALUE (never by address — that was the exact
// defect spec.md §9 calls out in the reference translator), then repositions ARG
// and LCL for the callee.
func (l *Lowerer) lowerFuncCallOp(op FuncCallOp) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty function call")
	}
	n := l.callCounter
	l.callCounter++
	returnLabel := fmt.Sprintf("ReturnAddress%d", n)

	inst := []asm.Instruction{
		asm.AInstruction{Location: returnLabel}, asm.CInstruction{Dest: "D", Comp: "A"},
	}
	inst = append(inst, pushD()...)
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		inst = append(inst, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "D", Comp: "M"})
		inst = append(inst, pushD()...)
	}

	inst = append(inst,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: fmt.Sprint(op.NArgs)}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: op.Name}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: returnLabel},
	)
	return inst, nil
}

// lowerReturnOp tears down the current frame, writing the popped return value
// directly to *ARG before the caller's registers are restored (spec.md's "correct
// realization" — the new stack top for the caller is that same slot).
func (l *Lowerer) lowerReturnOp() []asm.Instruction {
	inst := []asm.Instruction{
		// R13 = frame = LCL
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"},
		// R14 = retAddr = *(frame-5)
		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "A", Comp: "D-A"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "M", Comp: "D"},
	}
	// *ARG = pop()
	inst = append(inst, popToD()...)
	inst = append(inst, asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"})
	// SP = ARG+1 (while ARG still holds the callee's argument base)
	inst = append(inst, asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"})
	// THAT, THIS, ARG, LCL = *(frame-1..4), walking R13 down from the saved frame pointer
	for _, reg := range []string{"THAT", "THIS", "ARG", "LCL"} {
		inst = append(inst,
			asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "AM", Comp: "M-1"}, asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "M", Comp: "D"},
		)
	}
	// goto retAddr
	inst = append(inst, asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Comp: "0", Jump: "JMP"})
	return inst
}
