package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for the
// language and we define some other useful top-level struct such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation units
// that can be also referenced as file or modules or also classes.

// A VM Program is a set of multiple modules/files keyed by their source file stem, in the
// VM spec each Jack class is translated to its own .vm file (just like Java's .class file)
// that can be handled as its own translation unit during the compilation or lowering
// phases. The key doubles as the namespace for that file's static variables.
type Program map[string]Module

// A VM Module is just a linear list of VM operations/instructions
type Module []Operation

// Used to put together all operation in the VM language (Memory, Arithmetic, ... ops).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operation on the stack.
// We could either push a new value taken from the specified segment location on the stack's
// top or take the stack's top and saves its value at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segment accessible for a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constant

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's argument

	This    SegmentType = "this"    // Virtual segment used to point to a specific memory location
	That    SegmentType = "that"    // Virtual segment used to point to a specific memory location
	Pointer SegmentType = "pointer" // Real segment w/ 2 location used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of a Arithmetic operation for the VM language.
//
// In the VM intermediate language there are just a handful of operation available.
// In particular each operation acts directly on the top of the stack, of course we have both unary
// and binary operation, the specific management of each op is handled in the lowering phase.
type ArithmeticOp struct{ Operation ArithOpType }

type ArithOpType string // Enum to manage the operation allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Label Decl & Goto Op

// In memory representation of a 'label' statement for the VM language.
//
// Unlike the Assembler's label, a VM label is scoped to the function it's declared
// in (the lowering phase is responsible for qualifying it so it doesn't collide with
// a same-named label in another function of the same file).
type LabelDecl struct {
	Name string // The symbol chosen by the caller, purely numeric names are rejected
}

// In memory representation of a 'goto'/'if-goto' statement for the VM language.
//
// A Goto is either unconditional (always jumps) or conditional (pops the stack's top
// and jumps only if that value is non zero, i.e. anything but the VM's boolean false).
type GotoOp struct {
	Jump  JumpType
	Label string
}

type JumpType string // Enum to manage the jump condition allowed for a GotoOp

const (
	Unconditional JumpType = "goto"
	Conditional   JumpType = "if-goto"
)

// ----------------------------------------------------------------------------
// Function Decl, Call Op & Return Op

// In memory representation of a 'function' statement for the VM language.
//
// Declares the entrypoint of a subroutine along with how many local variables it
// needs, the lowering phase is responsible for zero-initializing that many slots.
type FuncDecl struct {
	Name   string // Fully qualified name, e.g. "Class.method"
	NLocal uint8  // Number of local variables to zero-initialize on entry
}

// In memory representation of a 'call' statement for the VM language.
//
// Invokes a previously declared function, passing the top 'NArgs' stack values as
// that function's arguments (the callee's own locals are allocated by its FuncDecl).
type FuncCallOp struct {
	Name  string // Fully qualified name of the callee
	NArgs uint8  // Number of arguments already pushed onto the stack by the caller
}

// In memory representation of a 'return' statement for the VM language.
//
// Unwinds the current frame, restores the caller's saved registers and transfers
// the popped return value into what becomes the caller's new stack top.
type ReturnOp struct{}
