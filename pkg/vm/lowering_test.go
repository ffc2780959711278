package vm_test

import (
	"testing"

	"github.com/hackforge/n2t/pkg/asm"
	"github.com/hackforge/n2t/pkg/vm"
)

func TestBootstrapInitializesStackPointerTo256(t *testing.T) {
	lowerer := vm.NewLowerer(vm.Program{})
	prelude, err := lowerer.Bootstrap()
	must(t, err)

	if len(prelude) < 2 {
		t.Fatalf("expected a non-trivial bootstrap prelude, got %d instructions", len(prelude))
	}
	first, ok := prelude[0].(asm.AInstruction)
	if !ok || first.Location != "256" {
		t.Fatalf("expected bootstrap to load constant 256 first, got %#v", prelude[0])
	}

	var sawCallJump bool
	for _, inst := range prelude {
		if a, ok := inst.(asm.AInstruction); ok && a.Location == "Sys.init" {
			sawCallJump = true
		}
	}
	if !sawCallJump {
		t.Fatalf("expected bootstrap to jump into Sys.init via the call convention")
	}
}

func TestBootstrapCallCounterContinuesIntoProgram(t *testing.T) {
	program := vm.Program{"Main": vm.Module{vm.FuncCallOp{Name: "Foo.bar", NArgs: 0}}}
	lowerer := vm.NewLowerer(program)

	prelude, err := lowerer.Bootstrap()
	must(t, err)
	rest, err := lowerer.Lower()
	must(t, err)

	labels := map[string]int{}
	for _, inst := range append(append([]asm.Instruction{}, prelude...), rest...) {
		if l, ok := inst.(asm.LabelDecl); ok {
			labels[l.Name]++
		}
	}
	if labels["ReturnAddress0"] != 1 || labels["ReturnAddress1"] != 1 {
		t.Fatalf("expected two distinct, non-colliding return-address labels, got %v", labels)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
