package asm_test

import (
	"testing"

	"github.com/hackforge/n2t/pkg/asm"
	"github.com/hackforge/n2t/pkg/hack"
)

func TestLowererBindsLabelsToROMAddress(t *testing.T) {
	program := asm.Program{
		asm.AInstruction{Location: "LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: "LOOP"},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}

	lowerer := asm.NewLowerer(program)
	_, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr, ok := table["LOOP"]; !ok || addr != 2 {
		t.Fatalf("expected label 'LOOP' to bind to ROM address 2, got %d (found=%v)", addr, ok)
	}
}

func TestLowererRejectsEmptyProgram(t *testing.T) {
	lowerer := asm.NewLowerer(asm.Program{})
	if _, _, err := lowerer.Lower(); err == nil {
		t.Fatalf("expected an error for an empty program")
	}
}

func TestLowererKeepsDestAndJumpTogether(t *testing.T) {
	// 'dest=comp;jump' is a single well-formed C Instruction; lowering must not drop
	// either side when both are present.
	program := asm.Program{asm.CInstruction{Dest: "D", Comp: "M", Jump: "JGT"}}

	lowerer := asm.NewLowerer(program)
	converted, _, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := converted[0].(hack.CInstruction)
	if !ok || got.Dest != "D" || got.Comp != "M" || got.Jump != "JGT" {
		t.Fatalf("expected dest/comp/jump to survive lowering together, got %+v", converted[0])
	}
}
