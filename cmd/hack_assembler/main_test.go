package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// test writes the given assembly source to a temp .asm file, runs the Handler on it and
// asserts the produced .hack binary matches the expected output line-for-line.
func test(t *testing.T, source string, expected string) {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "Program.asm")
	output := filepath.Join(dir, "Program.hack")
	require.NoError(t, os.WriteFile(input, []byte(source), 0o644))

	status := Handler([]string{input, output}, nil)
	require.Equalf(t, 0, status, "unexpected exit status code")

	compiled, err := os.ReadFile(output)
	require.NoErrorf(t, err, "error reading output file %s", output)
	require.Equal(t, expected, string(compiled))
}

func TestHackAssemblerAdd(t *testing.T) {
	source := "@2\nD=A\n@3\nD=D+A\n@0\nM=D\n"
	expected := "0000000000000010\n1110110000010000\n0000000000000011\n1110000010010000\n0000000000000000\n1110001100001000\n"
	test(t, source, expected)
}

// TestHackAssemblerMax is spec.md §8 scenario S1 (Max.asm): OUTPUT_FIRST must resolve to
// ROM address 10, and @R0 (the first A-instruction) must encode to all zeros.
func TestHackAssemblerMax(t *testing.T) {
	source := `@R0
D=M
@R1
D=D-M
@OUTPUT_FIRST
D;JGT
@R1
D=M
@OUTPUT_D
0;JMP
(OUTPUT_FIRST)
@R0
D=M
(OUTPUT_D)
@R2
M=D
(INFINITE_LOOP)
@INFINITE_LOOP
0;JMP
`
	expected := "0000000000000000\n1111110000010000\n0000000000000001\n1111010011010000\n0000000000001010\n1110001100000001\n0000000000000001\n1111110000010000\n0000000000001100\n1110101010000111\n0000000000000000\n1111110000010000\n0000000000000010\n1110001100001000\n0000000000001110\n1110101010000111\n"
	test(t, source, expected)
}

func TestHackAssemblerVariableAllocation(t *testing.T) {
	source := "@foo\nM=1\n@bar\nD=1\n@foo\nD=M\n"
	expected := "0000000000010000\n1110111111001000\n0000000000010001\n1110111111010000\n0000000000010000\n1111110000010000\n"
	test(t, source, expected)
}
