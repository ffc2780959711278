package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// test writes the given Jack source to a temp Main.jack file, runs the Handler on it and
// asserts the produced Main.vm matches the expected VM text line-for-line.
func test(t *testing.T, source string, expected string) {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "Main.jack")
	require.NoError(t, os.WriteFile(input, []byte(source), 0o644))

	status := Handler([]string{input}, nil)
	require.Equalf(t, 0, status, "unexpected exit status code")

	compiled, err := os.ReadFile(filepath.Join(dir, "Main.vm"))
	require.NoErrorf(t, err, "error reading generated .vm file")
	require.Equal(t, expected, string(compiled))
}

func TestJackCompilerVoidFunctionReturnsZero(t *testing.T) {
	source := `
class Main {
	function void main() {
		return;
	}
}
`
	expected := "function Main.main 0\npush constant 0\nreturn\n"
	test(t, source, expected)
}

// TestJackCompilerDoStatementDiscardsReturnValue exercises the 'do' statement's implicit
// 'pop temp 0' (spec.md §4.2) and a call to an unresolved external class.
func TestJackCompilerDoStatementDiscardsReturnValue(t *testing.T) {
	source := `
class Main {
	function void main() {
		do Output.println();
		return;
	}
}
`
	expected := "function Main.main 0\ncall Output.println 0\npop temp 0\npush constant 0\nreturn\n"
	test(t, source, expected)
}

// TestJackCompilerLetWithLocalVariable exercises local-variable registration, a literal
// assignment and a subsequent read of the same local.
func TestJackCompilerLetWithLocalVariable(t *testing.T) {
	source := `
class Main {
	function void main() {
		var int x;
		let x = 7;
		do Output.printInt(x);
		return;
	}
}
`
	expected := "function Main.main 1\n" +
		"push constant 7\n" +
		"pop local 0\n" +
		"push local 0\n" +
		"call Output.printInt 1\n" +
		"pop temp 0\n" +
		"push constant 0\n" +
		"return\n"
	test(t, source, expected)
}

func TestJackCompilerEmptyDirectoryYieldsNoTranslationUnits(t *testing.T) {
	dir := t.TempDir()
	status := Handler([]string{dir}, nil)
	require.Equal(t, 0, status, "an empty directory yields zero translation units, not an error")
}
