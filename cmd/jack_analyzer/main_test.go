package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJackAnalyzerHandlerWritesXML(t *testing.T) {
	dir := t.TempDir()
	src := `
class Main {
	function void main() {
		var int x;
		let x = 1 + 2;
		do Output.printInt(x);
		return;
	}
}
`
	path := filepath.Join(dir, "Main.jack")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	status := Handler([]string{path}, nil)
	require.Equalf(t, 0, status, "unexpected exit status")

	out, err := os.ReadFile(filepath.Join(dir, "Main.xml"))
	require.NoError(t, err, "expected Main.xml to be produced")
	for _, want := range []string{"<class>", "<subroutineDec>", "<letStatement>", "</class>"} {
		require.Contains(t, string(out), want)
	}
}

func TestJackAnalyzerHandlerRejectsNonJackFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	status := Handler([]string{path}, nil)
	require.NotEqual(t, 0, status, "expected a non-zero exit status for a non-.jack input")
}

func TestJackAnalyzerHandlerWalksDirectoryNonRecursively(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.jack"), []byte(`
class Main {
	function void main() {
		return;
	}
}
`), 0o644))

	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "Deep.jack"), []byte(`
class Deep {
	function void main() {
		return;
	}
}
`), 0o644))

	status := Handler([]string{dir}, nil)
	require.Equalf(t, 0, status, "unexpected exit status")

	_, err := os.Stat(filepath.Join(dir, "Main.xml"))
	require.NoError(t, err, "expected Main.xml to be produced")

	_, err = os.Stat(filepath.Join(nested, "Deep.xml"))
	require.Error(t, err, "did not expect nested/Deep.xml to be produced (directory walk must not recurse)")
}
