package jack

import (
	_ "embed"
	"encoding/json"
)

// StdlibSubroutine is one exported signature of a Jack OS class, used only to let
// --stdlib recognize calls into the OS without requiring its .jack sources on disk.
type StdlibSubroutine struct {
	Name    string         `json:"name"`
	Type    SubroutineType `json:"type"`
	Return  DataType       `json:"return"`
	NumArgs int            `json:"numArgs"`
}

type StdlibClass struct {
	Name        string             `json:"name"`
	Subroutines []StdlibSubroutine `json:"subroutines"`
}

//go:embed stdlib.json
var stdlibContent string

// StandardLibraryABI is the fixed table of Jack OS classes (Math, String, Array,
// Output, Screen, Keyboard, Memory, Sys), keyed by class name.
var StandardLibraryABI map[string]StdlibClass

func init() {
	var classes []StdlibClass
	if err := json.Unmarshal([]byte(stdlibContent), &classes); err != nil {
		panic("jack: malformed embedded stdlib.json: " + err.Error())
	}
	StandardLibraryABI = make(map[string]StdlibClass, len(classes))
	for _, c := range classes {
		StandardLibraryABI[c.Name] = c
	}
}
