package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hackforge/n2t/pkg/jack"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The Jack Analyzer parses programs written in the Jack language and emits the textbook
nested-tag XML representation of their syntax tree, one .xml file per source .jack file.
It's a companion to the Jack Compiler, useful to inspect or grade the parser in isolation
without going all the way down to VM code.
`, "\n", " ")

var JackAnalyzer = cli.New(Description).
	WithArg(cli.NewArg("inputs", "A single .jack file, or a directory of them, to analyze").
		AsOptional().WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	TUs := []string{}
	for _, input := range args {
		info, err := os.Stat(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input path: %s\n", err)
			return -1
		}

		if !info.IsDir() {
			if filepath.Ext(input) != ".jack" {
				fmt.Printf("ERROR: %q is not a .jack file\n", input)
				return -1
			}
			TUs = append(TUs, input)
			continue
		}

		// A directory is walked non-recursively: only the .jack files directly inside
		// it are analyzed, mirroring the shape of a single Nand2Tetris project folder.
		entries, err := os.ReadDir(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to read directory: %s\n", err)
			return -1
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".jack" {
				continue
			}
			TUs = append(TUs, filepath.Join(input, entry.Name()))
		}
	}

	for _, tu := range TUs {
		content, err := os.ReadFile(tu)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		lexer := jack.NewLexer(tu, bytes.NewReader(content))
		tokens, err := lexer.Tokenize()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'lexing' pass: %s\n", err)
			return -1
		}

		parser := jack.NewParser(tu, tokens)
		class, err := parser.ParseClass()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}

		printer := jack.NewXMLPrinter()
		rendered := printer.Print(class)

		extension := path.Ext(tu)
		output, err := os.Create(fmt.Sprintf("%s.xml", strings.TrimSuffix(tu, extension)))
		if err != nil {
			fmt.Printf("ERROR: Unable to open output file: %s\n", err)
			return -1
		}
		defer output.Close()

		output.WriteString(rendered)
	}

	return 0
}

func main() { os.Exit(JackAnalyzer.Run(os.Args, os.Stdout)) }
