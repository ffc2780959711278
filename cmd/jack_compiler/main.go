package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hackforge/n2t/pkg/jack"
	"github.com/hackforge/n2t/pkg/vm"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The Jack Compiler compiles programs (composed of multiple classes/files) written in
the Jack language into VM modules that can be further elaborated. The Jack language
is a higher-level OOP language tailored for use with the Hack computer architecture.
`, "\n", " ")

var JackCompiler = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .jack file
	WithArg(cli.NewArg("inputs", "The source (.jack) files to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("stdlib", "Treats the standard library classes as known classes for --typecheck").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("typecheck", "Checks that every referenced name resolves (symbol-table membership) before emitting any output").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	// TUs is the aggregation of all the Translation Units found during the input walk (just the paths).
	// ! While the Jack language spec follows the same semantic as Java every file is a class and every class is a
	// ! jack.Module, that said in future or other language the same could not apply. By TU we identify the source
	// ! that needs to be parsed, by module we identify the biggest entity extractable from said file. In jack this
	// ! a class but for other language it may be a module (Go), a namespace (C#) or just some basic functions (C).
	TUs := []string{}

	for _, input := range args {
		info, err := os.Stat(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input path: %s\n", err)
			return -1
		}

		if !info.IsDir() {
			TUs = append(TUs, input)
			continue
		}

		// A directory is walked non-recursively: only the .jack files directly inside it
		// are treated as translation units (matches how the course's own tools process
		// a project folder — nested sub-directories are never implicitly compiled).
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

	classes := make(map[string]jack.Class, len(TUs))
	for _, tu := range TUs {
		content, err := os.ReadFile(tu)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		// Removes the directory and the '.jack' extension to use as the class name
		filename, extension := path.Base(tu), path.Ext(tu)
		className := strings.TrimSuffix(filename, extension)

		// Instantiate a lexer to turn the raw source into a flat token stream
		lexer := jack.NewLexer(tu, bytes.NewReader(content))
		tokens, err := lexer.Tokenize()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'lexing' pass: %s\n", err)
			return -1
		}

		// Instantiate a parser for the Jack program
		parser := jack.NewParser(tu, tokens)
		// Parses the input file content and extract an AST (as a 'jack.Class') from it.
		class, err := parser.ParseClass()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}

		classes[className] = class
	}

	// Builds the set of class names considered "known" for the purpose of --typecheck:
	// every class we just parsed, plus (if --stdlib is enabled) the classes backed by
	// the embedded standard library ABI. This never adds the stdlib classes themselves
	// to the program, they're only used to resolve calls into them at typecheck time,
	// the emitted output never contains their VM code.
	knownClasses := make(map[string]bool, len(classes))
	for name := range classes {
		knownClasses[name] = true
	}
	if _, enabled := options["stdlib"]; enabled {
		for name := range jack.StandardLibraryABI {
			knownClasses[name] = true
		}
	}

	if _, enabled := options["typecheck"]; enabled {
		checker := jack.NewTypeChecker(knownClasses)
		for _, tu := range TUs {
			filename, extension := path.Base(tu), path.Ext(tu)
			class := classes[strings.TrimSuffix(filename, extension)]
			if err := checker.CheckClass(class); err != nil {
				fmt.Printf("ERROR: Unable to complete 'typecheck' pass: %s\n", err)
				return -1
			}
		}
	}

	vmProgram := make(vm.Program, len(classes))
	for _, tu := range TUs {
		filename, extension := path.Base(tu), path.Ext(tu)
		className := strings.TrimSuffix(filename, extension)
		class := classes[className]

		// Instantiate an emitter to convert this one class from Jack to Vm
		emitter := jack.NewEmitter(tu)
		// Lowers the jack.Class to an in-memory/IR representation of its Vm counterpart 'vm.Module'.
		module, err := emitter.EmitClass(class)
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
			return -1
		}
		vmProgram[className] = module
	}

	// Now, instantiates a code generator for the Vm (compiled) program
	codegen := vm.NewCodeGenerator(vmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, tu := range TUs {
		// Removes root directory and file extension to use as module name
		filename, extension := path.Base(tu), path.Ext(tu)
		module, ok := compiled[strings.TrimSuffix(filename, extension)]
		if !ok {
			fmt.Printf("ERROR: Unable to compile module for class file '%s'\n", tu)
			return -1
		}

		output, err := os.Create(fmt.Sprintf("%s.vm", strings.TrimSuffix(tu, extension)))
		if err != nil {
			fmt.Printf("ERROR: Unable to open output file: %s\n", err)
			return -1
		}
		defer output.Close()

		for _, ops := range module {
			line := fmt.Sprintf("%s\n", ops)
			output.Write([]byte(line))
		}
	}

	return 0
}

func main() { os.Exit(JackCompiler.Run(os.Args, os.Stdout)) }
