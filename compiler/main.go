package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/xiaobogaga/chocopy/compiler/internal"
	"github.com/xiaobogaga/chocopy/vm"
)

// A compiler from program trees to WebAssembly text. The program tree is the JSON output of the python parser
// front end.

var (
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("compiler", flag.ContinueOnError)
	flags.SetOutput(stderr)
	path := flags.String("path", "", "the program tree json file to compile")
	output := flags.String("o", "", "the saved path of the wat module, stdout if empty")
	tree := flags.String("tree", "", "the saved path of the checked program tree")
	runStart := flags.Bool("run", false, "whether run _start after compiling and print its result")
	verbose := flags.Bool("v", false, "whether print compile stages")
	err := flags.Parse(args)
	if err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-path is required")
	}
	input, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("read program tree: %w", err)
	}
	var opts []internal.Option
	if *verbose {
		opts = append(opts, internal.WithLogger(log.New(stderr, "", 0)))
	}
	module := &bytes.Buffer{}
	result, err := internal.CompileJSON(bytes.NewReader(input), module, opts...)
	if err != nil {
		return err
	}
	if *tree != "" {
		err = saveTree(*tree, result.Program)
		if err != nil {
			return err
		}
	}
	if *output != "" {
		err = os.WriteFile(*output, module.Bytes(), 0666)
		if err != nil {
			return fmt.Errorf("save module: %w", err)
		}
	} else if !*runStart {
		_, err = stdout.Write(module.Bytes())
		if err != nil {
			return err
		}
	}
	if *runStart {
		return runModule(module.String(), stdout)
	}
	return nil
}

func saveTree(path string, program *internal.BodyAst) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save program tree: %w", err)
	}
	err = internal.EncodeJSON(f, program)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("save program tree: %w", err)
	}
	return f.Close()
}

// runModule runs _start with the standard imports. Program output goes to stdout, followed by the result of _start
// if it has one.
func runModule(src string, stdout io.Writer) error {
	m, err := vm.Parse(src)
	if err != nil {
		return err
	}
	inst, err := vm.NewInstance(m, vm.NewStdHost(stdout))
	if err != nil {
		return err
	}
	value, hasValue, err := inst.Invoke("_start")
	if err != nil {
		return err
	}
	if hasValue {
		fmt.Fprintln(stdout, mutedStyle.Render("=>"), resultStyle.Render(fmt.Sprintf("%d", value)))
	}
	return nil
}
