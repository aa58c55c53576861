package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/sergev/lisp32/lang"
	"github.com/sergev/lisp32/parser"
	"github.com/sergev/lisp32/runtime"
)

var astFlag = flag.Bool("ast", false, "print the expression tree before and after evaluation")

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) > 0 {
		script := args[0]
		var src string
		var err error
		if script == "-" {
			src, err = readAll(os.Stdin)
		} else {
			src, err = runtime.LoadFile(script)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "lisp32: %v\n", err)
			fmt.Println("failure")
			os.Exit(1)
		}
		os.Exit(runSource(src, os.Stdin, os.Stdout, os.Stderr))
	}

	if isInteractive() {
		runInteractiveREPL()
		return
	}

	src, err := readAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lisp32: %v\n", err)
		fmt.Println("failure")
		os.Exit(1)
	}
	os.Exit(runSource(src, os.Stdin, os.Stdout, os.Stderr))
}

// runSource drives the pipeline on one program: parse, announce the parse
// outcome, evaluate, print the final value formatted by type. Returns the
// process exit code.
func runSource(src string, in io.Reader, out, errOut io.Writer) int {
	tree, err := parser.ParseString(src)
	if err != nil {
		fmt.Fprintf(errOut, "lisp32: %v\n", err)
		fmt.Fprintln(out, "failure")
		return 1
	}
	fmt.Fprintln(out, "success")
	if *astFlag {
		tree.Dump(out)
	}

	val, err := lang.NewEvaluator(tree, in, out).Run()
	if err != nil {
		fmt.Fprintf(errOut, "lisp32: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, val.String())
	if *astFlag {
		tree.Dump(out)
	}
	return 0
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runInteractiveREPL() {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}()
	}

	var buffer strings.Builder

	for {
		prompt := "lisp32> "
		if buffer.Len() > 0 {
			prompt = ".... "
		}
		input, err := state.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Println()
				buffer.Reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Println()
				return
			default:
				fmt.Fprintf(os.Stderr, "read error: %v\n", err)
				return
			}
		}
		buffer.WriteString(input)
		buffer.WriteString("\n")

		src := buffer.String()
		if strings.TrimSpace(src) == "" {
			buffer.Reset()
			continue
		}

		tree, parseErr := parser.ParseString(src)
		if parseErr != nil {
			if parser.IsIncomplete(parseErr) {
				continue
			}
			fmt.Fprintf(os.Stderr, "parse error: %v\n", parseErr)
			buffer.Reset()
			continue
		}

		buffer.Reset()
		state.AppendHistory(strings.TrimSpace(src))
		if *astFlag {
			tree.Dump(os.Stdout)
		}
		val, evalErr := lang.NewEvaluator(tree, os.Stdin, os.Stdout).Run()
		if evalErr != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", evalErr)
			continue
		}
		fmt.Println(val.String())
		if *astFlag {
			tree.Dump(os.Stdout)
		}
	}
}

func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".lisp32_history")
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
