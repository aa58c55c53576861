package runtime

import (
	"bytes"
	"io"
	"os"

	"github.com/sergev/lisp32/lang"
	"github.com/sergev/lisp32/parser"
)

// RunString parses src and evaluates the resulting tree against fresh
// state. in supplies the read intrinsics; out receives print output and
// read prompts.
func RunString(src string, in io.Reader, out io.Writer) (lang.Value, error) {
	tree, err := parser.ParseString(src)
	if err != nil {
		return lang.Value{}, err
	}
	return lang.NewEvaluator(tree, in, out).Run()
}

// RunReader consumes all source from r and runs it.
func RunReader(r io.Reader, in io.Reader, out io.Writer) (lang.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return lang.Value{}, err
	}
	return RunString(string(data), in, out)
}

// RunFile loads and runs a script file, allowing a #! shebang line.
func RunFile(path string, in io.Reader, out io.Writer) (lang.Value, error) {
	src, err := LoadFile(path)
	if err != nil {
		return lang.Value{}, err
	}
	return RunString(src, in, out)
}

// LoadFile reads a script file, dropping a leading #! shebang line.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if bytes.HasPrefix(data, []byte("#!")) {
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			data = data[idx+1:]
		} else {
			data = nil
		}
	}
	return string(data), nil
}
