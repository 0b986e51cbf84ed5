// Command tacitus is an interactive REPL and batch runner for the tagged-
// value virtual machine: it reads source lines (from stdin or a script
// file), compiles each one via lang/compiler, executes it, and reports the
// resulting data-stack top or the structured error the run produced.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jhlagado/ts-tacitus-sub002/compiler"
	"github.com/jhlagado/ts-tacitus-sub002/dict"
	"github.com/jhlagado/ts-tacitus-sub002/errs"
	"github.com/jhlagado/ts-tacitus-sub002/lang"
	"github.com/jhlagado/ts-tacitus-sub002/vm"
	"github.com/pkg/errors"
	"github.com/xyproto/env/v2"
)

func atExit(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}

func main() {
	var err error
	defer func() { atExit(err) }()

	imageOut := flag.String("save", env.Str("TACITUS_IMAGE", ""), "save memory image to `filename` on exit")
	scriptName := flag.String("script", env.Str("TACITUS_SCRIPT", ""), "run `filename` instead of reading stdin")
	showStats := flag.Bool("stats", env.Bool("TACITUS_STATS", false), "print instruction count on exit")
	flag.Parse()

	mem := vm.NewMemory()
	d := dict.New()
	installBuiltins(d)
	c := compiler.New(mem)
	i := vm.New(mem)

	var in io.Reader = os.Stdin
	interactive := *scriptName == ""
	if !interactive {
		f, openErr := os.Open(*scriptName)
		if openErr != nil {
			err = errors.Wrap(openErr, "open script")
			return
		}
		defer f.Close()
		in = f
	}

	err = repl(in, interactive, c, d, i)

	if *showStats {
		fmt.Fprintf(os.Stderr, "executed %d instructions\n", i.InstructionCount())
	}
	if *imageOut != "" {
		out, createErr := os.Create(*imageOut)
		if createErr != nil {
			err = errors.Wrap(createErr, "save image")
			return
		}
		defer out.Close()
		if saveErr := i.SaveImage(out); saveErr != nil {
			err = errors.Wrap(saveErr, "save image")
		}
	}
}

// repl reads one line of source at a time, compiles it starting from the
// compiler's current position, and runs the VM forward from the same entry
// point, printing the data-stack top after each line when interactive.
func repl(r io.Reader, interactive bool, c *compiler.Compiler, d *dict.Dict, i *vm.Instance) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		entry := c.Here()
		if err := lang.Compile(lang.New(strings.NewReader(line), "<input>"), c, d); err != nil {
			if interactive {
				fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
				continue
			}
			return err
		}
		if err := c.EmitOpcode(vm.OpBye); err != nil {
			return err
		}
		i.IP = entry
		if err := i.Run(); err != nil {
			if interactive {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				continue
			}
			return err
		}
		if interactive {
			printTop(i)
		}
	}
	return sc.Err()
}

func printTop(i *vm.Instance) {
	v, err := i.Peek(0)
	if err != nil {
		if errs.Is(err, errs.StackUnderflow) {
			fmt.Println("ok")
		}
		return
	}
	if vm.IsNumber(v) {
		fmt.Printf("%g\n", vm.Float(v))
		return
	}
	t, p := vm.Decode(v)
	fmt.Printf("%s(%d)\n", t, p)
}

// installBuiltins seeds d with a CODE entry for every builtin opcode,
// keyed by its mnemonic, so that source text can name them directly.
func installBuiltins(d *dict.Dict) {
	for op := vm.Opcode(0); int(op) < vm.MaxBuiltin; op++ {
		name := op.String()
		if name == "call" {
			continue
		}
		d.Define(name, vm.Encode(int32(op), vm.CODE), false)
	}
}
