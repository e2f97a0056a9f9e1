// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/compiler"
	"github.com/ezrec/bfsys/emulator"
	"github.com/ezrec/bfsys/machine"
)

// defines collects -D NAME=VALUE equates.
type defines map[string]int

func (d defines) String() string {
	var items []string
	for name, value := range d {
		items = append(items, fmt.Sprintf("%s=%d", name, value))
	}
	return strings.Join(items, ",")
}

func (d defines) Set(text string) (err error) {
	name, value, ok := strings.Cut(text, "=")
	if !ok {
		value = "1"
	}
	v, err := strconv.ParseInt(value, 0, 32)
	if err != nil {
		return
	}
	d[name] = int(v)
	return
}

func main() {
	var source string
	var run string
	var syscalls bool
	var archName string
	var save string
	var listing bool
	var input string
	var output string
	var limit int
	var verbose bool

	equates := defines{}

	flag.StringVar(&source, "c", "", "source file to compile")
	flag.StringVar(&run, "r", "", "instruction text file to run")
	flag.BoolVar(&syscalls, "s", false, "Compile for syscall mode")
	flag.StringVar(&archName, "a", "", "Syscall architecture (x86_64, arm64); default is the host")
	flag.Var(equates, "D", "Define NAME=VALUE for $(...) expressions")
	flag.StringVar(&save, "w", "", "Save compiled instruction text, do not execute")
	flag.BoolVar(&listing, "l", false, "Save an annotated listing instead of bare text")
	flag.StringVar(&input, "i", "-", "Tape input")
	flag.StringVar(&output, "o", "-", "Tape output")
	flag.IntVar(&limit, "limit", 0, "Maximum operations to execute, 0 for no limit")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if (len(source) == 0) == (len(run) == 0) {
		log.Fatalf("%v: exactly one of -c or -r is required", os.Args[0])
	}

	arch, _ := abi.HostArch()
	if len(archName) != 0 {
		var err error
		arch, err = abi.ParseArch(archName)
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	// Compile a new instruction stream.
	if len(source) != 0 {
		inf, err := os.Open(source)
		if err != nil {
			log.Fatalf("%v: %v", source, err)
		}
		defer inf.Close()

		mode := machine.MODE_PLAIN
		if syscalls {
			mode = machine.MODE_SYSCALL
		}
		cfg := compiler.DefaultConfig(mode, arch)
		cfg.Verbose = verbose
		cfg.Defines = equates

		emu.Program, err = compiler.Compile(inf, cfg)
		if err != nil {
			log.Fatalf("%v: %v", source, err)
		}

		if len(save) != 0 {
			text := emu.Program.Text()
			if listing {
				text = emu.Program.Listing()
			}
			err = os.WriteFile(save, []byte(text), 0o644)
			if err != nil {
				log.Fatalf("%v: %v", save, err)
			}
			return
		}

		err = emu.Reset()
		if err != nil {
			log.Fatalf("%v: %v", source, err)
		}
	} else {
		text, err := os.ReadFile(run)
		if err != nil {
			log.Fatalf("%v: %v", run, err)
		}

		err = emu.LoadText(string(text))
		if err != nil {
			log.Fatalf("%v: %v", run, err)
		}
	}

	if input == "-" {
		emu.Tape.Input = os.Stdin
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Tape.Input = inf
	}

	if output == "-" {
		emu.Tape.Output = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Tape.Output = ouf
	}

	emu.Limit = limit

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := emu.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
}
