// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command smile converts between Smile and JSON
// and reports on the contents of Smile documents.
//
// Usage:
//
//	smile decode [--pretty] [--escape-unicode] [--format json|yaml|cbor] [--hex] [-o out] <file|-|data>
//	smile encode [--from json|yaml|cbor] [--no-shared-keys] [--no-shared-values] [--no-raw-binary] [--end-marker] [--compress algo] [-o out] [file|-]
//	smile inspect [--hex] <file|-|data>
//
// Compressed input (zstd or s2) is detected and decompressed.
// Flags override the config file named by --config or $SMILE_CONFIG.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

var (
	dashv      bool
	configPath string
)

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
}

// command is a subcommand of smile
type command struct {
	name    string
	summary string
	// flags registers the command's flags; it
	// returns the function that runs the command
	// once flags are parsed
	flags func(fs *pflag.FlagSet, env *env) func(args []string) error
}

// env holds the streams and configuration
// a command runs against
type env struct {
	stdin  io.Reader
	stdout io.Writer
	conf   *config
	fs     *pflag.FlagSet
}

var commands = []command{
	{"decode", "decode Smile data and print it as JSON, YAML or CBOR", decodeFlags},
	{"encode", "encode JSON, YAML or CBOR as Smile", encodeFlags},
	{"inspect", "print the header, statistics and digest of Smile data", inspectFlags},
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: smile <command> [flags] [args]\n\ncommands:\n")
	for i := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", commands[i].name, commands[i].summary)
	}
	fmt.Fprintf(w, "\nrun 'smile <command> -h' for command flags\n")
}

var errUsage = errors.New("usage")

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		usage(os.Stderr)
		return errUsage
	}
	for i := range commands {
		if commands[i].name != args[0] {
			continue
		}
		fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
		fs.BoolVarP(&dashv, "verbose", "v", false, "log progress to stderr")
		fs.StringVar(&configPath, "config", "", "config file (YAML or JSON; default $SMILE_CONFIG)")
		e := &env{stdin: stdin, stdout: stdout, fs: fs}
		body := commands[i].flags(fs, e)
		if err := fs.Parse(args[1:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return nil
			}
			return err
		}
		conf, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		e.conf = conf
		return body(fs.Args())
	}
	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage(stdout)
		return nil
	}
	usage(os.Stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout)
	if errors.Is(err, errUsage) {
		os.Exit(1)
	}
	if err != nil {
		exitf("smile: %s\n", err)
	}
}
