package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ComedicChimera/olive"
	"github.com/pkg/errors"

	"lc/astyaml"
	"lc/build"
	"lc/config"
	"lc/depm"
	"lc/ir"
	"lc/report"
)

// execute runs the `lcir` CLI on args and writes dumps to out.  It returns
// false if the command failed.
func execute(args []string, out io.Writer) bool {
	cli := olive.NewCLI("lcir", "lcir compiles source descriptions to IR", true)
	cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})

	dumpCmd := cli.AddSubcommand("dump", "compile source descriptions and print their IR", true)
	dumpCmd.AddPrimaryArg("path", "a source description or a directory of them", true)
	dumpCmd.AddStringArg("config", "c", "the path to a compiler config file", false)
	dumpCmd.AddFlag("llvm", "l", "print LLVM modules instead of IR")
	dumpCmd.AddFlag("fold", "f", "fold constant instructions")
	dumpCmd.AddFlag("continue", "k", "keep lowering statements past unresolved references")

	cli.AddSubcommand("version", "print the lcir version", false)

	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		report.PrintErrorMessage("CLI Usage Error", err)
		return false
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "dump":
		loglevel, _ := result.Arguments["loglevel"].(string)
		return execDumpCommand(subResult, loglevel, out)
	case "version":
		report.PrintInfoMessage("lcir Version", lcirVersion)
	}

	return true
}

// execDumpCommand executes the dump subcommand and handles all errors.
func execDumpCommand(result *olive.ArgParseResult, loglevel string, out io.Writer) bool {
	opts := config.Default()
	if path, ok := result.Arguments["config"]; ok {
		var err error
		if opts, err = config.Load(path.(string)); err != nil {
			report.PrintErrorMessage("Config Error", err)
			return false
		}
	}

	if loglevel != "" {
		opts.LogLevel = loglevel
	}

	opts.EmitLLVM = opts.EmitLLVM || result.HasFlag("llvm")
	opts.FoldConstants = opts.FoldConstants || result.HasFlag("fold")
	opts.ContinueOnError = opts.ContinueOnError || result.HasFlag("continue")

	if err := opts.Validate(); err != nil {
		report.PrintErrorMessage("Config Error", err)
		return false
	}

	path, _ := result.PrimaryArg()
	files, err := loadSources(path)
	if err != nil {
		report.PrintErrorMessage("Source Error", err)
		return false
	}

	res, err := build.NewCompiler(opts).Compile(context.Background(), files)
	if err != nil {
		report.PrintErrorMessage("Compile Error", err)
		return false
	}

	if err := dump(out, res, opts.EmitLLVM); err != nil {
		report.PrintErrorMessage("Output Error", err)
		return false
	}

	return res.Succeeded
}

// loadSources decodes the source description at path.  If path is a
// directory, every `.yaml` file it contains is decoded in name order.
func loadSources(path string) ([]*depm.SourceFile, error) {
	finfo, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	paths := []string{path}
	if finfo.IsDir() {
		if paths, err = filepath.Glob(filepath.Join(path, "*.yaml")); err != nil {
			return nil, err
		}

		if len(paths) == 0 {
			return nil, errors.Errorf("no source descriptions in `%s`", path)
		}
	}

	files := make([]*depm.SourceFile, len(paths))
	for i, p := range paths {
		if files[i], err = astyaml.DecodeFile(p); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// dump writes the IR bundles or the LLVM modules of res to out.
func dump(out io.Writer, res *build.Result, llvm bool) error {
	if llvm {
		for _, mod := range res.Modules {
			if mod == nil {
				continue
			}

			if _, err := fmt.Fprintln(out, mod.String()); err != nil {
				return err
			}
		}

		return nil
	}

	first := true
	for _, b := range res.Bundles {
		if b == nil {
			continue
		}

		if !first {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
		}
		first = false

		if _, err := fmt.Fprint(out, ir.Print(b)); err != nil {
			return err
		}
	}

	return nil
}
