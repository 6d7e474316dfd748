// This is the main-driver for fungcc, the command exposing the
// compiler package as a CLI.
package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fungcc/fungcc/compiler"
	"github.com/fungcc/fungcc/metrics"
)

var (
	debug    bool
	stats    bool
	output   string
	assemble bool
	run      bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fungcc [flags] <source.c> [more.c...]",
		Short: "A small ahead-of-time compiler targeting x86-64 assembly",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCompile,
	}

	root.Flags().BoolVar(&debug, "debug", false, "insert an int3 breakpoint at the top of every function")
	root.Flags().BoolVar(&stats, "stats", false, "print per-file AST node-kind counts after compiling")
	root.Flags().StringVarP(&output, "output", "o", "a.out", "output binary path, when --assemble is set")
	root.Flags().BoolVar(&assemble, "assemble", false, "assemble and link the generated assembly via the system's cc")
	root.Flags().BoolVar(&run, "run", false, "run the resulting binary after assembling (implies --assemble)")

	return root
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})
	return logger
}

// runCompile compiles every source file independently. A failure in
// one file is recorded and the rest still run - the command's overall
// exit status reflects whether any file failed.
func runCompile(cmd *cobra.Command, args []string) error {
	if run {
		assemble = true
	}

	logger := newLogger()
	comp := compiler.New(logger)
	comp.SetDebug(debug)

	var assembled bytes.Buffer
	var compileErrs *multierror.Error

	for _, path := range args {
		source, err := os.ReadFile(path)
		if err != nil {
			compileErrs = multierror.Append(compileErrs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		result, err := comp.Compile(path, string(source), cmd.ErrOrStderr())
		if err != nil {
			compileErrs = multierror.Append(compileErrs, err)
			continue
		}

		assembled.WriteString(result.Assembly)

		if stats {
			printStats(cmd, path, result.Metrics)
		}
	}

	if compileErrs.ErrorOrNil() != nil {
		return compileErrs
	}

	if !assemble {
		fmt.Fprint(cmd.OutOrStdout(), assembled.String())
		return nil
	}

	if err := assembleAndLink(assembled.String(), output); err != nil {
		return err
	}

	if run {
		return runBinary(output)
	}
	return nil
}

func printStats(cmd *cobra.Command, path string, snapshot map[metrics.NodeKind]int) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", path)
	for kind, count := range snapshot {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", metrics.Name(kind), count)
	}
}

// assembleAndLink pipes assembly to the system's cc, the direct
// descendant of the teacher's "gcc -static -o ... -x assembler -"
// invocation.
func assembleAndLink(assembly, outputPath string) error {
	cc := exec.Command("cc", "-static", "-o", outputPath, "-x", "assembler", "-")
	cc.Stdout = os.Stdout
	cc.Stderr = os.Stderr
	cc.Stdin = bytes.NewBufferString(assembly)

	if err := cc.Run(); err != nil {
		return fmt.Errorf("assembling %s: %w", outputPath, err)
	}
	return nil
}

func runBinary(path string) error {
	exe := exec.Command(path)
	exe.Stdout = os.Stdout
	exe.Stderr = os.Stderr

	if err := exe.Run(); err != nil {
		return fmt.Errorf("running %s: %w", path, err)
	}
	return nil
}
