// Package compiler wires the lexer, parser, and emitter into the
// single-call pipeline the driver uses, the way
// github.com/skx/math-compiler/compiler wires its lexer, instructions,
// and generator packages together.
package compiler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/fungcc/fungcc/codegen"
	"github.com/fungcc/fungcc/metrics"
	"github.com/fungcc/fungcc/parser"
)

// Compiler runs one translation unit's source through parsing and
// code generation. A Compiler can be reused across sources: each
// Compile call builds its own Parser and Emitter internally, so every
// call's output is independent of the others.
type Compiler struct {
	debug  bool
	logger *logrus.Logger
}

// New returns a Compiler logging operational messages to logger. If
// logger is nil, a logger discarding all output is used - logging is
// always-on ambient plumbing, never required for correctness.
func New(logger *logrus.Logger) *Compiler {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Compiler{logger: logger}
}

// SetDebug controls whether compiled functions get an int3 breakpoint
// inserted in their prologue. Mirrors the teacher's Compiler.SetDebug.
func (c *Compiler) SetDebug(debug bool) {
	c.debug = debug
}

// Result is the outcome of compiling one translation unit.
type Result struct {
	Assembly string
	Metrics  map[metrics.NodeKind]int
}

// Compile parses source and, if parsing succeeds, emits assembly for
// it. Parser diagnostics are written to errOut exactly as spec.md
// requires, untouched by the Compiler's own logrus-based operational
// logging. A non-nil error means compilation failed. After a parse
// failure errOut already holds the parser's diagnostic; a codegen
// failure writes nothing to errOut and is described by the returned
// error alone.
func (c *Compiler) Compile(name, source string, errOut io.Writer) (*Result, error) {
	c.logger.WithField("file", name).Debug("parsing")

	p := parser.New(source, errOut)
	unit := p.ParseTranslationUnit()
	if p.Status() != parser.OK {
		c.logger.WithField("file", name).Warn("parse failed")
		return nil, fmt.Errorf("compiler: %s: parse failed", name)
	}

	var out bytes.Buffer
	emitter := codegen.New(&out)
	emitter.SetDebug(c.debug)

	if err := emitter.EmitTranslationUnit(unit); err != nil {
		c.logger.WithField("file", name).WithError(err).Warn("codegen failed")
		return nil, fmt.Errorf("compiler: %s: %w", name, err)
	}

	c.logger.WithField("file", name).Info("compiled")
	return &Result{Assembly: out.String(), Metrics: emitter.Metrics().Snapshot()}, nil
}
