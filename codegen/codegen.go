// Package codegen walks a validated *ast.TranslationUnit and writes
// GNU-syntax x86-64 System V assembly.
package codegen

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fungcc/fungcc/ast"
	"github.com/fungcc/fungcc/metrics"
)

// localEntry is one binding in a function's local symbol table: a name
// and its positive frame offset (accessed as -offset(%rbp)).
type localEntry struct {
	name   string
	offset int
}

// localTable is the per-function local symbol table. Lookup is
// linear, first-match wins in declaration order - there's no scoping
// beyond this one flat table.
type localTable struct {
	entries []localEntry
}

func (t *localTable) find(name string) (int, bool) {
	for _, e := range t.entries {
		if e.name == name {
			return e.offset, true
		}
	}
	return 0, false
}

func (t *localTable) add(name string, offset int) {
	t.entries = append(t.entries, localEntry{name: name, offset: offset})
}

// funcCtx carries the per-function state the statement/expression
// emitters need: the local table built during prologue preparation and
// the label every `return` jumps to.
type funcCtx struct {
	locals      *localTable
	returnLabel string
}

// Emitter writes a complete assembly translation unit to out. A single
// Emitter's label counter is process-independent: multiple Emitters
// (and thus multiple compiler invocations in one process) don't
// collide.
type Emitter struct {
	out          io.Writer
	debug        bool
	labelCounter int
	metrics      *metrics.Counters
}

// New creates an Emitter writing to out.
func New(out io.Writer) *Emitter {
	return &Emitter{out: out, metrics: metrics.New()}
}

// SetDebug controls whether an int3 breakpoint is inserted at the top
// of every emitted function, the AT&T-syntax descendant of the
// teacher's Intel "int 03" debug insert.
func (e *Emitter) SetDebug(v bool) {
	e.debug = v
}

// Metrics returns the node-kind counters accumulated by this Emitter's
// run so far.
func (e *Emitter) Metrics() *metrics.Counters {
	return e.metrics
}

// EmitTranslationUnit writes the complete output skeleton: a .text
// header, one code block per function, and the .note.GNU-stack
// footer. It returns the first write failure or acceptance-rule
// violation it encounters.
func (e *Emitter) EmitTranslationUnit(unit *ast.TranslationUnit) error {
	if _, err := io.WriteString(e.out, ".text\n"); err != nil {
		return err
	}

	for _, fn := range unit.Functions {
		if err := e.emitFunction(fn); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(e.out, ".section .note.GNU-stack,\"\",@progbits\n"); err != nil {
		return err
	}
	return nil
}

func (e *Emitter) emitFunction(fn *ast.FunctionDecl) error {
	e.metrics.Inc(metrics.KindFunctionDecl)

	table := &localTable{}
	offset := 0
	if fn.Body != nil {
		collectLocals(fn.Body.Statements, table, &offset)
	}
	alignedStack := alignTo(offset, 16)

	label := fmt.Sprintf(".Lreturn_%d", e.labelCounter)
	e.labelCounter++

	if _, err := fmt.Fprintf(e.out, ".globl %s\n%s:\n", fn.Name, fn.Name); err != nil {
		return err
	}
	if _, err := io.WriteString(e.out, "    push %rbp\n    mov %rsp, %rbp\n"); err != nil {
		return err
	}
	if e.debug {
		if _, err := io.WriteString(e.out, "    int3\n"); err != nil {
			return err
		}
	}
	if alignedStack > 0 {
		if _, err := fmt.Fprintf(e.out, "    sub $%d, %%rsp\n", alignedStack); err != nil {
			return err
		}
	}

	ctx := &funcCtx{locals: table, returnLabel: label}
	if fn.Body != nil {
		if err := e.emitStmt(fn.Body, ctx); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(e.out, "%s:\n    leave\n    ret\n\n", label); err != nil {
		return err
	}
	return nil
}

// collectLocals walks a function body in source order (recursing
// through nested blocks) assigning each VarDecl a frame slot: eight
// bytes per declared integer, intentionally wasteful to keep alignment
// arithmetic trivial.
func collectLocals(stmts []ast.Stmt, table *localTable, offset *int) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.VarDecl:
			*offset += 8
			table.add(s.Name, *offset)
		case *ast.Block:
			collectLocals(s.Statements, table, offset)
		}
	}
}

func alignTo(value, alignment int) int {
	remainder := value % alignment
	if remainder == 0 {
		return value
	}
	return value + (alignment - remainder)
}

func (e *Emitter) emitStmt(stmt ast.Stmt, ctx *funcCtx) error {
	switch s := stmt.(type) {
	case *ast.Block:
		e.metrics.Inc(metrics.KindBlock)
		for _, st := range s.Statements {
			if err := e.emitStmt(st, ctx); err != nil {
				return err
			}
		}
		return nil

	case *ast.VarDecl:
		e.metrics.Inc(metrics.KindVarDecl)
		offset, ok := ctx.locals.find(s.Name)
		if !ok {
			return fmt.Errorf("codegen: declaration for %s not in local table", s.Name)
		}

		if s.Initializer != nil {
			if err := e.emitExpr(s.Initializer, ctx); err != nil {
				return err
			}
		} else if _, err := io.WriteString(e.out, "    movl $0, %eax\n"); err != nil {
			return err
		}

		_, err := fmt.Fprintf(e.out, "    movl %%eax, -%d(%%rbp)\n", offset)
		return err

	case *ast.Assignment:
		e.metrics.Inc(metrics.KindAssignment)
		offset, ok := ctx.locals.find(s.Target)
		if !ok {
			return fmt.Errorf("codegen: assignment to undeclared identifier %s", s.Target)
		}

		if err := e.emitExpr(s.Value, ctx); err != nil {
			return err
		}

		_, err := fmt.Fprintf(e.out, "    movl %%eax, -%d(%%rbp)\n", offset)
		return err

	case *ast.ReturnStmt:
		e.metrics.Inc(metrics.KindReturnStmt)
		if err := e.emitExpr(s.Expression, ctx); err != nil {
			return err
		}
		_, err := fmt.Fprintf(e.out, "    jmp %s\n", ctx.returnLabel)
		return err
	}

	return fmt.Errorf("codegen: unsupported statement kind %T", stmt)
}

func (e *Emitter) emitExpr(expr ast.Expr, ctx *funcCtx) error {
	switch ex := expr.(type) {
	case *ast.NumberLiteral:
		e.metrics.Inc(metrics.KindNumberLiteral)
		value, err := strconv.ParseInt(ex.Lexeme, 10, 64)
		if err != nil {
			return fmt.Errorf("codegen: invalid integer literal %q: %w", ex.Lexeme, err)
		}
		_, err = fmt.Fprintf(e.out, "    movl $%d, %%eax\n", value)
		return err

	case *ast.Identifier:
		e.metrics.Inc(metrics.KindIdentifier)
		if offset, ok := ctx.locals.find(ex.Name); ok {
			_, err := fmt.Fprintf(e.out, "    movl -%d(%%rbp), %%eax\n", offset)
			return err
		}
		_, err := fmt.Fprintf(e.out, "    mov %s(%%rip), %%eax\n", ex.Name)
		return err

	case *ast.UnaryExpr:
		e.metrics.Inc(metrics.KindUnaryExpr)
		if err := e.emitExpr(ex.Operand, ctx); err != nil {
			return err
		}
		if ex.Op == ast.UnaryMinus {
			_, err := io.WriteString(e.out, "    neg %eax\n")
			return err
		}
		return nil

	case *ast.BinaryExpr:
		e.metrics.Inc(metrics.KindBinaryExpr)
		if err := e.emitExpr(ex.Left, ctx); err != nil {
			return err
		}
		if _, err := io.WriteString(e.out, "    push %rax\n"); err != nil {
			return err
		}
		if err := e.emitExpr(ex.Right, ctx); err != nil {
			return err
		}
		if _, err := io.WriteString(e.out, "    pop %rcx\n"); err != nil {
			return err
		}
		if _, err := io.WriteString(e.out, "    mov %eax, %edx\n"); err != nil {
			return err
		}
		if _, err := io.WriteString(e.out, "    mov %ecx, %eax\n"); err != nil {
			return err
		}
		op := "add"
		if ex.Op == ast.BinarySub {
			op = "sub"
		}
		_, err := fmt.Fprintf(e.out, "    %s %%edx, %%eax\n", op)
		return err
	}

	return fmt.Errorf("codegen: unsupported expression kind %T", expr)
}
