// Package engine runs compiled books: it allocates graph memory, boots the
// entry point, hands the net to an evaluator and reads the result back as
// text.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Neumenon/hvmc/ast"
	"github.com/Neumenon/hvmc/hvm"
)

// Options configures a run.
type Options struct {
	// Evaluator reduces the booted net. Defaults to hvm.Loader.
	Evaluator hvm.Evaluator

	NodeCapacity int
	VarCapacity  int

	// MemDump keeps a dump of graph memory in the result.
	MemDump bool

	Readback ast.ReadbackOptions

	// Logger receives run statistics at debug level. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Evaluator:    hvm.Loader{},
		NodeCapacity: hvm.DefaultNodeCapacity,
		VarCapacity:  hvm.DefaultVarCapacity,
	}
}

// Result describes a finished run.
type Result struct {
	Iterations uint64        // interactions reported by the evaluator
	Elapsed    time.Duration // time spent in the evaluator
	Pending    int           // redexes left in the bag

	// Net is the value bound to the root, or nil when it could not be
	// read back. Output is its text, or empty.
	Net         *ast.Net
	Output      string
	ReadbackErr error

	MemDump  string
	Warnings []ast.Warning
}

// Run evaluates book and reads back the root. Readback failures do not fail
// the run: they leave Output empty and set ReadbackErr.
func Run(ctx context.Context, book *hvm.Book, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	if len(book.Defs) == 0 || book.Defs[0].Name != ast.MainName {
		return nil, ast.ErrMissingEntryPoint
	}

	net := hvm.NewGNet(hvm.WithNodeCapacity(opts.NodeCapacity), hvm.WithVarCapacity(opts.VarCapacity))
	hvm.Boot(net)

	start := time.Now()
	if err := opts.Evaluator.Evaluate(ctx, net, book); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	res := &Result{
		Iterations: net.Interactions(),
		Elapsed:    time.Since(start),
		Pending:    len(net.Redexes()),
	}
	log.Debug("evaluated",
		"defs", len(book.Defs),
		"interactions", res.Iterations,
		"elapsed", res.Elapsed,
		"pending", res.Pending)

	if opts.MemDump {
		res.MemDump = net.Show()
	}

	out, err := ast.Readback(net, hvm.RootPort, ast.NamesOf(book), opts.Readback)
	if err != nil {
		log.Debug("readback failed", "err", err)
		res.ReadbackErr = err
		return res, nil
	}
	res.Net = out
	res.Output = out.String()
	return res, nil
}

// RunSource parses, compiles and runs a book given as text.
func RunSource(ctx context.Context, src string, parse ast.ParseOptions, opts Options) (*Result, error) {
	parsed, err := ast.Parse(src, parse)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	for _, w := range parsed.Warnings {
		opts.Logger.Warn(w.Message, "pos", w.Pos.String())
	}

	book, err := ast.Compile(parsed.Book)
	if err != nil {
		return nil, err
	}
	res, err := Run(ctx, book, opts)
	if err != nil {
		return nil, err
	}
	res.Warnings = parsed.Warnings
	return res, nil
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Evaluator == nil {
		o.Evaluator = def.Evaluator
	}
	if o.NodeCapacity <= 0 {
		o.NodeCapacity = def.NodeCapacity
	}
	if o.VarCapacity <= 0 {
		o.VarCapacity = def.VarCapacity
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}
