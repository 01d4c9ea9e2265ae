// hvmc - interaction net compiler CLI tool
//
// Usage:
//
//	hvmc fmt [--strict] [file]                  Print a book in canonical form
//	hvmc check [--strict] [file]                Parse and compile, report sizes
//	hvmc compile [options] [file]               Compile a book into a container file
//	hvmc inspect [--no-crc] [file]              Decode a container or raw buffer as text
//	hvmc run [options] [file]                   Run a book and print the result
//	hvmc repl                                   Interactive session
//	hvmc version                                Print version info
//
// Input is book text, a framed container written by "hvmc compile", or
// (for inspect) a raw compiled buffer. If no file is given, reads from stdin.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/Neumenon/hvmc/ast"
	"github.com/Neumenon/hvmc/engine"
	"github.com/Neumenon/hvmc/hvm"
	"github.com/Neumenon/hvmc/stream"
)

const libVersion = "0.3.0"

// cliOptions holds every flag any subcommand accepts.
type cliOptions struct {
	strict   bool
	verbose  bool
	memDump  bool
	frames   bool
	compress bool
	noCRC    bool
	noSource bool
	raw      bool
	out      string
	nodes    int
	vars     int
	maxHops  int
	fileArg  string
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "version", "-v", "--version":
		fmt.Printf("hvmc %s\n", libVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	case "repl":
		os.Exit(cmdRepl(parseArgs(os.Args[2:])))
	}

	opts := parseArgs(os.Args[2:])
	log := newLogger(opts.verbose)

	var input io.Reader = os.Stdin
	if opts.fileArg != "" {
		f, err := os.Open(opts.fileArg)
		if err != nil {
			fatal("open file: %v", err)
		}
		defer f.Close()
		input = f
	}
	data, err := io.ReadAll(input)
	if err != nil {
		fatal("read input: %v", err)
	}

	switch cmd {
	case "fmt":
		cmdFmt(data, opts, log)
	case "check":
		cmdCheck(data, opts, log)
	case "compile":
		cmdCompile(data, opts, log)
	case "inspect":
		cmdInspect(data, opts)
	case "run":
		cmdRun(data, opts, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `hvmc - interaction net compiler (v`+libVersion+`)

Usage:
  hvmc fmt [--strict] [file]        Print a book in canonical form
  hvmc check [--strict] [file]      Parse and compile, report sizes
  hvmc compile [options] [file]     Compile a book into a container file
  hvmc inspect [--no-crc] [file]    Decode a container or raw buffer as text
  hvmc run [options] [file]         Run a book and print the result
  hvmc repl                         Interactive session
  hvmc version                      Print version info

Options:
  --strict            Reject books that define a name twice
  --verbose           Log debug events to stderr
  -o FILE, --out=FILE Write output to FILE instead of stdout
  --compress          Compress the compiled book frame with zstd
  --no-crc            Do not write (compile) or verify (inspect, run) CRCs
  --no-source         Leave the source frame out of the container
  --raw               Write the bare compiled buffer instead of a container
  --mem-dump          Print graph memory after the run
  --frames            Write the run result as frames instead of text
  --nodes=N           Node capacity of graph memory
  --vars=N            Variable capacity of graph memory
  --max-hops=N        Readback resolution limit

If no file is given, reads from stdin.

Examples:
  echo '@main = (a a)' | hvmc fmt
  # Output: @main = (a a)

  hvmc compile --compress -o fib.hvmc fib.hvm
  hvmc inspect fib.hvmc
  hvmc run fib.hvmc
`)
}

func parseArgs(args []string) cliOptions {
	var opts cliOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--strict":
			opts.strict = true
		case arg == "--verbose":
			opts.verbose = true
		case arg == "--mem-dump":
			opts.memDump = true
		case arg == "--frames":
			opts.frames = true
		case arg == "--compress":
			opts.compress = true
		case arg == "--no-crc":
			opts.noCRC = true
		case arg == "--no-source":
			opts.noSource = true
		case arg == "--raw":
			opts.raw = true
		case arg == "-o":
			if i+1 >= len(args) {
				fatal("-o: missing file name")
			}
			i++
			opts.out = args[i]
		case strings.HasPrefix(arg, "--out="):
			opts.out = strings.TrimPrefix(arg, "--out=")
		case strings.HasPrefix(arg, "--nodes="):
			opts.nodes = parseIntArg(arg, "--nodes=")
		case strings.HasPrefix(arg, "--vars="):
			opts.vars = parseIntArg(arg, "--vars=")
		case strings.HasPrefix(arg, "--max-hops="):
			opts.maxHops = parseIntArg(arg, "--max-hops=")
		case arg == "-":
			opts.fileArg = ""
		case strings.HasPrefix(arg, "-"):
			fatal("unknown flag: %s", arg)
		default:
			opts.fileArg = arg
		}
	}
	return opts
}

// parseIntArg extracts a positive integer from a flag like "--nodes=4096".
func parseIntArg(arg, prefix string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, prefix))
	if err != nil || n <= 0 {
		fatal("%s expects a positive integer", strings.TrimSuffix(prefix, "="))
	}
	return n
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// parseSource parses book text, logs warnings and exits on syntax errors
// with a snippet of the offending line.
func parseSource(src string, opts cliOptions, log *slog.Logger) *ast.Book {
	res, err := ast.Parse(src, ast.ParseOptions{Strict: opts.strict})
	if err != nil {
		var se *ast.SyntaxError
		if errors.As(err, &se) {
			fmt.Fprint(os.Stderr, se.Snippet(src))
		}
		fatal("parse: %v", err)
	}
	for _, w := range res.Warnings {
		log.Warn(w.Message, "pos", w.Pos.String())
	}
	return res.Book
}

func compileSource(src string, opts cliOptions, log *slog.Logger) (*ast.Book, *hvm.Book) {
	book := parseSource(src, opts, log)
	compiled, err := ast.Compile(book)
	if err != nil {
		fatal("compile: %v", err)
	}
	st := compiled.Stats()
	log.Debug("compiled", "defs", st.Defs, "nodes", st.Nodes, "redexes", st.Redexes, "vars", st.Vars)
	return book, compiled
}

func isContainer(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("@frame{"))
}

func readerOptions(opts cliOptions) []stream.ReaderOption {
	if opts.noCRC {
		return []stream.ReaderOption{stream.WithoutCRCVerification()}
	}
	return nil
}

// loadProgram reads a container or compiles book text.
func loadProgram(data []byte, opts cliOptions, log *slog.Logger) *hvm.Book {
	if !isContainer(data) {
		_, book := compileSource(string(data), opts, log)
		return book
	}
	prog, err := stream.ReadProgram(bytes.NewReader(data), readerOptions(opts)...)
	if err != nil {
		fatal("read container: %v", err)
	}
	log.Debug("loaded container", "defs", len(prog.Book.Defs), "source", prog.Source != nil)
	return prog.Book
}

func openOutput(opts cliOptions) (io.Writer, func()) {
	if opts.out == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(opts.out)
	if err != nil {
		fatal("create output: %v", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fatal("close output: %v", err)
		}
	}
}

// cmdFmt: book text -> canonical book text
func cmdFmt(data []byte, opts cliOptions, log *slog.Logger) {
	book := parseSource(string(data), opts, log)
	w, done := openOutput(opts)
	defer done()
	fmt.Fprint(w, book.String())
}

// cmdCheck: parse and compile without writing anything
func cmdCheck(data []byte, opts cliOptions, log *slog.Logger) {
	_, compiled := compileSource(string(data), opts, log)
	st := compiled.Stats()
	fmt.Printf("ok: %d defs, %d nodes, %d redexes, %d vars, %d unsafe\n",
		st.Defs, st.Nodes, st.Redexes, st.Vars, st.Unsafe)
}

// cmdCompile: book text -> container (or raw buffer with --raw)
func cmdCompile(data []byte, opts cliOptions, log *slog.Logger) {
	src, compiled := compileSource(string(data), opts, log)

	w, done := openOutput(opts)
	defer done()

	if opts.raw {
		buf, err := compiled.MarshalBinary()
		if err != nil {
			fatal("serialize: %v", err)
		}
		if _, err := w.Write(buf); err != nil {
			fatal("write: %v", err)
		}
		return
	}

	var wopts []stream.WriterOption
	if !opts.noCRC {
		wopts = append(wopts, stream.WithCRC())
	}
	if opts.compress {
		wopts = append(wopts, stream.WithCompression(zstd.SpeedBestCompression))
	}
	if opts.noSource {
		src = nil
	}
	if err := stream.WriteProgram(w, src, compiled, wopts...); err != nil {
		fatal("write container: %v", err)
	}
}

// cmdInspect: container or raw buffer -> frame listing and decompiled text
func cmdInspect(data []byte, opts cliOptions) {
	var book *hvm.Book
	if isContainer(data) {
		r := stream.NewReader(bytes.NewReader(data), readerOptions(opts)...)
		frames, err := r.ReadAll()
		r.Close()
		for i, f := range frames {
			printFrame(i+1, f)
		}
		if err != nil {
			fatal("frame %d: %v", len(frames)+1, err)
		}
		prog, err := stream.ReadProgram(bytes.NewReader(data), readerOptions(opts)...)
		if err != nil {
			fatal("read container: %v", err)
		}
		book = prog.Book
	} else {
		var err error
		book, err = hvm.UnmarshalBook(data)
		if err != nil {
			fatal("decode buffer: %v", err)
		}
	}

	names := ast.NamesOf(book)
	for id, def := range book.Defs {
		net, err := ast.Decompile(def, names)
		if err != nil {
			fatal("decompile @%s: %v", def.Name, err)
		}
		fmt.Printf("// id=%d safe=%t nodes=%d redexes=%d vars=%d\n",
			id, def.Safe, len(def.Node), len(def.Rbag), def.Vars)
		fmt.Printf("@%s = %s\n", def.Name, net)
	}
}

func printFrame(n int, f *stream.Frame) {
	fmt.Printf("// frame %d: sid=%d seq=%d kind=%s len=%d", n, f.SID, f.Seq, f.Kind, len(f.Payload))
	if f.IsCompressed() {
		fmt.Print(" enc=zstd")
	}
	if f.CRC != nil {
		fmt.Printf(" crc=%08x", *f.CRC)
	}
	if f.Base != nil {
		fmt.Printf(" base=%s", stream.HashToHex(*f.Base)[:12])
	}
	if f.Final {
		fmt.Print(" final")
	}
	fmt.Println()
}

// cmdRun: book text or container -> result
func cmdRun(data []byte, opts cliOptions, log *slog.Logger) {
	book := loadProgram(data, opts, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := engine.Run(ctx, book, engineOptions(opts, log))
	if err != nil {
		fatal("run: %v", err)
	}

	w, done := openOutput(opts)
	defer done()

	if opts.frames {
		writeResultFrames(w, res)
		return
	}
	printResult(w, res)
}

func engineOptions(opts cliOptions, log *slog.Logger) engine.Options {
	eo := engine.DefaultOptions()
	eo.MemDump = opts.memDump
	eo.Logger = log
	if opts.nodes > 0 {
		eo.NodeCapacity = opts.nodes
	}
	if opts.vars > 0 {
		eo.VarCapacity = opts.vars
	}
	if opts.maxHops > 0 {
		eo.Readback.MaxHops = opts.maxHops
	}
	return eo
}

func printResult(w io.Writer, res *engine.Result) {
	if res.ReadbackErr != nil {
		fmt.Fprintf(os.Stderr, "hvmc: readback: %v\n", res.ReadbackErr)
	}
	fmt.Fprintf(w, "Result: %s\n", res.Output)
	fmt.Fprintf(w, "- ITRS: %d\n", res.Iterations)
	fmt.Fprintf(w, "- TIME: %.2fs\n", res.Elapsed.Seconds())
	if secs := res.Elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(w, "- MIPS: %.2f\n", float64(res.Iterations)/secs/1e6)
	}
	if res.Pending > 0 {
		fmt.Fprintf(w, "- PEND: %d\n", res.Pending)
	}
	if res.MemDump != "" {
		fmt.Fprintf(w, "\n%s", res.MemDump)
	}
}

// writeResultFrames emits the result (or the readback error) as a final
// frame on the program stream.
func writeResultFrames(w io.Writer, res *engine.Result) {
	fw := stream.NewWriter(w, stream.WithCRC())
	defer fw.Close()

	var err error
	if res.ReadbackErr != nil {
		err = fw.WriteErr(stream.ProgramSID, 1, res.ReadbackErr.Error())
	} else {
		err = fw.WriteFinal(stream.ProgramSID, 1, stream.KindResult, []byte(res.Output))
	}
	if err != nil {
		fatal("write frames: %v", err)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "hvmc: "+format+"\n", args...)
	os.Exit(1)
}
