package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/Neumenon/hvmc/ast"
	"github.com/Neumenon/hvmc/engine"
)

const (
	historyFile = ".hvmc_history"
	promptMain  = "hvmc> "
	promptCont  = "..... "
	replBanner  = "hvmc " + libVersion + " - enter definitions (@name = net) or a net to run. :help for commands."
)

// session is the state of one interactive session: the definitions entered
// so far and how to run them.
type session struct {
	book *ast.Book
	opts engine.Options
}

func newSession(opts engine.Options) *session {
	return &session{book: ast.NewBook(), opts: opts}
}

// isDefinition reports whether src starts with "@name =".
func isDefinition(src string) bool {
	s := strings.TrimSpace(src)
	if !strings.HasPrefix(s, "@") {
		return false
	}
	s = s[1:]
	end := strings.IndexFunc(s, func(r rune) bool { return !ast.IsValidName(string(r)) })
	if end <= 0 {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(s[end:]), "=")
}

// probe parses src the way eval would and returns the parse error, if any.
func probe(src string) error {
	if isDefinition(src) {
		_, err := ast.ParseBook(src)
		return err
	}
	_, err := ast.ParseNet(src)
	return err
}

// eval handles one complete input: definitions are added to the session,
// a command is executed, anything else is run as the body of @main.
func (s *session) eval(ctx context.Context, src string) (string, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return "", nil
	case strings.HasPrefix(src, ":"):
		return s.command(ctx, src)
	case isDefinition(src):
		return s.define(src)
	}

	net, err := ast.ParseNet(src)
	if err != nil {
		return "", err
	}
	book := ast.NewBook()
	for _, name := range s.book.Names() {
		def, _ := s.book.Get(name)
		book.Define(name, def)
	}
	book.Define(ast.MainName, net)
	return s.run(ctx, book)
}

func (s *session) define(src string) (string, error) {
	res, err := ast.Parse(src, ast.ParseOptions{})
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, w := range res.Warnings {
		fmt.Fprintf(&out, "warning: %s\n", w)
	}
	for _, name := range res.Book.Names() {
		net, _ := res.Book.Get(name)
		if s.book.Define(name, net) {
			fmt.Fprintf(&out, "redefined @%s\n", name)
		} else {
			fmt.Fprintf(&out, "defined @%s\n", name)
		}
	}
	return strings.TrimSuffix(out.String(), "\n"), nil
}

func (s *session) command(ctx context.Context, cmd string) (string, error) {
	switch strings.ToLower(cmd) {
	case ":help":
		return ":book   show definitions\n:run    run @main\n:reset  forget all definitions\n:quit   leave", nil
	case ":book":
		return strings.TrimSuffix(s.book.String(), "\n"), nil
	case ":reset":
		s.book = ast.NewBook()
		return "", nil
	case ":run":
		return s.run(ctx, s.book)
	}
	return "", fmt.Errorf("unknown command %s. Type :help for a list", cmd)
}

func (s *session) run(ctx context.Context, book *ast.Book) (string, error) {
	compiled, err := ast.Compile(book)
	if err != nil {
		return "", err
	}
	res, err := engine.Run(ctx, compiled, s.opts)
	if err != nil {
		return "", err
	}
	if res.ReadbackErr != nil {
		return "", res.ReadbackErr
	}
	return res.Output, nil
}

func cmdRepl(opts cliOptions) int {
	fmt.Println(replBanner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := newSession(engineOptions(opts, newLogger(opts.verbose)))
	ctx := context.Background()

	for {
		src, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		src = strings.TrimSpace(src)
		if strings.EqualFold(src, ":quit") {
			return 0
		}

		out, err := s.eval(ctx, src)
		if err != nil {
			var se *ast.SyntaxError
			if errors.As(err, &se) {
				fmt.Fprint(os.Stderr, se.Snippet(src))
			}
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
		if src != "" {
			ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		}
	}
}

// readByParseProbe keeps prompting while the text read so far is an
// incomplete book or net.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if trimmed := strings.TrimSpace(src); trimmed == "" || strings.HasPrefix(trimmed, ":") {
			return src, true
		}
		if err := probe(src); err != nil && ast.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}
