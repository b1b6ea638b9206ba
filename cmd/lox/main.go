// Command lox is the interpreter's CLI driver: an interactive REPL with
// no arguments, or a single-file run with one.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"loxgo/internal/evaluator"
	"loxgo/internal/lexer"
	"loxgo/internal/natives"
	"loxgo/internal/object"
	"loxgo/internal/parser"
	"loxgo/internal/resolver"
	"loxgo/internal/util"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

var (
	help         bool
	version      bool
	logLevel     string
	logFile      string
	enableDB     bool
	enableCrypto bool
	enableConfig bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")

	flag.StringVar(&logLevel, "log-level", "none", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")

	flag.BoolVar(&enableDB, "enable-db", false, "Register the db_open/db_query/db_exec/db_close natives")
	flag.BoolVar(&enableCrypto, "enable-crypto", false, "Register the sha256/hmac_sha256/sign/verify natives")
	flag.BoolVar(&enableConfig, "enable-config", false, "Register the load_toml native")
}

func main() {
	flag.Parse()

	if version {
		fmt.Printf("lox version 'v%s' %s %s\n", Version, BuildDate, Commit)
		return
	}
	if help {
		printHelp()
		return
	}

	logWriter := configureLogWriter()
	slog.SetDefault(slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level: logLevelFromString(logLevel),
	})))

	cfg := &util.Configuration{
		Version:      Version,
		BuildDate:    BuildDate,
		Commit:       Commit,
		LoxHome:      os.Getenv("LOX_HOME"),
		LogLevel:     logLevel,
		LogFile:      logFile,
		EnableDB:     enableDB,
		EnableCrypto: enableCrypto,
		EnableConfig: enableConfig,
	}

	args := flag.Args()
	switch len(args) {
	case 0:
		runREPL(cfg)
	case 1:
		os.Exit(runFile(cfg, args[0]))
	default:
		fmt.Fprintln(os.Stderr, "Usage: lox [script]")
		os.Exit(64)
	}
}

// runFile scans, parses, resolves, and interprets one source file.
// Exit code 65 on a lex/parse/resolve error, 70 on a runtime error, 0 on
// success.
func runFile(cfg *util.Configuration, path string) int {
	if err := cfg.LoadFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "lox.toml: %v\n", err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't read '%s': %v\n", path, err)
		return 74
	}

	eval := newEvaluator(cfg)
	return run(eval, string(source), os.Stdout)
}

// runREPL runs one lexer/parser/resolver/evaluator pass per line, the
// way the teacher's bufio.Scanner loop does; each line's static errors
// are independent of the next's.
func runREPL(cfg *util.Configuration) {
	cfg.LoadFile("")
	eval := newEvaluator(cfg)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		run(eval, scanner.Text(), os.Stdout)
	}
}

func newEvaluator(cfg *util.Configuration) *evaluator.Evaluator {
	eval := evaluator.New(nil)
	eval.SetSweepEveryNExits(cfg.GCSweepEveryNExits)
	natives.RegisterCore(eval.Globals)
	if cfg.EnableDB {
		natives.RegisterDB(eval.Globals)
	}
	if cfg.EnableCrypto {
		natives.RegisterCrypto(eval.Globals)
	}
	if cfg.EnableConfig {
		natives.RegisterConfig(eval.Globals)
	}
	return eval
}

// run scans, parses, resolves, and - only if no static error was
// reported - interprets source, returning the process exit code per
// the external-interface contract.
func run(eval *evaluator.Evaluator, source string, out io.Writer) int {
	tokens, lexErrs := lexer.ScanTokens(source)
	for _, e := range lexErrs {
		fmt.Fprintln(os.Stderr, e.Error())
	}

	p := parser.New(tokens)
	statements, parseErrs := p.Parse()
	for _, e := range parseErrs {
		fmt.Fprintln(os.Stderr, e.Error())
	}

	if len(lexErrs) > 0 || len(parseErrs) > 0 {
		return 65
	}

	res := resolver.New()
	locals, resolveErrs := res.Resolve(statements)
	for _, e := range resolveErrs {
		fmt.Fprintf(os.Stderr, "[line %d] Error: %s\n", e.Line, e.Message)
	}
	if len(resolveErrs) > 0 {
		return 65
	}

	eval.SetLocals(locals)
	eval.Print = func(s string) { fmt.Fprintln(out, s) }

	if err := eval.Interpret(statements); err != nil {
		switch e := err.(type) {
		case *object.NativeError:
			fmt.Fprintln(os.Stderr, e.Error())
		case *object.RuntimeError:
			fmt.Fprintln(os.Stderr, e.Error())
		default:
			fmt.Fprintln(os.Stderr, err.Error())
		}
		return 70
	}
	return 0
}

func configureLogWriter() *os.File {
	if logFile == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	return f
}

func logLevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError + 1 // "none": above Error, nothing logs
	}
}

func printHelp() {
	fmt.Println("Usage: lox [options] [script]")
	flag.PrintDefaults()
}
