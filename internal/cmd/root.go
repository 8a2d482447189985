package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"

	"github.com/offlinefirst/tactile/internal/buildinfo"
	"github.com/offlinefirst/tactile/pkg/config"
	"github.com/offlinefirst/tactile/pkg/logging"
)

// configEnv names a config file when --config is not given.
const configEnv = "TACTILE_CONFIG"

type command struct {
	name        string
	usage       string
	description string
	configure   func(fs *flag.FlagSet)
	run         func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error
	// skipInit commands run without loading config or building a logger.
	skipInit bool
}

// AppContext carries the resolved configuration and logger into a command.
type AppContext struct {
	Config config.Config
	Logger *slog.Logger
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (g *globalFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "Path to config file (default: $"+configEnv+", then ./config.yaml if present)")
	fs.StringVar(&g.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	fs.StringVar(&g.logFormat, "log-format", "", "Override log output format (json, console)")
}

// RootCommand dispatches to the registered subcommands.
type RootCommand struct {
	commands map[string]command
	stdout   io.Writer
	stderr   io.Writer
	lookup   func(string) (string, bool)
	flags    globalFlags
	appCtx   *AppContext
}

// NewRootCommand builds the tactile CLI.
func NewRootCommand() *RootCommand {
	rc := &RootCommand{
		commands: make(map[string]command),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		lookup:   os.LookupEnv,
	}
	for _, c := range []command{
		newRunCommand(),
		newReplayCommand(),
		newRecordCommand(),
		newPatternsCommand(),
		newDoctorCommand(),
		newVersionCommand(),
	} {
		rc.commands[c.name] = c
	}
	return rc
}

// Execute parses global flags and runs the selected subcommand.
func (rc *RootCommand) Execute(args []string) error {
	global := flag.NewFlagSet("tactile", flag.ContinueOnError)
	global.SetOutput(rc.stderr)
	global.Usage = rc.printHelp
	rc.flags.bind(global)

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		rc.printHelp()
		return nil
	}
	if rest[0] == "help" {
		return rc.help(rest[1:])
	}

	sub, ok := rc.commands[rest[0]]
	if !ok {
		fmt.Fprintf(rc.stderr, "Unknown command %q\n\n", rest[0])
		rc.printHelp()
		return fmt.Errorf("unknown command %q", rest[0])
	}

	fs := rc.flagSet(sub)
	if err := fs.Parse(rest[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	var ctx *AppContext
	if !sub.skipInit {
		var err error
		if ctx, err = rc.ensureAppContext(); err != nil {
			fmt.Fprintf(rc.stderr, "error: %v\n", err)
			return err
		}
		defer logging.Shutdown()
	}

	err := sub.run(fs, fs.Args(), ctx, rc.stdout, rc.stderr)
	if err == nil {
		return nil
	}
	if ctx != nil {
		ctx.Logger.Error("command failed", "command", sub.name, "error", err)
	} else {
		fmt.Fprintf(rc.stderr, "error: %v\n", err)
	}
	return err
}

func (rc *RootCommand) flagSet(sub command) *flag.FlagSet {
	fs := flag.NewFlagSet(sub.name, flag.ContinueOnError)
	fs.SetOutput(rc.stderr)
	fs.Usage = func() {
		fmt.Fprintf(rc.stdout, "Usage: tactile %s [flags]%s\n", sub.name, sub.usage)
		if sub.description != "" {
			fmt.Fprintln(rc.stdout, sub.description)
		}
		fs.SetOutput(rc.stdout)
		fs.PrintDefaults()
		fs.SetOutput(rc.stderr)
	}
	if sub.configure != nil {
		sub.configure(fs)
	}
	return fs
}

func (rc *RootCommand) help(args []string) error {
	if len(args) == 0 {
		rc.printHelp()
		return nil
	}
	sub, ok := rc.commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	rc.flagSet(sub).Usage()
	return nil
}

func (rc *RootCommand) ensureAppContext() (*AppContext, error) {
	if rc.appCtx != nil {
		return rc.appCtx, nil
	}

	path := rc.flags.configPath
	if path == "" && rc.lookup != nil {
		path, _ = rc.lookup(configEnv)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if rc.flags.logLevel != "" {
		if cfg.Logging.Level, err = config.NormalizeLogLevel(rc.flags.logLevel); err != nil {
			return nil, err
		}
	}
	if rc.flags.logFormat != "" {
		if cfg.Logging.Format, err = config.NormalizeFormat(rc.flags.logFormat); err != nil {
			return nil, err
		}
	}

	logger, err := logging.New(logging.FromConfig(cfg.Logging, rc.stderr))
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "origin", cfg.Origin, "source", cfg.Source.Kind, "actuator", cfg.Actuator.Kind)

	rc.appCtx = &AppContext{Config: cfg, Logger: logger}
	return rc.appCtx, nil
}

func (rc *RootCommand) printHelp() {
	fmt.Fprintf(rc.stdout, "tactile %s\nGesture driven haptic feedback for trackpads.\n\n", versionString())
	fmt.Fprintln(rc.stdout, "Usage: tactile [global flags] <command> [command flags]")
	fmt.Fprintln(rc.stdout, "       tactile help <command>")
	fmt.Fprintln(rc.stdout, "\nGlobal flags:")
	global := flag.NewFlagSet("tactile", flag.ContinueOnError)
	global.SetOutput(rc.stdout)
	new(globalFlags).bind(global)
	global.PrintDefaults()

	fmt.Fprintln(rc.stdout, "\nCommands:")
	names := make([]string, 0, len(rc.commands))
	for name := range rc.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(rc.stdout, "  %-10s %s\n", name, rc.commands[name].description)
	}
}

func versionString() string {
	v := buildinfo.Version()
	if commit := buildinfo.Commit(); commit != "" {
		v += "+" + commit
	}
	return fmt.Sprintf("%s (%s %s/%s)", v, runtimeVersion(), runtimeGOOS(), runtimeGOARCH())
}

// Swapped in tests.
var (
	runtimeVersion = runtime.Version
	runtimeGOOS    = func() string { return runtime.GOOS }
	runtimeGOARCH  = func() string { return runtime.GOARCH }
)
