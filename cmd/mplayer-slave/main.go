// Command mplayer-slave starts MPlayer in slave mode and drives it from an
// interactive prompt.
//
//	mplayer-slave [flags] [file ...]
//
// Configuration is read from $XDG_CONFIG_HOME/mplayer-slave/config.toml (or
// --config), MPLAYER_SLAVE_* environment variables and flags, in increasing
// precedence.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	flag "github.com/spf13/pflag"

	slave "github.com/luhtfiimanal/go-mplayer-slave"
)

// version is overridable at link time:
//
//	go build -ldflags "-X main.version=1.1.0"
var version = "0.1.0"

const quitGrace = 3 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

// cliFlags are the flags that do not map onto Config keys.
type cliFlags struct {
	verbose     *int
	printConfig *bool
	showVersion *bool
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, cliFlags) {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.String("config", "", "Config file (default $XDG_CONFIG_HOME/mplayer-slave/config.toml)")
	fs.String("mplayer", slave.DefaultPlayer, "Player binary")
	fs.Duration("timeout", slave.DefaultResponseTimeout, "Reply timeout; negative waits indefinitely")
	fs.String("log-level", "warn", "Log level: debug, info, warn, error")

	return fs, cliFlags{
		verbose:     fs.CountP("verbose", "v", "Increase verbosity (repeatable)"),
		printConfig: fs.Bool("print-config", false, "Print the effective configuration as TOML and exit"),
		showVersion: fs.Bool("version", false, "Print version and exit"),
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs, opts := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *opts.showVersion {
		fmt.Fprintf(stdout, "%s %s\n", appName, version)
		return nil
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}
	if *opts.printConfig {
		out, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = stdout.Write(out)
		return err
	}

	logger, err := newLogger(stderr, cfg.Log.Level, *opts.verbose)
	if err != nil {
		return err
	}

	p, err := slave.Start(slave.Config{
		Path:            cfg.Player.Path,
		Args:            append(append([]string{}, cfg.Player.Args...), fs.Args()...),
		ResponseTimeout: time.Duration(cfg.Timing.ResponseTimeout),
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), quitGrace)
		defer cancel()
		if err := p.Quit(ctx); err != nil {
			logger.Debug("player exit", "err", err)
		}
	}()

	editor := NewLineEditor(cfg.REPL.HistoryFile, cfg.REPL.HistorySize, stderr)
	defer editor.Close()

	return newREPL(p, stdout).run(editor)
}

// newLogger writes text logs to w. Each -v lowers the configured level by
// one step (warn, info, debug).
func newLogger(w io.Writer, level string, verbose int) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	lvl -= slog.Level(4 * verbose)
	if lvl < slog.LevelDebug {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
