package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/qri-io/rrepr"
	"github.com/qri-io/rrepr/zarr"
	"github.com/sirupsen/logrus"
)

const (
	appName     = "rrepr"
	historyFile = ".rrepr_history"
	prompt      = "rrepr> "
)

var helpText = `
Commands:
  <name>      Render a sample of one variable
  (empty)     Render a sample of the whole dataset
  :size N     Draw N positions along every dimension
  :seed N     Fix the seed
  :seed -     Draw a fresh seed on every render
  :quit       Exit
`

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <store-dir> [variable]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Print a small random sample of a zarr dataset as Go source.")
		fmt.Fprintln(os.Stderr)
		fs.PrintDefaults()
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.Usage = usage(fs)
	size := fs.Int("size", 2, "positions drawn along every dimension")
	seed := fs.String("seed", "", "random seed (default: a fresh seed per render)")
	digits := fs.Int("digits", rrepr.DefaultDigits, "decimal places kept in float payloads")
	dropAttrs := fs.Bool("drop-attrs", false, "leave attributes out of the output")
	noClipboard := fs.Bool("no-clipboard", false, "do not copy the output to the clipboard")
	gofmt := fs.String("gofmt", "", "format with this external command instead of go/format")
	verbose := fs.Bool("v", false, "log debug output")
	interactive := fs.Bool("i", false, "start an interactive shell")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 || (*interactive && fs.NArg() != 1) {
		fs.Usage()
		return 2
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := rrepr.DefaultConfig()
	cfg.Size = *size
	cfg.Digits = *digits
	cfg.DropAttrs = *dropAttrs
	if *seed != "" {
		n, err := strconv.ParseInt(*seed, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: invalid seed %q\n", appName, *seed)
			return 2
		}
		cfg.Seed = rrepr.Seed(n)
	}
	if *noClipboard {
		cfg.Clipboard = rrepr.NopClipboard{}
	}
	if *gofmt != "" {
		cfg.Formatter = rrepr.ExecFormatter{Path: *gofmt}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := openStore(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	if *interactive {
		stop()
		return repl(ds, cfg)
	}

	text, err := render(ctx, ds, fs.Arg(1), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	fmt.Print(text)
	return 0
}

func openStore(ctx context.Context, dir string) (*zarr.Dataset, error) {
	store, err := zarr.OpenLocalStore(dir)
	if err != nil {
		return nil, err
	}
	ds, err := zarr.OpenDataset(ctx, store, "")
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"store": dir,
		"sizes": ds.Sizes(),
	}).Debug("opened dataset")
	return ds, nil
}

// render samples the named variable, or the whole dataset when name is empty
func render(ctx context.Context, ds *zarr.Dataset, name string, cfg rrepr.Config) (string, error) {
	var obj zarr.Object = ds
	if name != "" {
		da, err := ds.DataArray(name)
		if err != nil {
			return "", err
		}
		obj = da
	}
	return cfg.RenderContext(ctx, obj)
}

func repl(ds *zarr.Dataset, cfg rrepr.Config) int {
	fmt.Printf("%s: %d data variables, %d coordinates. Type :help for commands.\n",
		appName, len(ds.DataVars()), len(ds.Coords()))

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	names := append(ds.DataVars().Names(), ds.Coords().Names()...)
	ln.SetCompleter(func(line string) (c []string) {
		for _, n := range names {
			if strings.HasPrefix(n, line) {
				c = append(c, n)
			}
		}
		return c
	})

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

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if err != nil {
			// liner.ErrPromptAborted on Ctrl+C
			continue
		}
		line = strings.TrimSpace(line)
		if line != "" {
			ln.AppendHistory(line)
		}

		if strings.HasPrefix(line, ":") {
			if done := command(&cfg, line); done {
				return 0
			}
			continue
		}

		text, err := render(context.Background(), ds, line, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Print(text)
	}
}

// command applies a shell command to cfg, reporting whether the shell should
// exit
func command(cfg *rrepr.Config, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Print(helpText)
	case ":size":
		if len(fields) != 2 {
			fmt.Fprintln(os.Stderr, red("usage: :size N"))
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			fmt.Fprintln(os.Stderr, red("size must be a positive integer"))
			return false
		}
		cfg.Size = n
	case ":seed":
		if len(fields) != 2 {
			fmt.Fprintln(os.Stderr, red("usage: :seed N | :seed -"))
			return false
		}
		if fields[1] == "-" {
			cfg.Seed = nil
			return false
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Fprintln(os.Stderr, red("seed must be an integer"))
			return false
		}
		cfg.Seed = rrepr.Seed(n)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s. Type :help for commands.\n", fields[0])
	}
	return false
}
