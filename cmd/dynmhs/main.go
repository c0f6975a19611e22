// Command dynmhs runs the policy routing reconciliation daemon described in
// the package's internal/engine: it keeps per-interface custom routing
// tables in sync with the kernel's main table and maintains source-address
// routing rules for every managed interface's addresses.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/simula/dynmhs/internal/config"
	"github.com/simula/dynmhs/internal/engine"
	"github.com/simula/dynmhs/internal/reconciler"
	"github.com/simula/dynmhs/internal/rtlog"
)

// isTerminal reports whether fd refers to a terminal, used to pick
// -logcolor's default the way isatty checks normally do. x/sys/unix has no
// IsTerminal helper, but IoctlGetTermios succeeding iff fd is a tty is the
// standard substitute.
func isTerminal(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	return err == nil
}

// version, commit, and date are set by the release build via
// -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// networkFlags collects repeated -network iface:table occurrences, per §6's
// configuration surface.
type networkFlags []string

func (n *networkFlags) String() string {
	return fmt.Sprint([]string(*n))
}

func (n *networkFlags) Set(value string) error {
	*n = append(*n, value)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		networks   networkFlags
		configPath string
		verbose    bool
		logFile    string
		logColor   bool
		showVer    bool
	)

	fs := flag.NewFlagSet("dynmhs", flag.ContinueOnError)
	fs.Var(&networks, "network", "interface:table mapping, may be repeated (e.g. eth0:1000)")
	fs.StringVar(&configPath, "config", "", "path to a configuration file with NETWORK/NETWORK1..5 entries")
	fs.BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	fs.StringVar(&logFile, "logfile", "", "write logs to this file instead of stdout/stderr")
	fs.BoolVar(&logColor, "logcolor", isTerminal(int(os.Stderr.Fd())), "use ANSI color escape sequences for log output (default: auto-detected from stderr)")
	fs.BoolVar(&showVer, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Dynamic Multi-Homing Setup (dynmhs)\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 1
		}
		fmt.Fprintf(os.Stderr, "dynmhs: %v\n", err)
		return 1
	}

	if showVer {
		fmt.Printf("dynmhs %s (commit %s, built %s)\n", version, commit, date)
		return 0
	}

	rtlog.SetVerbose(verbose)
	rtlog.SetColor(logColor)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dynmhs: opening logfile: %v\n", err)
			return 1
		}
		defer f.Close()
		rtlog.SetOutput(f)
		rtlog.SetErrorOutput(f)
	}

	mapping, err := loadMapping(configPath, networks)
	if err != nil {
		rtlog.Errorf("dynmhs: %v", err)
		return 1
	}
	rtlog.Infof("dynmhs: managing %d interface(s)", mapping.Len())

	recon := reconciler.New(mapping)
	e, err := engine.New(recon)
	if err != nil {
		rtlog.Errorf("dynmhs: %v", err)
		return 1
	}

	if err := e.Bootstrap(); err != nil {
		rtlog.Errorf("dynmhs: bootstrap: %v", err)
		e.Teardown()
		return 1
	}

	runErr := e.Run()
	if teardownErr := e.Teardown(); teardownErr != nil {
		rtlog.Errorf("dynmhs: teardown: %v", teardownErr)
		return 1
	}
	if runErr != nil {
		rtlog.Errorf("dynmhs: %v", runErr)
		return 1
	}

	return 0
}

// loadMapping merges a configuration file's NETWORK/NETWORK1..5 entries with
// repeated -network flags (file entries first, then flags; the two are
// simply concatenated, and a duplicate between them is rejected by
// config.NewMapping) and validates the result.
func loadMapping(configPath string, networks networkFlags) (*config.Mapping, error) {
	var entries []config.NetworkMapping

	if configPath != "" {
		fileEntries, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		entries = append(entries, fileEntries...)
	}

	for _, raw := range networks {
		m, err := config.ParseMappingArg(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing -network %q: %w", raw, err)
		}
		entries = append(entries, m)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no interface mappings given (use -network or -config)")
	}

	return config.NewMapping(entries)
}
