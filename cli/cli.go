// Package cli implements lazyvolet's command-line surface: hand-rolled
// subcommand dispatch over os.Args plus one flag.FlagSet per subcommand,
// the same shape the teacher's cmd/main.go uses (os.Args[1] picks the
// subcommand, flag.NewFlagSet parses what follows) rather than reaching
// for a CLI framework neither the teacher nor any other pack repo pulls
// in.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cloudflare/tableflip"

	"github.com/dragonium-labs/lazyvolet/banlist"
	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/logging"
	"github.com/dragonium-labs/lazyvolet/metrics"
	"github.com/dragonium-labs/lazyvolet/proxy"
	"github.com/dragonium-labs/lazyvolet/server"
	"github.com/dragonium-labs/lazyvolet/state"
)

// Exit codes, per spec.md §6: clean, config/arg error, runtime failure,
// interactive interrupt.
const (
	ExitOK        = 0
	ExitUsage     = 1
	ExitRuntime   = 2
	ExitInterrupt = 130
)

const versionString = "lazyvolet 0.1.0"

const usage = `lazyvolet - a sleep/wake proxy for a Minecraft Java Edition server

Usage:
  lazyvolet start [--config PATH] [-v|--verbose] [--pid-file PATH]
  lazyvolet config generate [--path PATH] [--force]
  lazyvolet config test [--config PATH]
  lazyvolet --help
  lazyvolet --version`

// shutdownGrace is how long a running session task is given to finish
// before the process moves on to stopping the backend, matching
// spec.md §5's "in-flight sessions are given a short grace period"
// before the supervisor's graceful stop.
const shutdownGrace = 2 * time.Second

// Run dispatches args (os.Args[1:]) and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return ExitUsage
	}

	switch args[0] {
	case "--help", "-h", "help":
		fmt.Fprintln(stdout, usage)
		return ExitOK
	case "--version", "-V":
		fmt.Fprintln(stdout, versionString)
		return ExitOK
	case "start":
		return runStart(args[1:], stderr)
	case "config":
		return runConfig(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s\n", args[0], usage)
		return ExitUsage
	}
}

func runConfig(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return ExitUsage
	}
	switch args[0] {
	case "generate":
		return runConfigGenerate(args[1:], stdout, stderr)
	case "test":
		return runConfigTest(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown config subcommand %q\n", args[0])
		return ExitUsage
	}
}

func runConfigGenerate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", config.MainConfigFileName, "`path` to write the new config file to")
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if err := config.WriteDefault(*path, *force); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	fmt.Fprintf(stdout, "wrote default config to %s\n", *path)
	return ExitOK
}

func runConfigTest(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config test", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", config.MainConfigFileName, "`path` to the config file to check")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	warnings, err := config.Verify(cfg)
	for _, w := range warnings {
		fmt.Fprintf(stdout, "warning: %v\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	fmt.Fprintln(stdout, "config ok")
	return ExitOK
}

func runStart(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", config.MainConfigFileName, "`path` to the config file")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.BoolVar(verbose, "verbose", false, "verbose logging")
	pidFile := fs.String("pid-file", "", "`path` to a PID file, used for tableflip upgrades")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if *verbose {
		logging.SetVerbosity(logging.LevelDebug)
	}

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}
	if _, err := config.Verify(cfg); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitUsage
	}

	return start(cfg, *path, *pidFile, stderr)
}

// start brings up the listener, the supervisor, and the client session
// handler, then blocks until a shutdown signal arrives. Grounded on the
// teacher's root main.go: tableflip.New/Listen/Ready/Upgrade for
// SIGHUP-triggered hot swaps, plain signal.Notify for SIGINT/SIGTERM.
func start(cfg config.Config, cfgPath, pidFile string, stderr io.Writer) int {
	log := logging.New("lazyvolet")

	hotSwap := cfg.Advanced.HotSwap && runtime.GOOS != "windows"

	var upg *tableflip.Upgrader
	var ln net.Listener
	var err error

	if hotSwap {
		upg, err = tableflip.New(tableflip.Options{PIDFile: pidFile})
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return ExitRuntime
		}
		defer upg.Stop()
		ln, err = upg.Listen("tcp", cfg.Public.Address)
	} else {
		ln, err = net.Listen("tcp", cfg.Public.Address)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: listening on %s: %v\n", cfg.Public.Address, err)
		return ExitRuntime
	}
	defer ln.Close()

	st := state.New()
	defer st.Close()

	sup := server.New(cfg, st, log.Logf)
	defer sup.Close()

	bans := banlist.New()
	if cfg.Server.DropBannedIPs {
		watcher, err := banlist.Watch(cfg.Server.Directory, bans)
		if err != nil {
			log.Warnf("banlist watch failed, continuing without ban enforcement: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	proxyLog := logging.New("lazyvolet::proxy")
	handler := &proxy.Handler{Config: cfg, State: st, Supervisor: sup, Bans: bans, Logf: proxyLog.Logf}

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	defer cancelMonitor()
	go sup.RunMonitor(monitorCtx)

	if cfg.Server.WakeOnStart {
		sup.Wake()
	}

	go proxy.Serve(ln, handler.Handle, proxyLog.Logf)

	if cfg.Advanced.MetricsBind != "" {
		go func() {
			if err := metrics.Serve(cfg.Advanced.MetricsBind); err != nil {
				log.Warnf("metrics server stopped: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	notified := []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	if hotSwap {
		notified = append(notified, syscall.SIGHUP)
	}
	signal.Notify(sig, notified...)

	log.Infof("ready, listening on %s", cfg.Public.Address)
	if hotSwap {
		if err := upg.Ready(); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return ExitRuntime
		}
	}

	interrupted := waitForShutdown(sig, upg, cfgPath, log)

	ln.Close()
	time.Sleep(shutdownGrace)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), cfg.Server.StopTimeoutDuration()+shutdownGrace)
	defer cancelStop()
	if st.Lifecycle() == state.Started || st.Lifecycle() == state.Frozen {
		if err := sup.RequestStop(stopCtx); err != nil {
			log.Warnf("graceful stop failed: %v", err)
			if interrupted {
				return ExitInterrupt
			}
			return ExitRuntime
		}
	}

	if interrupted {
		return ExitInterrupt
	}
	return ExitOK
}

// waitForShutdown blocks until this process should stop running: an
// interactive SIGINT/SIGTERM, or (when hot swap is enabled) losing the
// listening socket to a successful tableflip.Upgrade triggered by
// SIGHUP, mirroring the teacher's root main.go blocking on <-upg.Exit()
// after its own SIGHUP handler calls Upgrade. Returns whether the
// shutdown was an interactive interrupt.
func waitForShutdown(sig <-chan os.Signal, upg *tableflip.Upgrader, cfgPath string, log *logging.Logger) bool {
	var exitCh <-chan struct{}
	if upg != nil {
		exitCh = upg.Exit()
	}
	for {
		select {
		case s := <-sig:
			if s == syscall.SIGHUP {
				newCfg, err := config.Load(cfgPath)
				if err != nil {
					log.Warnf("reload: %v", err)
					continue
				}
				if _, err := config.Verify(newCfg); err != nil {
					log.Warnf("reload: invalid config, not upgrading: %v", err)
					continue
				}
				if err := upg.Upgrade(); err != nil {
					log.Warnf("upgrade failed: %v", err)
				}
				continue
			}
			return s == syscall.SIGINT
		case <-exitCh:
			return false
		}
	}
}
