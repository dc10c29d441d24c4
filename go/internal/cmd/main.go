package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `Usage: waybar-timer [-config path] <command> [args]

Commands:
  serve                 run the timer service
  hook                  stream status lines to stdout (for waybar's exec)
  new [command...]      start a timer; command runs through the shell on expiry
  increase <seconds>    add time to the active timer
  decrease <seconds>    remove time from the active timer
  togglepause           pause or resume the active timer
  skip                  end the active timer now
  cancel                drop the active timer; on an idle timer, reset the cycle count
  status                print the current status line once
  version               print the version
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "waybar-timer: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("waybar-timer", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := flags.String("config", "", "config file (default $XDG_CONFIG_HOME/waybar-timer/config.yaml)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flags.Args()
	if len(rest) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	name, rest := rest[0], rest[1:]

	if name == "version" {
		fmt.Fprintln(stdout, version)
		return nil
	}

	cfg, err := setup(*configPath, name == "serve", stderr)
	if err != nil {
		return err
	}

	switch name {
	case "serve":
		if err := noArgs(name, rest); err != nil {
			return err
		}
		return runServe(ctx, cfg)
	case "hook":
		if err := noArgs(name, rest); err != nil {
			return err
		}
		return runHook(ctx, cfg, stdout)
	case "status":
		if err := noArgs(name, rest); err != nil {
			return err
		}
		return runStatus(ctx, cfg, stdout)
	case "new":
		return newClient(cfg).Start(ctx, strings.Join(rest, " "))
	case "increase", "decrease":
		seconds, err := parseSeconds(name, rest)
		if err != nil {
			return err
		}
		if name == "decrease" {
			return newClient(cfg).Decrease(ctx, seconds)
		}
		return newClient(cfg).Increase(ctx, seconds)
	case "togglepause":
		if err := noArgs(name, rest); err != nil {
			return err
		}
		return newClient(cfg).TogglePause(ctx)
	case "skip":
		if err := noArgs(name, rest); err != nil {
			return err
		}
		return newClient(cfg).Skip(ctx)
	case "cancel":
		if err := noArgs(name, rest); err != nil {
			return err
		}
		return newClient(cfg).Cancel(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func noArgs(name string, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: %s takes no arguments", errUsage, name)
	}
	return nil
}

// parseSeconds reads the single non-negative seconds argument of increase and decrease.
func parseSeconds(name string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s takes exactly one argument", errUsage, name)
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: seconds must be a non-negative integer, got %q", errUsage, name, args[0])
	}
	return int64(n), nil
}
