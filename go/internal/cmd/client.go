package main

import (
	"context"
	"fmt"
	"io"

	"github.com/christianlegge/waybar-timer/go/internal/config"
	"github.com/christianlegge/waybar-timer/go/internal/rpc"
)

func newClient(cfg config.Config) *rpc.Client {
	return rpc.NewClient(cfg.CommandsSocket)
}

// runHook copies status lines from the service to out until it disconnects.
func runHook(ctx context.Context, cfg config.Config, out io.Writer) error {
	return rpc.Follow(ctx, cfg.UpdatesSocket, out)
}

func runStatus(ctx context.Context, cfg config.Config, out io.Writer) error {
	line, err := rpc.ReadStatus(ctx, cfg.UpdatesSocket)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, line)
	return err
}
