package reqcontext

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("reqcontext")

// ReqContext returns the context for a cli command. It is cancelled on the
// first SIGINT, SIGTERM or SIGHUP so long-running searches stop cleanly.
// The returned stop func releases the signal handler.
func ReqContext(cctx *cli.Context) (context.Context, context.CancelFunc) {
	parent := context.Background()
	if cctx != nil && cctx.Context != nil {
		parent = cctx.Context
	}

	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warnw("received signal, cancelling", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
