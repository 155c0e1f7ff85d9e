package reqcontext

import (
	"context"
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestReqContextStop(t *testing.T) {
	app := cli.NewApp()
	cctx := cli.NewContext(app, flag.NewFlagSet("test", flag.ContinueOnError), nil)

	ctx, stop := ReqContext(cctx)
	require.NoError(t, ctx.Err())

	stop()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestReqContextInheritsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cctx := cli.NewContext(cli.NewApp(), flag.NewFlagSet("test", flag.ContinueOnError), nil)
	cctx.Context = parent

	ctx, stop := ReqContext(cctx)
	defer stop()

	cancel()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
