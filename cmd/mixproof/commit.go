package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/deps/config"
	"github.com/filecoin-project/mixproof/lib/challenge"
	"github.com/filecoin-project/mixproof/lib/mixhash"
	"github.com/filecoin-project/mixproof/lib/proof"
	"github.com/filecoin-project/mixproof/lib/reqcontext"
)

var commitCmd = &cli.Command{
	Name:      "commit",
	Usage:     "Compute the mix hash of a file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "tree-out",
			Usage: "write the layered tree snapshot to this path",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return xerrors.Errorf("expected 1 argument, got %d", cctx.NArg())
		}
		cfg := getConfig(cctx)
		ctx, stop := reqcontext.ReqContext(cctx)
		defer stop()

		h, err := cfg.Proof.Hasher()
		if err != nil {
			return err
		}

		c, err := challenge.CommitFile(ctx, h, cctx.Args().First(), cfg.Proof.ChunkSize, cfg.Challenge.Parallelism)
		if err != nil {
			return err
		}

		if out := cctx.String("tree-out"); out != "" {
			if err := writeJSONFile(out, c.Tree.Dump()); err != nil {
				return err
			}
			log.Infow("wrote tree snapshot", "path", out, "leaves", c.Tree.LeafCount())
		}

		fmt.Printf("Mix hash: %s\n", color.GreenString(c.Mix.String()))
		fmt.Printf("Length:   %d (%s)\n", c.Length, humanize.IBytes(uint64(c.Length)))
		fmt.Printf("Chunks:   %d x %s\n", c.Tree.LeafCount(), humanize.IBytes(uint64(c.ChunkSize)))
		fmt.Printf("Hash:     %s\n", h.Type)
		return nil
	},
}

var lengthCmd = &cli.Command{
	Name:      "length",
	Usage:     "Decode the file length and hash type of a mix hash",
	ArgsUsage: "<mixhash>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return xerrors.Errorf("expected 1 argument, got %d", cctx.NArg())
		}
		m, err := mixhash.Parse(cctx.Args().First())
		if err != nil {
			return err
		}
		t, length, suffix, err := mixhash.Decode(m)
		if err != nil {
			return err
		}

		fmt.Printf("Length: %d (%s)\n", length, humanize.IBytes(length))
		fmt.Printf("Hash:   %s\n", t)
		fmt.Printf("Root:   %s\n", proof.Digest(suffix[:]))
		return nil
	},
}

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "Inspect configuration",
	Subcommands: []*cli.Command{
		{
			Name:  "default",
			Usage: "Print the default configuration",
			Action: func(cctx *cli.Context) error {
				out, err := config.Render(config.DefaultConfig())
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(out)
				return err
			},
		},
		{
			Name:  "show",
			Usage: "Print the effective configuration, defaults and overrides applied",
			Action: func(cctx *cli.Context) error {
				out, err := config.Render(getConfig(cctx))
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(out)
				return err
			},
		},
	},
}
