package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/hako/durafmt"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/deps/config"
	"github.com/filecoin-project/mixproof/lib/challenge"
	"github.com/filecoin-project/mixproof/lib/chunker"
	"github.com/filecoin-project/mixproof/lib/mixhash"
	"github.com/filecoin-project/mixproof/lib/noncesrc"
	"github.com/filecoin-project/mixproof/lib/proof"
	"github.com/filecoin-project/mixproof/lib/reqcontext"
)

var proveCmd = &cli.Command{
	Name:      "prove",
	Usage:     "Answer a challenge against a committed file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mix",
			Usage: "mix hash the challenge targets, defaults to the file's own commitment",
		},
		&cli.StringFlag{
			Name:  "nonce",
			Usage: "challenge nonce as 0x-prefixed hex",
		},
		&cli.Uint64Flag{
			Name:  "height",
			Usage: "take the nonce from the hash of the block at this height",
		},
		&cli.StringFlag{
			Name:  "rpc",
			Usage: "Ethereum JSON-RPC endpoint, overrides Chain.RPC",
		},
		&cli.UintFlag{
			Name:  "nonce-position",
			Usage: "byte offset in the chunk where the nonce is inserted, overrides Challenge.NoncePosition",
		},
		&cli.StringFlag{
			Name:  "tree",
			Usage: "load the layered tree from a snapshot instead of rehashing the file",
		},
		&cli.StringFlag{
			Name:  "difficulty",
			Usage: "also search noise until the noised root is below this 32 byte hex value",
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "noise search attempt limit, overrides Challenge.NoiseMaxAttempts",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "noise search time limit, overrides Challenge.NoiseTimeout",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "write the proof here instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "do not draw a progress bar",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return xerrors.Errorf("expected 1 argument, got %d", cctx.NArg())
		}
		cfg := getConfig(cctx)
		ctx, stop := reqcontext.ReqContext(cctx)
		defer stop()

		src, err := chunker.OpenFile(cctx.Args().First(), cfg.Proof.ChunkSize)
		if err != nil {
			return err
		}
		defer src.Close() //nolint:errcheck

		tree, err := proverTree(ctx, cctx, cfg, src)
		if err != nil {
			return err
		}

		target, err := proverTarget(ctx, cctx, cfg, src, tree)
		if err != nil {
			return err
		}

		opts := []challenge.SelectorOption{challenge.WithParallelism(cfg.Challenge.Parallelism)}
		var bar *progressbar.ProgressBar
		if !cctx.Bool("no-progress") {
			bar = progressbar.NewOptions(tree.LeafCount(),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("grinding"),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish())
			opts = append(opts, challenge.WithProgress(func(int) { _ = bar.Add(1) }))
		}

		sel, err := challenge.NewSelector(tree, src, opts...)
		if err != nil {
			return err
		}
		start := time.Now()
		p, err := sel.Select(ctx, target)
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return err
		}

		cmp, err := challenge.NewComparator(tree.Hasher(), src.ChunkSize())
		if err != nil {
			return err
		}
		if !cmp.Verify(target, p) {
			return xerrors.Errorf("selected piece %d: %w", p.PieceIndex, proof.ErrProofVerificationFailed)
		}

		if d := cctx.String("difficulty"); d != "" {
			p, err = searchNoise(ctx, cctx, cfg, cmp, target, p, d)
			if err != nil {
				return err
			}
		}

		root, err := cmp.RootWithNoise(target, p)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stderr, "Piece %s, root %s, took %s\n", color.CyanString("%d", p.PieceIndex), color.GreenString(root.String()), durafmt.Parse(time.Since(start)).LimitFirstN(2))

		return writeJSONFile(cctx.String("out"), challengeFile{Target: target, Proof: *p})
	},
}

func proverTree(ctx context.Context, cctx *cli.Context, cfg *config.Config, src *chunker.Source) (*proof.LayeredTree, error) {
	if path := cctx.String("tree"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, xerrors.Errorf("opening tree snapshot: %w", err)
		}
		defer f.Close() //nolint:errcheck

		tree, err := proof.ReadLayeredSnapshot(f)
		if err != nil {
			return nil, err
		}
		log.Infow("loaded tree snapshot", "path", path, "leaves", tree.LeafCount())
		return tree, nil
	}

	h, err := cfg.Proof.Hasher()
	if err != nil {
		return nil, err
	}
	c, err := challenge.Commit(ctx, h, src, cfg.Challenge.Parallelism)
	if err != nil {
		return nil, err
	}
	return c.Tree, nil
}

func proverTarget(ctx context.Context, cctx *cli.Context, cfg *config.Config, src *chunker.Source, tree *proof.LayeredTree) (challenge.Target, error) {
	target := challenge.Target{NoncePosition: cfg.Challenge.NoncePosition}
	if cctx.IsSet("nonce-position") {
		target.NoncePosition = uint32(cctx.Uint("nonce-position"))
	}

	var err error
	if m := cctx.String("mix"); m != "" {
		target.Root, err = mixhash.Parse(m)
	} else {
		target.Root, err = mixhash.New(tree.Hasher().Type, uint64(src.Size()), tree.Root())
	}
	if err != nil {
		return target, err
	}

	switch {
	case cctx.IsSet("nonce"):
		target.Nonce, err = hexutil.Decode(cctx.String("nonce"))
		if err != nil {
			return target, xerrors.Errorf("decoding nonce: %w", err)
		}
	case cctx.IsSet("height"):
		url := cfg.Chain.RPC
		if cctx.IsSet("rpc") {
			url = cctx.String("rpc")
		}
		if url == "" {
			return target, xerrors.Errorf("--height needs an RPC endpoint, set --rpc or Chain.RPC")
		}

		nsrc, closer, err := noncesrc.Dial(ctx, url)
		if err != nil {
			return target, err
		}
		defer closer()

		target.Nonce, err = nsrc.Nonce(ctx, cctx.Uint64("height"))
		if err != nil {
			return target, err
		}
	default:
		return target, xerrors.Errorf("one of --nonce or --height is required")
	}

	log.Infow("challenge target", "root", target.Root, "nonce", hexutil.Encode(target.Nonce), "position", target.NoncePosition)
	return target, nil
}

func searchNoise(ctx context.Context, cctx *cli.Context, cfg *config.Config, cmp *challenge.Comparator, target challenge.Target, p *challenge.Proof, difficulty string) (*challenge.Proof, error) {
	d, err := mixhash.Parse(difficulty)
	if err != nil {
		return nil, xerrors.Errorf("parsing difficulty: %w", err)
	}

	budget := challenge.NoiseBudget{MaxAttempts: cfg.Challenge.NoiseMaxAttempts}
	if cctx.IsSet("max-attempts") {
		budget.MaxAttempts = cctx.Int("max-attempts")
	}

	timeout := time.Duration(cfg.Challenge.NoiseTimeout)
	if cctx.IsSet("timeout") {
		timeout = cctx.Duration("timeout")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return challenge.SearchNoise(ctx, cmp, target, p, d, budget)
}

var verifyCmd = &cli.Command{
	Name:      "verify",
	Usage:     "Check a proof against its target",
	ArgsUsage: "<proof.json>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return xerrors.Errorf("expected 1 argument, got %d", cctx.NArg())
		}
		cf, err := readChallengeFile(cctx.Args().First())
		if err != nil {
			return err
		}
		cmp, err := comparatorFor(cctx, cf.Target)
		if err != nil {
			return err
		}

		if !cmp.Verify(cf.Target, &cf.Proof) {
			fmt.Println(color.RedString("INVALID"))
			return proof.ErrProofVerificationFailed
		}

		root, err := cmp.RootWithNoise(cf.Target, &cf.Proof)
		if err != nil {
			return err
		}
		fmt.Printf("%s piece %d, challenge root %s\n", color.GreenString("VALID"), cf.Proof.PieceIndex, root)
		return nil
	},
}

var compareCmd = &cli.Command{
	Name:      "compare",
	Usage:     "Decide whether a new proof supersedes an existing one for the same target",
	ArgsUsage: "<new.json> <existing.json>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 2 {
			return xerrors.Errorf("expected 2 arguments, got %d", cctx.NArg())
		}
		next, err := readChallengeFile(cctx.Args().Get(0))
		if err != nil {
			return err
		}
		prev, err := readChallengeFile(cctx.Args().Get(1))
		if err != nil {
			return err
		}
		if next.Target.Root != prev.Target.Root || !bytes.Equal(next.Target.Nonce, prev.Target.Nonce) || next.Target.NoncePosition != prev.Target.NoncePosition {
			return xerrors.Errorf("proofs answer different targets")
		}

		cmp, err := comparatorFor(cctx, next.Target)
		if err != nil {
			return err
		}

		order, err := cmp.Compare(next.Target, &next.Proof, &prev.Proof)
		if err != nil {
			return err
		}
		wins, err := cmp.Challenge(next.Target, &next.Proof, &prev.Proof)
		if err != nil {
			return err
		}

		switch {
		case order < 0:
			fmt.Println("noised root: new proof is smaller")
		case order > 0:
			fmt.Println("noised root: existing proof is smaller")
		default:
			fmt.Println("noised root: equal")
		}
		if wins {
			fmt.Println(color.GreenString("new proof supersedes the existing one"))
		} else {
			fmt.Println(color.YellowString("existing proof stands"))
		}
		return nil
	},
}

// comparatorFor builds a comparator using the target's hash type and the
// configured digest widths and chunk size.
func comparatorFor(cctx *cli.Context, target challenge.Target) (*challenge.Comparator, error) {
	t, err := target.Root.HashType()
	if err != nil {
		return nil, err
	}
	pc := getConfig(cctx).Proof
	pc.HashType = t
	h, err := pc.Hasher()
	if err != nil {
		return nil, err
	}
	return challenge.NewComparator(h, pc.ChunkSize)
}
