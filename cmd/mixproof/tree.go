package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/proof"
)

var treeCmd = &cli.Command{
	Name:  "tree",
	Usage: "Build and query sorted, value-indexed Merkle trees",
	Subcommands: []*cli.Command{
		treeBuildCmd,
		treeProveCmd,
		treeVerifyCmd,
	},
}

var treeBuildCmd = &cli.Command{
	Name:      "build",
	Usage:     "Build a tree from hex values and write its snapshot",
	ArgsUsage: "[0x-value ...]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "values",
			Usage: "read hex values from this file, one per line",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "write the snapshot here instead of stdout",
		},
	},
	Action: func(cctx *cli.Context) error {
		raw := cctx.Args().Slice()
		if path := cctx.String("values"); path != "" {
			lines, err := readLines(path)
			if err != nil {
				return err
			}
			raw = append(raw, lines...)
		}

		values := make([][]byte, 0, len(raw))
		for _, r := range raw {
			v, err := hexutil.Decode(r)
			if err != nil {
				return xerrors.Errorf("value %q: %w", r, err)
			}
			values = append(values, v)
		}

		h, err := getConfig(cctx).Proof.Hasher()
		if err != nil {
			return err
		}
		tree, err := proof.NewStandardTree(h, values)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(os.Stderr, "Root: %s (%d values)\n", color.GreenString(tree.Root().String()), tree.Len())
		return writeJSONFile(cctx.String("out"), tree.Dump())
	},
}

var treeProveCmd = &cli.Command{
	Name:      "prove",
	Usage:     "Print the proof for a value, by index or by value",
	ArgsUsage: "<snapshot.json>",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "index",
			Usage: "index of the value in the original input order",
			Value: -1,
		},
		&cli.StringFlag{
			Name:  "value",
			Usage: "the value itself, 0x-prefixed hex",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return xerrors.Errorf("expected 1 argument, got %d", cctx.NArg())
		}
		tree, err := readStandardTree(cctx.Args().First())
		if err != nil {
			return err
		}

		var ref proof.LeafRef
		switch {
		case cctx.IsSet("value"):
			v, err := hexutil.Decode(cctx.String("value"))
			if err != nil {
				return xerrors.Errorf("decoding value: %w", err)
			}
			ref = proof.ByValue(v)
		case cctx.Int("index") >= 0:
			ref = proof.ByIndex(cctx.Int("index"))
		default:
			return xerrors.Errorf("one of --index or --value is required")
		}

		p, err := tree.Proof(ref)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(lo.Map(p, func(d proof.Digest, _ int) string { return d.String() }), "\n"))
		return nil
	},
}

var treeVerifyCmd = &cli.Command{
	Name:      "verify",
	Usage:     "Check a value and proof against a root",
	ArgsUsage: "<0x-sibling ...>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "root",
			Usage:    "tree root, 0x-prefixed hex",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "value",
			Usage:    "value, 0x-prefixed hex",
			Required: true,
		},
	},
	Action: func(cctx *cli.Context) error {
		h, err := getConfig(cctx).Proof.Hasher()
		if err != nil {
			return err
		}

		var root proof.Digest
		if err := root.UnmarshalText([]byte(cctx.String("root"))); err != nil {
			return xerrors.Errorf("decoding root: %w", err)
		}
		value, err := hexutil.Decode(cctx.String("value"))
		if err != nil {
			return xerrors.Errorf("decoding value: %w", err)
		}

		siblings := make([]proof.Digest, 0, cctx.NArg())
		for _, s := range cctx.Args().Slice() {
			var d proof.Digest
			if err := d.UnmarshalText([]byte(s)); err != nil {
				return xerrors.Errorf("decoding sibling %q: %w", s, err)
			}
			siblings = append(siblings, d)
		}

		if !proof.VerifyValue(h, root, value, siblings) {
			fmt.Println(color.RedString("INVALID"))
			return proof.ErrProofVerificationFailed
		}
		fmt.Println(color.GreenString("VALID"))
		return nil
	},
}

func readStandardTree(path string) (*proof.StandardTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening snapshot: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return proof.ReadStandardSnapshot(f)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, sc.Err()
}
