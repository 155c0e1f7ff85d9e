package main

import (
	"fmt"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/build"
	"github.com/filecoin-project/mixproof/deps/config"
	"github.com/filecoin-project/mixproof/lib/proof"
)

var log = logging.Logger("main")

func SetupLogLevels() {
	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", "INFO")
		_ = logging.SetLogLevel("chunker", "WARN")
	}
}

func main() {
	SetupLogLevels()

	app := newApp()
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "mixproof",
		Usage:    "commit to files with mixed Merkle hashes and answer storage challenges",
		Version:  build.UserVersion(),
		Metadata: map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the TOML config file",
				EnvVars: []string{"MIXPROOF_CONFIG"},
				Value:   config.DefaultConfigPath,
			},
			&cli.StringFlag{
				Name:  "hash",
				Usage: "override the configured hash function (sha256, keccak256)",
			},
		},
		Before: func(cctx *cli.Context) error {
			cfg, err := loadConfig(cctx)
			if err != nil {
				return err
			}
			if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
				for _, name := range cfg.SubsystemNames() {
					if err := logging.SetLogLevel(name, cfg.Logging.SubsystemLevels[name]); err != nil {
						return xerrors.Errorf("setting log level for %s: %w", name, err)
					}
				}
			}
			cctx.App.Metadata["config"] = cfg
			return nil
		},
		Commands: []*cli.Command{
			commitCmd,
			lengthCmd,
			proveCmd,
			verifyCmd,
			compareCmd,
			treeCmd,
			configCmd,
		},
	}
}

func loadConfig(cctx *cli.Context) (*config.Config, error) {
	cfg, err := config.FromFile(cctx.String("config"))
	if err != nil {
		return nil, xerrors.Errorf("loading config: %w", err)
	}

	if cctx.IsSet("hash") {
		t, err := proof.ParseHashType(cctx.String("hash"))
		if err != nil {
			return nil, err
		}
		cfg.Proof.HashType = t
	}
	return cfg, nil
}

func getConfig(cctx *cli.Context) *config.Config {
	return cctx.App.Metadata["config"].(*config.Config)
}
