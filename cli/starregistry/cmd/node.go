package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ainvaltin/httpsrv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alphabill-org/starregistry/crypto"
	"github.com/alphabill-org/starregistry/keyvaluedb"
	"github.com/alphabill-org/starregistry/keyvaluedb/boltdb"
	"github.com/alphabill-org/starregistry/keyvaluedb/memorydb"
	"github.com/alphabill-org/starregistry/ledger"
	"github.com/alphabill-org/starregistry/logger"
	"github.com/alphabill-org/starregistry/ownership"
	"github.com/alphabill-org/starregistry/rpc"
)

type nodeConfiguration struct {
	Base *baseConfiguration

	// REST API listen address
	Address string
	// bbolt database file, when empty blocks are kept in memory only
	DBFile string
	// Bitcoin network the addresses are validated against
	Network          string
	ValidationWindow time.Duration
	MaxBodySize      int64
}

const (
	keyAddress          = "address"
	keyDB               = "db"
	keyNetwork          = "network"
	keyValidationWindow = "validation-window"
	keyMaxBodySize      = "max-body-size"

	defaultNodeAddress = "localhost:8000"
)

type nodeRunnable func(ctx context.Context, cfg *nodeConfiguration) error

func newNodeCmd(baseConfig *baseConfiguration, runFunc nodeRunnable) *cobra.Command {
	config := &nodeConfiguration{Base: baseConfig}
	var nodeCmd = &cobra.Command{
		Use:   "node",
		Short: "Starts the star registry node",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runFunc != nil {
				return runFunc(cmd.Context(), config)
			}
			return runNode(cmd.Context(), config)
		},
	}

	nodeCmd.Flags().StringVar(&config.Address, keyAddress, defaultNodeAddress, "address the REST API listens on")
	nodeCmd.Flags().StringVar(&config.DBFile, keyDB, "", "path to the block database file, blocks are kept in memory when not set")
	nodeCmd.Flags().StringVar(&config.Network, keyNetwork, "mainnet", "bitcoin network of the addresses, one of: mainnet, testnet3, regtest, simnet")
	nodeCmd.Flags().DurationVar(&config.ValidationWindow, keyValidationWindow, ownership.DefaultValidationWindow, "how long the ownership verification message is valid")
	nodeCmd.Flags().Int64Var(&config.MaxBodySize, keyMaxBodySize, rpc.DefaultMaxBodySize, "maximum size of the REST request body in bytes")
	return nodeCmd
}

func runNode(ctx context.Context, cfg *nodeConfiguration) error {
	log := cfg.Base.logger
	obs := cfg.Base.observe

	store, err := newBlockStore(cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("closing block store", logger.Error(err))
		}
	}()

	l, err := ledger.New(
		ledger.WithStore(store),
		ledger.WithLogger(log),
		ledger.WithMeter(obs.Meter("ledger")),
	)
	if err != nil {
		return fmt.Errorf("creating ledger: %w", err)
	}

	params, err := crypto.BitcoinParams(cfg.Network)
	if err != nil {
		return err
	}
	verifier, err := ownership.NewVerifier(l,
		crypto.NewMultiVerifier(crypto.NewBitcoinVerifier(params), crypto.NewEthereumVerifier()),
		ownership.WithValidationWindow(cfg.ValidationWindow),
		ownership.WithLogger(log),
		ownership.WithMeter(obs.Meter("ownership")),
	)
	if err != nil {
		return fmt.Errorf("creating ownership verifier: %w", err)
	}

	server := newRESTServer(cfg, log, l, verifier)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(ctx, fmt.Sprintf("REST API listening on %s", cfg.Address), logger.Height(l.Height()))
		return httpsrv.Run(ctx, *server, httpsrv.ShutdownTimeout(5*time.Second))
	})
	return g.Wait()
}

func newRESTServer(cfg *nodeConfiguration, log *slog.Logger, l *ledger.Ledger, v *ownership.Verifier) *http.Server {
	obs := cfg.Base.observe
	return rpc.NewRESTServer(cfg.Address, cfg.MaxBodySize, obs, log,
		rpc.LedgerEndpoints(l, log),
		rpc.OwnershipEndpoints(v, log),
		rpc.MetricsEndpoints(obs.MetricsHandler()),
	)
}

func newBlockStore(dbFile string) (*ledger.BlockStore, error) {
	var db keyvaluedb.KeyValueDB = memorydb.New()
	if dbFile != "" {
		bdb, err := boltdb.New(dbFile)
		if err != nil {
			return nil, fmt.Errorf("opening block database: %w", err)
		}
		db = bdb
	}
	store, err := ledger.NewBlockStore(db)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating block store: %w", err), db.Close())
	}
	return store, nil
}
