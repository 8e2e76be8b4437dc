package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/alphabill-org/starregistry/logger"
	"github.com/alphabill-org/starregistry/observability"
	"github.com/alphabill-org/starregistry/types"
)

/*
Ledger is append-only sequence of hash linked blocks. The genesis block is
created by the constructor so the ledger is never empty.

Appends are serialized, reads may run concurrently with each other. Blocks
returned by the Ledger are copies.
*/
type Ledger struct {
	mu     sync.RWMutex
	blocks []*types.Block

	store *BlockStore
	clock clock.Clock
	log   *slog.Logger

	appendCnt metric.Int64Counter
	appendDur metric.Float64Histogram
}

type Option func(*Ledger)

// WithStore makes the ledger load the chain from the store and persist every new block into it.
func WithStore(store *BlockStore) Option {
	return func(l *Ledger) {
		l.store = store
	}
}

// WithClock sets the clock used to timestamp new blocks.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) {
		l.log = log
	}
}

func WithMeter(m metric.Meter) Option {
	return func(l *Ledger) {
		l.initMetrics(m)
	}
}

func New(opts ...Option) (*Ledger, error) {
	l := &Ledger{
		clock: clock.New(),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	l.initMetrics(noop.NewMeterProvider().Meter("ledger"))
	for _, opt := range opts {
		opt(l)
	}

	if l.store != nil {
		blocks, err := l.store.Load()
		if err != nil {
			return nil, fmt.Errorf("loading blocks: %w", err)
		}
		if len(blocks) > 0 {
			if err := validateGenesis(blocks[0]); err != nil {
				return nil, fmt.Errorf("validating stored chain: %w", err)
			}
			if errs := ValidateChain(blocks); len(errs) > 0 {
				return nil, fmt.Errorf("validating stored chain: %w", errors.Join(errs...))
			}
			l.blocks = blocks
			l.log.Info(fmt.Sprintf("loaded %d blocks from store", len(blocks)), logger.Height(l.height()))
			return l, nil
		}
	}

	genesis, err := l.AddBlock(types.GenesisMarker)
	if err != nil {
		return nil, fmt.Errorf("creating genesis block: %w", err)
	}
	l.log.Info("genesis block created", logger.BlockHash(genesis.Hash))
	return l, nil
}

func (l *Ledger) initMetrics(m metric.Meter) {
	var err error
	if l.appendCnt, err = m.Int64Counter("append", metric.WithDescription("Number of blocks appended (or rejected) to the ledger")); err != nil {
		l.appendCnt = noop.Int64Counter{}
	}
	if l.appendDur, err = m.Float64Histogram("append.time", metric.WithUnit("s"), metric.WithDescription("How long it took to validate and commit a block")); err != nil {
		l.appendDur = noop.Float64Histogram{}
	}
	_, _ = m.Int64ObservableGauge("height",
		metric.WithDescription("Current height of the ledger"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			o.Observe(int64(l.Height())) /* #nosec G115 height is far from int64 max value */
			return nil
		}))
}

// Height returns the height of the latest block.
func (l *Ledger) Height() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.height()
}

func (l *Ledger) height() uint64 {
	if len(l.blocks) == 0 {
		return 0
	}
	return uint64(len(l.blocks) - 1)
}

/*
AddBlock encodes payload into a new block, links it to the latest block and
appends it to the ledger. The prospective chain (current blocks and the new
block) is validated before the block is committed, when validation fails
the ledger is left unchanged and error wrapping ErrChainIntegrity is returned.
*/
func (l *Ledger) AddBlock(payload any) (*types.Block, error) {
	candidate, err := types.NewBlock(payload)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	start := l.clock.Now()
	err = l.add(candidate)
	l.appendDur.Record(context.Background(), l.clock.Since(start).Seconds())
	l.appendCnt.Add(context.Background(), 1, metric.WithAttributes(observability.ErrStatus(err)))
	if err != nil {
		l.log.Warn("block rejected", logger.Height(candidate.Height), logger.Error(err))
		return nil, err
	}
	l.log.Debug("block appended", logger.Height(candidate.Height), logger.BlockHash(candidate.Hash))
	return candidate.Copy(), nil
}

// add must be called with write lock held.
func (l *Ledger) add(candidate *types.Block) (err error) {
	candidate.Height = uint64(len(l.blocks))
	candidate.Time = uint64(l.clock.Now().Unix()) /* #nosec G115 clock is after epoch */
	candidate.PreviousHash = types.NoPreviousHash
	if n := len(l.blocks); n > 0 {
		candidate.PreviousHash = l.blocks[n-1].Hash
	}
	if candidate.Hash, err = candidate.Digest(); err != nil {
		return fmt.Errorf("calculating block hash: %w", err)
	}

	prospective := append(slices.Clip(l.blocks), candidate)
	if len(prospective) == 1 {
		if err := validateGenesis(candidate); err != nil {
			return err
		}
	}
	if errs := ValidateChain(prospective); len(errs) > 0 {
		return fmt.Errorf("block %d rejected: %w", candidate.Height, errors.Join(errs...))
	}

	if l.store != nil {
		if err := l.store.Write(candidate); err != nil {
			return fmt.Errorf("storing block: %w", err)
		}
	}
	l.blocks = prospective
	return nil
}

// GetBlockByHash returns the first block with given hash or ErrNotFound.
func (l *Ledger) GetBlockByHash(hash string) (*types.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, b := range l.blocks {
		if b.Hash == hash {
			return b.Copy(), nil
		}
	}
	return nil, fmt.Errorf("block with hash %q: %w", hash, ErrNotFound)
}

func (l *Ledger) GetBlockByHeight(height uint64) (*types.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if height >= uint64(len(l.blocks)) {
		return nil, fmt.Errorf("block %d: %w", height, ErrNotFound)
	}
	return l.blocks[height].Copy(), nil
}

func (l *Ledger) LatestBlock() *types.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[len(l.blocks)-1].Copy()
}

/*
StarsByOwner returns stars registered to the address in ascending height order.
Blocks whose body fails to decode do not stop the scan, the decode errors are
returned joined together with the stars which were decoded successfully.
*/
func (l *Ledger) StarsByOwner(address string) ([]*types.StarRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var stars []*types.StarRecord
	var errs []error
	for _, b := range l.blocks {
		if b.IsGenesis() {
			continue
		}
		sr, err := b.DecodeStar()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if sr.Owner == address {
			stars = append(stars, sr)
		}
	}
	return stars, errors.Join(errs...)
}

// ValidateChain validates the current chain, see the package level ValidateChain.
func (l *Ledger) ValidateChain() []error {
	l.mu.RLock()
	blocks := slices.Clone(l.blocks)
	l.mu.RUnlock()

	errs := ValidateChain(blocks)
	if len(errs) > 0 {
		l.log.Error("chain validation failed", logger.Error(errors.Join(errs...)))
	}
	return errs
}
