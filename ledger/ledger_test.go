package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/starregistry/keyvaluedb/memorydb"
	testlogger "github.com/alphabill-org/starregistry/testutils/logger"
	testobserve "github.com/alphabill-org/starregistry/testutils/observability"
	"github.com/alphabill-org/starregistry/types"
)

const testTime = 1700000000

func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Unix(testTime, 0))
	l, err := New(append([]Option{WithClock(clk), WithLogger(testlogger.New(t))}, opts...)...)
	require.NoError(t, err)
	return l, clk
}

func addStar(t *testing.T, l *Ledger, owner, star string) *types.Block {
	t.Helper()
	rec, err := types.NewStarRecord(owner, json.RawMessage(star))
	require.NoError(t, err)
	b, err := l.AddBlock(rec)
	require.NoError(t, err)
	return b
}

func TestNew_genesis(t *testing.T) {
	l, _ := newTestLedger(t)
	require.EqualValues(t, 0, l.Height())

	genesis, err := l.GetBlockByHeight(0)
	require.NoError(t, err)
	require.True(t, genesis.IsGenesis())
	require.True(t, genesis.HasValidHash())
	require.Equal(t, types.NoPreviousHash, genesis.PreviousHash)
	require.EqualValues(t, testTime, genesis.Time)

	var marker string
	require.NoError(t, genesis.Decode(&marker))
	require.Equal(t, types.GenesisMarker, marker)

	require.Equal(t, genesis, l.LatestBlock())
	require.Empty(t, l.ValidateChain())
}

func TestAddBlock(t *testing.T) {
	l, clk := newTestLedger(t)

	for i := 1; i <= 10; i++ {
		clk.Add(time.Second)
		b := addStar(t, l, "addr1", fmt.Sprintf(`{"n":%d}`, i))
		require.EqualValues(t, i, b.Height)
		require.EqualValues(t, testTime+i, b.Time)
		require.True(t, b.HasValidHash())
		require.EqualValues(t, i, l.Height())
	}

	for h := uint64(1); h <= l.Height(); h++ {
		prev, err := l.GetBlockByHeight(h - 1)
		require.NoError(t, err)
		cur, err := l.GetBlockByHeight(h)
		require.NoError(t, err)
		require.Equal(t, prev.Hash, cur.PreviousHash)
	}
	require.Empty(t, l.ValidateChain())
}

func TestAddBlock_invalidPayload(t *testing.T) {
	l, _ := newTestLedger(t)
	b, err := l.AddBlock(func() {})
	require.ErrorContains(t, err, "encoding block payload")
	require.Nil(t, b)
	require.EqualValues(t, 0, l.Height())
}

func TestAddBlock_rejectedWhenChainIsCorrupt(t *testing.T) {
	l, _ := newTestLedger(t)
	addStar(t, l, "addr1", `{"ra":"16h 29m 1.0s"}`)
	addStar(t, l, "addr2", `{"ra":"17h 01m 2.0s"}`)

	// tamper with the stored block
	l.blocks[1].Body = []byte(`{"owner":"addr3","star":{"ra":"16h 29m 1.0s"}}`)
	require.False(t, l.blocks[1].HasValidHash())

	errs := l.ValidateChain()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrInvalidHash)
	require.ErrorIs(t, errs[0], ErrChainIntegrity)

	rec, err := types.NewStarRecord("addr1", json.RawMessage(`{}`))
	require.NoError(t, err)
	b, err := l.AddBlock(rec)
	require.ErrorIs(t, err, ErrChainIntegrity)
	require.ErrorIs(t, err, ErrInvalidHash)
	require.Nil(t, b)
	require.EqualValues(t, 2, l.Height())
	require.Len(t, l.blocks, 3)
}

func TestAddBlock_storeFailure(t *testing.T) {
	// genesis and one star fit into the DB
	store, err := NewBlockStore(memorydb.NewWithLimiter(2))
	require.NoError(t, err)
	l, _ := newTestLedger(t, WithStore(store))
	addStar(t, l, "addr1", `{}`)

	rec, err := types.NewStarRecord("addr1", json.RawMessage(`{}`))
	require.NoError(t, err)
	b, err := l.AddBlock(rec)
	require.ErrorContains(t, err, "storing block: writing block 2: write failed, disk is full")
	require.Nil(t, b)
	require.EqualValues(t, 1, l.Height())
	require.Empty(t, l.ValidateChain())
}

func TestGetBlock(t *testing.T) {
	l, _ := newTestLedger(t)
	b1 := addStar(t, l, "addr1", `{"n":1}`)
	b2 := addStar(t, l, "addr1", `{"n":2}`)

	t.Run("by hash", func(t *testing.T) {
		b, err := l.GetBlockByHash(b2.Hash)
		require.NoError(t, err)
		require.Equal(t, b2, b)

		b, err = l.GetBlockByHash(b1.Hash)
		require.NoError(t, err)
		require.Equal(t, b1, b)

		b, err = l.GetBlockByHash("ab01")
		require.ErrorIs(t, err, ErrNotFound)
		require.Nil(t, b)
	})

	t.Run("by height", func(t *testing.T) {
		b, err := l.GetBlockByHeight(1)
		require.NoError(t, err)
		require.Equal(t, b1, b)

		b, err = l.GetBlockByHeight(3)
		require.ErrorIs(t, err, ErrNotFound)
		require.EqualError(t, err, "block 3: not found")
		require.Nil(t, b)
	})

	t.Run("returned blocks are copies", func(t *testing.T) {
		b, err := l.GetBlockByHeight(1)
		require.NoError(t, err)
		b.Body[0] = 'X'
		b.Hash = "00"
		l.LatestBlock().Hash = "00"
		require.Empty(t, l.ValidateChain())
	})
}

func TestStarsByOwner(t *testing.T) {
	l, _ := newTestLedger(t)

	stars, err := l.StarsByOwner("A")
	require.NoError(t, err)
	require.Empty(t, stars)

	addStar(t, l, "A", `{"n":1}`)
	addStar(t, l, "B", `{"n":2}`)
	addStar(t, l, "A", `{"n":3}`)
	addStar(t, l, "C", `{"n":4}`)

	stars, err = l.StarsByOwner("A")
	require.NoError(t, err)
	require.Len(t, stars, 2)
	require.Equal(t, "A", stars[0].Owner)
	require.JSONEq(t, `{"n":1}`, string(stars[0].Star))
	require.JSONEq(t, `{"n":3}`, string(stars[1].Star))

	stars, err = l.StarsByOwner("B")
	require.NoError(t, err)
	require.Len(t, stars, 1)

	stars, err = l.StarsByOwner(types.GenesisMarker)
	require.NoError(t, err)
	require.Empty(t, stars)

	t.Run("decode errors are reported per block", func(t *testing.T) {
		l.blocks[2].Body = []byte("not json")
		stars, err := l.StarsByOwner("A")
		require.ErrorIs(t, err, types.ErrDecode)
		require.ErrorContains(t, err, "block 2")
		require.Len(t, stars, 2)
	})
}

func TestLedger_example(t *testing.T) {
	l, _ := newTestLedger(t)
	require.EqualValues(t, 0, l.Height())

	bA := addStar(t, l, "A", `{"dec":"68° 52' 56.9","ra":"16h 29m 1.0s"}`)
	require.EqualValues(t, 1, l.Height())
	addStar(t, l, "B", `{"dec":"-26° 29' 24.9","ra":"13h 03m 33.35s"}`)
	require.EqualValues(t, 2, l.Height())

	stars, err := l.StarsByOwner("A")
	require.NoError(t, err)
	require.Len(t, stars, 1)
	first, err := bA.DecodeStar()
	require.NoError(t, err)
	require.Equal(t, first, stars[0])
}

func TestLedger_concurrentAppends(t *testing.T) {
	l, _ := newTestLedger(t, WithLogger(testlogger.NOP()))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			rec := &types.StarRecord{Owner: fmt.Sprintf("addr%d", i%5), Star: json.RawMessage(`{}`)}
			if _, err := l.AddBlock(rec); err != nil {
				t.Error(err)
			}
		}(i)
		go func() {
			defer wg.Done()
			_ = l.Height()
			_, _ = l.StarsByOwner("addr1")
			_ = l.ValidateChain()
		}()
	}
	wg.Wait()

	require.EqualValues(t, writers, l.Height())
	require.Empty(t, l.ValidateChain())
	stars, err := l.StarsByOwner("addr1")
	require.NoError(t, err)
	require.Len(t, stars, writers/5)
}

func TestLedger_metrics(t *testing.T) {
	obs := testobserve.Prometheus(t)
	l, _ := newTestLedger(t, WithMeter(obs.Meter("ledger")))
	addStar(t, l, "A", `{}`)

	// genesis + one star
	require.EqualValues(t, 2, testobserve.CounterValue(t, obs, "sr_append_total", map[string]string{"status": "ok"}))

	l.blocks[1].Hash = "00"
	_, err := l.AddBlock(&types.StarRecord{Owner: "A", Star: json.RawMessage(`{}`)})
	require.True(t, errors.Is(err, ErrChainIntegrity))
	require.EqualValues(t, 1, testobserve.CounterValue(t, obs, "sr_append_total", map[string]string{"status": "err"}))
}
