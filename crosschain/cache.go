package crosschain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rollkit/blockexec/log"
	"github.com/rollkit/blockexec/types"
)

// ErrUnexpectedHeight is returned when cached info does not extend the
// already known heights of its chain.
var ErrUnexpectedHeight = errors.New("unexpected block info height")

// Cache is the local index of cross chain data. A synchronization client
// feeds it with parent and side chain block infos fetched from remote chains,
// and the block executor consumes them in order as blocks index them.
type Cache struct {
	logger log.Logger

	mtx    sync.Mutex
	closed bool

	parentPending []*types.ParentChainBlockInfo
	parentLast    *types.ParentChainBlockInfo

	sidePending map[types.Hash][]*types.SideChainBlockInfo
	// sideHeights tracks the highest height known per side chain
	sideHeights map[types.Hash]uint64

	requestInterval time.Duration
}

// NewCache returns an empty cache that asks remote chains for data every
// initialInterval until UpdateRequestInterval is called.
func NewCache(initialInterval time.Duration, logger log.Logger) *Cache {
	return &Cache{
		logger:          logger,
		sidePending:     make(map[types.Hash][]*types.SideChainBlockInfo),
		sideHeights:     make(map[types.Hash]uint64),
		requestInterval: initialInterval,
	}
}

// AddParentChainBlockInfo queues info as the next parent chain block to be
// indexed. Heights must strictly increase.
func (c *Cache) AddParentChainBlockInfo(info *types.ParentChainBlockInfo) error {
	if info == nil {
		return errors.New("parent chain block info is nil")
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.closed {
		return types.ErrClientShutDown
	}
	last := c.parentLast
	if n := len(c.parentPending); n > 0 {
		last = c.parentPending[n-1]
	}
	if last != nil && info.Height <= last.Height {
		return fmt.Errorf("%w: parent chain height %d, last known %d", ErrUnexpectedHeight, info.Height, last.Height)
	}
	c.parentPending = append(c.parentPending, info)
	c.logger.Debug("cached parent chain block info", "height", info.Height, "pending", len(c.parentPending))
	return nil
}

// AddSideChainBlockInfo queues info as the next block of its side chain.
// Heights must strictly increase per side chain.
func (c *Cache) AddSideChainBlockInfo(info *types.SideChainBlockInfo) error {
	if info == nil {
		return errors.New("side chain block info is nil")
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.closed {
		return types.ErrClientShutDown
	}
	if last, ok := c.sideHeights[info.ChainID]; ok && info.Height <= last {
		return fmt.Errorf("%w: side chain %s height %d, last known %d", ErrUnexpectedHeight, info.ChainID, info.Height, last)
	}
	c.sidePending[info.ChainID] = append(c.sidePending[info.ChainID], info)
	c.sideHeights[info.ChainID] = info.Height
	c.logger.Debug("cached side chain block info", "chain", info.ChainID, "height", info.Height)
	return nil
}

// CheckSideChainBlockInfo reports whether info is the next pending block of its side chain.
func (c *Cache) CheckSideChainBlockInfo(ctx context.Context, info *types.SideChainBlockInfo) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.closed {
		return false, types.ErrClientShutDown
	}
	return c.sideHead(info), nil
}

// TryGetParentChainBlockInfo returns the next parent chain block info to be
// indexed, or nil when none is cached.
func (c *Cache) TryGetParentChainBlockInfo(ctx context.Context) (*types.ParentChainBlockInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.closed {
		return nil, types.ErrClientShutDown
	}
	if len(c.parentPending) == 0 {
		return nil, nil
	}
	return c.parentPending[0], nil
}

// TryUpdateAndRemoveSideChainBlockInfo removes info from the pending queue of
// its side chain. It returns false if info is not the head of that queue.
func (c *Cache) TryUpdateAndRemoveSideChainBlockInfo(ctx context.Context, info *types.SideChainBlockInfo) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.closed {
		return false, types.ErrClientShutDown
	}
	if !c.sideHead(info) {
		return false, nil
	}
	queue := c.sidePending[info.ChainID]
	if len(queue) == 1 {
		delete(c.sidePending, info.ChainID)
	} else {
		c.sidePending[info.ChainID] = queue[1:]
	}
	return true, nil
}

// UpdateParentChainBlockInfo commits info as the last indexed parent chain
// block. It returns false if info is not the next pending one.
func (c *Cache) UpdateParentChainBlockInfo(ctx context.Context, info *types.ParentChainBlockInfo) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.closed {
		return false, types.ErrClientShutDown
	}
	if len(c.parentPending) == 0 || !c.parentPending[0].Equal(info) {
		return false, nil
	}
	c.parentLast = c.parentPending[0]
	c.parentPending = c.parentPending[1:]
	return true, nil
}

// UpdateRequestInterval sets the interval at which remote chains are polled.
func (c *Cache) UpdateRequestInterval(interval time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.requestInterval != interval {
		c.logger.Info("cross chain request interval updated", "from", c.requestInterval, "to", interval)
	}
	c.requestInterval = interval
}

// RequestInterval returns the current polling interval.
func (c *Cache) RequestInterval() time.Duration {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.requestInterval
}

// LastParentChainBlockInfo returns the last committed parent chain block info.
func (c *Cache) LastParentChainBlockInfo() *types.ParentChainBlockInfo {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.parentLast
}

// PendingSideChainBlockInfos returns the number of side chain infos waiting to be indexed.
func (c *Cache) PendingSideChainBlockInfos(chainID types.Hash) int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.sidePending[chainID])
}

// Close shuts the cache down. Every later call returns types.ErrClientShutDown.
func (c *Cache) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.closed = true
	c.parentPending = nil
	c.sidePending = make(map[types.Hash][]*types.SideChainBlockInfo)
	return nil
}

func (c *Cache) sideHead(info *types.SideChainBlockInfo) bool {
	if info == nil {
		return false
	}
	queue := c.sidePending[info.ChainID]
	return len(queue) > 0 && queue[0].Equal(info)
}
