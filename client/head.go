package client

import (
	"context"
	"fmt"

	"github.com/lightfil/client/netio"
)

// GetHead returns the cached head if any; otherwise it installs a one-shot
// wait on the next block delivery and resolves from that, honoring ctx
// cancellation (spec.md §4.7's getHead contract and §5's cancellation
// requirement).
func (c *Client) GetHead(ctx context.Context) (netio.BlockMsg, error) {
	c.headMu.RLock()
	if c.head != nil {
		h := *c.head
		c.headMu.RUnlock()
		return h, nil
	}
	ready := c.headReady
	c.headMu.RUnlock()

	select {
	case <-ready:
		c.headMu.RLock()
		defer c.headMu.RUnlock()
		if c.head == nil {
			return netio.BlockMsg{}, fmt.Errorf("client: head subscription resolved without a block")
		}
		return *c.head, nil
	case <-ctx.Done():
		return netio.BlockMsg{}, ctx.Err()
	}
}
