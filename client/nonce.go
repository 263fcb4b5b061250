package client

import "github.com/lightfil/client/address"

// nextNonce returns addr's next nonce and advances the tracker, serialized
// per-caller so two concurrent pushMessage calls for the same sender get
// distinct, consecutive values (spec.md §5's nonceTracker contract).
func (c *Client) nextNonce(addr address.Address) uint64 {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()
	key := addr.String()
	n := c.nonces[key]
	c.nonces[key] = n + 1
	return n
}

// SetNonce seeds addr's next nonce, e.g. to resume after a restart (the
// tracker itself is not persisted; spec.md §9's documented limitation).
func (c *Client) SetNonce(addr address.Address, next uint64) {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()
	c.nonces[addr.String()] = next
}
