package hamt

import (
	"fmt"

	"github.com/spaolacci/murmur3"
)

// hashBits consumes a 128-bit murmur3 digest bitWidth bits at a time, from
// the most-significant end — the bit-consumption order the actors HAMT
// uses to pick a bitmap slot at each trie depth.
type hashBits struct {
	hi, lo uint64
	cursor uint // bits already consumed
}

func newHashBits(key []byte) hashBits {
	hi, lo := murmur3.Sum128(key)
	return hashBits{hi: hi, lo: lo}
}

// next returns the next n bits (n <= 8) as a bitmap slot index.
func (h *hashBits) next(n uint) (uint, error) {
	if h.cursor+n > 128 {
		return 0, fmt.Errorf("hamt: hash bits exhausted at depth consuming %d bits", h.cursor+n)
	}
	var out uint
	for i := uint(0); i < n; i++ {
		bitPos := 127 - (h.cursor + i)
		var bit uint64
		if bitPos >= 64 {
			bit = (h.hi >> (bitPos - 64)) & 1
		} else {
			bit = (h.lo >> bitPos) & 1
		}
		out = out<<1 | uint(bit)
	}
	h.cursor += n
	return out, nil
}
