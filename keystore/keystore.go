// Package keystore holds process-local secp256k1 keys, keyed by the
// address they derive, in the same hex-encoded wire shape the teacher's
// genesis-prep tool writes (KeystoreEntry.PrivateKey).
package keystore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lightfil/client/address"
)

// KeyInfo is one imported key.
type KeyInfo struct {
	Address    address.Address
	PrivateKey []byte
}

// entry is the on-disk/wire shape produced by the genesis-prep tooling.
type entry struct {
	Address    string `json:"Address"`
	PrivateKey string `json:"PrivateKey"`
}

// Store is a concurrent-read-tolerant map of address to key, plus
// insertion order for the deterministic pushMessage default.
type Store struct {
	mu    sync.RWMutex
	keys  map[address.Address]KeyInfo
	order []address.Address
}

// New returns an empty key store.
func New() *Store {
	return &Store{keys: make(map[address.Address]KeyInfo)}
}

// ImportHex imports a raw hex-encoded secp256k1 private key, deriving and
// recording its address.
func (s *Store) ImportHex(hexPrivKey string) (address.Address, error) {
	priv, err := hex.DecodeString(hexPrivKey)
	if err != nil {
		return address.Address{}, fmt.Errorf("keystore: decode private key: %w", err)
	}
	return s.Import(priv)
}

// Import records a raw private key, deriving its address.
func (s *Store) Import(priv []byte) (address.Address, error) {
	_, addr, err := address.ToPublic(priv)
	if err != nil {
		return address.Address{}, fmt.Errorf("keystore: derive address: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keys[addr]; !exists {
		s.order = append(s.order, addr)
	}
	s.keys[addr] = KeyInfo{Address: addr, PrivateKey: priv}
	return addr, nil
}

// ImportJSON loads a JSON array of {Address, PrivateKey} entries, the shape
// genesis-prep's stress_keystore.json files use.
func (s *Store) ImportJSON(data []byte) error {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("keystore: parse keystore json: %w", err)
	}
	for i, e := range entries {
		if _, err := s.ImportHex(e.PrivateKey); err != nil {
			return fmt.Errorf("keystore: entry %d (%s): %w", i, e.Address, err)
		}
	}
	return nil
}

// Get returns the key for addr, if present.
func (s *Store) Get(addr address.Address) (KeyInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[addr]
	return k, ok
}

// ErrEmpty is returned by Default when the store holds no keys.
var ErrEmpty = fmt.Errorf("keystore: empty")

// Default returns the insertion-order-first key: the deterministic
// selection pushMessage uses when the caller doesn't name an address.
func (s *Store) Default() (KeyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return KeyInfo{}, ErrEmpty
	}
	return s.keys[s.order[0]], nil
}

// Len reports how many keys are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
