package pass

import "github.com/algorand/go-algorand-sdk/v2/types"

// MemoryStore is an in-memory StateStore, used for tests and for preflighting
// operations before submitting them on-chain.
type MemoryStore struct {
	holders map[types.Address]Holder
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{holders: map[types.Address]Holder{}}
}

func (m *MemoryStore) Get(addr types.Address) (Holder, bool) {
	holder, ok := m.holders[addr]
	return holder, ok
}

func (m *MemoryStore) Put(addr types.Address, holder Holder) {
	m.holders[addr] = holder
}

func (m *MemoryStore) Delete(addr types.Address) {
	delete(m.holders, addr)
}
