package state

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"swiftremit/storage"
)

// Tier identifies a retention class within the state store. Instance entries
// hold singleton configuration for the lifetime of the contract; persistent
// entries hold per-entity records.
type Tier byte

const (
	TierInstance   Tier = 'i'
	TierPersistent Tier = 'p'
)

func (t Tier) String() string {
	switch t {
	case TierInstance:
		return "instance"
	case TierPersistent:
		return "persistent"
	default:
		return fmt.Sprintf("tier(%d)", byte(t))
	}
}

// KV is the typed key/value view over a single tier. Values are RLP encoded.
type KV interface {
	Get(key []byte, out interface{}) (bool, error)
	Put(key []byte, value interface{}) error
	Has(key []byte) (bool, error)
	Delete(key []byte) error
}

// Manager reads and writes contract state on top of a storage backend. All
// writes land in an in-memory journal and only reach the backend on Commit, so
// a failed invocation can be discarded with Reset without leaving a trace.
//
// Manager is not safe for concurrent use; the host serializes invocations.
type Manager struct {
	db      storage.Database
	pending map[string][]byte
	deleted map[string]struct{}
}

// NewManager creates a state manager operating on the provided backend.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Instance returns the configuration tier.
func (m *Manager) Instance() KV { return &tierStore{manager: m, tier: TierInstance} }

// Persistent returns the per-entity tier.
func (m *Manager) Persistent() KV { return &tierStore{manager: m, tier: TierPersistent} }

// Backend exposes the underlying database.
func (m *Manager) Backend() storage.Database { return m.db }

// Dirty reports the number of journaled writes awaiting Commit.
func (m *Manager) Dirty() int {
	return len(m.pending) + len(m.deleted)
}

// Commit flushes the journal to the backend in a single batch.
func (m *Manager) Commit() error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager unavailable")
	}
	if m.Dirty() == 0 {
		return nil
	}
	keys := make([]string, 0, m.Dirty())
	for key := range m.pending {
		keys = append(keys, key)
	}
	for key := range m.deleted {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	batch := m.db.NewBatch()
	for _, key := range keys {
		if value, ok := m.pending[key]; ok {
			batch.Put([]byte(key), value)
			continue
		}
		batch.Delete([]byte(key))
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.Reset()
	return nil
}

// Reset discards every journaled write. It is used to roll back a failed
// invocation.
func (m *Manager) Reset() {
	m.pending = make(map[string][]byte)
	m.deleted = make(map[string]struct{})
}

func storageKey(tier Tier, key []byte) []byte {
	hashed := ethcrypto.Keccak256(key)
	buf := make([]byte, 1+len(hashed))
	buf[0] = byte(tier)
	copy(buf[1:], hashed)
	return buf
}

func (m *Manager) read(tier Tier, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("kv: key must not be empty")
	}
	skey := string(storageKey(tier, key))
	if value, ok := m.pending[skey]; ok {
		return value, nil
	}
	if _, ok := m.deleted[skey]; ok {
		return nil, nil
	}
	data, err := m.db.Get([]byte(skey))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (m *Manager) write(tier Tier, key []byte, value []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	skey := string(storageKey(tier, key))
	delete(m.deleted, skey)
	m.pending[skey] = value
	return nil
}

func (m *Manager) remove(tier Tier, key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	skey := string(storageKey(tier, key))
	delete(m.pending, skey)
	m.deleted[skey] = struct{}{}
	return nil
}

type tierStore struct {
	manager *Manager
	tier    Tier
}

// Put stores the provided value under the supplied key using RLP encoding.
func (s *tierStore) Put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("kv %s: encode %q: %w", s.tier, key, err)
	}
	return s.manager.write(s.tier, key, encoded)
}

// Get retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (s *tierStore) Get(key []byte, out interface{}) (bool, error) {
	data, err := s.manager.read(s.tier, key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv %s: decode %q: %w", s.tier, key, err)
	}
	return true, nil
}

func (s *tierStore) Has(key []byte) (bool, error) {
	data, err := s.manager.read(s.tier, key)
	if err != nil {
		return false, err
	}
	return len(data) > 0, nil
}

func (s *tierStore) Delete(key []byte) error {
	return s.manager.remove(s.tier, key)
}

// GetList decodes an RLP list stored under key into out, which must be a
// pointer to a slice. Absent keys yield an empty slice rather than nil.
func GetList(kv KV, key []byte, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("kv: destination must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Slice {
		return fmt.Errorf("kv: destination must point to a slice")
	}
	ok, err := kv.Get(key, out)
	if err != nil {
		return err
	}
	if !ok {
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	}
	return nil
}
