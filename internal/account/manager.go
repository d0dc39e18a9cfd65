// Package account manages the named accounts that participate in the sale
// model: the contract owner and buyers. Each account has a real secp256k1
// key so addresses behave like the modeled environment's identities.
package account

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// Account holds metadata for a single named account.
type Account struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	KeyRef    string `json:"keyRef"` // keystore reference for the private key
	CreatedAt string `json:"createdAt"`
}

// AddressBytes returns the account address in common.Address form.
func (a *Account) AddressBytes() common.Address {
	return common.HexToAddress(a.Address)
}

// Store is an interface for persisting accounts.
type Store interface {
	Load() ([]*Account, error)
	Save([]*Account) error
}

// Manager handles account CRUD.
type Manager struct {
	store    Store
	keystore KeyStore
	accounts map[string]*Account
	loaded   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithInMemoryStore uses in-memory account and key storage (useful for
// tests).
func WithInMemoryStore() Option {
	return func(m *Manager) {
		m.store = &memStore{}
		m.keystore = NewInMemoryKeystore()
	}
}

// WithStore sets a custom account store.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithKeystore sets a custom keystore.
func WithKeystore(k KeyStore) Option {
	return func(m *Manager) { m.keystore = k }
}

// NewManager creates a manager persisting accounts to path.
func NewManager(path string, opts ...Option) *Manager {
	m := &Manager{
		store:    &jsonStore{path: path},
		accounts: make(map[string]*Account),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.keystore == nil {
		m.keystore = DefaultKeystore(filepath.Dir(path))
	}
	return m
}

func (m *Manager) ensureLoaded() error {
	if m.loaded {
		return nil
	}
	accounts, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	for _, a := range accounts {
		m.accounts[a.Name] = a
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	accounts := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return m.store.Save(accounts)
}

// Create generates a fresh key and registers a named account.
func (m *Manager) Create(name string) (*Account, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	if _, exists := m.accounts[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrAccountExists, name)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	hexKey := hex.EncodeToString(crypto.FromECDSA(key))
	ref, err := m.keystore.Store(name, hexKey)
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}

	a := &Account{
		Name:      name,
		Address:   crypto.PubkeyToAddress(key.PublicKey).Hex(),
		KeyRef:    ref,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	m.accounts[name] = a
	if err := m.persist(); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns a named account.
func (m *Manager) Get(name string) (*Account, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	a, ok := m.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, name)
	}
	return a, nil
}

// List returns all accounts sorted by name.
func (m *Manager) List() ([]*Account, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove deletes an account and its stored key.
func (m *Manager) Remove(name string) error {
	if err := m.ensureLoaded(); err != nil {
		return err
	}
	a, ok := m.accounts[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrAccountNotFound, name)
	}
	if err := m.keystore.Delete(a.KeyRef); err != nil {
		return fmt.Errorf("removing key: %w", err)
	}
	delete(m.accounts, name)
	return m.persist()
}

// --- stores ---

// jsonStore persists accounts to a JSON file.
type jsonStore struct {
	path string
}

func (s *jsonStore) Load() ([]*Account, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var accounts []*Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parsing accounts file: %w", err)
	}
	return accounts, nil
}

func (s *jsonStore) Save(accounts []*Account) error {
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// memStore keeps accounts in memory.
type memStore struct {
	accounts []*Account
}

func (s *memStore) Load() ([]*Account, error) { return s.accounts, nil }
func (s *memStore) Save(a []*Account) error   { s.accounts = a; return nil }
