// Package credstore persists agent credentials encrypted at rest.
//
// The Ed25519 seed is what makes an agent "the same agent" across sessions,
// so it never touches disk in the clear: credentials are sealed with
// ChaCha20-Poly1305 under a scrypt-derived key and written atomically with
// owner-only permissions.
package credstore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	credsFilename = "credentials.json.enc"

	// Version of the encrypted blob format on disk.
	formatVersion = 1
)

var (
	// ErrNotFound is returned by Load when no credentials file exists.
	ErrNotFound = errors.New("no stored credentials")

	// ErrWrongPassphrase is returned when the passphrase is incorrect or
	// the stored blob has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted credentials")
)

// Credentials is the durable identity material for one agent.
type Credentials struct {
	// AgentID under which the agent registered.
	AgentID string `json:"agent_id"`
	// SigningKey is the hex-encoded Ed25519 seed.
	SigningKey string `json:"signing_key"`
	// BaseURL pins the API the credentials belong to. Optional.
	BaseURL string `json:"base_url,omitempty"`
	// CreatedAt records when the identity was generated.
	CreatedAt time.Time `json:"created_at"`
}

// Store reads and writes encrypted credentials under one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a Store rooted at dir. The directory is created on first
// Save.
func New(dir string) *Store { return &Store{dir: dir} }

// DefaultDir returns the conventional credentials directory,
// ~/.moltbridge.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".moltbridge"), nil
}

func (s *Store) path() string { return filepath.Join(s.dir, credsFilename) }

// Exists reports whether credentials are on disk, without decrypting them.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path())
	return err == nil
}

// Save seals creds under passphrase and writes them atomically with mode
// 0600. An existing file is replaced.
func (s *Store) Save(passphrase string, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	sealed, err := seal(passphrase, raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return writeFileAtomic(s.path(), sealed, 0o600)
}

// Load reads and unseals the stored credentials.
func (s *Store) Load(passphrase string) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNotFound
	}
	if err != nil {
		return Credentials{}, err
	}
	raw, err := open(passphrase, b)
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, ErrWrongPassphrase
	}
	return creds, nil
}

// Remove deletes the credentials file. Removing absent credentials is not
// an error.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ── Envelope ─────────────────────────────────────────────────────────────

// blob is the on-disk JSON structure holding the ciphertext and KDF
// parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

func scryptParams() (N, r, p int) { return 1 << 15, 8, 1 }

// seal derives a key from passphrase and seals raw into a JSON blob. A
// fresh salt per write binds the key to this blob, so the zero nonce is
// never reused.
func seal(passphrase string, raw []byte) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	N, r, p := scryptParams()
	key, err := scrypt.Key([]byte(passphrase), salt[:], N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(blob{
		V:      formatVersion,
		Salt:   salt[:],
		N:      N,
		R:      r,
		P:      p,
		Cipher: ct,
	})
}

// open unseals a JSON blob using a key derived from passphrase.
func open(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, ErrWrongPassphrase
	}
	if bl.V > formatVersion {
		return nil, fmt.Errorf("unsupported credentials format version %d", bl.V)
	}

	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	raw, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}

// writeFileAtomic writes bytes via a temp file, then replaces the target.
func writeFileAtomic(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
