// Package auth implements Ed25519 request signing for the MoltBridge API.
//
// Every authenticated request carries an Authorization header of the form
//
//	MoltBridge-Ed25519 <agent_id>:<timestamp>:<signature>
//
// where the signature covers "<METHOD>:<path>:<timestamp>:<body_digest>".
// The digest is the hex SHA-256 of the canonical JSON serialization of the
// request body, or of the empty string when the request has no body. The
// timestamp is part of the signed message, so identical requests signed at
// different times carry different signatures; the server rejects requests
// whose timestamp falls outside its acceptance window.
package auth

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Scheme is the Authorization header scheme literal.
const Scheme = "MoltBridge-Ed25519"

// SeedSize is the required length of a raw signing-key seed in bytes.
const SeedSize = ed25519.SeedSize

// ErrInvalidKeyMaterial is returned when a supplied seed is malformed or has
// the wrong length.
var ErrInvalidKeyMaterial = errors.New("invalid signing key material")

// Signer holds an agent identity and its Ed25519 keypair, and produces
// Authorization header values. The private key never leaves the Signer;
// only the encoded public key is published, during registration.
//
// A Signer is immutable after construction and safe for concurrent use.
type Signer struct {
	agentID string
	priv    ed25519.PrivateKey
	pub     ed25519.PublicKey
}

// Generate creates a Signer with a fresh random keypair bound to agentID.
// Persist SeedHex somewhere durable to remain reachable as the same agent
// across sessions.
func Generate(agentID string) (*Signer, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate seed: %w", err)
	}
	return FromSeedBytes(seed, agentID)
}

// FromSeed reconstructs a Signer from a hex-encoded 32-byte seed.
func FromSeed(seedHex, agentID string) (*Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("%w: seed is not valid hex: %v", ErrInvalidKeyMaterial, err)
	}
	return FromSeedBytes(seed, agentID)
}

// FromSeedBytes reconstructs a Signer from exactly SeedSize raw seed bytes.
func FromSeedBytes(seed []byte, agentID string) (*Signer, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidKeyMaterial, SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Signer{
		agentID: agentID,
		priv:    priv,
		pub:     priv.Public().(ed25519.PublicKey),
	}, nil
}

// AgentID returns the agent identity this Signer is bound to.
func (s *Signer) AgentID() string { return s.agentID }

// PublicKey returns the public key as an unpadded base64url string, the
// encoding the registration endpoint expects in its pubkey field.
func (s *Signer) PublicKey() string {
	return base64.RawURLEncoding.EncodeToString(s.pub)
}

// SeedHex returns the private key seed as hex, for caller-side storage.
func (s *Signer) SeedHex() string {
	return hex.EncodeToString(s.priv.Seed())
}

// SignRequest produces the Authorization header value for a request. The
// body is canonicalized before hashing; pass nil for requests without one.
// path must include the query string when the request has one.
func (s *Signer) SignRequest(method, path string, body any) (string, error) {
	var payload []byte
	if body != nil {
		b, err := CanonicalJSON(body)
		if err != nil {
			return "", fmt.Errorf("canonicalize body: %w", err)
		}
		payload = b
	}
	return s.SignCanonical(method, path, payload), nil
}

// SignCanonical is like SignRequest for a body that has already been
// serialized with CanonicalJSON. The transport layer uses it so the bytes
// that are signed and the bytes that are sent are the same bytes.
func (s *Signer) SignCanonical(method, path string, payload []byte) string {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	digest := sha256.Sum256(payload)

	message := method + ":" + path + ":" + timestamp + ":" + hex.EncodeToString(digest[:])
	signature := ed25519.Sign(s.priv, []byte(message))

	return Scheme + " " + s.agentID + ":" + timestamp + ":" +
		base64.RawURLEncoding.EncodeToString(signature)
}

// CanonicalJSON serializes v with lexicographically sorted object keys,
// compact separators, and no HTML escaping. Signer and verifier must hash
// identical bytes, so any body that is signed must also be transmitted in
// this form.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	// Round-trip through an untyped tree: encoding/json sorts map keys on
	// output, and UseNumber preserves numeric literals exactly.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
