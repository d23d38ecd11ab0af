// Package pow implements the SHA-256 proof-of-work search used by the
// MoltBridge verification challenge.
//
// The server hands out a nonce and a difficulty; the client must find a
// counter whose digest of nonce+counter starts with the target prefix. The
// puzzle is cheap to verify and costly to produce.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultMaxIterations bounds the brute-force search. The cap keeps
// worst-case latency and CPU burn finite if the server hands out an
// unreasonably hard puzzle.
const DefaultMaxIterations = 10_000_000

// ErrChallengeTimeout is returned when the search exhausts its iteration
// ceiling without finding a matching digest.
var ErrChallengeTimeout = errors.New("challenge solving exceeded the iteration limit")

// TargetPrefix returns the conventional target for a difficulty: that many
// leading zero characters of the hex digest.
func TargetPrefix(difficulty int) string {
	return strings.Repeat("0", difficulty)
}

// Solve searches for the smallest counter such that the hex SHA-256 digest
// of nonce+counter starts with targetPrefix, and returns that counter as its
// decimal string, the proof the verification endpoint expects.
//
// The search is CPU-bound and runs synchronously on the calling goroutine,
// checking ctx periodically so callers with deadlines are not stuck for the
// full ceiling. For a fixed (nonce, targetPrefix) pair the result is
// deterministic.
func Solve(ctx context.Context, nonce, targetPrefix string) (string, error) {
	return SolveWithLimit(ctx, nonce, targetPrefix, DefaultMaxIterations)
}

// SolveWithLimit is Solve with an explicit iteration ceiling.
func SolveWithLimit(ctx context.Context, nonce, targetPrefix string, maxIterations int) (string, error) {
	for counter := 0; ; counter++ {
		if counter > maxIterations {
			return "", fmt.Errorf("%w (%d iterations)", ErrChallengeTimeout, maxIterations)
		}
		if counter&0x3ff == 0 && ctx.Err() != nil {
			return "", ctx.Err()
		}

		attempt := strconv.Itoa(counter)
		digest := sha256.Sum256([]byte(nonce + attempt))
		if strings.HasPrefix(hex.EncodeToString(digest[:]), targetPrefix) {
			return attempt, nil
		}
	}
}
