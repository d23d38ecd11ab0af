package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/moltbridge/moltbridge-go/pkg/pow"
)

// VerificationState tracks an agent's progress through the proof-of-AI
// verification flow.
type VerificationState int

const (
	// StateUnverified is the initial state; Register is refused here.
	StateUnverified VerificationState = iota
	// StateChallengeIssued means a challenge was received and a solve is
	// in flight.
	StateChallengeIssued
	// StateVerified means the server accepted a proof and issued a
	// session token.
	StateVerified
)

func (s VerificationState) String() string {
	switch s {
	case StateChallengeIssued:
		return "challenge_issued"
	case StateVerified:
		return "verified"
	default:
		return "unverified"
	}
}

// State reports the current verification state.
func (ac *AgentClient) State() VerificationState {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.state
}

// VerificationToken returns the session token issued by Verify, or "" when
// the agent is not verified. Tokens are session-scoped and are not
// persisted.
func (ac *AgentClient) VerificationToken() string {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.verificationToken
}

func (ac *AgentClient) setState(s VerificationState) {
	ac.mu.Lock()
	ac.state = s
	if s != StateVerified {
		ac.verificationToken = ""
	}
	ac.mu.Unlock()
}

func (ac *AgentClient) setVerified(token string) {
	ac.mu.Lock()
	ac.state = StateVerified
	ac.verificationToken = token
	ac.mu.Unlock()
}

// Verify completes the proof-of-AI verification challenge and stores the
// resulting session token for Register.
//
// The server is probed first: an already-verified agent gets its token back
// without any solving. Otherwise the returned SHA-256 challenge is solved
// locally (pow.Solve honors ctx, so slow solves can be abandoned) and the
// proof submitted.
func (ac *AgentClient) Verify(ctx context.Context) (*VerificationResult, error) {
	raw, err := ac.public(ctx, http.MethodPost, "/verify", nil)
	if err != nil {
		return nil, err
	}

	var probe VerificationResult
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode verification response: %w", err)
	}
	if probe.Verified {
		ac.setVerified(probe.Token)
		return &probe, nil
	}

	var ch VerificationChallenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, fmt.Errorf("decode verification challenge: %w", err)
	}
	if ch.ChallengeID == "" {
		return nil, fmt.Errorf("verification response carries neither a result nor a challenge")
	}
	prefix := ch.TargetPrefix
	if prefix == "" {
		prefix = pow.TargetPrefix(ch.Difficulty)
	}

	ac.setState(StateChallengeIssued)
	ac.logger.Info("verification challenge issued",
		zap.String("challenge_id", ch.ChallengeID),
		zap.Int("difficulty", ch.Difficulty),
	)

	proof, err := pow.Solve(ctx, ch.Nonce, prefix)
	if err != nil {
		ac.setState(StateUnverified)
		return nil, err
	}

	raw, err = ac.public(ctx, http.MethodPost, "/verify", map[string]any{
		"challenge_id":  ch.ChallengeID,
		"proof_of_work": proof,
	})
	if err != nil {
		ac.setState(StateUnverified)
		return nil, err
	}

	var result VerificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		ac.setState(StateUnverified)
		return nil, fmt.Errorf("decode verification response: %w", err)
	}
	if result.Verified {
		ac.setVerified(result.Token)
		ac.logger.Info("agent verified", zap.String("agent_id", ac.AgentID()))
	} else {
		ac.setState(StateUnverified)
	}
	return &result, nil
}
