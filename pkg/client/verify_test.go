package client_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moltbridge/moltbridge-go/pkg/client"
)

// stubVerifyServer answers /verify with a proof-of-work challenge and
// validates submitted proofs server-side, like the real API does.
func stubVerifyServer(t *testing.T, nonce string, difficulty int) (*httptest.Server, *int) {
	t.Helper()
	calls := new(int)

	mux := http.NewServeMux()
	mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		body, _ := io.ReadAll(r.Body)

		if len(body) == 0 {
			json.NewEncoder(w).Encode(map[string]any{
				"challenge_id": "ch-1",
				"difficulty":   difficulty,
				"nonce":        nonce,
			})
			return
		}

		var submit struct {
			ChallengeID string `json:"challenge_id"`
			ProofOfWork string `json:"proof_of_work"`
		}
		if err := json.Unmarshal(body, &submit); err != nil || submit.ChallengeID != "ch-1" {
			http.Error(w, `{"error":{"message":"bad challenge","code":"VALIDATION_ERROR"}}`, http.StatusBadRequest)
			return
		}
		sum := sha256.Sum256([]byte(nonce + submit.ProofOfWork))
		if !strings.HasPrefix(hex.EncodeToString(sum[:]), strings.Repeat("0", difficulty)) {
			json.NewEncoder(w).Encode(map[string]any{"verified": false})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"verified": true, "token": "tok-solved"})
	})

	return httptest.NewServer(mux), calls
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestVerify_alreadyVerified(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if body, _ := io.ReadAll(r.Body); len(body) != 0 {
			t.Errorf("verification probe carried a body: %s", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"verified": true, "token": "tok-1"})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	result, err := ac.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Verified || result.Token != "tok-1" {
		t.Errorf("unexpected result: %+v", result)
	}
	if calls != 1 {
		t.Errorf("already-verified agents must not solve, got %d calls", calls)
	}
	if ac.State() != client.StateVerified {
		t.Errorf("state = %v, want verified", ac.State())
	}
	if ac.VerificationToken() != "tok-1" {
		t.Errorf("token = %q", ac.VerificationToken())
	}
}

func TestVerify_solvesChallenge(t *testing.T) {
	srv, calls := stubVerifyServer(t, "abc", 1)
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	result, err := ac.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Verified || result.Token != "tok-solved" {
		t.Errorf("unexpected result: %+v", result)
	}
	if *calls != 2 {
		t.Errorf("expected probe + submit, got %d calls", *calls)
	}
	if ac.State() != client.StateVerified || ac.VerificationToken() != "tok-solved" {
		t.Errorf("state = %v token = %q", ac.State(), ac.VerificationToken())
	}
}

func TestVerify_serverTargetPrefix(t *testing.T) {
	// Difficulty says four zeros but the explicit prefix only asks for one;
	// the prefix wins.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			json.NewEncoder(w).Encode(map[string]any{
				"challenge_id":  "ch-1",
				"difficulty":    4,
				"nonce":         "abc",
				"target_prefix": "0",
			})
			return
		}
		var submit struct {
			ProofOfWork string `json:"proof_of_work"`
		}
		json.Unmarshal(body, &submit)
		sum := sha256.Sum256([]byte("abc" + submit.ProofOfWork))
		json.NewEncoder(w).Encode(map[string]any{
			"verified": strings.HasPrefix(hex.EncodeToString(sum[:]), "0"),
			"token":    "tok-prefix",
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	result, err := ac.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Verified {
		t.Error("expected verification to succeed against the explicit prefix")
	}
}

func TestVerify_rejectedProof(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			json.NewEncoder(w).Encode(map[string]any{
				"challenge_id": "ch-1",
				"difficulty":   1,
				"nonce":        "abc",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"verified": false})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	result, err := ac.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Verified {
		t.Error("expected rejection")
	}
	if ac.State() != client.StateUnverified || ac.VerificationToken() != "" {
		t.Errorf("rejected proof must reset state, got %v token %q", ac.State(), ac.VerificationToken())
	}
}

func TestRegister_requiresVerification(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	_, err := ac.Register(context.Background(), client.Registration{})
	if !errors.Is(err, client.ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
	if calls != 0 {
		t.Errorf("precondition failure must not reach the network, got %d calls", calls)
	}
}

func TestRegister_success(t *testing.T) {
	signer := testSigner(t)

	var registerBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"verified": true, "token": "tok-reg"})
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &registerBody); err != nil {
			t.Errorf("decode register body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "registered", "agent_id": "agent-test"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ac, err := client.NewAgent(testConfig(srv.URL), signer)
	if err != nil {
		t.Fatal(err)
	}
	defer ac.Close()

	if _, err := ac.Verify(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err := ac.Register(context.Background(), client.Registration{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result["status"] != "registered" {
		t.Errorf("unexpected response: %v", result)
	}

	// Defaults: name falls back to the agent id, platform to "custom",
	// list fields to empty arrays.
	if registerBody["agent_id"] != "agent-test" || registerBody["name"] != "agent-test" {
		t.Errorf("identity fields wrong: %v", registerBody)
	}
	if registerBody["platform"] != "custom" {
		t.Errorf("platform = %v", registerBody["platform"])
	}
	if registerBody["pubkey"] != signer.PublicKey() {
		t.Errorf("pubkey mismatch")
	}
	if caps, ok := registerBody["capabilities"].([]any); !ok || len(caps) != 0 {
		t.Errorf("capabilities = %v, want []", registerBody["capabilities"])
	}
	if registerBody["verification_token"] != "tok-reg" {
		t.Errorf("verification_token = %v", registerBody["verification_token"])
	}
	if registerBody["omniscience_acknowledged"] != true || registerBody["article22_consent"] != true {
		t.Errorf("consent flags wrong: %v", registerBody)
	}
	if _, present := registerBody["a2a_endpoint"]; present {
		t.Error("a2a_endpoint must be omitted when unset")
	}
}

func TestRegister_customFields(t *testing.T) {
	var registerBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"verified": true, "token": "tok-reg"})
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &registerBody)
		json.NewEncoder(w).Encode(map[string]any{"status": "registered"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	if _, err := ac.Verify(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err := ac.Register(context.Background(), client.Registration{
		Name:         "Research Scout",
		Platform:     "a2a",
		Capabilities: []string{"nlp"},
		Clusters:     []string{"AI Research"},
		A2AEndpoint:  "https://scout.example.com/card",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if registerBody["name"] != "Research Scout" || registerBody["platform"] != "a2a" {
		t.Errorf("profile fields wrong: %v", registerBody)
	}
	if registerBody["a2a_endpoint"] != "https://scout.example.com/card" {
		t.Errorf("a2a_endpoint = %v", registerBody["a2a_endpoint"])
	}
}
