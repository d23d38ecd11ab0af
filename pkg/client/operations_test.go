package client_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moltbridge/moltbridge-go/pkg/client"
)

// ── Discovery ────────────────────────────────────────────────────────────

func TestDiscoverBroker_decodes(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"broker_agent_id":    "agent-broker",
				"broker_name":        "Broker One",
				"broker_trust_score": 0.92,
				"path_hops":          2,
				"via_clusters":       []string{"AI Research"},
				"composite_score":    0.88,
			}},
			"query_time_ms": 12,
			"path_found":    true,
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	resp, err := ac.DiscoverBroker(context.Background(), "Jane", 0, 0)
	if err != nil {
		t.Fatalf("DiscoverBroker: %v", err)
	}

	want := `{"max_hops":4,"max_results":3,"target_identifier":"Jane"}`
	if string(gotBody) != want {
		t.Errorf("defaults not applied:\n got %s\nwant %s", gotBody, want)
	}
	if len(resp.Results) != 1 || !resp.PathFound {
		t.Fatalf("unexpected response: %+v", resp)
	}
	b := resp.Results[0]
	if b.BrokerAgentID != "agent-broker" || b.BrokerTrustScore != 0.92 || b.PathHops != 2 {
		t.Errorf("broker fields wrong: %+v", b)
	}
	if len(b.ViaClusters) != 1 || b.ViaClusters[0] != "AI Research" {
		t.Errorf("via_clusters = %v", b.ViaClusters)
	}
}

func TestDiscoverBroker_cached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}, "path_found": false})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.DiscoveryCacheTTL = 5 * time.Minute
	ac := newTestAgentConfig(t, cfg)

	ac.DiscoverBroker(context.Background(), "Jane", 0, 0)
	ac.DiscoverBroker(context.Background(), "Jane", 0, 0)
	if calls != 1 {
		t.Errorf("expected 1 HTTP call for a repeated query, got %d", calls)
	}

	ac.DiscoverBroker(context.Background(), "John", 0, 0)
	if calls != 2 {
		t.Errorf("distinct query must miss the cache, got %d calls", calls)
	}
}

func TestDiscoverCapability_decodes(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"agent_id":             "agent-nlp",
				"agent_name":           "NLP One",
				"trust_score":          0.7,
				"matched_capabilities": []string{"nlp"},
				"match_score":          0.95,
			}},
			"query_time_ms": 4,
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	resp, err := ac.DiscoverCapability(context.Background(), []string{"nlp"}, 0, 0)
	if err != nil {
		t.Fatalf("DiscoverCapability: %v", err)
	}

	want := `{"capabilities":["nlp"],"max_results":10,"min_trust_score":0}`
	if string(gotBody) != want {
		t.Errorf("defaults not applied:\n got %s\nwant %s", gotBody, want)
	}
	if len(resp.Results) != 1 || resp.Results[0].AgentID != "agent-nlp" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Results[0].MatchScore != 0.95 {
		t.Errorf("match_score = %v", resp.Results[0].MatchScore)
	}
}

// ── Credibility ──────────────────────────────────────────────────────────

func TestCredibilityPacket_queryEscaped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("target"); got != "Jane Doe" {
			t.Errorf("target = %q, want %q", got, "Jane Doe")
		}
		if got := r.URL.Query().Get("broker"); got != "agent-broker" {
			t.Errorf("broker = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"packet":     "x.y.z",
			"expires_in": 300,
			"verify_url": "https://api.moltbridge.ai/credibility-packet/verify",
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	packet, err := ac.CredibilityPacket(context.Background(), "Jane Doe", "agent-broker")
	if err != nil {
		t.Fatalf("CredibilityPacket: %v", err)
	}
	if packet.Packet != "x.y.z" || packet.ExpiresIn != 300 {
		t.Errorf("unexpected packet: %+v", packet)
	}
}

func TestCredibilityPacket_decodeClaims(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims := base64.RawURLEncoding.EncodeToString([]byte(`{"broker":"agent-broker","target":"Jane Doe","trust":0.9}`))
	packet := &client.CredibilityPacket{Packet: header + "." + claims + ".sig"}

	decoded, err := packet.DecodeClaims()
	if err != nil {
		t.Fatalf("DecodeClaims: %v", err)
	}
	if decoded["broker"] != "agent-broker" || decoded["target"] != "Jane Doe" {
		t.Errorf("unexpected claims: %v", decoded)
	}
}

func TestCredibilityPacket_decodeClaimsMalformed(t *testing.T) {
	packet := &client.CredibilityPacket{Packet: "not-a-jwt"}
	if _, err := packet.DecodeClaims(); err == nil {
		t.Error("expected error for malformed packet")
	}
}

// ── Attestations, outcomes, quality scoring ──────────────────────────────

func TestAttest_defaultsAndDecode(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"attestation": map[string]any{
				"source":      "agent-test",
				"target":      "agent-other",
				"type":        "INTERACTION",
				"confidence":  0.8,
				"created_at":  "2026-02-01T00:00:00Z",
				"valid_until": "2026-05-01T00:00:00Z",
			},
			"target_trust_score": 0.61,
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	result, err := ac.Attest(context.Background(), client.Attestation{TargetAgentID: "agent-other"})
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}

	if gotBody["attestation_type"] != "INTERACTION" || gotBody["confidence"] != 0.8 {
		t.Errorf("defaults not applied: %v", gotBody)
	}
	if _, present := gotBody["capability_tag"]; present {
		t.Error("capability_tag must be omitted when unset")
	}
	if result.Target != "agent-other" || result.TargetTrustScore != 0.61 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.ValidUntil != "2026-05-01T00:00:00Z" {
		t.Errorf("valid_until = %q", result.ValidUntil)
	}
}

func TestAttest_capabilityTag(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"attestation":        map[string]any{"source": "a", "target": "b", "type": "CAPABILITY", "confidence": 0.9, "created_at": "", "valid_until": ""},
			"target_trust_score": 0.5,
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	_, err := ac.Attest(context.Background(), client.Attestation{
		TargetAgentID: "agent-other",
		Type:          "CAPABILITY",
		Confidence:    0.9,
		CapabilityTag: "nlp",
	})
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}
	if gotBody["capability_tag"] != "nlp" || gotBody["attestation_type"] != "CAPABILITY" {
		t.Errorf("explicit fields not sent: %v", gotBody)
	}
}

func TestReportOutcome_defaultEvidence(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{"status": "recorded"})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	if _, err := ac.ReportOutcome(context.Background(), "intro-1", "ghosted", ""); err != nil {
		t.Fatalf("ReportOutcome: %v", err)
	}
	if gotBody["evidence_type"] != "requester_report" || gotBody["status"] != "ghosted" {
		t.Errorf("unexpected body: %v", gotBody)
	}
}

func TestEvaluateIQS_omitsZeroCounts(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"band":                "HIGH",
			"recommendation":      "proceed",
			"threshold_used":      0.75,
			"components_received": true,
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	result, err := ac.EvaluateIQS(context.Background(), client.IQSQuery{TargetID: "agent-other"})
	if err != nil {
		t.Fatalf("EvaluateIQS: %v", err)
	}

	if gotBody["hops"] != float64(2) {
		t.Errorf("hops = %v, want default 2", gotBody["hops"])
	}
	for _, key := range []string{"requester_capabilities", "target_capabilities", "broker_success_count", "broker_total_intros"} {
		if _, present := gotBody[key]; present {
			t.Errorf("%s must be omitted when zero", key)
		}
	}
	if result.Band != "HIGH" || result.Recommendation != "proceed" {
		t.Errorf("unexpected result: %+v", result)
	}
}

// ── Profile and principal ────────────────────────────────────────────────

func TestUpdateProfile_emptySendsNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if body, _ := io.ReadAll(r.Body); len(body) != 0 {
			t.Errorf("empty update must send no body, got %s", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "unchanged"})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	if _, err := ac.UpdateProfile(context.Background(), client.ProfileUpdate{}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
}

func TestUpdateProfile_sendsSetFields(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{"status": "updated"})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	_, err := ac.UpdateProfile(context.Background(), client.ProfileUpdate{
		Capabilities: []string{},
		Clusters:     []string{"AI Research"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	if caps, ok := gotBody["capabilities"].([]any); !ok || len(caps) != 0 {
		t.Errorf("non-nil empty slice must transmit []: %v", gotBody["capabilities"])
	}
	if _, present := gotBody["a2a_endpoint"]; present {
		t.Error("unset a2a_endpoint must be omitted")
	}
}

func TestOnboardPrincipal_sendsSetFields(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{"status": "onboarded"})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	_, err := ac.OnboardPrincipal(context.Background(), client.PrincipalProfile{
		Industry:  "venture-capital",
		Expertise: []string{"seed-investing"},
		Projects:  []map[string]any{{"name": "Fund II", "status": "active"}},
	})
	if err != nil {
		t.Fatalf("OnboardPrincipal: %v", err)
	}

	if gotBody["industry"] != "venture-capital" {
		t.Errorf("industry = %v", gotBody["industry"])
	}
	if _, present := gotBody["role"]; present {
		t.Error("unset role must be omitted")
	}
	if _, present := gotBody["projects"]; !present {
		t.Error("projects must be sent when set")
	}
}

func TestUpdatePrincipal_replaceOnlyWhenTrue(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{"status": "updated"})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	_, err := ac.UpdatePrincipal(context.Background(), client.PrincipalProfile{Bio: "Seed investor."}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, present := gotBody["replace"]; present {
		t.Error("additive updates must not send replace")
	}

	_, err = ac.UpdatePrincipal(context.Background(), client.PrincipalProfile{Bio: "Seed investor."}, true)
	if err != nil {
		t.Fatal(err)
	}
	if gotBody["replace"] != true {
		t.Errorf("replace = %v, want true", gotBody["replace"])
	}
}

// ── Consent ──────────────────────────────────────────────────────────────

func TestConsentStatus_fillsPurpose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"consents": map[string]any{
				"iqs_scoring": map[string]any{"granted": true, "granted_at": "2026-01-01T00:00:00Z", "mechanism": "api"},
			},
			"descriptions": map[string]any{"iqs_scoring": "Introduction quality scoring"},
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	status, err := ac.ConsentStatus(context.Background())
	if err != nil {
		t.Fatalf("ConsentStatus: %v", err)
	}
	record, ok := status.Consents[client.ConsentIQSScoring]
	if !ok {
		t.Fatalf("missing iqs_scoring record: %+v", status)
	}
	if record.Purpose != client.ConsentIQSScoring || !record.Granted {
		t.Errorf("unexpected record: %+v", record)
	}
	if status.Descriptions[client.ConsentIQSScoring] == "" {
		t.Error("descriptions not decoded")
	}
}

func TestGrantAndWithdrawConsent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/consent/grant", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"consent": map[string]any{"purpose": "iqs_scoring", "granted": true, "granted_at": "2026-01-01T00:00:00Z", "mechanism": "api"},
		})
	})
	mux.HandleFunc("/consent/withdraw", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"consent": map[string]any{"purpose": "iqs_scoring", "granted": false, "withdrawn_at": "2026-02-01T00:00:00Z", "mechanism": "api"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	granted, err := ac.GrantConsent(context.Background(), client.ConsentIQSScoring)
	if err != nil {
		t.Fatalf("GrantConsent: %v", err)
	}
	if !granted.Granted || granted.Purpose != "iqs_scoring" {
		t.Errorf("unexpected grant: %+v", granted)
	}

	withdrawn, err := ac.WithdrawConsent(context.Background(), client.ConsentIQSScoring)
	if err != nil {
		t.Fatalf("WithdrawConsent: %v", err)
	}
	if withdrawn.Granted || withdrawn.WithdrawnAt == "" {
		t.Errorf("unexpected withdrawal: %+v", withdrawn)
	}
}

// ── Payments ─────────────────────────────────────────────────────────────

func TestBalance_decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"balance": map[string]any{
				"agent_id":        "agent-test",
				"balance":         42.5,
				"broker_tier":     "standard",
				"commission_rate": 0.1,
			},
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	balance, err := ac.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.Balance != 42.5 || balance.BrokerTier != client.TierStandard {
		t.Errorf("unexpected balance: %+v", balance)
	}
}

func TestDeposit_decodes(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"entry": map[string]any{
				"id": "le-1", "agent_id": "agent-test", "type": "deposit",
				"amount": 10.0, "description": "deposit", "timestamp": "2026-01-01T00:00:00Z",
				"balance_after": 52.5,
			},
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	entry, err := ac.Deposit(context.Background(), 10)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if gotBody["amount"] != float64(10) {
		t.Errorf("amount = %v", gotBody["amount"])
	}
	if entry.BalanceAfter != 52.5 || entry.Type != "deposit" {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestPaymentHistory_defaultLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"history": []map[string]any{
				{"id": "le-1", "agent_id": "agent-test", "type": "deposit", "amount": 10.0, "description": "", "timestamp": "", "balance_after": 10.0},
			},
		})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	history, err := ac.PaymentHistory(context.Background(), 0)
	if err != nil {
		t.Fatalf("PaymentHistory: %v", err)
	}
	if len(history) != 1 || history[0].ID != "le-1" {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestCreatePaymentAccount_defaultTier(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		json.NewEncoder(w).Encode(map[string]any{"status": "created"})
	}))
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)

	if _, err := ac.CreatePaymentAccount(context.Background(), ""); err != nil {
		t.Fatalf("CreatePaymentAccount: %v", err)
	}
	if gotBody["tier"] != "standard" {
		t.Errorf("tier = %v, want standard", gotBody["tier"])
	}
}

// ── Webhooks ─────────────────────────────────────────────────────────────

func TestWebhooks_lifecycle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhooks/register", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"registration": map[string]any{
				"endpoint_url": "https://hooks.example.com/mb",
				"event_types":  []string{"introduction.completed"},
				"active":       true,
			},
			"secret": "whsec_abc",
		})
	})
	mux.HandleFunc("/webhooks", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"registrations": []map[string]any{
				{"endpoint_url": "https://hooks.example.com/mb", "event_types": []string{"introduction.completed"}, "active": true},
			},
		})
	})
	mux.HandleFunc("/webhooks/unregister", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"removed": true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ac := newTestAgent(t, srv.URL)
	ctx := context.Background()

	reg, err := ac.RegisterWebhook(ctx, "https://hooks.example.com/mb", []string{"introduction.completed"})
	if err != nil {
		t.Fatalf("RegisterWebhook: %v", err)
	}
	if reg.Secret != "whsec_abc" {
		t.Errorf("secret = %q, want the top-level secret", reg.Secret)
	}

	hooks, err := ac.ListWebhooks(ctx)
	if err != nil {
		t.Fatalf("ListWebhooks: %v", err)
	}
	if len(hooks) != 1 || hooks[0].Secret != "" {
		t.Errorf("listing must not expose secrets: %+v", hooks)
	}

	removed, err := ac.UnregisterWebhook(ctx, "https://hooks.example.com/mb")
	if err != nil {
		t.Fatalf("UnregisterWebhook: %v", err)
	}
	if !removed {
		t.Error("expected removed = true")
	}
}
