package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Attestation defaults applied to zero-valued fields.
const (
	DefaultAttestationType       = "INTERACTION"
	defaultAttestationConfidence = 0.8
)

// Attestation is a statement about another agent. Type is one of
// CAPABILITY, IDENTITY, or INTERACTION (the default); Confidence defaults
// to 0.8.
type Attestation struct {
	// TargetAgentID is the agent the attestation is about.
	TargetAgentID string
	// Type of attestation.
	Type string
	// Confidence in (0.0, 1.0].
	Confidence float64
	// CapabilityTag optionally names the specific capability attested.
	CapabilityTag string
}

// attestResponse is the wire shape of a POST /attest response.
type attestResponse struct {
	Attestation struct {
		Source     string  `json:"source"`
		Target     string  `json:"target"`
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
		CreatedAt  string  `json:"created_at"`
		ValidUntil string  `json:"valid_until"`
	} `json:"attestation"`
	TargetTrustScore float64 `json:"target_trust_score"`
}

// Attest submits an attestation about another agent. Attestations feed the
// target's trust score; the updated score comes back in the result.
func (ac *AgentClient) Attest(ctx context.Context, att Attestation) (*AttestationResult, error) {
	if att.Type == "" {
		att.Type = DefaultAttestationType
	}
	if att.Confidence == 0 {
		att.Confidence = defaultAttestationConfidence
	}

	body := map[string]any{
		"target_agent_id":  att.TargetAgentID,
		"attestation_type": att.Type,
		"confidence":       att.Confidence,
	}
	if att.CapabilityTag != "" {
		body["capability_tag"] = att.CapabilityTag
	}

	raw, err := ac.signed(ctx, http.MethodPost, "/attest", body)
	if err != nil {
		return nil, err
	}

	var resp attestResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode attestation response: %w", err)
	}
	return &AttestationResult{
		Source:           resp.Attestation.Source,
		Target:           resp.Attestation.Target,
		Type:             resp.Attestation.Type,
		Confidence:       resp.Attestation.Confidence,
		CreatedAt:        resp.Attestation.CreatedAt,
		ValidUntil:       resp.Attestation.ValidUntil,
		TargetTrustScore: resp.TargetTrustScore,
	}, nil
}

// ReportOutcome reports how an introduction turned out. status is the
// outcome, e.g. "accepted" or "ghosted"; evidenceType defaults to
// "requester_report".
func (ac *AgentClient) ReportOutcome(ctx context.Context, introductionID, status, evidenceType string) (map[string]any, error) {
	if evidenceType == "" {
		evidenceType = "requester_report"
	}

	raw, err := ac.signed(ctx, http.MethodPost, "/report-outcome", map[string]any{
		"introduction_id": introductionID,
		"status":          status,
		"evidence_type":   evidenceType,
	})
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// IQSQuery asks for introduction-quality guidance about a prospective
// introduction to TargetID. Hops defaults to 2; zero-valued optional
// fields are omitted.
type IQSQuery struct {
	TargetID              string
	Hops                  int
	RequesterCapabilities []string
	TargetCapabilities    []string
	BrokerSuccessCount    int
	BrokerTotalIntros     int
}

// EvaluateIQS returns band-based introduction quality guidance. The server
// deliberately answers with a band and a recommendation rather than the
// underlying score. Requires iqs_scoring consent; see GrantConsent.
func (ac *AgentClient) EvaluateIQS(ctx context.Context, query IQSQuery) (*IQSResult, error) {
	if query.Hops == 0 {
		query.Hops = 2
	}

	body := map[string]any{
		"target_id": query.TargetID,
		"hops":      query.Hops,
	}
	if len(query.RequesterCapabilities) > 0 {
		body["requester_capabilities"] = query.RequesterCapabilities
	}
	if len(query.TargetCapabilities) > 0 {
		body["target_capabilities"] = query.TargetCapabilities
	}
	if query.BrokerSuccessCount != 0 {
		body["broker_success_count"] = query.BrokerSuccessCount
	}
	if query.BrokerTotalIntros != 0 {
		body["broker_total_intros"] = query.BrokerTotalIntros
	}

	raw, err := ac.signed(ctx, http.MethodPost, "/iqs/evaluate", body)
	if err != nil {
		return nil, err
	}

	var result IQSResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode quality score response: %w", err)
	}
	return &result, nil
}
