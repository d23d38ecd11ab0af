package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Consent purposes recognized by the server.
const (
	ConsentIQSScoring  = "iqs_scoring"
	ConsentDataSharing = "data_sharing"
	ConsentProfiling   = "profiling"
)

// ConsentStatus reports the agent's consent records for every purpose,
// alongside the server's purpose descriptions.
func (ac *AgentClient) ConsentStatus(ctx context.Context) (*ConsentStatus, error) {
	raw, err := ac.signed(ctx, http.MethodGet, "/consent", nil)
	if err != nil {
		return nil, err
	}

	var status ConsentStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode consent status: %w", err)
	}
	// The wire records do not repeat the purpose; fill it from the map key.
	for purpose, record := range status.Consents {
		record.Purpose = purpose
		status.Consents[purpose] = record
	}
	return &status, nil
}

// GrantConsent grants consent for a purpose, e.g. ConsentIQSScoring.
func (ac *AgentClient) GrantConsent(ctx context.Context, purpose string) (*ConsentRecord, error) {
	return ac.consentChange(ctx, "/consent/grant", purpose)
}

// WithdrawConsent withdraws consent for a purpose. Operations gated on the
// purpose start failing once withdrawal lands.
func (ac *AgentClient) WithdrawConsent(ctx context.Context, purpose string) (*ConsentRecord, error) {
	return ac.consentChange(ctx, "/consent/withdraw", purpose)
}

func (ac *AgentClient) consentChange(ctx context.Context, path, purpose string) (*ConsentRecord, error) {
	raw, err := ac.signed(ctx, http.MethodPost, path, map[string]any{"purpose": purpose})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Consent ConsentRecord `json:"consent"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode consent record: %w", err)
	}
	return &resp.Consent, nil
}

// ExportConsentData exports all consent data held about this agent
// (data portability).
func (ac *AgentClient) ExportConsentData(ctx context.Context) (map[string]any, error) {
	raw, err := ac.signed(ctx, http.MethodGet, "/consent/export", nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// EraseConsentData erases all consent data held about this agent
// (right to erasure).
func (ac *AgentClient) EraseConsentData(ctx context.Context) (map[string]any, error) {
	raw, err := ac.signed(ctx, http.MethodDelete, "/consent/erase", nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}
