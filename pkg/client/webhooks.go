package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RegisterWebhook registers an endpoint for event notifications. The
// returned registration carries the signing secret exactly once; store it,
// it is not retrievable later.
func (ac *AgentClient) RegisterWebhook(ctx context.Context, endpointURL string, eventTypes []string) (*WebhookRegistration, error) {
	raw, err := ac.signed(ctx, http.MethodPost, "/webhooks/register", map[string]any{
		"endpoint_url": endpointURL,
		"event_types":  eventTypes,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Registration WebhookRegistration `json:"registration"`
		Secret       string              `json:"secret"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode webhook registration: %w", err)
	}
	resp.Registration.Secret = resp.Secret
	return &resp.Registration, nil
}

// ListWebhooks lists the agent's webhook registrations. Secrets are never
// included.
func (ac *AgentClient) ListWebhooks(ctx context.Context) ([]WebhookRegistration, error) {
	raw, err := ac.signed(ctx, http.MethodGet, "/webhooks", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Registrations []WebhookRegistration `json:"registrations"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode webhook registrations: %w", err)
	}
	return resp.Registrations, nil
}

// UnregisterWebhook removes a webhook registration and reports whether
// anything was removed.
func (ac *AgentClient) UnregisterWebhook(ctx context.Context, endpointURL string) (bool, error) {
	raw, err := ac.signed(ctx, http.MethodDelete, "/webhooks/unregister", map[string]any{
		"endpoint_url": endpointURL,
	})
	if err != nil {
		return false, err
	}

	var resp struct {
		Removed bool `json:"removed"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, fmt.Errorf("decode webhook response: %w", err)
	}
	return resp.Removed, nil
}
