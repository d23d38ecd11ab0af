package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Defaults applied when the corresponding argument is zero.
const (
	defaultBrokerMaxHops        = 4
	defaultBrokerMaxResults     = 3
	defaultCapabilityMaxResults = 10
)

// DiscoverBroker finds the best brokers to reach a specific person or
// agent. target names the person or agent to reach; maxHops bounds the
// path length (default 4) and maxResults the number of candidates
// (default 3).
//
// Results are served from the discovery cache when one is configured, so
// repeating a query within the TTL does not hit the network.
func (ac *AgentClient) DiscoverBroker(ctx context.Context, target string, maxHops, maxResults int) (*BrokerDiscoveryResponse, error) {
	if maxHops == 0 {
		maxHops = defaultBrokerMaxHops
	}
	if maxResults == 0 {
		maxResults = defaultBrokerMaxResults
	}

	raw, err := ac.discoverCached(ctx, "/discover-broker", map[string]any{
		"target_identifier": target,
		"max_hops":          maxHops,
		"max_results":       maxResults,
	})
	if err != nil {
		return nil, err
	}

	var resp BrokerDiscoveryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode discovery response: %w", err)
	}
	return &resp, nil
}

// DiscoverCapability finds agents matching capability requirements. needs
// lists the required capabilities; minTrust filters by trust score and
// maxResults bounds the result count (default 10).
func (ac *AgentClient) DiscoverCapability(ctx context.Context, needs []string, minTrust float64, maxResults int) (*CapabilityMatchResponse, error) {
	if maxResults == 0 {
		maxResults = defaultCapabilityMaxResults
	}

	raw, err := ac.discoverCached(ctx, "/discover-capability", map[string]any{
		"capabilities":    needs,
		"min_trust_score": minTrust,
		"max_results":     maxResults,
	})
	if err != nil {
		return nil, err
	}

	var resp CapabilityMatchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode discovery response: %w", err)
	}
	return &resp, nil
}

// discoverCached issues a signed discovery request, consulting the
// cache first. The cache key is the path plus the canonical request body,
// so equivalent queries hit regardless of how the caller spelled them.
func (ac *AgentClient) discoverCached(ctx context.Context, path string, body map[string]any) (json.RawMessage, error) {
	payload, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	if ac.discovery == nil {
		return ac.signedPayload(ctx, http.MethodPost, path, payload)
	}

	key := path + "\x00" + string(payload)
	if raw, ok := ac.discovery.Get(key); ok {
		return raw, nil
	}
	raw, err := ac.signedPayload(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	ac.discovery.Add(key, raw)
	return raw, nil
}
