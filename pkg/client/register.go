package client

import (
	"context"
	"net/http"
)

// Registration describes the profile an agent registers under. Zero values
// take documented defaults: Name falls back to the agent id and Platform to
// "custom". Capabilities and Clusters are always transmitted, as empty
// arrays when unset.
type Registration struct {
	// Name is the display name for this agent.
	Name string
	// Platform identifies the agent's platform, e.g. "custom" or "a2a".
	Platform string
	// Capabilities lists capability tags such as "nlp" or "reasoning".
	Capabilities []string
	// Clusters lists cluster names to join, e.g. "AI Research".
	Clusters []string
	// A2AEndpoint is an optional A2A agent card URL.
	A2AEndpoint string
}

// Register registers this agent on MoltBridge. It requires a prior Verify
// in the same session; without a token it fails with ErrNotVerified before
// touching the network.
//
// Registering acknowledges the operational-omniscience disclosure and
// consents to automated introduction-quality scoring; the server refuses
// registrations without both.
func (ac *AgentClient) Register(ctx context.Context, reg Registration) (map[string]any, error) {
	token := ac.VerificationToken()
	if token == "" {
		return nil, ErrNotVerified
	}

	name := reg.Name
	if name == "" {
		name = ac.signer.AgentID()
	}
	platform := reg.Platform
	if platform == "" {
		platform = "custom"
	}
	capabilities := reg.Capabilities
	if capabilities == nil {
		capabilities = []string{}
	}
	clusters := reg.Clusters
	if clusters == nil {
		clusters = []string{}
	}

	body := map[string]any{
		"agent_id":                 ac.signer.AgentID(),
		"name":                     name,
		"platform":                 platform,
		"pubkey":                   ac.signer.PublicKey(),
		"capabilities":             capabilities,
		"clusters":                 clusters,
		"verification_token":       token,
		"omniscience_acknowledged": true,
		"article22_consent":        true,
	}
	if reg.A2AEndpoint != "" {
		body["a2a_endpoint"] = reg.A2AEndpoint
	}

	raw, err := ac.public(ctx, http.MethodPost, "/register", body)
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// ProfileUpdate carries the fields UpdateProfile should change. nil slices
// and empty strings are left untouched on the server; a non-nil empty slice
// clears the corresponding list.
type ProfileUpdate struct {
	Capabilities []string
	Clusters     []string
	A2AEndpoint  string
}

// UpdateProfile updates the agent's registered profile.
func (ac *AgentClient) UpdateProfile(ctx context.Context, update ProfileUpdate) (map[string]any, error) {
	body := map[string]any{}
	if update.Capabilities != nil {
		body["capabilities"] = update.Capabilities
	}
	if update.Clusters != nil {
		body["clusters"] = update.Clusters
	}
	if update.A2AEndpoint != "" {
		body["a2a_endpoint"] = update.A2AEndpoint
	}

	raw, err := ac.signed(ctx, http.MethodPut, "/profile", bodyOrNil(body))
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}
