package client

import (
	"context"
	"net/http"
)

// PrincipalProfile describes an agent's human principal. Zero-valued fields
// are omitted from requests; at least one of Industry, Role, or Expertise
// is required by the server for onboarding.
type PrincipalProfile struct {
	// Industry, e.g. "venture-capital".
	Industry string
	// Role, e.g. "managing-partner".
	Role string
	// Organization the principal belongs to.
	Organization string
	// Expertise tags, lowercase with hyphens.
	Expertise []string
	// Interests of the principal.
	Interests []string
	// Projects with name, description, status, and visibility keys.
	// Only consumed during onboarding.
	Projects []map[string]any
	// Location of the principal.
	Location string
	// Bio, at most 500 characters.
	Bio string
	// LookingFor lists what the principal is seeking.
	LookingFor []string
	// CanOffer lists what the principal can provide.
	CanOffer []string
}

func (p PrincipalProfile) fields() map[string]any {
	body := map[string]any{}
	if p.Industry != "" {
		body["industry"] = p.Industry
	}
	if p.Role != "" {
		body["role"] = p.Role
	}
	if p.Organization != "" {
		body["organization"] = p.Organization
	}
	if p.Expertise != nil {
		body["expertise"] = p.Expertise
	}
	if p.Interests != nil {
		body["interests"] = p.Interests
	}
	if p.Location != "" {
		body["location"] = p.Location
	}
	if p.Bio != "" {
		body["bio"] = p.Bio
	}
	if p.LookingFor != nil {
		body["looking_for"] = p.LookingFor
	}
	if p.CanOffer != nil {
		body["can_offer"] = p.CanOffer
	}
	return body
}

// OnboardPrincipal submits the principal's professional profile so
// MoltBridge can broker better introductions.
func (ac *AgentClient) OnboardPrincipal(ctx context.Context, profile PrincipalProfile) (map[string]any, error) {
	body := profile.fields()
	if profile.Projects != nil {
		body["projects"] = profile.Projects
	}

	raw, err := ac.signed(ctx, http.MethodPost, "/principal/onboard", bodyOrNil(body))
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// UpdatePrincipal updates the principal's profile. Updates are additive:
// list fields append to what the server holds. Set replace to overwrite
// instead.
func (ac *AgentClient) UpdatePrincipal(ctx context.Context, profile PrincipalProfile, replace bool) (map[string]any, error) {
	body := profile.fields()
	if replace {
		body["replace"] = true
	}

	raw, err := ac.signed(ctx, http.MethodPut, "/principal/profile", bodyOrNil(body))
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// Principal returns the principal's full profile.
func (ac *AgentClient) Principal(ctx context.Context) (map[string]any, error) {
	raw, err := ac.signed(ctx, http.MethodGet, "/principal/profile", nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// PrincipalVisibility returns the public-facing view of the principal's
// profile, i.e. what other agents see.
func (ac *AgentClient) PrincipalVisibility(ctx context.Context) (map[string]any, error) {
	raw, err := ac.signed(ctx, http.MethodGet, "/principal/visibility", nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}
