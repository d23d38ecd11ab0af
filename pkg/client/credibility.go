package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
)

// CredibilityPacket requests a JWT-signed credibility proof for an
// introduction: target is who the introduction reaches, broker who brokers
// it. The packet is presented to the target, who can verify it against
// the returned verify URL.
func (ac *AgentClient) CredibilityPacket(ctx context.Context, target, broker string) (*CredibilityPacket, error) {
	q := url.Values{}
	q.Set("target", target)
	q.Set("broker", broker)

	raw, err := ac.signed(ctx, http.MethodGet, "/credibility-packet?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var packet CredibilityPacket
	if err := json.Unmarshal(raw, &packet); err != nil {
		return nil, fmt.Errorf("decode credibility packet: %w", err)
	}
	return &packet, nil
}

// DecodeClaims decodes the packet JWT's claims without verifying the
// signature. Cryptographic verification is the recipient's job via
// VerifyURL; this is for local inspection of what the packet asserts.
func (p *CredibilityPacket) DecodeClaims() (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(p.Packet, claims); err != nil {
		return nil, fmt.Errorf("decode packet claims: %w", err)
	}
	return claims, nil
}
