// Package agentcard reads A2A agent cards.
//
// Agents that register an a2a_endpoint with MoltBridge publish an
// Agent2Agent card at that URL (conventionally
// https://[domain]/.well-known/agent.json). MoltBridge stores only the
// URL; counterparties fetch the card themselves to learn how to reach
// the agent directly once an introduction has been brokered.
package agentcard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Capabilities describes the A2A streaming and notification capabilities
// declared by an agent. All fields default to false.
type Capabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

// Skill describes a single task type the agent supports.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Card is an agent card per the Google Agent2Agent spec. Unknown fields
// are ignored on decode, so cards carrying vendor extensions still parse.
type Card struct {
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	URL          string       `json:"url"`
	Version      string       `json:"version"`
	Capabilities Capabilities `json:"capabilities"`
	Skills       []Skill      `json:"skills,omitempty"`
}

// Parse decodes and validates a Card from JSON bytes.
func Parse(data []byte) (*Card, error) {
	var card Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return &card, nil
}

// Fetch retrieves and parses the agent card published at cardURL.
func Fetch(ctx context.Context, cardURL string) (*Card, error) {
	if _, err := url.ParseRequestURI(cardURL); err != nil {
		return nil, fmt.Errorf("invalid card URL %q: %w", cardURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent card fetch returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return nil, fmt.Errorf("read agent card body: %w", err)
	}

	return Parse(body)
}

// Validate checks the fields the A2A spec requires.
func (c *Card) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent card: name is required")
	}
	if c.URL == "" {
		return fmt.Errorf("agent card: url is required")
	}
	if c.Version == "" {
		return fmt.Errorf("agent card: version is required")
	}
	return nil
}
