package client

// Response records for the typed operations. Field names mirror the wire
// format exactly; the server controls every shape here.

// BrokerResult is a broker candidate from a discovery query.
type BrokerResult struct {
	BrokerAgentID    string   `json:"broker_agent_id"`
	BrokerName       string   `json:"broker_name"`
	BrokerTrustScore float64  `json:"broker_trust_score"`
	PathHops         int      `json:"path_hops"`
	ViaClusters      []string `json:"via_clusters,omitempty"`
	CompositeScore   float64  `json:"composite_score,omitempty"`
}

// BrokerDiscoveryResponse is the result of a broker discovery query.
type BrokerDiscoveryResponse struct {
	Results       []BrokerResult `json:"results"`
	QueryTimeMS   int            `json:"query_time_ms"`
	PathFound     bool           `json:"path_found"`
	Message       string         `json:"message,omitempty"`
	DiscoveryHint string         `json:"discovery_hint,omitempty"`
}

// CapabilityMatch is an agent matching capability requirements.
type CapabilityMatch struct {
	AgentID             string   `json:"agent_id"`
	AgentName           string   `json:"agent_name"`
	TrustScore          float64  `json:"trust_score"`
	MatchedCapabilities []string `json:"matched_capabilities,omitempty"`
	MatchScore          float64  `json:"match_score,omitempty"`
}

// CapabilityMatchResponse is the result of a capability discovery query.
type CapabilityMatchResponse struct {
	Results       []CapabilityMatch `json:"results"`
	QueryTimeMS   int               `json:"query_time_ms"`
	DiscoveryHint string            `json:"discovery_hint,omitempty"`
}

// CredibilityPacket is a JWT-signed credibility proof for an introduction.
type CredibilityPacket struct {
	Packet    string `json:"packet"`
	ExpiresIn int    `json:"expires_in"`
	VerifyURL string `json:"verify_url"`
}

// VerificationResult reports the outcome of the verification flow.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Token    string `json:"token,omitempty"`
	AgentID  string `json:"agent_id,omitempty"`
	Level    string `json:"level,omitempty"`
}

// VerificationChallenge is a proof-of-work puzzle issued by the server. It
// exists only between challenge fetch and proof submission.
type VerificationChallenge struct {
	ChallengeID   string `json:"challenge_id"`
	Difficulty    int    `json:"difficulty"`
	Nonce         string `json:"nonce"`
	ChallengeType string `json:"challenge_type,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	TargetPrefix  string `json:"target_prefix,omitempty"`
}

// ConsentRecord is the state of consent for a single purpose.
type ConsentRecord struct {
	Purpose     string `json:"purpose"`
	Granted     bool   `json:"granted"`
	GrantedAt   string `json:"granted_at,omitempty"`
	WithdrawnAt string `json:"withdrawn_at,omitempty"`
	Mechanism   string `json:"mechanism,omitempty"`
}

// ConsentStatus is the current consent state across all purposes.
type ConsentStatus struct {
	Consents     map[string]ConsentRecord `json:"consents"`
	Descriptions map[string]string        `json:"descriptions"`
}

// AgentBalance is the payment account state for an agent.
type AgentBalance struct {
	AgentID        string  `json:"agent_id"`
	Balance        float64 `json:"balance"`
	BrokerTier     string  `json:"broker_tier"`
	CommissionRate float64 `json:"commission_rate"`
}

// LedgerEntry is a single payment ledger transaction.
type LedgerEntry struct {
	ID           string  `json:"id"`
	AgentID      string  `json:"agent_id"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`
	Timestamp    string  `json:"timestamp"`
	BalanceAfter float64 `json:"balance_after"`
}

// IQSResult is Introduction Quality Score guidance. The server discloses
// a low/medium/high band, never the raw score.
type IQSResult struct {
	Band               string  `json:"band"`
	Recommendation     string  `json:"recommendation"`
	ThresholdUsed      float64 `json:"threshold_used"`
	ComponentsReceived bool    `json:"components_received"`
}

// WebhookRegistration is a registered webhook endpoint. Secret is only
// populated on creation.
type WebhookRegistration struct {
	EndpointURL string   `json:"endpoint_url"`
	EventTypes  []string `json:"event_types"`
	Active      bool     `json:"active"`
	Secret      string   `json:"secret,omitempty"`
}

// AttestationResult is the recorded attestation plus the target's updated
// trust score.
type AttestationResult struct {
	Source           string  `json:"source"`
	Target           string  `json:"target"`
	Type             string  `json:"type"`
	Confidence       float64 `json:"confidence"`
	CreatedAt        string  `json:"created_at"`
	ValidUntil       string  `json:"valid_until"`
	TargetTrustScore float64 `json:"target_trust_score,omitempty"`
}
