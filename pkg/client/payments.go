package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Broker tiers accepted by CreatePaymentAccount.
const (
	TierFounding = "founding"
	TierEarly    = "early"
	TierStandard = "standard"
)

// DefaultHistoryLimit bounds PaymentHistory when the caller passes zero.
const DefaultHistoryLimit = 50

// CreatePaymentAccount opens a payment account at the given broker tier.
// An empty tier means TierStandard.
func (ac *AgentClient) CreatePaymentAccount(ctx context.Context, tier string) (map[string]any, error) {
	if tier == "" {
		tier = TierStandard
	}

	raw, err := ac.signed(ctx, http.MethodPost, "/payments/account", map[string]any{"tier": tier})
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// Balance returns the current account balance, tier, and commission rate.
func (ac *AgentClient) Balance(ctx context.Context) (*AgentBalance, error) {
	raw, err := ac.signed(ctx, http.MethodGet, "/payments/balance", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Balance AgentBalance `json:"balance"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	return &resp.Balance, nil
}

// Deposit credits funds to the account and returns the resulting ledger
// entry.
func (ac *AgentClient) Deposit(ctx context.Context, amount float64) (*LedgerEntry, error) {
	raw, err := ac.signed(ctx, http.MethodPost, "/payments/deposit", map[string]any{"amount": amount})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Entry LedgerEntry `json:"entry"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode ledger entry: %w", err)
	}
	return &resp.Entry, nil
}

// PaymentHistory returns the most recent ledger entries, newest first.
// limit zero means DefaultHistoryLimit.
func (ac *AgentClient) PaymentHistory(ctx context.Context, limit int) ([]LedgerEntry, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	raw, err := ac.signed(ctx, http.MethodGet, "/payments/history?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		History []LedgerEntry `json:"history"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode payment history: %w", err)
	}
	return resp.History, nil
}
