// Package ledger queries the external payment ledger for recorded blocks.
// The core only parses what it needs to confirm a transfer: operation kind,
// recipient, and amount.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	id "namereg/pkg/domain"
)

// OperationKind is the recorded operation type of a ledger block.
type OperationKind string

const (
	OperationTransfer OperationKind = "transfer"
	OperationMint     OperationKind = "mint"
	OperationBurn     OperationKind = "burn"
)

// Block is the ledger's record of one transaction.
type Block struct {
	Kind   OperationKind `json:"kind"`
	From   string        `json:"from"`
	To     string        `json:"to"`
	Amount uint64        `json:"amount"`
}

// IsTransfer reports whether the block records a plain transfer. Mints and
// burns never qualify as payment proof.
func (b *Block) IsTransfer() bool {
	return b.Kind == OperationTransfer
}

// Client fetches blocks over the ledger's HTTP query API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a ledger client. timeout bounds each block query so a
// stalled ledger fails one verification instead of pinning a connection.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// QueryBlock fetches the block at ref. Any failure shape — missing block,
// transport error, malformed body — comes back as an error; the verifier
// folds them all into an unverified payment.
func (c *Client) QueryBlock(ctx context.Context, ref id.BlockRef) (*Block, error) {
	url := fmt.Sprintf("%s/blocks/%s", c.baseURL, ref.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build ledger query: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query ledger block %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("ledger block %s does not exist", ref)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ledger query returned status %d", resp.StatusCode)
	}

	var block Block
	if err := json.NewDecoder(resp.Body).Decode(&block); err != nil {
		return nil, fmt.Errorf("decode ledger block %s: %w", ref, err)
	}
	return &block, nil
}
