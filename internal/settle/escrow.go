package settle

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// HTTPEscrow calls an external transfer service over JSON HTTP. The
// on-chain mechanics live entirely behind that service.
type HTTPEscrow struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPEscrow returns an escrow client for the given service URL.
func NewHTTPEscrow(baseURL string) *HTTPEscrow {
	return &HTTPEscrow{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type transferRequest struct {
	Wallet  string `json:"wallet"`
	Amount  int64  `json:"amount"`
	MatchID string `json:"matchId"`
}

type transferResponse struct {
	TxID   string `json:"txId"`
	Amount int64  `json:"amount"`
}

// Transfer implements Escrow.
func (e *HTTPEscrow) Transfer(ctx context.Context, winnerWallet string, amount int64, matchID string) (Receipt, error) {
	body, err := json.Marshal(transferRequest{Wallet: winnerWallet, Amount: amount, MatchID: matchID})
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to encode transfer: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/transfer", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("transfer request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close of the response body.
			_ = cerr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Receipt{}, fmt.Errorf("transfer rejected: status %d", resp.StatusCode)
	}
	var tr transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Receipt{}, fmt.Errorf("failed to decode transfer response: %w", err)
	}
	return Receipt{TxID: tr.TxID, Amount: tr.Amount}, nil
}
