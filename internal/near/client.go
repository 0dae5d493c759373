package near

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/config"
	"github.com/uncle-T0ny/nearmarket/internal/storage"
)

// Client talks to a NEAR JSON-RPC endpoint and builds wallet URLs.
// All reads are single-shot: no retries, no batching; a failed or
// malformed response propagates to the caller.
type Client struct {
	rpcURL    string
	helperURL string
	walletURL string
	serverURL string
	httpc     *http.Client
	store     storage.Storage
	logger    *zap.Logger
}

// Endpoints names the external services a client talks to.
type Endpoints struct {
	RPC    string // JSON-RPC node
	Helper string // indexer helper
	Wallet string // web wallet
	Server string // public base URL of the bot's callback listener
}

// NewClient creates a NEAR client for the configured network.
func NewClient(cfg *config.Config, store storage.Storage, logger *zap.Logger) *Client {
	return NewClientWithEndpoints(Endpoints{
		RPC:    cfg.RPCURL(),
		Helper: cfg.HelperURL(),
		Wallet: cfg.WalletURL(),
		Server: cfg.ServerURL,
	}, store, logger)
}

// NewClientWithEndpoints creates a client against explicit endpoints.
func NewClientWithEndpoints(endpoints Endpoints, store storage.Storage, logger *zap.Logger) *Client {
	return &Client{
		rpcURL:    endpoints.RPC,
		helperURL: endpoints.Helper,
		walletURL: endpoints.Wallet,
		serverURL: endpoints.Server,
		httpc:     http.DefaultClient,
		store:     store,
		logger:    logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Name  string          `json:"name"`
	Cause json.RawMessage `json:"cause"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "dontcare",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rpc response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, fmt.Errorf("malformed rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc call %s failed: %s", method, rpcResp.Error.Name)
	}

	return rpcResp.Result, nil
}

// ContractQuery executes a read-only contract view call at optimistic
// finality and returns the raw JSON value the method produced.
func (c *Client) ContractQuery(ctx context.Context, contract, method string, args any) (json.RawMessage, error) {
	if args == nil {
		args = struct{}{}
	}
	argBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode args for %s.%s: %w", contract, method, err)
	}

	result, err := c.call(ctx, "query", map[string]any{
		"request_type": "call_function",
		"account_id":   contract,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(argBytes),
		"finality":     "optimistic",
	})
	if err != nil {
		return nil, err
	}

	var callRes struct {
		Result []int  `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(result, &callRes); err != nil {
		return nil, fmt.Errorf("malformed call_function result from %s.%s: %w", contract, method, err)
	}
	if callRes.Error != "" {
		return nil, fmt.Errorf("contract call %s.%s failed: %s", contract, method, callRes.Error)
	}

	out := make([]byte, len(callRes.Result))
	for i, b := range callRes.Result {
		out[i] = byte(b)
	}
	if !json.Valid(out) {
		return nil, fmt.Errorf("contract call %s.%s returned invalid JSON", contract, method)
	}
	return out, nil
}

// LatestBlockHash fetches the current finalized block header hash. The hash
// anchors every transaction in a signing batch for replay protection, so it
// is requested at final (not optimistic) finality.
func (c *Client) LatestBlockHash(ctx context.Context) ([32]byte, error) {
	var hash [32]byte

	result, err := c.call(ctx, "block", map[string]any{"finality": "final"})
	if err != nil {
		return hash, err
	}

	var block struct {
		Header struct {
			Hash string `json:"hash"`
		} `json:"header"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return hash, fmt.Errorf("malformed block response: %w", err)
	}

	raw, err := base58.Decode(block.Header.Hash)
	if err != nil {
		return hash, fmt.Errorf("invalid block hash %q: %w", block.Header.Hash, err)
	}
	if len(raw) != len(hash) {
		return hash, fmt.Errorf("invalid block hash %q: got %d bytes, want %d", block.Header.Hash, len(raw), len(hash))
	}
	copy(hash[:], raw)
	return hash, nil
}

// LikelyTokens asks the indexer helper which fungible tokens an account
// has probably interacted with.
func (c *Client) LikelyTokens(ctx context.Context, accountID string) ([]string, error) {
	url := fmt.Sprintf("%s/account/%s/likelyTokens", c.helperURL, accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create helper request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("helper returned status %d", resp.StatusCode)
	}

	var tokens []string
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("malformed helper response: %w", err)
	}
	return tokens, nil
}
