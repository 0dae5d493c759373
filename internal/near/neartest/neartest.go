// Package neartest provides fake NEAR backends for tests.
package neartest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"
)

// ViewHandler answers a single contract view method.
type ViewHandler func(args map[string]any) (any, error)

// Server serves the subset of the NEAR JSON-RPC protocol the bot uses:
// call_function queries and final-block header fetches.
type Server struct {
	srv *httptest.Server

	// BlockHash is the hash every block request returns.
	BlockHash [32]byte
	// Queries counts view calls by "<contract>/<method>".
	Queries map[string]int

	views map[string]ViewHandler
}

// NewServer starts a fake RPC server that is torn down with the test.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		views:   make(map[string]ViewHandler),
		Queries: make(map[string]int),
	}
	for i := range s.BlockHash {
		s.BlockHash[i] = byte(i + 1)
	}

	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.srv.URL
}

// View registers a handler for a contract view method.
func (s *Server) View(contract, method string, handler ViewHandler) {
	s.views[contract+"/"+method] = handler
}

// ConstView registers a handler that always returns the same value.
func (s *Server) ConstView(contract, method string, value any) {
	s.View(contract, method, func(map[string]any) (any, error) { return value, nil })
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch req.Method {
	case "block":
		writeResult(w, map[string]any{
			"header": map[string]any{"hash": base58.Encode(s.BlockHash[:])},
		})
	case "query":
		s.handleQuery(w, req.Params)
	default:
		writeError(w, "unknown method "+req.Method)
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, params map[string]any) {
	contract, _ := params["account_id"].(string)
	method, _ := params["method_name"].(string)
	argsB64, _ := params["args_base64"].(string)

	argBytes, err := base64.StdEncoding.DecodeString(argsB64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var args map[string]any
	if err := json.Unmarshal(argBytes, &args); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := contract + "/" + method
	s.Queries[key]++
	handler, ok := s.views[key]
	if !ok {
		writeError(w, fmt.Sprintf("no view registered for %s", key))
		return
	}
	value, err := handler(args)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	bytes := make([]int, len(valueJSON))
	for i, b := range valueJSON {
		bytes[i] = int(b)
	}
	writeResult(w, map[string]any{"result": bytes})
}

func writeResult(w http.ResponseWriter, result any) {
	json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      "dontcare",
		"result":  result,
	})
}

func writeError(w http.ResponseWriter, name string) {
	json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      "dontcare",
		"error":   map[string]any{"name": name},
	})
}

// NewHelperServer starts a fake indexer helper serving likely-token lists
// per account id.
func NewHelperServer(t *testing.T, tokensByAccount map[string][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for account, tokens := range tokensByAccount {
			if r.URL.Path == fmt.Sprintf("/account/%s/likelyTokens", account) {
				json.NewEncoder(w).Encode(tokens)
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}
