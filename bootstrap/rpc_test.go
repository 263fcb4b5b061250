package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lightfil/client/cidutil"
)

type rpcEnvelope struct {
	Method string          `json:"method"`
	ID     json.RawMessage `json:"id"`
}

func newTestRPCServer(t *testing.T, genesisCidStr string, networkName string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env rpcEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(env.Method, "ChainGetGenesis"):
			resp := map[string]any{
				"jsonrpc": "2.0",
				"id":      json.RawMessage(env.ID),
				"result": map[string]any{
					"Cids": []map[string]string{{"/": genesisCidStr}},
				},
			}
			_ = json.NewEncoder(w).Encode(resp)
		case strings.HasSuffix(env.Method, "StateNetworkName"):
			resp := map[string]any{
				"jsonrpc": "2.0",
				"id":      json.RawMessage(env.ID),
				"result":  networkName,
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			t.Fatalf("unexpected RPC method %q", env.Method)
		}
	}))
}

func TestClientGenesisAndNetworkName(t *testing.T) {
	wantGenesis, err := cidutil.BuildCID([]byte("genesis-block"))
	if err != nil {
		t.Fatalf("BuildCID: %v", err)
	}

	srv := newTestRPCServer(t, wantGenesis.String(), "calibrationnet")
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, srv.URL)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	gotGenesis, err := client.Genesis(ctx)
	if err != nil {
		t.Fatalf("Genesis: %v", err)
	}
	if gotGenesis != wantGenesis {
		t.Fatalf("got genesis %s, want %s", gotGenesis, wantGenesis)
	}

	name, err := client.NetworkName(ctx)
	if err != nil {
		t.Fatalf("NetworkName: %v", err)
	}
	if name != "calibrationnet" {
		t.Fatalf("got network name %q", name)
	}
}
