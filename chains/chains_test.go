package chains

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestByID(t *testing.T) {
	t.Run("mainnet", func(t *testing.T) {
		n, ok := ByID(1)
		if !ok {
			t.Fatal("mainnet missing from registry")
		}
		if n.Name != "Ethereum" {
			t.Errorf("Expected Ethereum, got %s", n.Name)
		}
		if n.RPCURL == "" {
			t.Error("mainnet has no RPC URL")
		}
	})

	t.Run("unknown chain", func(t *testing.T) {
		_, ok := ByID(999999)
		if ok {
			t.Error("Expected lookup miss for chain 999999")
		}
	})
}

func TestHexChainID(t *testing.T) {
	cases := map[uint64]string{
		1:     "0x1",
		10:    "0xa",
		137:   "0x89",
		42161: "0xa4b1",
	}
	for id, want := range cases {
		if got := HexChainID(id); got != want {
			t.Errorf("HexChainID(%d) = %s, want %s", id, got, want)
		}
	}
}

func TestParseChainID(t *testing.T) {
	t.Run("hex", func(t *testing.T) {
		id, err := ParseChainID("0x89")
		if err != nil {
			t.Fatalf("ParseChainID failed: %v", err)
		}
		if id != 137 {
			t.Errorf("Expected 137, got %d", id)
		}
	})

	t.Run("decimal", func(t *testing.T) {
		id, err := ParseChainID("10")
		if err != nil {
			t.Fatalf("ParseChainID failed: %v", err)
		}
		if id != 10 {
			t.Errorf("Expected 10, got %d", id)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseChainID("0xzz"); err == nil {
			t.Error("Expected error for invalid hex")
		}
	})
}

func TestRegistryOverride(t *testing.T) {
	r := NewRegistry()
	r.Override(1, "http://localhost:1")
	r.mu.Lock()
	url := r.overrides[1]
	r.mu.Unlock()
	if url != "http://localhost:1" {
		t.Errorf("override not recorded, got %q", url)
	}

	r.Override(1, "")
	r.mu.Lock()
	_, still := r.overrides[1]
	r.mu.Unlock()
	if still {
		t.Error("empty override should clear the pin")
	}
}

func TestClientFor(t *testing.T) {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		t.Skip("ETH_RPC_URL not set, skipping connection test")
	}

	r := NewRegistry()
	r.Override(1, rpcURL)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := r.ClientFor(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Run("typed call", func(t *testing.T) {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			t.Errorf("Failed to get chain ID: %v", err)
		} else {
			t.Logf("Connected to chain ID: %s", chainID.String())
		}
	})

	t.Run("raw passthrough call", func(t *testing.T) {
		var blockNum string
		if err := client.CallRaw(ctx, &blockNum, "eth_blockNumber"); err != nil {
			t.Errorf("eth_blockNumber passthrough failed: %v", err)
		} else {
			t.Logf("Latest block: %s", blockNum)
		}
	})

	t.Run("client is cached", func(t *testing.T) {
		again, err := r.ClientFor(ctx, 1)
		if err != nil {
			t.Fatalf("second ClientFor failed: %v", err)
		}
		if again != client {
			t.Error("Expected the cached client instance")
		}
	})

	t.Run("unknown chain", func(t *testing.T) {
		if _, err := r.ClientFor(ctx, 999999); err == nil {
			t.Error("Expected error for unrecognized chain id")
		}
	})
}
