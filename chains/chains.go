package chains

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Network describes one supported chain
type Network struct {
	ChainID  uint64
	Name     string
	Symbol   string
	RPCURL   string
	Explorer string
}

// Supported networks, Ethereum mainnet first (the default chain)
var networks = []Network{
	{ChainID: 1, Name: "Ethereum", Symbol: "ETH", RPCURL: "https://ethereum-rpc.publicnode.com", Explorer: "https://etherscan.io"},
	{ChainID: 10, Name: "Optimism", Symbol: "ETH", RPCURL: "https://optimism-rpc.publicnode.com", Explorer: "https://optimistic.etherscan.io"},
	{ChainID: 56, Name: "BNB Chain", Symbol: "BNB", RPCURL: "https://bsc-rpc.publicnode.com", Explorer: "https://bscscan.com"},
	{ChainID: 137, Name: "Polygon", Symbol: "POL", RPCURL: "https://polygon-bor-rpc.publicnode.com", Explorer: "https://polygonscan.com"},
	{ChainID: 8453, Name: "Base", Symbol: "ETH", RPCURL: "https://base-rpc.publicnode.com", Explorer: "https://basescan.org"},
	{ChainID: 42161, Name: "Arbitrum One", Symbol: "ETH", RPCURL: "https://arbitrum-one-rpc.publicnode.com", Explorer: "https://arbiscan.io"},
	{ChainID: 11155111, Name: "Sepolia", Symbol: "ETH", RPCURL: "https://ethereum-sepolia-rpc.publicnode.com", Explorer: "https://sepolia.etherscan.io"},
}

// DefaultChainID is what every fresh app instance starts on
const DefaultChainID uint64 = 1

// ByID looks up a network by chain id
func ByID(chainID uint64) (Network, bool) {
	for _, n := range networks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return Network{}, false
}

// All returns the full network table in display order
func All() []Network {
	out := make([]Network, len(networks))
	copy(out, networks)
	return out
}

// HexChainID renders a chain id in the 0x-prefixed form providers speak
func HexChainID(chainID uint64) string {
	return "0x" + strconv.FormatUint(chainID, 16)
}

// ParseChainID accepts "0x..." hex or plain decimal chain ids
func ParseChainID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// Client wraps one chain's RPC connection. The raw rpc.Client serves
// verbatim passthrough calls; the ethclient serves typed calls.
type Client struct {
	*ethclient.Client
	RPC     *rpc.Client
	Network Network
}

// CallRaw forwards a JSON-RPC call untouched and returns the raw result
func (c *Client) CallRaw(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	return c.RPC.CallContext(ctx, result, method, params...)
}

// Registry hands out cached per-chain clients. URL overrides (from config
// or ETH_RPC_URL) take precedence over the static table.
type Registry struct {
	mu        sync.Mutex
	clients   map[uint64]*Client
	overrides map[uint64]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		clients:   make(map[uint64]*Client),
		overrides: make(map[uint64]string),
	}
}

// Override pins a custom RPC URL for one chain
func (r *Registry) Override(chainID uint64, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if url == "" {
		delete(r.overrides, chainID)
	} else {
		r.overrides[chainID] = url
	}
	// force a re-dial on next use
	delete(r.clients, chainID)
}

// ClientFor returns a connected client for the chain, dialing lazily
func (r *Registry) ClientFor(ctx context.Context, chainID uint64) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[chainID]; ok {
		return c, nil
	}

	n, ok := ByID(chainID)
	if !ok {
		return nil, fmt.Errorf("unrecognized chain id %d", chainID)
	}
	url := n.RPCURL
	if o, ok := r.overrides[chainID]; ok {
		url = o
	}

	dialCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	raw, err := rpc.DialContext(dialCtx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", n.Name, err)
	}

	c := &Client{
		Client:  ethclient.NewClient(raw),
		RPC:     raw,
		Network: n,
	}
	r.clients[chainID] = c
	return c, nil
}

// Close tears down every cached connection
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.RPC.Close()
		delete(r.clients, id)
	}
}
