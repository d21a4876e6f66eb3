package txbuild

import (
	"context"
	"math/big"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// ChainReader is the slice of the RPC surface population needs.
// chains.Client satisfies it via the embedded ethclient.
type ChainReader interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// Request is the raw transaction object a dApp page supplies. All
// quantity fields are 0x-hex strings, the provider convention.
type Request struct {
	From                 string `json:"from"`
	To                   string `json:"to"`
	Value                string `json:"value"`
	Data                 string `json:"data"`
	Input                string `json:"input"`
	Gas                  string `json:"gas"`
	GasPrice             string `json:"gasPrice"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	Nonce                string `json:"nonce"`
	ChainID              string `json:"chainId"`
}

// ResolveChainID picks the chain the request targets: the request's own
// chainId when present, the instance's active chain otherwise. Every
// read that feeds population must use the resolved chain, not the
// active one.
func (r Request) ResolveChainID(activeChainID uint64) (uint64, error) {
	if r.ChainID == "" {
		return activeChainID, nil
	}
	id, err := hexutil.DecodeUint64(r.ChainID)
	if err != nil {
		return 0, errors.Wrap(err, "invalid chainId")
	}
	return id, nil
}

// Populated is a fully specified, ready-to-sign transaction. Exactly one
// fee scheme is present, matching the transaction type.
type Populated struct {
	From       common.Address
	ChainID    uint64
	DynamicFee bool
	Tx         *types.Transaction
}

// Populator fills in every field a transaction needs before it can be
// signed or shown. Built fresh output for every request; never cached.
type Populator struct {
	Reader ChainReader
	Log    *log.Logger
}

// gasMargin widens the estimate by 10% so near-boundary calls don't
// revert out of gas between estimation and inclusion
func gasMargin(gas uint64) uint64 {
	return gas + gas/10
}

// Populate turns a partial dApp request into a Populated transaction.
// Any RPC failure is fatal: no partial transaction is ever returned.
func (p *Populator) Populate(ctx context.Context, req Request, activeWallet common.Address, activeChainID uint64) (*Populated, error) {
	if strings.TrimSpace(req.From) == "" {
		return nil, errors.New("transaction has no from address")
	}
	from := common.HexToAddress(req.From)
	if from != activeWallet && p.Log != nil {
		p.Log.Warn("transaction from differs from active wallet",
			"from", from.Hex(), "wallet", activeWallet.Hex())
	}

	var to *common.Address
	if strings.TrimSpace(req.To) != "" {
		a := common.HexToAddress(req.To)
		to = &a
	}

	value := big.NewInt(0)
	if req.Value != "" {
		v, err := hexutil.DecodeBig(req.Value)
		if err != nil {
			return nil, errors.Wrap(err, "invalid value")
		}
		value = v
	}

	// dApps use data and input interchangeably; input wins when both exist
	inputHex := req.Input
	if inputHex == "" {
		inputHex = req.Data
	}
	var input []byte
	if inputHex != "" {
		b, err := hexutil.Decode(inputHex)
		if err != nil {
			return nil, errors.Wrap(err, "invalid input data")
		}
		input = b
	}

	chainID, err := req.ResolveChainID(activeChainID)
	if err != nil {
		return nil, err
	}

	// Probe fee capability: a base fee in the head block means the chain
	// speaks EIP-1559
	head, err := p.Reader.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "probe chain head")
	}
	dynamicFee := head.BaseFee != nil

	var nonce uint64
	if req.Nonce != "" {
		n, err := hexutil.DecodeUint64(req.Nonce)
		if err != nil {
			return nil, errors.Wrap(err, "invalid nonce")
		}
		nonce = n
	} else {
		n, err := p.Reader.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, errors.Wrap(err, "fetch pending nonce")
		}
		nonce = n
	}

	var gasPrice, tipCap, feeCap *big.Int
	if dynamicFee {
		tipCap, err = p.suggestedOrGiven(ctx, req.MaxPriorityFeePerGas, p.Reader.SuggestGasTipCap)
		if err != nil {
			return nil, errors.Wrap(err, "fetch priority fee")
		}
		if req.MaxFeePerGas != "" {
			feeCap, err = hexutil.DecodeBig(req.MaxFeePerGas)
			if err != nil {
				return nil, errors.Wrap(err, "invalid maxFeePerGas")
			}
		} else {
			// base fee can double per block; 2x head + tip rides out spikes
			feeCap = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tipCap)
		}
	} else {
		gasPrice, err = p.suggestedOrGiven(ctx, req.GasPrice, p.Reader.SuggestGasPrice)
		if err != nil {
			return nil, errors.Wrap(err, "fetch gas price")
		}
	}

	var gas uint64
	if req.Gas != "" {
		gas, err = hexutil.DecodeUint64(req.Gas)
		if err != nil {
			return nil, errors.Wrap(err, "invalid gas")
		}
	} else {
		est, err := p.Reader.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    to,
			Value: value,
			Data:  input,
		})
		if err != nil {
			return nil, errors.Wrap(err, "estimate gas")
		}
		gas = gasMargin(est)
	}

	var tx *types.Transaction
	if dynamicFee {
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   new(big.Int).SetUint64(chainID),
			Nonce:     nonce,
			GasTipCap: tipCap,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        to,
			Value:     value,
			Data:      input,
		})
	} else {
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       to,
			Value:    value,
			Data:     input,
		})
	}

	return &Populated{
		From:       from,
		ChainID:    chainID,
		DynamicFee: dynamicFee,
		Tx:         tx,
	}, nil
}

func (p *Populator) suggestedOrGiven(ctx context.Context, given string, suggest func(context.Context) (*big.Int, error)) (*big.Int, error) {
	if given != "" {
		return hexutil.DecodeBig(given)
	}
	return suggest(ctx)
}
