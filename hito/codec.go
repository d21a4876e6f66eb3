package hito

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Payload prefixes spoken by the device firmware
const (
	prefixMessage   = "evm.msg:"
	prefixSignTx    = "evm.sign:"
	prefixSignature = "evm.sig:"
)

// EncodeMessagePayload builds the NFC payload asking the device to sign a
// personal message: evm.msg:<address>:<hexMessage>
func EncodeMessagePayload(addr common.Address, msg []byte) string {
	return prefixMessage + addr.Hex() + ":" + hexutil.Encode(msg)
}

// EncodeTxPayload builds the NFC payload asking the device to sign a
// transaction: evm.sign:<address>:<unsignedRlpHex>
func EncodeTxPayload(addr common.Address, unsignedRlp []byte) string {
	return prefixSignTx + addr.Hex() + ":" + hexutil.Encode(unsignedRlp)
}

// EncodeUnsignedTx renders the unsigned transaction the way the device
// firmware expects it on the wire.
//
// Legacy transactions use the EIP-155 unsigned form (chain id plus two
// empty fields in the signature slots). Dynamic-fee transactions get three
// empty fields appended after the access list — a quirk of the firmware's
// parser, not a general RLP rule — under the usual 0x02 type prefix.
func EncodeUnsignedTx(tx *types.Transaction, chainID uint64) ([]byte, error) {
	to := []byte{}
	if tx.To() != nil {
		to = tx.To().Bytes()
	}

	switch tx.Type() {
	case types.LegacyTxType:
		fields := []interface{}{
			tx.Nonce(),
			tx.GasPrice(),
			tx.Gas(),
			to,
			tx.Value(),
			tx.Data(),
			chainID,
			[]byte{},
			[]byte{},
		}
		raw, err := rlp.EncodeToBytes(fields)
		if err != nil {
			return nil, errors.Wrap(err, "encode legacy tx")
		}
		return raw, nil

	case types.DynamicFeeTxType:
		fields := []interface{}{
			chainID,
			tx.Nonce(),
			tx.GasTipCap(),
			tx.GasFeeCap(),
			tx.Gas(),
			to,
			tx.Value(),
			tx.Data(),
			[]interface{}{}, // access list
			[]byte{},
			[]byte{},
			[]byte{},
		}
		raw, err := rlp.EncodeToBytes(fields)
		if err != nil {
			return nil, errors.Wrap(err, "encode dynamic fee tx")
		}
		return append([]byte{types.DynamicFeeTxType}, raw...), nil
	}

	return nil, errors.Errorf("unsupported transaction type %d", tx.Type())
}

// scannedJSON covers the JSON shapes some companion apps emit
type scannedJSON struct {
	Signature      string `json:"signature"`
	RawTransaction string `json:"rawTransaction"`
}

// Scanned is the decoded result of a signature QR scan. Exactly one of
// Signature (65 bytes, r||s||parity) or RawTransaction is set.
type Scanned struct {
	Signature      []byte
	RawTransaction []byte
}

// DecodeScan parses the payload read back from the device's QR code.
// Accepted shapes: evm.sig:<hex>, bare 0x<hex>, or a JSON object with a
// signature or rawTransaction field.
func DecodeScan(payload string) (Scanned, error) {
	payload = strings.TrimSpace(payload)

	switch {
	case strings.HasPrefix(payload, prefixSignature):
		sig, err := decodeSigHex(strings.TrimPrefix(payload, prefixSignature))
		if err != nil {
			return Scanned{}, err
		}
		return Scanned{Signature: sig}, nil

	case strings.HasPrefix(payload, "0x"):
		sig, err := decodeSigHex(strings.TrimPrefix(payload, "0x"))
		if err != nil {
			return Scanned{}, err
		}
		return Scanned{Signature: sig}, nil

	case strings.HasPrefix(payload, "{"):
		var obj scannedJSON
		if err := json.Unmarshal([]byte(payload), &obj); err != nil {
			return Scanned{}, errors.Wrap(err, "invalid signature JSON")
		}
		if obj.RawTransaction != "" {
			raw, err := hexutil.Decode(ensure0x(obj.RawTransaction))
			if err != nil {
				return Scanned{}, errors.Wrap(err, "invalid rawTransaction hex")
			}
			return Scanned{RawTransaction: raw}, nil
		}
		if obj.Signature != "" {
			sig, err := decodeSigHex(strings.TrimPrefix(ensure0x(obj.Signature), "0x"))
			if err != nil {
				return Scanned{}, err
			}
			return Scanned{Signature: sig}, nil
		}
		return Scanned{}, errors.New("JSON payload has neither signature nor rawTransaction")
	}

	return Scanned{}, errors.Errorf("unrecognized signature payload format")
}

func ensure0x(s string) string {
	if strings.HasPrefix(s, "0x") {
		return s
	}
	return "0x" + s
}

// decodeSigHex decodes a signature hex string, repairing the odd-length
// output of legacy firmware: a trailing lone 0 or 1 digit is really the
// recovery byte 00 or 01 with its leading zero dropped.
func decodeSigHex(h string) ([]byte, error) {
	if len(h)%2 == 1 {
		last := h[len(h)-1]
		if last != '0' && last != '1' {
			return nil, errors.Errorf("odd-length signature hex ends in %q", string(last))
		}
		h = h[:len(h)-1] + "0" + string(last)
	}

	sig, err := hexutil.Decode("0x" + h)
	if err != nil {
		return nil, errors.Wrap(err, "invalid signature hex")
	}
	if len(sig) != 65 {
		return nil, errors.Errorf("signature is %d bytes, want 65", len(sig))
	}

	// Some firmware revisions emit the Ethereum 27/28 recovery byte
	if sig[64] == 27 || sig[64] == 28 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return nil, errors.Errorf("invalid recovery byte %d", sig[64])
	}
	return sig, nil
}

// FinalizeTransaction attaches a raw device signature to the unsigned
// transaction and returns the signed transaction ready for broadcast.
// Legacy transactions get the EIP-155 recovery value (parity + chainId*2
// + 35) via the chain signer; dynamic-fee transactions carry the parity
// directly. Any other transaction type is rejected.
func FinalizeTransaction(tx *types.Transaction, chainID uint64, sig []byte) (*types.Transaction, error) {
	if len(sig) != 65 {
		return nil, errors.Errorf("signature is %d bytes, want 65", len(sig))
	}
	switch tx.Type() {
	case types.LegacyTxType, types.DynamicFeeTxType:
	default:
		return nil, errors.Errorf("unsupported transaction type %d", tx.Type())
	}

	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(chainID))
	signed, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, errors.Wrap(err, "attach signature")
	}
	return signed, nil
}
