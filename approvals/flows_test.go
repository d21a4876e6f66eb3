package approvals

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/hito"
	"dapp-wallet-tui/txbuild"
	"dapp-wallet-tui/wallets"
)

// fakeSession scripts the opaque remote hot-wallet session
type fakeSession struct {
	addr     common.Address
	sig      []byte
	signErr  error
	sentHash common.Hash
	sendErr  error
	switched []uint64
}

func (s *fakeSession) ConnectedAddress(ctx context.Context) (common.Address, error) {
	return s.addr, nil
}

func (s *fakeSession) SwitchChain(ctx context.Context, chainID uint64) error {
	s.switched = append(s.switched, chainID)
	return nil
}

func (s *fakeSession) SignMessage(ctx context.Context, addr common.Address, msg []byte) ([]byte, error) {
	return s.sig, s.signErr
}

func (s *fakeSession) SendTransaction(ctx context.Context, tx *types.Transaction, from common.Address) (common.Hash, error) {
	return s.sentHash, s.sendErr
}

var (
	wcAddr   = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb2")
	wcWallet = wallets.Wallet{Kind: wallets.KindWalletConnect, Address: wcAddr.Hex()}
	hwWallet = wallets.Wallet{Kind: wallets.KindHito, Address: wcAddr.Hex()}
	roWallet = wallets.Wallet{Kind: wallets.KindViewOnly, Address: wcAddr.Hex()}
)

func stagedSign(t *testing.T, rec *recorder, msg string) (*Queue, *Pending) {
	t.Helper()
	q := NewQueue()
	p := q.Push(&Pending{
		RequestID:  1,
		InstanceID: "inst-1",
		Method:     "personal_sign",
		Kind:       KindSignMessage,
		Message:    []byte(msg),
		Display:    msg,
	}, rec)
	return q, p
}

func TestSignMessageViewOnly(t *testing.T) {
	rec := newRecorder()
	_, p := stagedSign(t, rec, "Hello")

	f := &SignMessage{P: p, Wallet: roWallet, ChainID: 1}
	if f.CanApprove() {
		t.Error("view-only wallet must not offer approve")
	}

	f.Cancel()
	env := rec.responses["inst-1"][0]
	if env.Error == nil || env.Error.Code != bridge.CodeUserRejected {
		t.Errorf("cancel reply = %v, want 4001", env)
	}
}

func TestSignMessageRemote(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		rec := newRecorder()
		q, p := stagedSign(t, rec, "Hello")
		sess := &fakeSession{addr: wcAddr, sig: []byte{0xde, 0xad}}

		f := &SignMessage{P: p, Wallet: wcWallet, ChainID: 137, Session: sess}
		f.Approve(context.Background())

		if f.State() != StateResolved {
			t.Fatalf("state %v, want resolved", f.State())
		}
		if len(sess.switched) != 1 || sess.switched[0] != 137 {
			t.Errorf("chain switch calls = %v", sess.switched)
		}
		env := rec.responses["inst-1"][0]
		if env.Error != nil || string(env.Result) != `"0xdead"` {
			t.Errorf("reply = %+v", env)
		}
		if q.Head() != nil {
			t.Error("queue did not advance")
		}
	})

	t.Run("session account mismatch stays open", func(t *testing.T) {
		rec := newRecorder()
		q, p := stagedSign(t, rec, "Hello")
		sess := &fakeSession{addr: common.HexToAddress("0x1111111111111111111111111111111111111111")}

		f := &SignMessage{P: p, Wallet: wcWallet, ChainID: 1, Session: sess}
		f.Approve(context.Background())

		if f.Err() == "" || !strings.Contains(f.Err(), "reconnect") {
			t.Errorf("Err = %q, want reconnect hint", f.Err())
		}
		if len(rec.responses["inst-1"]) != 0 {
			t.Error("retryable error must not resolve the request")
		}
		if q.Head() != p {
			t.Error("request left the queue on a retryable error")
		}
	})

	t.Run("signer error is inline and retryable", func(t *testing.T) {
		rec := newRecorder()
		_, p := stagedSign(t, rec, "Hello")
		sess := &fakeSession{addr: wcAddr, signErr: errors.New("user closed remote wallet")}

		f := &SignMessage{P: p, Wallet: wcWallet, ChainID: 1, Session: sess}
		f.Approve(context.Background())

		if f.Err() == "" {
			t.Error("expected inline error")
		}

		// retry succeeds
		sess.signErr = nil
		sess.sig = []byte{0x01}
		f.Approve(context.Background())
		if f.State() != StateResolved {
			t.Error("retry did not resolve")
		}
	})
}

func TestSignMessageHardware(t *testing.T) {
	sigHex := func() string {
		sig := make([]byte, 65)
		sig[0] = 0xab
		return hex.EncodeToString(sig)
	}()

	t.Run("nfc unavailable surfaces inline", func(t *testing.T) {
		rec := newRecorder()
		_, p := stagedSign(t, rec, "Hello")

		f := &SignMessage{P: p, Wallet: hwWallet, ChainID: 1, Transport: hito.UnavailableTransport{}}
		f.Approve(context.Background())

		if !strings.Contains(f.Err(), "NFC") {
			t.Errorf("Err = %q, want NFC probe failure", f.Err())
		}
		if len(rec.responses["inst-1"]) != 0 {
			t.Error("probe failure must not resolve the request")
		}
	})

	t.Run("write then scan", func(t *testing.T) {
		rec := newRecorder()
		_, p := stagedSign(t, rec, "Hello")

		var shown string
		f := &SignMessage{P: p, Wallet: hwWallet, ChainID: 1,
			Transport: hito.QRTransport{Show: func(s string) { shown = s }}}
		f.Approve(context.Background())

		if f.State() != StateAwaitingScan {
			t.Fatalf("state %v, want awaiting scan", f.State())
		}
		if !strings.HasPrefix(f.Payload(), "evm.msg:") {
			t.Errorf("payload %q", f.Payload())
		}
		if shown == "" {
			t.Error("QR was not rendered")
		}

		t.Run("bad scan keeps waiting", func(t *testing.T) {
			f.CompleteScan("not a signature")
			if f.State() != StateAwaitingScan {
				t.Error("decode failure should allow rescanning")
			}
			if f.Err() == "" {
				t.Error("expected inline decode error")
			}
		})

		t.Run("good scan resolves", func(t *testing.T) {
			f.CompleteScan("evm.sig:" + sigHex)
			if f.State() != StateResolved {
				t.Fatalf("state %v", f.State())
			}
			env := rec.responses["inst-1"][0]
			if env.Error != nil {
				t.Errorf("reply error %v", env.Error)
			}
		})
	})
}

func stagedSend(t *testing.T, rec *recorder, req txbuild.Request) *Pending {
	t.Helper()
	q := NewQueue()
	return q.Push(&Pending{
		RequestID:  2,
		InstanceID: "inst-1",
		Method:     "eth_sendTransaction",
		Kind:       KindSendTransaction,
		TxRequest:  req,
	}, rec)
}

func TestSendTransactionPopulationFailureBlocksApproval(t *testing.T) {
	rec := newRecorder()
	p := stagedSend(t, rec, txbuild.Request{ /* missing from */ To: "0xDEF"})

	f := &SendTransaction{P: p, Wallet: wcWallet, ChainID: 1, Session: &fakeSession{addr: wcAddr}}
	f.Populate(context.Background(), &txbuild.Populator{Reader: nil})

	if f.PopErr() == "" {
		t.Fatal("expected population error")
	}
	if f.CanApprove() {
		t.Error("population failure must remove the approve path")
	}

	f.Approve(context.Background())
	if len(rec.responses["inst-1"]) != 0 {
		t.Error("blocked approve must not resolve anything")
	}

	f.Cancel()
	env := rec.responses["inst-1"][0]
	if env.Error == nil || env.Error.Code != bridge.CodeUserRejected {
		t.Errorf("cancel reply = %v", env)
	}
}

func TestSendTransactionRemote(t *testing.T) {
	rec := newRecorder()
	p := stagedSend(t, rec, txbuild.Request{})
	sess := &fakeSession{addr: wcAddr, sentHash: common.HexToHash("0xbeef")}

	to := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	f := &SendTransaction{P: p, Wallet: wcWallet, ChainID: 137, Session: sess}
	f.populated = &txbuild.Populated{
		From:    wcAddr,
		ChainID: 137,
		Tx: types.NewTx(&types.LegacyTx{
			Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000, To: &to, Value: big.NewInt(1),
		}),
	}

	f.Approve(context.Background())

	if f.State() != StateResolved {
		t.Fatalf("state %v", f.State())
	}
	if len(sess.switched) != 1 || sess.switched[0] != 137 {
		t.Errorf("chain switch calls = %v", sess.switched)
	}
	env := rec.responses["inst-1"][0]
	if env.Error != nil || !strings.Contains(string(env.Result), "beef") {
		t.Errorf("reply = %+v", env)
	}
}

func TestSendTransactionHardwareStaging(t *testing.T) {
	rec := newRecorder()
	p := stagedSend(t, rec, txbuild.Request{})

	to := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	f := &SendTransaction{P: p, Wallet: hwWallet, ChainID: 1,
		Transport: hito.QRTransport{Show: func(string) {}}}
	f.populated = &txbuild.Populated{
		From:       wcAddr,
		ChainID:    1,
		DynamicFee: true,
		Tx: types.NewTx(&types.DynamicFeeTx{
			ChainID: big.NewInt(1), Nonce: 1,
			GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(2),
			Gas: 21000, To: &to, Value: big.NewInt(1),
		}),
	}

	f.Approve(context.Background())

	if f.State() != StateAwaitingScan {
		t.Fatalf("state %v, want awaiting scan", f.State())
	}
	if !strings.HasPrefix(f.Payload(), "evm.sign:") {
		t.Errorf("payload %q", f.Payload())
	}

	t.Run("cancel mid-scan still rejects", func(t *testing.T) {
		f.Cancel()
		env := rec.responses["inst-1"][0]
		if env.Error == nil || env.Error.Code != bridge.CodeUserRejected {
			t.Errorf("reply = %v", env)
		}
	})
}

func TestFlowStateReadableWhileApproving(t *testing.T) {
	// the sheet renders flow state while Approve runs on its own
	// goroutine; accessors must hold up under that interleaving
	rec := newRecorder()
	_, p := stagedSign(t, rec, "Hello")

	f := NewSignMessage(p, hwWallet, 1, nil, hito.QRTransport{Show: func(string) {}})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.Approve(context.Background())
	}()
	for i := 0; i < 200; i++ {
		_ = f.State()
		_ = f.Err()
		_ = f.Payload()
	}
	wg.Wait()

	if f.State() != StateAwaitingScan {
		t.Fatalf("state %v, want awaiting scan", f.State())
	}
}

// chainReader scripts the chain reads population needs
type chainReader struct{}

func (chainReader) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 3, nil
}

func (chainReader) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(5_000_000_000), nil
}

func (chainReader) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (chainReader) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: big.NewInt(7), Number: big.NewInt(1)}, nil
}

func (chainReader) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 21_000, nil
}

func TestSendTransactionPopulateUsesRequestChain(t *testing.T) {
	// a dApp request carrying its own chainId targets that chain, not
	// the instance's active one; population must follow the request
	rec := newRecorder()
	p := stagedSend(t, rec, txbuild.Request{
		From:    wcAddr.Hex(),
		To:      "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		ChainID: "0x89",
	})

	f := NewSendTransaction(p, hwWallet, 1, nil, hito.QRTransport{Show: func(string) {}}, nil)
	f.Populate(context.Background(), &txbuild.Populator{Reader: chainReader{}})

	if f.PopErr() != "" {
		t.Fatalf("population failed: %s", f.PopErr())
	}
	pop := f.Populated()
	if pop == nil || pop.ChainID != 137 {
		t.Fatalf("populated chain = %+v, want request's 137", pop)
	}
	if f.State() != StatePresenting {
		t.Errorf("state %v, want presenting", f.State())
	}
}
