package helpers

import (
	"math/big"
	"testing"
)

func TestShortenAddr(t *testing.T) {
	addr := "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb2"
	got := ShortenAddr(addr)
	if got != "0x742d…bEb2" {
		t.Errorf("ShortenAddr = %q", got)
	}
	if ShortenAddr("0x1234") != "0x1234" {
		t.Error("short input should pass through unchanged")
	}
}

func TestIsValidEthAddress(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb2", true},
		{"742d35Cc6634C0532925a3b844Bc9e7595f0bEb2", false},
		{"0x742d35Cc6634C0532925a3b844Bc9e7595f0bE", false},
		{"0xZZ2d35Cc6634C0532925a3b844Bc9e7595f0bEb2", false},
		{"", false},
	}
	for _, c := range cases {
		if IsValidEthAddress(c.in) != c.ok {
			t.Errorf("IsValidEthAddress(%q) != %v", c.in, c.ok)
		}
	}
}

func TestFormatETH(t *testing.T) {
	if got := FormatETH(big.NewInt(1500000000000000000)); got != "1.500000 ETH" {
		t.Errorf("FormatETH = %q", got)
	}
	if got := FormatETH(nil); got != "0 ETH" {
		t.Errorf("FormatETH(nil) = %q", got)
	}
}

func TestFormatToken(t *testing.T) {
	if got := FormatToken(big.NewInt(2500000), 6, "USDC"); got != "2.5000 USDC" {
		t.Errorf("FormatToken = %q", got)
	}
}
