package hito

import (
	"context"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/errors"
)

// Transport is the physical write channel to the device. The read-back
// half is always a QR scan handled by DecodeScan, so only the outgoing
// direction lives here.
type Transport interface {
	// Available probes whether the channel can be used right now; the
	// returned error explains why not (no NFC hardware, NFC disabled).
	Available() error
	// Write ships one payload to the device
	Write(ctx context.Context, payload string) error
}

// ErrNFCUnavailable is the base cause for probe failures
var ErrNFCUnavailable = errors.New("NFC is required and not available")

// UnavailableTransport always fails the probe. It is the default on
// hosts without an NFC bridge; the reason surfaces in the approval UI.
type UnavailableTransport struct {
	Reason string
}

func (t UnavailableTransport) Available() error {
	if t.Reason != "" {
		return errors.Wrap(ErrNFCUnavailable, t.Reason)
	}
	return ErrNFCUnavailable
}

func (t UnavailableTransport) Write(ctx context.Context, payload string) error {
	return t.Available()
}

// QRTransport displays the payload as a terminal QR code for the device's
// camera instead of tapping over NFC. The rendered code is pushed to Show
// so the UI can place it inside the approval sheet.
type QRTransport struct {
	Show func(rendered string)
}

func (t QRTransport) Available() error { return nil }

func (t QRTransport) Write(ctx context.Context, payload string) error {
	if t.Show == nil {
		return errors.New("no QR display attached")
	}
	t.Show(RenderQR(payload))
	return nil
}

// RenderQR renders a payload as a half-block terminal QR code
func RenderQR(payload string) string {
	var b strings.Builder
	qrterminal.GenerateWithConfig(payload, qrterminal.Config{
		Level:          qrterminal.L,
		Writer:         &b,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		QuietZone:      1,
	})
	return b.String()
}
