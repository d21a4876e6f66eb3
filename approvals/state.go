package approvals

// FlowState tracks where a sign or send flow is between presentation
// and terminal resolution
type FlowState int

const (
	StatePresenting FlowState = iota
	StatePopulating
	StateHotPending          // remote session call in flight
	StateAwaitingNFC         // payload written, waiting for device tap
	StateAwaitingScan        // waiting for the signature QR scan-back
	StateResolved
)

func (s FlowState) String() string {
	switch s {
	case StatePresenting:
		return "presenting"
	case StatePopulating:
		return "populating"
	case StateHotPending:
		return "signing via session"
	case StateAwaitingNFC:
		return "awaiting NFC tap"
	case StateAwaitingScan:
		return "awaiting signature scan"
	case StateResolved:
		return "resolved"
	}
	return "unknown"
}
