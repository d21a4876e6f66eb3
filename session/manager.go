package session

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/wallets"
)

// App is one catalog entry (favorite or user-added shortcut)
type App struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon,omitempty"`
}

// Instance is one embedded page surface with its own connection state.
// Instances are never destroyed during a session: switching away keeps
// them mounted so a dApp resumes instantly when reopened.
//
// The router mutates connection state from request goroutines while the
// UI loop reads it, so every field behind mu goes through an accessor.
type Instance struct {
	ID string

	mu        sync.Mutex
	url       string
	title     string
	chainID   uint64
	wallet    *wallets.Wallet
	connected bool
	loaded    bool
	// timestamp forces the page container to fully remount when bumped
	timestamp int64

	provider *bridge.Provider
}

// NewInstance creates a detached instance. Manager.Open is the normal
// path; this exists for wiring an instance to a provider by hand.
func NewInstance(id, rawURL string, chainID uint64) *Instance {
	return &Instance{
		ID:        id,
		url:       NormalizeURL(rawURL),
		title:     Hostname(rawURL),
		chainID:   chainID,
		timestamp: time.Now().UnixNano(),
	}
}

func (in *Instance) URL() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.url
}

func (in *Instance) Title() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.title
}

func (in *Instance) ChainID() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.chainID
}

// SetChainID records a granted chain switch
func (in *Instance) SetChainID(chainID uint64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.chainID = chainID
}

func (in *Instance) Connected() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.connected
}

// Wallet returns a copy of the bound wallet, if any
func (in *Instance) Wallet() (wallets.Wallet, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.wallet == nil {
		return wallets.Wallet{}, false
	}
	return *in.wallet, true
}

// ConnectedWallet returns the wallet only while the instance is
// connected, as one atomic check
func (in *Instance) ConnectedWallet() (wallets.Wallet, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.connected || in.wallet == nil {
		return wallets.Wallet{}, false
	}
	return *in.wallet, true
}

func (in *Instance) Loaded() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.loaded
}

func (in *Instance) SetLoaded(loaded bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.loaded = loaded
}

func (in *Instance) Timestamp() int64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.timestamp
}

func (in *Instance) Provider() *bridge.Provider {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.provider
}

// Connect marks the instance connected with the chosen wallet.
// Connected implies a wallet, enforced here and in Disconnect.
func (in *Instance) Connect(w wallets.Wallet) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.wallet = &w
	in.connected = true
}

// Disconnect clears the connection state
func (in *Instance) Disconnect() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.wallet = nil
	in.connected = false
}

// Accounts is the address list the page sees: empty until connected
func (in *Instance) Accounts() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.connected || in.wallet == nil {
		return []string{}
	}
	return []string{in.wallet.Address}
}

// Manager owns the set of live instances. One instance is active
// (foreground) at a time; the rest stay alive in the background.
type Manager struct {
	mu        sync.Mutex
	instances map[string]*Instance
	order     []string
	activeID  string

	// newProvider wires a fresh page-side provider for an instance id
	newProvider func(instanceID string) *bridge.Provider
}

// NewManager creates an empty manager. newProvider may be nil when the
// caller attaches providers itself.
func NewManager(newProvider func(instanceID string) *bridge.Provider) *Manager {
	return &Manager{
		instances:   make(map[string]*Instance),
		newProvider: newProvider,
	}
}

// Hostname extracts the lowercase host from a URL, tolerating bare
// "app.example.org" input the way a browser address bar does
func Hostname(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// NormalizeURL fills in the https scheme when the user typed a bare host
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "https://" + raw
	}
	return raw
}

// Open resolves a URL to an instance: a catalog app matching the URL's
// hostname takes priority, then an existing instance with the same
// hostname, then a fresh instance. When the resolved instance's stored
// URL differs from the requested one, the instance is force-reloaded in
// place rather than replaced, so its connection state survives.
func (m *Manager) Open(rawURL string, catalog []App) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := NormalizeURL(rawURL)
	host := Hostname(target)

	title := host
	for _, app := range catalog {
		if Hostname(app.URL) == host && host != "" {
			title = app.Name
			break
		}
	}

	if host != "" {
		for _, id := range m.order {
			in := m.instances[id]
			if Hostname(in.URL()) == host {
				if in.URL() != target {
					m.forceReload(in, target)
				}
				m.activeID = in.ID
				return in
			}
		}
	}

	in := NewInstance(uuid.NewString(), target, chains.DefaultChainID)
	in.title = title
	if m.newProvider != nil {
		in.provider = m.newProvider(in.ID)
	}
	m.instances[in.ID] = in
	m.order = append(m.order, in.ID)
	m.activeID = in.ID
	return in
}

func (m *Manager) forceReload(in *Instance, url string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.url = url
	in.loaded = false
	ts := time.Now().UnixNano()
	if ts <= in.timestamp {
		ts = in.timestamp + 1
	}
	in.timestamp = ts
	if m.newProvider != nil {
		// a remount is a new page lifetime: fresh correlation table
		in.provider = m.newProvider(in.ID)
	}
}

// ForceReload remounts an instance's page container in place
func (m *Manager) ForceReload(id string, url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.instances[id]
	if !ok {
		return false
	}
	m.forceReload(in, NormalizeURL(url))
	return true
}

// Get returns the instance with the given id
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.instances[id]
	return in, ok
}

// Active returns the foreground instance, or nil when on the home screen
func (m *Manager) Active() *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == "" {
		return nil
	}
	return m.instances[m.activeID]
}

// SetActive switches the foreground instance. The previous instance's
// state is left untouched.
func (m *Manager) SetActive(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[id]; !ok {
		return false
	}
	m.activeID = id
	return true
}

// ClearActive returns to the home screen without tearing anything down
func (m *Manager) ClearActive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeID = ""
}

// All returns the live instances in creation order
func (m *Manager) All() []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Instance, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.instances[id])
	}
	return out
}
