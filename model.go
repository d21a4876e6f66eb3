package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"dapp-wallet-tui/approvals"
	"dapp-wallet-tui/bridge"
	"dapp-wallet-tui/chains"
	"dapp-wallet-tui/config"
	"dapp-wallet-tui/router"
	"dapp-wallet-tui/session"
	"dapp-wallet-tui/styles"
	"dapp-wallet-tui/views/walletlist"
	"dapp-wallet-tui/walletinfo"
	"dapp-wallet-tui/wallets"
)

// builtinCatalog ships with the app; user shortcuts from config are
// appended after these
var builtinCatalog = []session.App{
	{Name: "Uniswap", URL: "https://app.uniswap.org", Icon: "🦄"},
	{Name: "Aave", URL: "https://app.aave.com", Icon: "👻"},
	{Name: "OpenSea", URL: "https://opensea.io", Icon: "🌊"},
}

const feedLimit = 8

// logSink collects logger output for the log viewport. The router's
// logger writes from request goroutines while the UI loop reads, so
// both sides go through the mutex.
type logSink struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
}

func (s *logSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// uiResponder routes resolutions back to the page-side provider of the
// owning instance and mirrors them into the UI event channel
type uiResponder struct {
	mgr    *session.Manager
	events chan tea.Msg
}

// post never blocks; a full channel drops the UI mirror line, the
// provider delivery above it has already happened
func (r *uiResponder) post(msg tea.Msg) {
	select {
	case r.events <- msg:
	default:
	}
}

func (r *uiResponder) Deliver(instanceID string, env bridge.ResponseEnvelope) {
	if in, ok := r.mgr.Get(instanceID); ok {
		if p := in.Provider(); p != nil {
			p.HandleResponse(env)
		}
	}
}

func (r *uiResponder) Emit(instanceID string, env bridge.EventEnvelope) {
	if in, ok := r.mgr.Get(instanceID); ok {
		if p := in.Provider(); p != nil {
			p.HandleEvent(env)
		}
	}
	r.post(activityMsg{instanceID: instanceID, line: "⚡ " + env.Event + " " + string(env.Data)})
}

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	activePage config.Page

	// engine
	registry  *chains.Registry
	store     *wallets.Store
	manager   *session.Manager
	queue     *approvals.Queue
	router    *router.Router
	responder *uiResponder
	events    chan tea.Msg

	// remote hot-wallet sessions by wallet key; populated when a
	// wallet-connect pairing is established
	remoteSessions map[string]wallets.RemoteSession

	configPath string
	customApps []session.App
	overrides  map[uint64]string

	// home form
	homeForm *huh.Form

	// catalog page
	selectedApp int
	appMode     string // "list", "add", "edit", "url"
	appForm     *huh.Form
	urlInput    textinput.Model

	// browser page
	console        textinput.Model
	consoleFocused bool
	feeds          map[string][]string

	// wallets page
	selectedWallet int
	walletMode     string // "list", "add", "rename"
	walletForm     *huh.Form
	clickableAreas []walletlist.ClickableArea

	// wallet details panel
	spin         spinner.Model
	loading      bool
	details      walletinfo.Details
	detailsCache map[string]walletinfo.Details
	showDetails  bool

	// settings page
	selectedChain int
	settingsMode  string // "list", "edit"
	rpcForm       *huh.Form

	// delete confirmation dialog
	showDeleteDialog        bool
	deleteDialogAddr        string
	deleteDialogIdx         int
	deleteDialogYesSelected bool

	// approval sheet (modal, bound to the queue head)
	sheet       *approvals.Pending
	connectFlow *approvals.Connect
	signFlow    *approvals.SignMessage
	sendFlow    *approvals.SendTransaction
	connectForm *huh.Form
	scanInput   textinput.Model
	qrView      string

	// clipboard feedback
	copiedMsg string

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *logSink
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
}

// catalog is the merged built-in plus user app list
func (m *model) catalog() []session.App {
	out := make([]session.App, 0, len(builtinCatalog)+len(m.customApps))
	out = append(out, builtinCatalog...)
	out = append(out, m.customApps...)
	return out
}

func (m *model) saveConfig() {
	config.Save(m.configPath, config.Config{
		Wallets:      m.store.All(),
		Apps:         m.customApps,
		RPCOverrides: overrideList(m.overrides),
		Logger:       m.logEnabled,
	})
}

func overrideList(overrides map[uint64]string) []config.RPCOverride {
	var out []config.RPCOverride
	for _, n := range chains.All() {
		if url, ok := overrides[n.ChainID]; ok {
			out = append(out, config.RPCOverride{ChainID: n.ChainID, URL: url})
		}
	}
	return out
}

// remoteSession returns the live pairing for a wallet, if any
func (m *model) remoteSession(w wallets.Wallet) wallets.RemoteSession {
	return m.remoteSessions[w.Key()]
}

// -------------------- INIT --------------------

// newModel creates and initializes a new model with configuration from disk
func newModel() model {
	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".dapp-wallet-config.json")

	cfg := config.LoadOrCreate(configPath)

	events := make(chan tea.Msg, 64)

	registry := chains.NewRegistry()
	overrides := make(map[uint64]string)
	for _, o := range cfg.RPCOverrides {
		overrides[o.ChainID] = o.URL
		registry.Override(o.ChainID, o.URL)
	}
	// ETH_RPC_URL pins mainnet without touching the config file
	if env := strings.TrimSpace(os.Getenv("ETH_RPC_URL")); env != "" {
		overrides[1] = env
		registry.Override(1, env)
	}

	store := wallets.NewStore(cfg.Wallets, nil)

	var mgr *session.Manager
	queue := approvals.NewQueue()
	responder := &uiResponder{events: events}
	rt := &router.Router{
		Registry:  registry,
		Queue:     queue,
		Responder: responder,
	}
	mgr = session.NewManager(func(instanceID string) *bridge.Provider {
		return bridge.NewProvider(func(env bridge.RequestEnvelope) {
			in, ok := mgr.Get(instanceID)
			if !ok {
				return
			}
			go rt.Handle(context.Background(), in, env)
		})
	})
	responder.mgr = mgr

	queue.OnChange = func(*approvals.Pending) {
		responder.post(headChangedMsg{})
	}

	// url input
	urlIn := textinput.New()
	urlIn.Placeholder = "app.example.org"
	urlIn.Prompt = "URL: "
	urlIn.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	urlIn.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	urlIn.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	urlIn.Width = 48

	// console input
	console := textinput.New()
	console.Placeholder = `eth_chainId`
	console.Prompt = "> "
	console.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	console.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	console.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	console.Width = 64

	// scan response input for hardware flows
	scanIn := textinput.New()
	scanIn.Placeholder = "evm.sig:…"
	scanIn.Prompt = "Scan: "
	scanIn.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	scanIn.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	scanIn.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	scanIn.Width = 56

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	// Initialize log viewport
	vp := viewport.New(0, 20) // resized on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	m := model{
		activePage:     config.PageHome,
		registry:       registry,
		store:          store,
		manager:        mgr,
		queue:          queue,
		router:         rt,
		responder:      responder,
		events:         events,
		remoteSessions: make(map[string]wallets.RemoteSession),
		configPath:     configPath,
		customApps:     cfg.Apps,
		overrides:      overrides,
		appMode:        "list",
		urlInput:       urlIn,
		console:        console,
		feeds:          make(map[string][]string),
		walletMode:     "list",
		spin:           sp,
		detailsCache:   make(map[string]walletinfo.Details),
		settingsMode:   "list",
		scanInput:      scanIn,
		logEnabled:     cfg.Logger,
		logViewport:    vp,
		logBuffer:      &logSink{},
		logSpinner:     logSpin,
	}

	return m
}

// Init implements tea.Model interface and returns initial commands
func (m *model) Init() tea.Cmd {
	m.homeForm = createHomeForm()
	cmds := []tea.Cmd{m.spin.Tick, waitActivity(m.events)}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	return tea.Batch(cmds...)
}
