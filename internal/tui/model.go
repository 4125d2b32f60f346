// Package tui provides the Bubble Tea race interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/typedash/typedash/internal/engine"
	"github.com/typedash/typedash/internal/model"
	"github.com/typedash/typedash/internal/race"
	"github.com/typedash/typedash/internal/realtime"
	"github.com/typedash/typedash/internal/settle"
	"github.com/typedash/typedash/internal/store"
	"github.com/typedash/typedash/internal/words"
)

type phase int

const (
	phaseEnterCode phase = iota
	phaseConnecting
	phaseWaiting
	phaseRace
)

type (
	tickMsg      struct{ seq uint64 }
	aiMsg        struct{ seq uint64 }
	netMsg       struct{ env realtime.Envelope }
	netGoneMsg   struct{}
	connectedMsg struct{ client *realtime.Client }
	settledMsg   struct {
		receipt settle.Receipt
		err     error
	}
	errMsg struct{ err error }
)

// Options configures a race session.
type Options struct {
	Store   *store.Store
	Settler *settle.Settler

	Mode     race.Mode
	Host     bool
	RelayURL string
	RoomCode string

	LocalID     string
	Username    string
	Wallet      string
	Difficulty  model.Difficulty
	Stake       int64
	SkipOnError bool

	// Vocabulary overrides the built-in word list for the chosen
	// difficulty when non-empty.
	Vocabulary []string
}

// Model implements the Bubble Tea race UI.
type Model struct {
	opts Options
	ctrl *race.Controller
	gen  *words.Generator

	client *realtime.Client
	phase  phase

	oppID   string
	oppName string

	width  int
	height int

	localBar progress.Model
	oppBar   progress.Model

	codeInput textinput.Model

	status    string
	err       error
	finalized bool
	receipt   *settle.Receipt
}

// NewModel constructs a race TUI model. For bot races the countdown
// starts immediately; duels go through the relay handshake first.
func NewModel(opts Options) *Model {
	gen := words.New()
	if len(opts.Vocabulary) > 0 {
		gen.SetVocabulary(opts.Difficulty, opts.Vocabulary)
	}

	ctrl := race.New()
	ctrl.UseGenerator(gen)
	ctrl.SetSkipOnError(opts.SkipOnError)

	ti := textinput.New()
	ti.Placeholder = "ROOM"
	ti.CharLimit = 4
	ti.Width = 8

	m := &Model{
		opts:      opts,
		ctrl:      ctrl,
		gen:       gen,
		localBar:  progress.New(progress.WithDefaultGradient()),
		oppBar:    progress.New(progress.WithDefaultGradient()),
		codeInput: ti,
	}
	if opts.Mode == race.ModeBot {
		m.phase = phaseRace
	} else if opts.Host || opts.RoomCode != "" {
		m.phase = phaseConnecting
	} else {
		m.phase = phaseEnterCode
		m.codeInput.Focus()
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	switch m.phase {
	case phaseRace:
		return m.startBotRace()
	case phaseConnecting:
		return connectCmd(m.opts.RelayURL, m.opts.RoomCode, m.joinInfo())
	default:
		return textinput.Blink
	}
}

func (m *Model) joinInfo() realtime.Join {
	return realtime.Join{PlayerID: m.opts.LocalID, Username: m.opts.Username}
}

func (m *Model) startBotRace() tea.Cmd {
	m.ctrl.InitGame(m.opts.Difficulty, m.opts.LocalID, m.opts.Username, m.opts.Stake)
	m.ctrl.StartCountdown()
	return tickCmd(m.ctrl.Seq())
}

func tickCmd(seq uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func aiCmd(seq uint64, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return aiMsg{seq: seq}
	})
}

func connectCmd(relayURL, room string, join realtime.Join) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := realtime.Dial(ctx, relayURL, room, join)
		if err != nil {
			return errMsg{err: err}
		}
		return connectedMsg{client: client}
	}
}

func listenCmd(client *realtime.Client) tea.Cmd {
	return func() tea.Msg {
		env, ok := <-client.Inbound()
		if !ok {
			return netGoneMsg{}
		}
		return netMsg{env: env}
	}
}

func settleCmd(settler *settle.Settler, result model.MatchResult, wallet string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		receipt, err := settler.Settle(ctx, result, wallet)
		return settledMsg{receipt: receipt, err: err}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := m.contentWidth()
		m.localBar.Width = barWidth
		m.oppBar.Width = barWidth
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case connectedMsg:
		m.client = msg.client
		m.phase = phaseWaiting
		if m.opts.Host {
			m.status = fmt.Sprintf("Room %s. Waiting for an opponent...", m.opts.RoomCode)
		} else {
			m.status = "Joined. Waiting for the host to start..."
		}
		return m, listenCmd(m.client)

	case netMsg:
		cmd := m.handleEnvelope(msg.env)
		return m, tea.Batch(cmd, listenCmd(m.client))

	case netGoneMsg:
		return m, m.handlePeerGone()

	case tickMsg:
		return m, m.handleTick(msg.seq)

	case aiMsg:
		return m, m.handleAITurn(msg.seq)

	case settledMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Settlement failed: %v", msg.err)
		} else {
			m.receipt = &msg.receipt
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleEnvelope(env realtime.Envelope) tea.Cmd {
	switch env.Type {
	case realtime.MsgJoin:
		if env.Join == nil || env.Join.PlayerID == m.opts.LocalID {
			return nil
		}
		m.oppID = env.Join.PlayerID
		m.oppName = env.Join.Username
		if m.opts.Host && m.phase == phaseWaiting {
			return m.hostStart()
		}
		return nil

	case realtime.MsgGameStart:
		if env.GameStart == nil || m.opts.Host || m.phase != phaseWaiting {
			return nil
		}
		gs := env.GameStart
		m.ctrl.InitMultiplayerGame(gs.Difficulty, gs.TrackLength, gs.Words, m.opts.RoomCode, gs.StakeAmount,
			m.opts.LocalID, m.opts.Username, m.oppID, m.oppName)
		m.phase = phaseRace
		m.status = ""
		m.ctrl.StartCountdown()
		return tickCmd(m.ctrl.Seq())

	case realtime.MsgProgress:
		if env.Progress != nil {
			m.ctrl.UpdateRemoteOpponent(*env.Progress)
			return m.maybeFinalize()
		}
		return nil

	case realtime.MsgFinish:
		if env.Finish != nil {
			m.ctrl.MarkRemoteFinished(env.Finish.PlayerID)
			return m.maybeFinalize()
		}
		return nil

	case realtime.MsgPeerGone:
		return m.handlePeerGone()
	}
	return nil
}

// hostStart generates the shared word sequence, announces it, and
// begins the countdown on the host side. The guest starts on receipt.
func (m *Model) hostStart() tea.Cmd {
	cfg := model.ConfigFor(m.opts.Difficulty)
	seq := m.gen.Sequence(m.opts.Difficulty, cfg.TrackLength)
	gs := realtime.GameStart{
		Difficulty:  m.opts.Difficulty,
		TrackLength: cfg.TrackLength,
		Words:       seq,
		StakeAmount: m.opts.Stake,
	}
	if err := m.client.SendGameStart(gs); err != nil {
		m.err = err
		return nil
	}
	m.ctrl.InitMultiplayerGame(m.opts.Difficulty, cfg.TrackLength, seq, m.opts.RoomCode, m.opts.Stake,
		m.opts.LocalID, m.opts.Username, m.oppID, m.oppName)
	m.phase = phaseRace
	m.status = ""
	m.ctrl.StartCountdown()
	return tickCmd(m.ctrl.Seq())
}

func (m *Model) handlePeerGone() tea.Cmd {
	switch m.ctrl.State() {
	case model.StateCountdown, model.StateRacing:
		m.status = "Opponent disconnected."
		m.ctrl.EndGame()
		return m.maybeFinalize()
	default:
		if m.phase == phaseWaiting {
			m.status = "Opponent disconnected."
		}
	}
	return nil
}

func (m *Model) handleTick(seq uint64) tea.Cmd {
	wasCountdown := m.ctrl.State() == model.StateCountdown
	m.ctrl.Tick(seq)
	switch m.ctrl.State() {
	case model.StateRacing:
		cmds := []tea.Cmd{tickCmd(m.ctrl.Seq())}
		if wasCountdown && m.ctrl.ModeOf() == race.ModeBot {
			cmds = append(cmds, aiCmd(m.ctrl.Seq(), m.ctrl.NextAIDelay()))
		}
		return tea.Batch(cmds...)
	case model.StateCountdown:
		return tickCmd(m.ctrl.Seq())
	}
	return nil
}

func (m *Model) handleAITurn(seq uint64) tea.Cmd {
	delay, ok := m.ctrl.UpdateOpponent(seq)
	if ok {
		return aiCmd(m.ctrl.Seq(), delay)
	}
	return m.maybeFinalize()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, m.quit()
	}

	switch m.phase {
	case phaseEnterCode:
		return m.handleCodeKey(msg)
	case phaseConnecting, phaseWaiting:
		if msg.Type == tea.KeyEsc {
			return m, m.quit()
		}
		return m, nil
	}

	switch m.ctrl.State() {
	case model.StateRacing:
		return m, m.handleRaceKey(msg)
	case model.StateFinished:
		switch msg.String() {
		case "r":
			if m.ctrl.ModeOf() == race.ModeBot {
				m.restart()
				return m, tickCmd(m.ctrl.Seq())
			}
		case "q", "enter", "esc":
			return m, m.quit()
		}
	default:
		if msg.Type == tea.KeyEsc {
			return m, m.quit()
		}
	}
	return m, nil
}

func (m *Model) handleCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		code := strings.ToUpper(strings.TrimSpace(m.codeInput.Value()))
		if !realtime.ValidRoomCode(code) {
			m.status = "Room codes are 4 characters, like K7PX."
			return m, nil
		}
		m.opts.RoomCode = code
		m.phase = phaseConnecting
		m.status = ""
		return m, connectCmd(m.opts.RelayURL, code, m.joinInfo())
	}
	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)
	return m, cmd
}

func (m *Model) handleRaceKey(msg tea.KeyMsg) tea.Cmd {
	var key engine.Key
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		key = engine.Key{Kind: engine.KeyBackspace}
	case tea.KeySpace:
		key = engine.Key{Kind: engine.KeyCommit}
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return nil
		}
		key = engine.Key{Kind: engine.KeyRune, Rune: msg.Runes[0]}
	case tea.KeyEsc:
		return m.quit()
	default:
		return nil
	}

	m.ctrl.HandleKeyPress(key)

	var cmds []tea.Cmd
	if m.ctrl.ModeOf() == race.ModeDuel && m.client != nil {
		if err := m.client.SendProgress(m.ctrl.Snapshot()); err != nil {
			// Best-effort progress broadcast; the race continues locally.
			_ = err
		}
		if m.ctrl.Local().IsFinished {
			if err := m.client.SendFinish(m.opts.LocalID); err != nil {
				_ = err
			}
		}
	}
	if cmd := m.maybeFinalize(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// maybeFinalize persists the match record and kicks off settlement.
// Runs at most once per race.
func (m *Model) maybeFinalize() tea.Cmd {
	if m.finalized || m.ctrl.State() != model.StateFinished {
		return nil
	}
	result := m.ctrl.Result()
	if result == nil {
		return nil
	}
	m.finalized = true

	if m.opts.Store != nil {
		rec := model.MatchRecord{
			PlayedAt:   time.Now(),
			Difficulty: m.ctrl.Config().Difficulty,
			Result:     *result,
			LocalID:    m.opts.LocalID,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := m.opts.Store.InsertMatch(ctx, rec); err != nil {
			m.status = fmt.Sprintf("Could not save match: %v", err)
		}
	}

	if result.StakeAmount > 0 && result.WinnerID == m.opts.LocalID {
		if m.opts.Settler == nil {
			m.status = "Stake not settled: set TYPEDASH_ESCROW_URL and rerun."
			return nil
		}
		if m.opts.Wallet == "" {
			m.status = "Stake not settled: no payout wallet configured."
			return nil
		}
		return settleCmd(m.opts.Settler, *result, m.opts.Wallet)
	}
	return nil
}

func (m *Model) restart() {
	m.ctrl.ResetGame()
	m.finalized = false
	m.receipt = nil
	m.status = ""
	m.ctrl.InitGame(m.opts.Difficulty, m.opts.LocalID, m.opts.Username, m.opts.Stake)
	m.ctrl.StartCountdown()
}

func (m *Model) quit() tea.Cmd {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			// Best-effort close on the way out.
			_ = err
		}
	}
	return tea.Quit
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w < 20 {
		w = 20
	}
	return w
}
