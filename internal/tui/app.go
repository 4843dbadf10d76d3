// internal/tui/app.go
//
// This is the main TUI for rebound. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// The match itself runs on a fixed timestep: a tea.Tick fires once per frame,
// each tick advances the world by exactly 1/frame_rate seconds, and the key
// messages in between arm movement directions for the next steps.

package tui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"rebound/internal/config"
	"rebound/internal/logbook"
	"rebound/internal/replay"
	"rebound/internal/sim"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu     appState = iota // Main menu
	statePlaying                      // Live match
	stateReplayPicker                 // Choosing a recorded match
	stateReplaying                    // Watching a recorded match
	stateControls                     // Key binding reference
)

// frameMsg drives one simulation or playback step.
type frameMsg struct{}

// tuningMsg carries a config reload from the workspace watcher.
type tuningMsg struct {
	update config.Update
}

// binding resolves one key string to a player and direction.
type binding struct {
	player sim.Player
	dir    sim.Direction
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithoutWatcher disables config hot-reloading; tests use it to keep the
// model free of background goroutines.
func WithoutWatcher() AppOption {
	return func(a *App) { a.watchDisabled = true }
}

// WithReplay opens the given replay file immediately instead of the menu.
func WithReplay(path string) AppOption {
	return func(a *App) { a.initialReplay = path }
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state appState
	cfg   *config.Config
	book  *logbook.Logbook

	// Live match state
	world     *sim.World
	recorder  *replay.Recorder
	recording bool
	paused    bool

	// Replay playback state
	reader     *replay.Reader
	replayPath string
	playFrame  sim.Frame
	replayDone bool

	// Config hot reload
	watcher       *config.Watcher
	watchDisabled bool

	// Replay file to open on startup, set by WithReplay.
	initialReplay string

	// UI components
	mainMenu   list.Model
	replayMenu list.Model
	keymap     map[string]binding
	statusMsg  string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// replayItem is one stored match in the picker.
type replayItem struct {
	info replay.Info
}

func (r replayItem) Title() string {
	return filepath.Base(r.info.Path)
}

func (r replayItem) Description() string {
	return fmt.Sprintf("match %s · recorded %s",
		shortMatchID(r.info.Header.MatchID),
		r.info.Modified.Format("2006-01-02 15:04"))
}

func (r replayItem) FilterValue() string { return filepath.Base(r.info.Path) }

// NewApp creates a new App instance for the given working directory.
func NewApp(workDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(workDir)
	if err != nil {
		return nil, err
	}
	book, err := logbook.New(filepath.Join(cfg.LogsDir(), "session.log"))
	if err == nil {
		book.Info("Session opened · arena %gx%g",
			cfg.File.Physics.ArenaWidth, cfg.File.Physics.ArenaHeight)
	}

	mainMenu := list.New(buildMainMenu(), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "◉ REBOUND"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	replayMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	replayMenu.Title = "Recorded Matches"
	replayMenu.SetShowStatusBar(false)
	replayMenu.SetFilteringEnabled(false)

	app := &App{
		state:      stateMainMenu,
		cfg:        cfg,
		book:       book,
		mainMenu:   mainMenu,
		replayMenu: replayMenu,
		keymap:     buildKeymap(cfg.File.Keys),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if !app.watchDisabled {
		if watcher, err := config.WatchConfig(workDir); err == nil {
			if err := watcher.Start(); err == nil {
				app.watcher = watcher
			} else {
				app.book.Warn("Config watcher failed to start: %v", err)
			}
		}
	}
	return app, nil
}

// buildMainMenu creates the main menu items.
func buildMainMenu() []list.Item {
	return []list.Item{
		menuItem{title: "Play", desc: "Start a match"},
		menuItem{title: "Play & Record", desc: "Start a match and save the replay"},
		menuItem{title: "Watch Replay", desc: "Play back a recorded match"},
		menuItem{title: "Controls", desc: "Key bindings"},
		menuItem{title: "Quit", desc: "Leave the arena"},
	}
}

// buildKeymap inverts the configured bindings into a key -> action lookup.
func buildKeymap(keys config.Keys) map[string]binding {
	m := make(map[string]binding, 8)
	add := func(p sim.Player, b config.Bindings) {
		m[strings.ToLower(b.Up)] = binding{p, sim.DirUp}
		m[strings.ToLower(b.Down)] = binding{p, sim.DirDown}
		m[strings.ToLower(b.Left)] = binding{p, sim.DirLeft}
		m[strings.ToLower(b.Right)] = binding{p, sim.DirRight}
	}
	add(sim.PlayerOne, keys.PlayerOne)
	add(sim.PlayerTwo, keys.PlayerTwo)
	return m
}

// frameInterval is the tick cadence. Live matches follow the configured
// display rate; playback follows the rate the match was recorded at, so a
// 30 fps recording plays back in real time under any viewer config.
func (a *App) frameInterval() time.Duration {
	rate := a.cfg.File.Display.FrameRate
	if a.state == stateReplaying && a.reader != nil {
		rate = a.reader.Header().FrameRate
	}
	return time.Second / time.Duration(rate)
}

func (a *App) stepSize() float64 {
	return 1.0 / float64(a.cfg.File.Display.FrameRate)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	tuning := a.waitForTuning()
	if a.initialReplay == "" {
		return tuning
	}
	_, play := a.openReplayFile(a.initialReplay)
	return tea.Batch(tuning, play)
}

// waitForTuning blocks on the next config reload in a command goroutine.
func (a *App) waitForTuning() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	updates := a.watcher.Updates()
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return nil
		}
		return tuningMsg{update: update}
	}
}

func (a *App) scheduleFrame() tea.Cmd {
	return tea.Tick(a.frameInterval(), func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.replayMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		return a, nil

	case tuningMsg:
		a.applyTuningUpdate(msg.update)
		return a, a.waitForTuning()

	case frameMsg:
		return a.handleFrame()

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.updateActiveMenu(msg)
}

func (a *App) updateActiveMenu(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.state {
	case stateMainMenu:
		a.mainMenu, cmd = a.mainMenu.Update(msg)
	case stateReplayPicker:
		a.replayMenu, cmd = a.replayMenu.Update(msg)
	}
	return cmd
}

// applyTuningUpdate retunes the running world from a reloaded config.
func (a *App) applyTuningUpdate(update config.Update) {
	if update.Err != nil {
		a.statusMsg = fmt.Sprintf("Config reload rejected: %v", update.Err)
		a.book.Warn("Config reload rejected: %v", update.Err)
		return
	}
	a.cfg = update.Config
	a.keymap = buildKeymap(a.cfg.File.Keys)
	if a.world != nil {
		a.world.Retune(a.cfg.Tuning())
	}
	a.statusMsg = "Config reloaded · physics retuned"
	a.book.Info("Config reloaded from %s", a.cfg.ConfigPath())
}

// handleFrame advances whichever loop is active and re-arms the ticker.
func (a *App) handleFrame() (tea.Model, tea.Cmd) {
	switch a.state {
	case statePlaying:
		if !a.paused {
			a.stepWorld()
		}
		return a, a.scheduleFrame()
	case stateReplaying:
		if !a.paused && !a.replayDone {
			a.advanceReplay()
		}
		return a, a.scheduleFrame()
	}
	return a, nil
}

// stepWorld runs one fixed timestep, records it, and logs notable contacts.
func (a *App) stepWorld() {
	a.world.Step(a.stepSize())
	frame := a.world.Snapshot()
	if a.recorder != nil {
		if err := a.recorder.Push(frame); err != nil {
			a.book.Error("Recording stopped: %v", err)
			a.recorder = nil
		}
	}
	for _, ev := range a.world.Drain() {
		if ev.Kind == sim.ContactBallBox {
			a.book.Info("Player %d hit the ball (tick %d)", ev.Player+1, ev.Tick)
		}
	}
}

func (a *App) advanceReplay() {
	frame, err := a.reader.Next()
	if err != nil {
		a.replayDone = true
		if err == io.EOF {
			a.statusMsg = "Replay finished · Esc to return"
		} else {
			a.statusMsg = fmt.Sprintf("Replay ended: %v", err)
			a.book.Warn("Replay %s ended early: %v", filepath.Base(a.replayPath), err)
		}
		return
	}
	a.playFrame = frame
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := strings.ToLower(msg.String())

	if key == "ctrl+c" {
		return a, a.quit()
	}

	switch a.state {
	case stateMainMenu:
		switch key {
		case "q":
			return a, a.quit()
		case "enter":
			return a.handleMainMenuSelection()
		}
	case statePlaying:
		if b, ok := a.keymap[key]; ok {
			a.world.Arm(b.player, b.dir)
			return a, nil
		}
		switch key {
		case "p", " ":
			a.paused = !a.paused
			if a.paused {
				a.statusMsg = "Paused · p to resume"
			} else {
				a.statusMsg = ""
			}
			return a, nil
		case "r":
			a.resetMatch()
			return a, nil
		case "esc":
			return a.returnToMainMenu()
		}
	case stateReplayPicker:
		switch key {
		case "esc":
			return a.returnToMainMenu()
		case "enter":
			return a.startReplay()
		}
	case stateReplaying:
		switch key {
		case "p", " ":
			a.paused = !a.paused
			return a, nil
		case "esc":
			return a.returnToMainMenu()
		}
	case stateControls:
		if key == "esc" || key == "enter" {
			return a.returnToMainMenu()
		}
	}

	return a, a.updateActiveMenu(msg)
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}

	switch item.title {
	case "Play":
		a.book.Info("Menu · Play selected")
		return a.startMatch(false)

	case "Play & Record":
		a.book.Info("Menu · Play & Record selected")
		return a.startMatch(true)

	case "Watch Replay":
		a.book.Info("Menu · Watch Replay selected")
		return a.openReplayPicker()

	case "Controls":
		a.state = stateControls
		a.statusMsg = "Esc to return"
		return a, nil

	case "Quit":
		a.book.Info("Menu · Quit selected")
		return a, a.quit()
	}

	return a, nil
}

// startMatch boots a fresh world and, when asked, a recorder for it.
func (a *App) startMatch(record bool) (tea.Model, tea.Cmd) {
	a.world = sim.NewWorld(a.cfg.Tuning())
	a.recording = record
	a.recorder = nil
	a.paused = false
	a.state = statePlaying
	a.statusMsg = "p pause · r reset · esc menu"
	a.book.Info("Match %s started", shortMatchID(a.world.MatchID()))

	if record {
		if err := a.startRecorder(); err != nil {
			a.statusMsg = fmt.Sprintf("Recording unavailable: %v", err)
			a.book.Error("Recorder start failed: %v", err)
		}
	}
	return a, a.scheduleFrame()
}

func (a *App) startRecorder() error {
	started := time.Now().UTC()
	header := replay.Header{
		Version:   replay.SchemaVersion,
		MatchID:   a.world.MatchID(),
		Tuning:    a.world.Tuning(),
		FrameRate: a.cfg.File.Display.FrameRate,
		StartedAt: started,
	}
	path := filepath.Join(a.cfg.ReplaysDir(), replay.FileName(header.MatchID, started))
	rec, err := replay.NewRecorder(path, header, replay.Config{Logger: bookLogger{a.book}})
	if err != nil {
		return err
	}
	a.recorder = rec
	a.book.Info("Recording to %s", filepath.Base(path))
	return nil
}

// resetMatch restarts the current match; an active recording rolls over to a
// new file so every replay covers exactly one match.
func (a *App) resetMatch() {
	a.stopRecorder()
	a.world.Reset()
	a.paused = false
	a.book.Info("Match reset · now %s", shortMatchID(a.world.MatchID()))
	if a.recording {
		if err := a.startRecorder(); err != nil {
			a.book.Error("Recorder restart failed: %v", err)
		}
	}
}

func (a *App) stopRecorder() {
	if a.recorder == nil {
		return
	}
	a.recorder.Stop(true)
	a.book.Info("Recording saved (%d frames)", a.recorder.Frames())
	a.recorder = nil
}

// openReplayPicker lists stored matches in the picker menu.
func (a *App) openReplayPicker() (tea.Model, tea.Cmd) {
	infos, err := replay.List(a.cfg.ReplaysDir())
	if err != nil {
		a.statusMsg = fmt.Sprintf("Cannot list replays: %v", err)
		return a, nil
	}
	items := make([]list.Item, len(infos))
	for i := range infos {
		items[i] = replayItem{info: infos[i]}
	}
	a.replayMenu.SetItems(items)
	a.state = stateReplayPicker
	if len(items) == 0 {
		a.statusMsg = "No replays yet · record one with Play & Record"
	} else {
		a.statusMsg = "Enter → watch    Esc → back"
	}
	if a.width > 0 && a.height > 0 {
		a.replayMenu.SetSize(max(0, a.width-6), max(0, a.height-10))
	}
	return a, nil
}

// startReplay opens the selected file and enters playback.
func (a *App) startReplay() (tea.Model, tea.Cmd) {
	item, ok := a.replayMenu.SelectedItem().(replayItem)
	if !ok {
		return a, nil
	}
	return a.openReplayFile(item.info.Path)
}

func (a *App) openReplayFile(path string) (tea.Model, tea.Cmd) {
	reader, err := replay.Open(path)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Cannot open replay: %v", err)
		a.book.Error("Replay open failed: %v", err)
		return a, nil
	}
	a.closeReader()
	a.reader = reader
	a.replayPath = path
	a.playFrame = sim.Frame{}
	a.replayDone = false
	a.paused = false
	a.state = stateReplaying
	a.statusMsg = "p pause · esc back"
	a.book.Info("Watching %s", filepath.Base(path))
	return a, a.scheduleFrame()
}

func (a *App) closeReader() {
	if a.reader != nil {
		_ = a.reader.Close()
		a.reader = nil
	}
}

// returnToMainMenu transitions back to the main menu, releasing any match
// or playback resources on the way out.
func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.stopRecorder()
	a.closeReader()
	a.world = nil
	a.recording = false
	a.paused = false
	a.replayDone = false
	a.state = stateMainMenu
	a.statusMsg = ""
	return a, nil
}

// quit releases resources and exits the program.
func (a *App) quit() tea.Cmd {
	a.stopRecorder()
	a.closeReader()
	if a.watcher != nil {
		a.watcher.Stop()
		a.watcher = nil
	}
	a.book.Info("Session closed")
	return tea.Quit
}

func shortMatchID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// bookLogger adapts the session logbook to the recorder's Logger interface.
type bookLogger struct {
	book *logbook.Logbook
}

func (b bookLogger) Infow(msg string, kv ...interface{})  { b.book.Info("%s%s", msg, kvSuffix(kv)) }
func (b bookLogger) Warnw(msg string, kv ...interface{})  { b.book.Warn("%s%s", msg, kvSuffix(kv)) }
func (b bookLogger) Errorw(msg string, kv ...interface{}) { b.book.Error("%s%s", msg, kvSuffix(kv)) }

func kvSuffix(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", kv[i], kv[i+1])
	}
	return sb.String()
}
