// Package dialog implements the per-user setup state machine. It consumes
// inbound events (button presses, text messages), advances the conversation
// store, drives the publication scheduler, and emits outbound UI through the
// UI interface. Free-form text outside the setup flow is answered
// synchronously by the generation service.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/avolkov/genpost/internal/config"
	"github.com/avolkov/genpost/internal/database"
	"github.com/avolkov/genpost/internal/directory"
	"github.com/avolkov/genpost/internal/gen"
	"github.com/avolkov/genpost/internal/publisher"
	"github.com/avolkov/genpost/internal/store"
)

// Sentinel errors returned to the presentation layer instead of silent
// no-ops, so callback handlers can surface a short alert.
var (
	ErrNoChannels = errors.New("no channels selected")
	ErrNoPrompts  = errors.New("no prompts added")
	ErrNotActive  = errors.New("publication not active")
)

// Action identifies a named menu button the presentation layer renders.
type Action string

const (
	ActionBeginSetup      Action = "setup"
	ActionConfirmChannels Action = "confirm"
	ActionBeginGeneration Action = "begin"
	ActionStop            Action = "stop"
)

// ChannelEntry is one row of the channel picker.
type ChannelEntry struct {
	ID       string
	Title    string
	Selected bool
}

// UI renders outbound effects. Implementations own all transport detail;
// the engine only decides what to show next.
type UI interface {
	SendText(ctx context.Context, userID int64, text string) error
	SendMenu(ctx context.Context, userID int64, text string, actions ...Action) error
	SendChannelPicker(ctx context.Context, userID int64, text string, entries []ChannelEntry) error
	RefreshChannelPicker(ctx context.Context, userID int64, entries []ChannelEntry) error
}

// Scheduler is the slice of the publication scheduler the engine drives.
type Scheduler interface {
	Start(userID int64, period time.Duration) error
	Stop(userID int64) bool
}

// Publisher runs one synchronous publication cycle.
type Publisher interface {
	PublishOnce(ctx context.Context, userID int64) publisher.Outcome
}

// Engine is the dialog state machine.
type Engine struct {
	logger  *slog.Logger
	store   *store.Store
	dir     *directory.Directory
	sched   Scheduler
	pub     Publisher
	gen     gen.Client
	ui      UI
	history database.Store
	msgs    config.MessagesConfig

	immediateFirstFire bool
}

// NewEngine creates a dialog engine. history may be nil to disable the
// publication history surface.
func NewEngine(
	logger *slog.Logger,
	cfg *config.Config,
	st *store.Store,
	dir *directory.Directory,
	sched Scheduler,
	pub Publisher,
	genClient gen.Client,
	ui UI,
	history database.Store,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:             logger.With("component", "dialog"),
		store:              st,
		dir:                dir,
		sched:              sched,
		pub:                pub,
		gen:                genClient,
		ui:                 ui,
		history:            history,
		msgs:               cfg.Messages,
		immediateFirstFire: cfg.Scheduler.FirstFire == config.FirstFireImmediate,
	}
}

// BeginSetup starts (or restarts) the setup dialog for the user. Re-entry
// is allowed at any time; stored configuration is overwritten step by step
// as the user progresses.
func (e *Engine) BeginSetup(ctx context.Context, userID int64) {
	e.store.Update(userID, func(u *store.User) {
		u.Stage = store.StageAwaitingCredential
	})
	e.send(ctx, userID, e.msgs.EnterCredential)
}

// Text handles a plain text message according to the user's current stage.
// Text that no stage expects is answered by the generation service when a
// credential is stored, and with a setup hint otherwise.
func (e *Engine) Text(ctx context.Context, userID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	switch e.store.Stage(userID) {
	case store.StageAwaitingCredential:
		e.handleCredential(ctx, userID, text)
	case store.StageAwaitingPrompt:
		e.handlePrompt(ctx, userID, text)
	case store.StageAwaitingInterval:
		e.handleInterval(ctx, userID, text)
	default:
		e.handleChat(ctx, userID, text)
	}
}

// ToggleChannel flips a channel's membership in the user's selection and
// refreshes the picker. Stale toggles outside the selection stage are
// ignored.
func (e *Engine) ToggleChannel(ctx context.Context, userID int64, channelID string) {
	var (
		inStage bool
		entries []ChannelEntry
	)
	e.store.Update(userID, func(u *store.User) {
		if u.Stage != store.StageAwaitingChannels {
			return
		}
		inStage = true
		u.ToggleChannel(channelID)
		entries = e.pickerEntries(u)
	})
	if !inStage {
		e.logger.DebugContext(ctx, "Ignoring toggle outside channel selection", "user_id", userID, "channel_id", channelID)
		return
	}
	if err := e.ui.RefreshChannelPicker(ctx, userID, entries); err != nil {
		e.logger.ErrorContext(ctx, "Failed to refresh channel picker", "user_id", userID, "error", err)
	}
}

// ConfirmChannels finishes channel selection. An empty selection is
// rejected with ErrNoChannels and leaves the stage unchanged.
func (e *Engine) ConfirmChannels(ctx context.Context, userID int64) error {
	var confirmed bool
	e.store.Update(userID, func(u *store.User) {
		if u.Stage != store.StageAwaitingChannels || len(u.SelectedChannels()) == 0 {
			return
		}
		confirmed = true
		u.Stage = store.StageAwaitingPrompt
		u.Prompts = nil
	})
	if !confirmed {
		return ErrNoChannels
	}
	e.send(ctx, userID, e.msgs.EnterPrompt)
	return nil
}

// BeginGeneration finishes prompt entry and asks for the interval. An empty
// prompt queue is rejected with ErrNoPrompts.
func (e *Engine) BeginGeneration(ctx context.Context, userID int64) error {
	var begun bool
	e.store.Update(userID, func(u *store.User) {
		if u.Stage != store.StageAwaitingPrompt || len(u.Prompts) == 0 {
			return
		}
		begun = true
		u.Cursor = 0
		u.Stage = store.StageAwaitingInterval
	})
	if !begun {
		return ErrNoPrompts
	}
	e.send(ctx, userID, e.msgs.EnterInterval)
	return nil
}

// Stop cancels the user's recurring publication. Stopping an inactive user
// returns ErrNotActive and has no other effect.
func (e *Engine) Stop(ctx context.Context, userID int64) error {
	stopped := e.sched.Stop(userID)
	e.store.Update(userID, func(u *store.User) {
		if u.Stage == store.StageActive {
			u.Stage = store.StageIdle
		}
	})
	if !stopped {
		return ErrNotActive
	}
	e.send(ctx, userID, e.msgs.Stopped)
	return nil
}

// ChannelGranted records that the bot gained publish rights on a channel.
func (e *Engine) ChannelGranted(ctx context.Context, channelID, title string) {
	e.dir.Upsert(channelID, title)
	e.logger.InfoContext(ctx, "Channel added to directory", "channel_id", channelID, "title", title)
}

// History sends the user's recent publications.
func (e *Engine) History(ctx context.Context, userID int64) {
	if e.history == nil {
		e.send(ctx, userID, e.msgs.HistoryEmpty)
		return
	}

	pubs, err := e.history.RecentPublications(ctx, userID, 10)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load publication history", "user_id", userID, "error", err)
		e.send(ctx, userID, e.msgs.GenError)
		return
	}
	if len(pubs) == 0 {
		e.send(ctx, userID, e.msgs.HistoryEmpty)
		return
	}

	var sb strings.Builder
	sb.WriteString(e.msgs.HistoryHeader)
	for _, p := range pubs {
		sb.WriteString(fmt.Sprintf("\n%s — prompt #%d, %d/%d channels, %s",
			p.CreatedAt.Format("2006-01-02 15:04"), p.PromptIndex+1, p.DeliveredCount, p.ChannelCount, p.Outcome))
	}
	e.send(ctx, userID, sb.String())
}

func (e *Engine) handleCredential(ctx context.Context, userID int64, text string) {
	snapshot := e.dir.All()
	if len(snapshot) == 0 {
		// Setup cannot proceed without known channels; store the key and
		// return to idle so the user is not stuck mid-dialog.
		e.store.Update(userID, func(u *store.User) {
			u.Credential = text
			u.Stage = store.StageIdle
		})
		e.send(ctx, userID, e.msgs.NoChannels)
		return
	}

	var entries []ChannelEntry
	e.store.Update(userID, func(u *store.User) {
		u.Credential = text
		u.Channels = make(map[string]bool)
		u.Stage = store.StageAwaitingChannels
		entries = e.pickerEntries(u)
	})
	if err := e.ui.SendChannelPicker(ctx, userID, e.msgs.ChooseChannels, entries); err != nil {
		e.logger.ErrorContext(ctx, "Failed to send channel picker", "user_id", userID, "error", err)
	}
}

func (e *Engine) handlePrompt(ctx context.Context, userID int64, text string) {
	e.store.Update(userID, func(u *store.User) {
		u.Prompts = append(u.Prompts, text)
	})
	msg := fmt.Sprintf(e.msgs.PromptAdded, text)
	if err := e.ui.SendMenu(ctx, userID, msg, ActionBeginGeneration); err != nil {
		e.logger.ErrorContext(ctx, "Failed to send prompt menu", "user_id", userID, "error", err)
	}
}

func (e *Engine) handleInterval(ctx context.Context, userID int64, text string) {
	minutes, err := ParseInterval(text)
	if err != nil {
		// Invalid input keeps the stage and all other fields untouched.
		e.send(ctx, userID, e.msgs.InvalidInterval)
		return
	}

	e.store.Update(userID, func(u *store.User) {
		u.IntervalMinutes = minutes
		u.Stage = store.StageActive
	})

	// Any previous job is cancelled before the immediate publish so an
	// in-flight old firing cannot interleave with it. The recurring job's
	// first firing lands one full period from now.
	e.sched.Stop(userID)
	if e.immediateFirstFire {
		e.pub.PublishOnce(ctx, userID)
	}
	if err := e.sched.Start(userID, time.Duration(minutes)*time.Minute); err != nil {
		e.logger.ErrorContext(ctx, "Failed to start publication job", "user_id", userID, "error", err)
		e.send(ctx, userID, e.msgs.GenError)
		return
	}

	msg := fmt.Sprintf(e.msgs.Started, minutes)
	if err := e.ui.SendMenu(ctx, userID, msg, ActionStop); err != nil {
		e.logger.ErrorContext(ctx, "Failed to send start confirmation", "user_id", userID, "error", err)
	}
}

// handleChat is the synchronous one-off chat path for text no stage expects.
func (e *Engine) handleChat(ctx context.Context, userID int64, text string) {
	var credential string
	e.store.View(userID, func(u store.User) {
		credential = u.Credential
	})
	if credential == "" {
		e.send(ctx, userID, e.msgs.NeedSetup)
		return
	}

	answer, err := e.gen.Generate(ctx, credential, text)
	if err != nil {
		e.logger.ErrorContext(ctx, "Chat generation failed", "user_id", userID, "error", err)
		e.send(ctx, userID, e.msgs.GenError)
		return
	}
	e.send(ctx, userID, answer)
}

// pickerEntries renders the directory snapshot against the user's current
// selection, sorted by title for a stable keyboard layout.
func (e *Engine) pickerEntries(u *store.User) []ChannelEntry {
	snapshot := e.dir.All()
	entries := make([]ChannelEntry, 0, len(snapshot))
	for id, title := range snapshot {
		entries = append(entries, ChannelEntry{ID: id, Title: title, Selected: u.Channels[id]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Title != entries[j].Title {
			return entries[i].Title < entries[j].Title
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func (e *Engine) send(ctx context.Context, userID int64, text string) {
	if err := e.ui.SendText(ctx, userID, text); err != nil {
		e.logger.ErrorContext(ctx, "Failed to send message", "user_id", userID, "error", err)
	}
}
