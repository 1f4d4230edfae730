// Package publisher implements one periodic publication cycle: pick the
// next prompt in the user's rotation, call the generation service once, and
// fan the result out to every selected channel.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/avolkov/genpost/internal/database"
	"github.com/avolkov/genpost/internal/gen"
	"github.com/avolkov/genpost/internal/store"
)

// Outcome classifies the result of a single publication cycle.
type Outcome int

const (
	// Published means the generated text was handed to the deliverer for
	// every selected channel. Individual delivery failures are logged and
	// do not change the outcome.
	Published Outcome = iota
	// SkippedMissingConfig means the user lacks a credential, prompts, or
	// selected channels; nothing was generated or delivered.
	SkippedMissingConfig
	// GenerationFailed means the generation call failed; nothing was
	// delivered. The rotation cursor has still advanced.
	GenerationFailed
)

// Deliverer sends generated text to a single channel.
type Deliverer interface {
	DeliverText(ctx context.Context, channelID, text string) error
}

// Publisher runs publication cycles against the conversation store.
type Publisher struct {
	logger    *slog.Logger
	store     *store.Store
	gen       gen.Client
	deliverer Deliverer
	history   database.Store
}

// New creates a Publisher. history may be nil to disable audit records.
func New(logger *slog.Logger, st *store.Store, genClient gen.Client, deliverer Deliverer, history database.Store) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		logger:    logger.With("component", "publisher"),
		store:     st,
		gen:       genClient,
		deliverer: deliverer,
		history:   history,
	}
}

// PublishOnce performs one publication cycle for the user. The rotation
// cursor advances as soon as a prompt is selected, so a generation or
// delivery failure never replays the same prompt on the next cycle.
func (p *Publisher) PublishOnce(ctx context.Context, userID int64) Outcome {
	var (
		credential string
		prompt     string
		index      int
		channels   []string
		configured bool
	)
	p.store.Update(userID, func(u *store.User) {
		channels = u.SelectedChannels()
		if u.Credential == "" || len(u.Prompts) == 0 || len(channels) == 0 {
			return
		}
		configured = true
		credential = u.Credential
		index = u.Cursor
		prompt = u.NextPrompt()
	})

	if !configured {
		p.logger.WarnContext(ctx, "Skipping publication, configuration incomplete", "user_id", userID)
		return SkippedMissingConfig
	}

	log := p.logger.With("user_id", userID, "prompt_index", index, "channels", len(channels))

	text, err := p.gen.Generate(ctx, credential, prompt)
	if err != nil {
		log.ErrorContext(ctx, "Generation failed, skipping deliveries", "error", err)
		p.record(ctx, &database.Publication{
			UserID:       userID,
			Prompt:       prompt,
			PromptIndex:  index,
			ChannelCount: len(channels),
			Outcome:      database.OutcomeGenFailed,
		})
		return GenerationFailed
	}

	delivered := 0
	for _, channelID := range channels {
		if err := p.deliverer.DeliverText(ctx, channelID, text); err != nil {
			log.ErrorContext(ctx, "Delivery failed", "channel_id", channelID, "error", err)
			continue
		}
		delivered++
	}

	log.InfoContext(ctx, "Publication delivered", "delivered", delivered)
	p.record(ctx, &database.Publication{
		UserID:         userID,
		Prompt:         prompt,
		PromptIndex:    index,
		ChannelCount:   len(channels),
		DeliveredCount: delivered,
		Outcome:        database.OutcomePublished,
	})
	return Published
}

// record saves an audit row. History is best-effort and never fails a cycle.
func (p *Publisher) record(ctx context.Context, pub *database.Publication) {
	if p.history == nil {
		return
	}
	pub.CreatedAt = time.Now().UTC()
	if err := p.history.SavePublication(ctx, pub); err != nil {
		p.logger.WarnContext(ctx, "Failed to record publication", "user_id", pub.UserID, "error", err)
	}
}
