package database

import "time"

// Publication outcomes as stored in the history table.
const (
	OutcomePublished = "published"
	OutcomeGenFailed = "gen_failed"
)

// Publication is one recorded periodic publication attempt.
type Publication struct {
	ID             uint      `db:"id"`
	UserID         int64     `db:"user_id"`
	Prompt         string    `db:"prompt"`
	PromptIndex    int       `db:"prompt_index"`
	ChannelCount   int       `db:"channel_count"`
	DeliveredCount int       `db:"delivered_count"`
	Outcome        string    `db:"outcome"`
	CreatedAt      time.Time `db:"created_at"`
}
