package zulip

import (
	"context"
	"fmt"
	"strings"

	"github.com/logivations/zulip-status-watcher/internal/status"
)

// separator divides the user's own text from the generated part.
const separator = "|"

// Publisher writes resolved statuses for one Zulip user.
//
// The status text is shared with the user. Anything they typed before the
// first "|" is theirs and is kept; the generated part follows it:
//
//	"Back on Monday | In office"
//
// A status the user set without any "|" is kept whole as their prefix.
type Publisher struct {
	client *Client
	userID int
	email  string
	// self writes through /users/me/status, which needs no admin rights.
	self bool
}

// NewPublisher publishes for another user; the client must be an admin.
func NewPublisher(c *Client, userID int, email string) *Publisher {
	return &Publisher{client: c, userID: userID, email: email}
}

// NewSelfPublisher publishes for the client's own account, whose id is
// still needed to read the current status.
func NewSelfPublisher(c *Client, userID int, email string) *Publisher {
	return &Publisher{client: c, userID: userID, email: email, self: true}
}

// Publish renders st and writes it unless the server already shows exactly
// that text and emoji.
func (p *Publisher) Publish(ctx context.Context, st status.Status) error {
	cur, err := p.client.GetStatus(ctx, p.userID)
	if err != nil {
		return fmt.Errorf("unable to read current status: %w", err)
	}

	next, ok := Render(cur, st)
	if !ok {
		logger.Debug("zulip status already current", "user", p.email, "text", cur.StatusText)
		return nil
	}

	target := p.userID
	if p.self {
		target = 0
	}
	if err := p.client.UpdateStatus(ctx, target, next); err != nil {
		return err
	}
	logger.Info("zulip status updated", "user", p.email, "text", next.StatusText, "emoji", next.EmojiName)
	return nil
}

// Render computes the status to write given what the server currently
// shows. It reports false when nothing needs to be written.
func Render(cur Status, st status.Status) (Status, bool) {
	prefix := UserPrefix(cur.StatusText)

	if st.IsClear() {
		if !strings.Contains(cur.StatusText, separator) {
			return cur, false
		}
		next := cur
		next.StatusText = prefix
		return next, true
	}

	next := Status{
		StatusText:   Compose(prefix, st.Text()),
		EmojiName:    st.Emoji.Name,
		EmojiCode:    st.Emoji.Code,
		ReactionType: st.Emoji.ReactionType,
	}
	if next.ReactionType == "" {
		next.ReactionType = status.UnicodeEmoji
	}
	if next.StatusText == cur.StatusText && next.EmojiName == cur.EmojiName {
		return cur, false
	}
	return next, true
}

// UserPrefix returns the user's part of a status text.
func UserPrefix(text string) string {
	if before, _, found := strings.Cut(text, separator); found {
		return strings.TrimSpace(before)
	}
	return strings.TrimSpace(text)
}

// Compose joins the user's prefix and the generated text. Without a prefix
// the text still starts with the separator so the next cycle recognises
// it as generated.
func Compose(prefix, auto string) string {
	text := separator + " " + auto
	if prefix != "" {
		text = prefix + " " + text
	}
	return truncate(text, status.MaxTextLength)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
