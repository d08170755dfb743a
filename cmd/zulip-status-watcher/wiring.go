package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/logivations/zulip-status-watcher/internal/config"
	"github.com/logivations/zulip-status-watcher/internal/directory"
	"github.com/logivations/zulip-status-watcher/internal/events"
	"github.com/logivations/zulip-status-watcher/internal/gcal"
	"github.com/logivations/zulip-status-watcher/internal/ics"
	"github.com/logivations/zulip-status-watcher/internal/watcher"
	"github.com/logivations/zulip-status-watcher/internal/zulip"
)

const (
	logFileName  = "watcher.log"
	icsCacheDir  = "ics-cache"
	setupTimeout = 30 * time.Second
)

// app holds the long-lived clients shared by every watched user.
type app struct {
	cfg *config.Config
	loc *time.Location

	zulip   *zulip.Client
	fetcher *ics.Fetcher
	bus     *events.Bus

	sa       *gcal.ServiceAccount
	oauthSvc *calendar.Service
	group    *directory.Group
}

// newApp connects the configured services. Only Google credentials that are
// actually needed are loaded.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		loc:     loc,
		zulip:   zulip.NewClient(cfg.Zulip.ServerURL, cfg.Zulip.Email, cfg.Zulip.APIKey),
		fetcher: ics.NewFetcher(filepath.Join(cfg.RuntimeDir, icsCacheDir)),
		bus:     events.NewBus(),
	}
	a.bus.Subscribe(events.JournalHandler(a.journalPath()))

	if !cfg.NeedsGoogle() {
		return a, nil
	}

	switch cfg.Google.Auth {
	case config.AuthOAuth:
		conf, err := gcal.LoadOAuthConfig(cfg.Google.CredentialsFile)
		if err != nil {
			return nil, err
		}
		a.oauthSvc, err = gcal.OAuthService(ctx, conf, cfg.Google.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("%w (run 'zulip-status-watcher auth' first)", err)
		}
	default:
		a.sa, err = gcal.LoadServiceAccount(cfg.Google.CredentialsFile)
		if err != nil {
			return nil, err
		}
		if cfg.Group != "" {
			svc, err := a.sa.DirectoryService(ctx, cfg.Google.AdminEmail)
			if err != nil {
				return nil, fmt.Errorf("unable to create directory service: %w", err)
			}
			a.group = directory.NewGroup(svc, cfg.Group, cfg.UserFilter)
		}
	}
	return a, nil
}

func (a *app) journalPath() string {
	return filepath.Join(a.cfg.RuntimeDir, events.JournalFile)
}

// roster yields the static users followed by the group members.
func (a *app) roster() watcher.RosterFunc {
	static := make([]string, 0, len(a.cfg.Users))
	for _, u := range a.cfg.Users {
		static = append(static, u.Email)
	}
	if a.group == nil {
		return watcher.StaticRoster(directory.Merge(static)...)
	}
	return func(ctx context.Context) ([]string, error) {
		members, err := a.group.Members(ctx)
		if err != nil {
			return nil, err
		}
		return directory.Merge(static, members), nil
	}
}

// factory builds a watcher for user. Setup calls use ctx so a shutdown
// during a roster refresh is not held up by slow APIs.
func (a *app) factory(ctx context.Context) watcher.Factory {
	return func(user string) (*watcher.Watcher, error) {
		ctx, cancel := context.WithTimeout(ctx, setupTimeout)
		defer cancel()

		src, err := a.source(ctx, user)
		if err != nil {
			return nil, err
		}
		pub, err := a.publisher(ctx, user)
		if err != nil {
			return nil, err
		}

		w := watcher.New(user, src, pub)
		w.Bus = a.bus
		w.Now = func() time.Time { return time.Now().In(a.loc) }
		return w, nil
	}
}

// source picks the calendar of user: its ICS feed when one is configured,
// Google Calendar otherwise.
func (a *app) source(ctx context.Context, user string) (watcher.Source, error) {
	if url := a.cfg.ICSURL(user); url != "" {
		return ics.NewSource(a.fetcher, user, url), nil
	}

	switch {
	case a.oauthSvc != nil:
		return gcal.NewSource(a.oauthSvc, user, a.oauthCalendar(user)), nil
	case a.sa != nil:
		svc, err := a.sa.CalendarService(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("unable to create calendar service for %s: %w", user, err)
		}
		return gcal.NewSource(svc, user, a.cfg.Google.CalendarID), nil
	default:
		return nil, fmt.Errorf("no calendar configured for %s", user)
	}
}

// oauthCalendar maps the configured calendar to one the authorizing account
// can address: "primary" means the user's own calendar, read by address.
func (a *app) oauthCalendar(user string) string {
	id := a.cfg.Google.CalendarID
	if id == "" || id == "primary" {
		return user
	}
	return id
}

// publisher resolves user to a Zulip account. The bot's own address
// updates its own status; everyone else needs admin rights.
func (a *app) publisher(ctx context.Context, user string) (*zulip.Publisher, error) {
	if strings.EqualFold(user, a.cfg.Zulip.Email) {
		me, err := a.zulip.Me(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to read own zulip account: %w", err)
		}
		return zulip.NewSelfPublisher(a.zulip, me.UserID, user), nil
	}
	zu, err := a.zulip.FindUser(ctx, user, a.cfg.Zulip.AlternateDomains)
	if err != nil {
		return nil, fmt.Errorf("unable to find zulip account for %s: %w", user, err)
	}
	return zulip.NewPublisher(a.zulip, zu.UserID, zu.Email), nil
}
