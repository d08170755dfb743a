// Package directory resolves the watched users from a Google Workspace
// group.
package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	admin "google.golang.org/api/admin/directory/v1"

	"github.com/logivations/zulip-status-watcher/internal/log"
)

const memberTypeUser = "USER"

var logger = log.New("directory")

// Group lists the user members of one group.
type Group struct {
	svc    *admin.Service
	group  string
	filter string
}

// NewGroup reads members of group. When filter is non-empty only addresses
// containing it are returned, so a misconfigured group cannot fan status
// updates out to the whole company.
func NewGroup(svc *admin.Service, group, filter string) *Group {
	return &Group{svc: svc, group: group, filter: strings.ToLower(filter)}
}

// Members returns the lower-cased email addresses of the group's USER
// members, sorted. Nested groups are not expanded.
func (g *Group) Members(ctx context.Context) ([]string, error) {
	var out []string
	err := g.svc.Members.List(g.group).Context(ctx).Pages(ctx, func(page *admin.Members) error {
		for _, m := range page.Members {
			if email, ok := g.accept(m); ok {
				out = append(out, email)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list members of %s: %w", g.group, err)
	}

	sort.Strings(out)
	logger.Debug("group members", "group", g.group, "count", len(out))
	return out, nil
}

func (g *Group) accept(m *admin.Member) (string, bool) {
	if m == nil || m.Type != memberTypeUser || m.Email == "" {
		return "", false
	}
	email := strings.ToLower(m.Email)
	if g.filter != "" && !strings.Contains(email, g.filter) {
		logger.Warn("member filtered out", "group", g.group, "email", email)
		return "", false
	}
	return email, true
}

// Merge combines static users with group members, dropping duplicates
// case-insensitively and keeping first-seen order.
func Merge(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, u := range list {
			key := strings.ToLower(u)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, u)
		}
	}
	return out
}
