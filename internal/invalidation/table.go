package invalidation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Placeholders substituted with quoted ids when a template is expanded.
const (
	PlaceholderVideo  = "{video}"
	PlaceholderUser   = "{user}"
	PlaceholderTarget = "{target}"
)

var (
	ErrUnknownKind    = errors.New("no invalidation rule for event kind")
	ErrMissingEventID = errors.New("event is missing an id required by its rule")
)

// Table maps each event kind to the key patterns it invalidates.
// Templates are regular expressions matched against `<path>?<query>` cache
// keys, with placeholders for the event's ids.
type Table map[Kind][]string

// DefaultTable covers every cached route under /v1.
func DefaultTable() Table {
	return Table{
		KindVideo: {
			`^/v1/videos/{video}[/?]`,
			`^/v1/videos/?\?`,
			`^/v1/videos/trending\?`,
			`^/v1/videos/feed/`,
			`^/v1/search/videos\?`,
			`^/v1/search/hashtags`,
		},
		KindLike: {
			`^/v1/videos/{video}[/?]`,
			`^/v1/videos/trending\?`,
		},
		KindComment: {
			`^/v1/videos/{video}[/?]`,
		},
		KindFollow: {
			`^/v1/users/{target}/followers\?`,
			`^/v1/users/{user}/following\?`,
			`^/v1/videos/feed/{user}\?`,
		},
		// Profiles are embedded in videos, comments, likes and follow lists.
		KindUser: {
			`^/v1/search/users\?`,
			`^/v1/search/videos\?`,
			`^/v1/videos`,
			`^/v1/users/`,
		},
	}
}

// Validate expands every template with sample ids and compiles it.
func (t Table) Validate() error {
	sample := Event{VideoID: uuid.New(), UserID: uuid.New(), TargetUserID: uuid.New()}
	for kind, templates := range t {
		for _, tmpl := range templates {
			pattern, err := expand(tmpl, sample)
			if err != nil {
				return fmt.Errorf("kind %s: %w", kind, err)
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("kind %s: template %q: %w", kind, tmpl, err)
			}
		}
	}
	return nil
}

// Patterns expands the templates registered for the event's kind.
func (t Table) Patterns(e Event) ([]string, error) {
	templates, ok := t[e.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}

	patterns := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		p, err := expand(tmpl, e)
		if err != nil {
			return nil, fmt.Errorf("kind %s: %w", e.Kind, err)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func expand(tmpl string, e Event) (string, error) {
	ids := []struct {
		placeholder string
		id          uuid.UUID
	}{
		{PlaceholderVideo, e.VideoID},
		{PlaceholderUser, e.UserID},
		{PlaceholderTarget, e.TargetUserID},
	}

	out := tmpl
	for _, p := range ids {
		if !strings.Contains(out, p.placeholder) {
			continue
		}
		if p.id == uuid.Nil {
			return "", fmt.Errorf("%w: %s in %q", ErrMissingEventID, p.placeholder, tmpl)
		}
		out = strings.ReplaceAll(out, p.placeholder, regexp.QuoteMeta(p.id.String()))
	}
	return out, nil
}
