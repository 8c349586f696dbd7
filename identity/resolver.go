package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-platform/core"
)

// Attribute keys the resolver inspects, in order. Transports populate
// whichever fits their wire format; the first non-empty value wins.
var (
	userIDKeys = []string{"user_id", "x-user-id", "subject", "sub"}
	roleKeys   = []string{"role", "x-user-role"}
)

var ErrUserNotFound = errors.New("identity: user not found")

// Record is a directory entry for a known caller.
type Record struct {
	UserID   string
	Role     core.Role
	Metadata map[string]any
}

// Directory looks up callers by id. Lookup must return ErrUserNotFound
// (wrapped or bare) for unknown ids; any other error is treated as a
// directory outage, not an authentication failure.
type Directory interface {
	Lookup(ctx context.Context, userID string) (Record, error)
}

// StaticDirectory is an in-memory Directory keyed by user id. Hosts use it
// for fixed operator accounts and tests.
type StaticDirectory map[string]Record

func (d StaticDirectory) Lookup(_ context.Context, userID string) (Record, error) {
	record, ok := d[strings.TrimSpace(userID)]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrUserNotFound, userID)
	}
	return record, nil
}

type Config struct {
	// Directory authenticates caller ids. When nil the resolver trusts the
	// role attribute supplied by the transport, which is only acceptable
	// behind an authenticating proxy.
	Directory Directory
}

// Resolver turns transport-supplied attributes into a caller identity. A
// missing caller id, or an id the directory does not know, resolves to
// core.ErrIdentityNotFound so guards classify it as an authentication
// failure. Directory outages pass through untouched.
type Resolver struct {
	directory Directory
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{directory: cfg.Directory}
}

func DefaultResolver() *Resolver {
	return NewResolver(Config{})
}

func (r *Resolver) Resolve(ctx context.Context, attrs map[string]any) (core.Identity, error) {
	if r == nil {
		return core.Identity{}, fmt.Errorf("identity: resolver is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	userID := firstAttr(attrs, userIDKeys)
	if userID == "" {
		return core.Identity{}, fmt.Errorf("%w: no caller attributes", core.ErrIdentityNotFound)
	}

	if r.directory != nil {
		record, err := r.directory.Lookup(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return core.Identity{}, fmt.Errorf("%w: user %q", core.ErrIdentityNotFound, userID)
			}
			return core.Identity{}, fmt.Errorf("identity: directory lookup for %q failed: %w", userID, err)
		}
		if !record.Role.Valid() {
			return core.Identity{}, fmt.Errorf("identity: directory returned invalid role %q for user %q", record.Role, userID)
		}
		return core.Identity{
			UserID:   record.UserID,
			Role:     record.Role,
			Metadata: mergeMetadata(record.Metadata, attrs),
		}, nil
	}

	rawRole := firstAttr(attrs, roleKeys)
	if rawRole == "" {
		return core.Identity{}, fmt.Errorf("%w: user %q carries no role attribute", core.ErrIdentityNotFound, userID)
	}
	role, err := core.ParseRole(rawRole)
	if err != nil {
		return core.Identity{}, fmt.Errorf("identity: parse role for user %q: %w", userID, err)
	}
	return core.Identity{
		UserID:   userID,
		Role:     role,
		Metadata: mergeMetadata(nil, attrs),
	}, nil
}

var _ core.IdentityResolver = (*Resolver)(nil)

func firstAttr(attrs map[string]any, keys []string) string {
	for _, key := range keys {
		if value := readString(attrs[key]); value != "" {
			return value
		}
	}
	// Header-shaped attribute maps may carry mixed casing.
	for existing, value := range attrs {
		normalized := strings.TrimSpace(strings.ToLower(existing))
		for _, key := range keys {
			if normalized == key {
				if str := readString(value); str != "" {
					return str
				}
			}
		}
	}
	return ""
}

func mergeMetadata(base map[string]any, attrs map[string]any) map[string]any {
	merged := map[string]any{}
	for key, value := range base {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		merged[trimmed] = value
	}
	for key, value := range attrs {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		if _, exists := merged[trimmed]; !exists {
			merged[trimmed] = value
		}
	}
	return merged
}

func readString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}
