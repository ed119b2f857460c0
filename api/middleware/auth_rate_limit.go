package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mercanlabs/storefront-backend/api/responses"
	pkgerrors "github.com/mercanlabs/storefront-backend/pkg/errors"
	"github.com/mercanlabs/storefront-backend/pkg/logger"
)

// rateCounter is the slice of pkg/redis.Client the limiter needs: a
// fixed-window counter plus the service's key namespacing.
type rateCounter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthRateLimitPolicy throttles one auth endpoint with independent per-IP
// and per-email fixed windows. A zero window, or both limits at zero,
// disables the policy.
type AuthRateLimitPolicy struct {
	name     string
	window   time.Duration
	perIP    int
	perEmail int
}

// NewAuthRateLimitPolicy builds a named policy from the config limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, perIP, perEmail int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, perIP: perIP, perEmail: perEmail}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.perIP > 0 || p.perEmail > 0)
}

// AuthRateLimit guards an auth endpoint. Counters live in Redis under the
// service namespace: sf:rate_limit:auth:<policy>:<scope>:<subject>.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		limiter := &authLimiter{policy: policy, store: store, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			count, ok, err := limiter.check(ctx, "ip", ip, policy.perIP)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !ok {
				limiter.reject(ctx, w, "ip", ip, count, policy.perIP)
				return
			}

			if policy.perEmail > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				digest := emailDigest(body)
				count, ok, err := limiter.check(ctx, "email", digest, policy.perEmail)
				if err != nil {
					responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !ok {
					limiter.reject(ctx, w, "email", digest, count, policy.perEmail)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

type authLimiter struct {
	policy AuthRateLimitPolicy
	store  rateCounter
	logg   *logger.Logger
}

// check bumps the fixed-window counter for one scope and reports whether
// the subject is still under its limit. Empty subjects are not counted.
func (l *authLimiter) check(ctx context.Context, scope, subject string, limit int) (int64, bool, error) {
	if limit <= 0 || subject == "" {
		return 0, true, nil
	}
	key := l.store.RateLimitKey("auth:" + l.policy.name + ":" + scope + ":" + subject)
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		return 0, false, err
	}
	return count, count <= int64(limit), nil
}

func (l *authLimiter) reject(ctx context.Context, w http.ResponseWriter, scope, subject string, count int64, limit int) {
	if l.logg != nil {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"policy":         l.policy.name,
			"scope":          scope,
			"subject":        subject,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(l.policy.window.Seconds()),
		})
		l.logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// emailDigest hashes the email field of an auth payload so counters and
// logs never carry the address itself. Returns "" when there is no email.
func emailDigest(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
