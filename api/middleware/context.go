package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/instafit/fieldops-backend/pkg/types"
)

type contextKey string

const (
	ctxSubject  contextKey = "subject"
	ctxRole     contextKey = "actor_role"
	ctxName     contextKey = "actor_name"
	ctxClientIP contextKey = "client_ip"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// SubjectFromContext returns the token subject: the operator login or the
// caller's worker_id.
func SubjectFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxSubject)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

// ActorFromContext builds the audit actor for the authenticated caller.
func ActorFromContext(ctx context.Context) types.Actor {
	name := stringFromContext(ctx, ctxName)
	if name == "" {
		name = SubjectFromContext(ctx)
	}
	return types.Actor{Name: name, IPAddress: stringFromContext(ctx, ctxClientIP)}
}

// WithIdentity seeds the context with the caller identity.
func WithIdentity(ctx context.Context, subject, role, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSubject, subject)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxName, name)
}

// ClientIP records the caller address for audit entries.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxClientIP, clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
