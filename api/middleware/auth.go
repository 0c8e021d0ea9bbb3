package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/instafit/fieldops-backend/api/responses"
	pkgAuth "github.com/instafit/fieldops-backend/pkg/auth"
	"github.com/instafit/fieldops-backend/pkg/config"
	"github.com/instafit/fieldops-backend/pkg/enums"
	pkgerrors "github.com/instafit/fieldops-backend/pkg/errors"
	"github.com/instafit/fieldops-backend/pkg/logger"
)

// Auth requires an "Authorization: Bearer <jwt>" header and seeds the request
// context with the caller identity used for role checks and audit actors.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			ctx := WithIdentity(r.Context(), claims.Subject, string(claims.Role), claims.DisplayName())
			if logg != nil {
				ctx = logg.WithActor(ctx, claims.Subject, claims.DisplayName())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
				if claims.Role == enums.ActorRoleWorker {
					ctx = logg.WithWorkerID(ctx, claims.Subject)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
