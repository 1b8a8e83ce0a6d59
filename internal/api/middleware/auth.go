package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	// HeaderUserID идентификатор пользователя, проставляется шлюзом
	HeaderUserID = "X-User-ID"
	// HeaderUserRole роль пользователя, проставляется шлюзом
	HeaderUserRole = "X-User-Role"

	msgMissingIdentity = "не указан пользователь (X-User-ID, X-User-Role)"
	msgInvalidRole     = "неизвестная роль пользователя"
)

type actorKey struct{}

// Auth извлекает актора из заголовков и кладет его в контекст запроса
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		rawRole := r.Header.Get(HeaderUserRole)
		if userID == "" || strings.TrimSpace(rawRole) == "" {
			handlers.RespondUnauthorized(w, msgMissingIdentity)
			return
		}

		role, err := domain.ParseRole(rawRole)
		if err != nil {
			handlers.RespondUnauthorized(w, msgInvalidRole)
			return
		}

		ctx := WithActor(r.Context(), domain.Actor{UserID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithActor возвращает контекст с актором
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor возвращает актора, положенного middleware Auth
func GetActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// ActorFromRequest то же, что GetActor, для обработчиков, принимающих *http.Request
func ActorFromRequest(r *http.Request) (domain.Actor, bool) {
	return GetActor(r.Context())
}
