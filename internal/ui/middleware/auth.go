// Пакет middleware — HTTP middleware для Manual Console.
// auth.go — проверка сессии консоли (cookie-based) и передача bearer-токена
// в контекст запроса для клиента REST API.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/manual-console/internal/apiclient"
	"github.com/bigkaa/manual-console/internal/ui/auth"
)

// LoginPath — страница ввода токена.
const LoginPath = "/console/login"

// contextKey — тип для ключей контекста UI (избегаем коллизий).
type contextKey string

const (
	// ContextKeyUISession — данные сессии в контексте запроса.
	ContextKeyUISession contextKey = "ui_session"
)

// UIAuth — middleware для проверки сессии консоли.
// Извлекает сессию из зашифрованного cookie, redirect на /console/login
// при отсутствии, повреждении или истечении токена.
type UIAuth struct {
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewUIAuth создаёт новый UIAuth middleware.
func NewUIAuth(sessionManager *auth.SessionManager, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware для проверки сессии.
// Применяется к маршрутам /console/*, кроме /console/login и /console/set-language.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Извлекаем сессию из cookie
			session, err := ua.sessionManager.GetSessionFromRequest(r)
			if err != nil {
				ua.logger.Debug("Ошибка чтения сессии консоли",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				// Повреждённый cookie — очищаем и redirect на login
				ua.sessionManager.ClearSessionCookie(w)
				redirectToLogin(w, r)
				return
			}

			// 2. Если сессия отсутствует — redirect на login
			if session == nil {
				redirectToLogin(w, r)
				return
			}

			// 3. Истёкший токен обновить нельзя — пользователь вводит новый
			if session.IsExpired() {
				ua.logger.Info("Токен сессии истёк, redirect на login",
					slog.String("username", session.Username),
				)
				ua.sessionManager.ClearSessionCookie(w)
				redirectToLogin(w, r)
				return
			}

			// 4. Помещаем сессию и токен в контекст
			ctx := context.WithValue(r.Context(), ContextKeyUISession, session)
			ctx = apiclient.WithToken(ctx, session.AccessToken)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// redirectToLogin перенаправляет на страницу ввода токена.
// Для HTMX-запросов используется заголовок HX-Redirect.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", LoginPath)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

// WithSession помещает сессию в контекст (используется в тестах обработчиков).
func WithSession(ctx context.Context, session *auth.SessionData) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUISession, session)
	return apiclient.WithToken(ctx, session.AccessToken)
}

// SessionFromContext извлекает SessionData из контекста запроса.
// Возвращает nil если сессия не найдена (не прошёл через UIAuth middleware).
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeyUISession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}
