// auth.go — вход по bearer-токену и выход из консоли.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/manual-console/internal/ui/auth"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/manual-console/internal/ui/middleware"
	"github.com/bigkaa/manual-console/internal/ui/views"
	"github.com/bigkaa/manual-console/internal/workspace"
)

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	sessionManager *auth.SessionManager
	store          *workspace.Store
	logger         *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(sessionManager *auth.SessionManager, store *workspace.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessionManager: sessionManager,
		store:          store,
		logger:         logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleLoginPage — GET /console/login.
// При действующей сессии выполняет redirect на dashboard.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessionManager.GetSessionFromRequest(r); err == nil && session != nil && !session.IsExpired() {
		http.Redirect(w, r, views.DashboardPath, http.StatusFound)
		return
	}
	renderHTML(w, r, http.StatusOK, views.LoginPage(views.LoginData{}), h.logger)
}

// HandleLogin — POST /console/login.
// Сохраняет введённый токен в зашифрованном cookie и создаёт новую сессию.
// Токен не проверяется: его принимает или отклоняет REST API.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
		return
	}

	token := auth.NormalizeToken(r.PostFormValue("token"))
	if token == "" {
		renderHTML(w, r, http.StatusBadRequest,
			views.LoginPage(views.LoginData{Error: i18n.T(r.Context(), "login.empty")}), h.logger)
		return
	}

	session := auth.NewSession(token)
	if session.IsExpired() {
		renderHTML(w, r, http.StatusBadRequest,
			views.LoginPage(views.LoginData{Error: i18n.T(r.Context(), "login.expired")}), h.logger)
		return
	}

	if err := h.sessionManager.SetSessionCookie(w, session); err != nil {
		h.logger.Error("Ошибка создания session cookie", slog.String("error", err.Error()))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Пользователь вошёл в консоль",
		slog.String("username", session.Username),
		slog.String("session_id", session.SessionID),
	)
	http.Redirect(w, r, views.DashboardPath, http.StatusSeeOther)
}

// HandleLogout — POST /console/logout.
// Удаляет рабочее пространство сессии и session cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session := uimiddleware.SessionFromContext(r.Context()); session != nil {
		h.store.Drop(session.SessionID)
		h.logger.Info("Пользователь вышел из консоли",
			slog.String("username", session.Username),
			slog.String("session_id", session.SessionID),
		)
	}
	h.sessionManager.ClearSessionCookie(w)
	http.Redirect(w, r, views.LoginPath, http.StatusSeeOther)
}
