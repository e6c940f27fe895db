package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signedToken создаёт JWT с заданными claims (подпись консолью не проверяется).
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Ошибка подписи токена: %v", err)
	}
	return token
}

// TestSessionEncryptDecryptRoundTrip проверяет шифрование и дешифрование SessionData.
func TestSessionEncryptDecryptRoundTrip(t *testing.T) {
	sm, err := NewSessionManager("", false)
	if err != nil {
		t.Fatalf("Ошибка создания SessionManager: %v", err)
	}

	original := &SessionData{
		SessionID:   "0b6f4c52-8a8e-4a55-9d0e-1d6c2f1a7b11",
		AccessToken: "test-access-token-12345",
		ExpiresAt:   time.Now().Add(5 * time.Minute).Unix(),
		Username:    "admin",
	}

	encrypted, err := sm.Encrypt(original)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if encrypted == "" {
		t.Fatal("Зашифрованная строка пустая")
	}

	decrypted, err := sm.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}

	if *decrypted != *original {
		t.Errorf("Сессия после расшифровки: want %+v, got %+v", original, decrypted)
	}
}

// TestSessionManagerWithStringKey проверяет инициализацию с произвольной строкой-ключом.
func TestSessionManagerWithStringKey(t *testing.T) {
	sm, err := NewSessionManager("my-secret-key-for-testing", false)
	if err != nil {
		t.Fatalf("Ошибка создания SessionManager с string-ключом: %v", err)
	}

	data := &SessionData{SessionID: "s1", AccessToken: "token123"}

	encrypted, err := sm.Encrypt(data)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	decrypted, err := sm.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}
	if decrypted.AccessToken != data.AccessToken {
		t.Errorf("AccessToken: want %q, got %q", data.AccessToken, decrypted.AccessToken)
	}
}

// TestSessionDecryptWithWrongKey проверяет, что дешифрование чужим ключом не работает.
func TestSessionDecryptWithWrongKey(t *testing.T) {
	sm1, _ := NewSessionManager("key-one", false)
	sm2, _ := NewSessionManager("key-two", false)

	encrypted, err := sm1.Encrypt(&SessionData{SessionID: "s1", AccessToken: "secret"})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	if _, err := sm2.Decrypt(encrypted); err == nil {
		t.Error("Ожидалась ошибка при дешифровании чужим ключом")
	}
}

// TestSessionDecryptWithoutID проверяет, что сессия без идентификатора отклоняется.
func TestSessionDecryptWithoutID(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false)

	encrypted, err := sm.Encrypt(&SessionData{AccessToken: "secret"})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if _, err := sm.Decrypt(encrypted); err == nil {
		t.Error("Ожидалась ошибка для сессии без идентификатора")
	}
}

// TestSessionIsExpired проверяет логику проверки истечения токена.
func TestSessionIsExpired(t *testing.T) {
	expired := &SessionData{ExpiresAt: time.Now().Add(-1 * time.Minute).Unix()}
	if !expired.IsExpired() {
		t.Error("Ожидалось IsExpired()=true для истёкшего токена")
	}

	fresh := &SessionData{ExpiresAt: time.Now().Add(1 * time.Minute).Unix()}
	if fresh.IsExpired() {
		t.Error("Ожидалось IsExpired()=false для свежего токена")
	}

	// Непрозрачный токен без срока действия
	opaque := &SessionData{}
	if opaque.IsExpired() {
		t.Error("Ожидалось IsExpired()=false для токена без exp")
	}
}

// TestNewSession проверяет создание сессии из JWT и непрозрачного токена.
func TestNewSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	token := signedToken(t, jwt.MapClaims{
		"sub":                "7f1c",
		"preferred_username": "operator",
		"exp":                exp,
	})

	s := NewSession(token)
	if s.SessionID == "" {
		t.Error("SessionID должен быть сгенерирован")
	}
	if s.AccessToken != token {
		t.Error("AccessToken должен совпадать с введённым токеном")
	}
	if s.Username != "operator" {
		t.Errorf("Username: want %q, got %q", "operator", s.Username)
	}
	if s.ExpiresAt != exp {
		t.Errorf("ExpiresAt: want %d, got %d", exp, s.ExpiresAt)
	}

	other := NewSession("opaque-token")
	if other.SessionID == s.SessionID {
		t.Error("Каждая сессия должна получать новый идентификатор")
	}
	if other.Username != "" || other.ExpiresAt != 0 {
		t.Errorf("Непрозрачный токен не должен давать claims: %+v", other)
	}
}

// TestInspectToken проверяет извлечение claims без проверки подписи.
func TestInspectToken(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantUser string
		wantJWT  bool
	}{
		{"preferred_username", signedToken(t, jwt.MapClaims{"preferred_username": "anna", "sub": "1"}), "anna", true},
		{"fallback на email", signedToken(t, jwt.MapClaims{"email": "a@example.com", "sub": "1"}), "a@example.com", true},
		{"fallback на sub", signedToken(t, jwt.MapClaims{"sub": "svc-42"}), "svc-42", true},
		{"префикс Bearer", "Bearer " + signedToken(t, jwt.MapClaims{"sub": "x"}), "x", true},
		{"непрозрачный токен", "not-a-jwt", "", false},
		{"пустая строка", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := InspectToken(tt.raw)
			if info.Username != tt.wantUser {
				t.Errorf("Username: want %q, got %q", tt.wantUser, info.Username)
			}
			if info.JWT != tt.wantJWT {
				t.Errorf("JWT: want %v, got %v", tt.wantJWT, info.JWT)
			}
		})
	}
}

// TestNormalizeToken проверяет очистку введённого токена.
func TestNormalizeToken(t *testing.T) {
	if got := NormalizeToken("  Bearer abc.def \n"); got != "abc.def" {
		t.Errorf("NormalizeToken: want %q, got %q", "abc.def", got)
	}
	if got := NormalizeToken("plain"); got != "plain" {
		t.Errorf("NormalizeToken: want %q, got %q", "plain", got)
	}
}

// TestSessionCookieSetAndGet проверяет установку и извлечение cookie.
func TestSessionCookieSetAndGet(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false)

	data := &SessionData{
		SessionID:   "s1",
		AccessToken: "access-123",
		Username:    "admin",
		ExpiresAt:   time.Now().Add(5 * time.Minute).Unix(),
	}

	w := httptest.NewRecorder()
	if err := sm.SetSessionCookie(w, data); err != nil {
		t.Fatalf("Ошибка установки cookie: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie не установлен")
	}

	req := httptest.NewRequest(http.MethodGet, "/console/", nil)
	req.AddCookie(cookies[0])

	got, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("Ошибка чтения сессии из cookie: %v", err)
	}
	if got == nil {
		t.Fatal("Сессия не найдена")
	}
	if got.AccessToken != data.AccessToken {
		t.Errorf("AccessToken: want %q, got %q", data.AccessToken, got.AccessToken)
	}
	if got.SessionID != data.SessionID {
		t.Errorf("SessionID: want %q, got %q", data.SessionID, got.SessionID)
	}

	cookie := cookies[0]
	if cookie.Name != SessionCookieName {
		t.Errorf("Cookie name: want %q, got %q", SessionCookieName, cookie.Name)
	}
	if cookie.Path != CookiePath {
		t.Errorf("Cookie path: want %q, got %q", CookiePath, cookie.Path)
	}
	if !cookie.HttpOnly {
		t.Error("Cookie должен быть HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("Cookie должен быть SameSite=Lax")
	}
}

// TestSessionCookieMissing проверяет, что отсутствие cookie возвращает nil, nil.
func TestSessionCookieMissing(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false)

	req := httptest.NewRequest(http.MethodGet, "/console/", nil)
	data, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("Ожидалось nil error, получено: %v", err)
	}
	if data != nil {
		t.Error("Ожидалось nil data при отсутствии cookie")
	}
}

// TestClearSessionCookie проверяет очистку session cookie.
func TestClearSessionCookie(t *testing.T) {
	sm, _ := NewSessionManager("test-key", false)

	w := httptest.NewRecorder()
	sm.ClearSessionCookie(w)

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie очистки не установлен")
	}

	cookie := cookies[0]
	if cookie.MaxAge != -1 {
		t.Errorf("MaxAge: want -1, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Error("Value должен быть пустым")
	}
}
