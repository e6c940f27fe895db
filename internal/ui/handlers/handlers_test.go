package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/manual-console/internal/apiclient"
	"github.com/bigkaa/manual-console/internal/domain/model"
	"github.com/bigkaa/manual-console/internal/ui/auth"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/manual-console/internal/ui/middleware"
	"github.com/bigkaa/manual-console/internal/workspace"
)

// testUploadMaxSize — лимит тела запроса загрузки в тестах.
const testUploadMaxSize = 4096

func TestMain(m *testing.M) {
	logger := testLogger()
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubAPI — in-memory REST API для тестов обработчиков.
type stubAPI struct {
	mu         sync.Mutex
	rows       []map[string]any
	totalPages int
	pages      []int
	calls      []string
	fields     map[string]string
	uploaded   []string
	meta       model.UploadMetadata
	mutateErr  error
}

func (s *stubAPI) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubAPI) ListManuals(ctx context.Context, page int, archived bool) (*apiclient.ListResponse, error) {
	var extra url.Values
	if archived {
		extra = url.Values{"archived": []string{"true"}}
	}
	return s.list(ctx, "/pdf-manuals", page, extra)
}

func (s *stubAPI) ListFAQs(ctx context.Context, page int) (*apiclient.ListResponse, error) {
	return s.list(ctx, "/faqs", page, nil)
}

func (s *stubAPI) ListTrainingFiles(ctx context.Context, page int) (*apiclient.ListResponse, error) {
	return s.list(ctx, "/faqs/finetune", page, nil)
}

func (s *stubAPI) list(_ context.Context, _ string, page int, _ url.Values) (*apiclient.ListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, page)
	rows := make([]map[string]any, 0, len(s.rows))
	for _, r := range s.rows {
		clone := make(map[string]any, len(r))
		for k, v := range r {
			clone[k] = v
		}
		rows = append(rows, clone)
	}
	return &apiclient.ListResponse{Data: rows, Pagination: &apiclient.Pagination{TotalPages: s.totalPages}}, nil
}

func (s *stubAPI) SetArchived(_ context.Context, ids []string, archived bool) (string, error) {
	s.record("archive:" + strings.Join(ids, ",") + ":" + strconv.FormatBool(archived))
	return "", s.mutateErr
}

func (s *stubAPI) DeleteManuals(_ context.Context, ids []string) (string, error) {
	s.record("delete:" + strings.Join(ids, ","))
	return "", s.mutateErr
}

func (s *stubAPI) UpdateManual(_ context.Context, id string, fields map[string]string) (string, error) {
	s.record("update:" + id)
	s.mu.Lock()
	s.fields = fields
	s.mu.Unlock()
	return "", s.mutateErr
}

func (s *stubAPI) SetFAQApproval(_ context.Context, ids []string, _ bool) (string, error) {
	s.record("approve:" + strings.Join(ids, ","))
	return "", s.mutateErr
}

func (s *stubAPI) PrepareJSONL(context.Context) (string, error) {
	s.record("jsonl")
	return "faqs.jsonl", s.mutateErr
}

func (s *stubAPI) StartFineTune(_ context.Context, id string) (string, error) {
	s.record("finetune:" + id)
	return "", s.mutateErr
}

func (s *stubAPI) RefreshFineTuneStatus(_ context.Context, targetID, rowID, status string) (string, error) {
	s.record("refresh:" + targetID + ":" + rowID + ":" + status)
	return "", s.mutateErr
}

func (s *stubAPI) UploadManuals(_ context.Context, files []model.UploadFile, meta model.UploadMetadata) (*model.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	s.uploaded = names
	s.meta = meta
	return &model.UploadResult{Succeeded: names}, nil
}

func (s *stubAPI) callList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// testEnv — маршрутизатор консоли с сессией, подставленной без cookie.
type testEnv struct {
	api     *stubAPI
	store   *workspace.Store
	router  http.Handler
	session *auth.SessionData
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := &stubAPI{
		rows: []map[string]any{
			{"id": "1", "file_name": "a.pdf", "manufacturer": "ACME", "publication_date": "2024-03-05"},
			{"id": "2", "file_name": "b.pdf", "manufacturer": "Globex"},
		},
		totalPages: 3,
	}
	logger := testLogger()
	store := workspace.NewStore(api, workspace.Config{
		Size:           10,
		TTL:            time.Minute,
		UploadMaxFiles: 3,
		UploadMaxBytes: 16,
		Now:            func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) },
	}, prometheus.NewRegistry(), logger)

	session := &auth.SessionData{SessionID: "test-session", AccessToken: "token", Username: "tester"}
	sm, err := auth.NewSessionManager("test-key", false)
	require.NoError(t, err)

	records := NewRecordsHandler(store, logger)
	upload := NewUploadHandler(store, api, 1<<20, testUploadMaxSize, logger)
	dashboard := NewDashboardHandler(store, logger)
	authHandler := NewAuthHandler(sm, store, logger)

	r := chi.NewRouter()
	r.Use(i18n.Middleware())
	r.Post("/console/login", authHandler.HandleLogin)
	r.Post("/console/set-language", HandleSetLanguage)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(uimiddleware.WithSession(req.Context(), session)))
			})
		})
		r.Get("/console/", dashboard.HandleDashboard)
		r.Post("/console/logout", authHandler.HandleLogout)
		r.Get("/console/upload", upload.HandlePage)
		r.Post("/console/upload/files", upload.HandleAddFiles)
		r.Post("/console/upload/files/{index}/remove", upload.HandleRemoveFile)
		r.Post("/console/upload/submit", upload.HandleSubmit)
		r.Get("/console/partials/{kind}/table", records.HandlePartial)
		r.Get("/console/{kind}", records.HandlePage)
		r.Post("/console/{kind}/refresh", records.HandleRefresh)
		r.Post("/console/{kind}/clear", records.HandleClear)
		r.Post("/console/{kind}/toggle/{id}", records.HandleToggle)
		r.Post("/console/{kind}/actions/{action}", records.HandleAction)
		r.Get("/console/{kind}/edit", records.HandleEditForm)
		r.Post("/console/{kind}/edit", records.HandleEdit)
	})

	return &testEnv{api: api, store: store, router: r, session: session}
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, target, strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
}

func TestRecordsPage_FirstVisitLoadsPageOne(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/console/files", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "a.pdf")
	assert.Contains(t, body, "05-03-2024", "дата отформатирована")
	assert.Contains(t, body, "Page 1 of 3")
	assert.Equal(t, []int{1}, env.api.pages)

	// Повторное открытие не загружает страницу заново
	env.do(t, http.MethodGet, "/console/files", nil, nil)
	assert.Equal(t, []int{1}, env.api.pages)
}

func TestRecordsPage_GoToPage(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/console/files?page=2", nil, nil)
	assert.Equal(t, []int{1, 2}, env.api.pages)

	// Вне диапазона и некорректный номер ничего не загружают
	env.do(t, http.MethodGet, "/console/files?page=9", nil, nil)
	env.do(t, http.MethodGet, "/console/files?page=abc", nil, nil)
	assert.Equal(t, []int{1, 2}, env.api.pages)
}

func TestRecordsPage_UnknownKindRedirects(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/console/videos", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/console/", w.Header().Get("Location"))
}

func TestRecords_ToggleAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/console/files", nil, nil)

	w := env.do(t, http.MethodPost, "/console/files/toggle/1", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/files", w.Header().Get("Location"))

	c, err := env.store.Get(env.session.SessionID).Container(model.KindFiles)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Snapshot().SelectedCount)

	w = env.do(t, http.MethodPost, "/console/files/actions/delete", nil, map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Files deleted")
	assert.Contains(t, w.Body.String(), `id="panel-area"`)
	assert.Contains(t, w.Body.String(), `id="record-panel"`)
	assert.NotContains(t, w.Body.String(), "<html", "HTMX получает только фрагмент")

	assert.Equal(t, []string{"delete:1"}, env.api.callList())
	assert.Equal(t, 0, c.Snapshot().SelectedCount, "выбор сброшен")
	assert.Equal(t, []int{1, 1}, env.api.pages, "текущая страница перезагружена")
}

func TestRecords_ArchiveInvalidatesArchivedPage(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/console/files", nil, nil)
	env.do(t, http.MethodGet, "/console/archived", nil, nil)
	env.do(t, http.MethodPost, "/console/files/toggle/1", nil, nil)

	w := env.do(t, http.MethodPost, "/console/files/actions/archive", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"archive:1:true"}, env.api.callList())
	assert.Equal(t, []int{1, 1, 1}, env.api.pages)

	// Архив перезагружается при следующем посещении
	env.do(t, http.MethodGet, "/console/archived", nil, nil)
	assert.Equal(t, []int{1, 1, 1, 1}, env.api.pages)
}

func TestRecords_ActionWithoutSelectionWarns(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/console/files", nil, nil)

	env.do(t, http.MethodPost, "/console/files/actions/archive", nil, nil)
	assert.Empty(t, env.api.callList(), "запрос не отправлен")

	w := env.do(t, http.MethodGet, "/console/files", nil, nil)
	assert.Contains(t, w.Body.String(), "Select at least one record")
}

func TestRecords_ActionNotExposed(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/console/files", nil, nil)
	env.do(t, http.MethodPost, "/console/files/toggle/1", nil, nil)

	env.do(t, http.MethodPost, "/console/files/actions/approve", nil, nil)
	env.do(t, http.MethodPost, "/console/files/actions/launch", nil, nil)
	assert.Empty(t, env.api.callList())
}

func TestRecords_RefreshStatus(t *testing.T) {
	env := newTestEnv(t)
	env.api.rows = []map[string]any{{"id": "7", "file_name": "train.jsonl", "file_id": "file-9", "file_status": "pending"}}
	env.do(t, http.MethodGet, "/console/finetune", nil, nil)

	env.postForm(t, "/console/finetune/actions/refresh-status", url.Values{
		"row_id":    {"7"},
		"target_id": {"file-other"},
		"status":    {"FILE_STATUS"},
	})
	assert.Equal(t, []string{"refresh:file-9:7:FILE_STATUS"}, env.api.callList(), "файл берётся из строки таблицы")
}

func TestRecords_ClearSelection(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/console/files", nil, nil)
	env.do(t, http.MethodPost, "/console/files/toggle/1", nil, nil)
	env.do(t, http.MethodPost, "/console/files/toggle/2", nil, nil)

	c, err := env.store.Get(env.session.SessionID).Container(model.KindFiles)
	require.NoError(t, err)
	require.Equal(t, 2, c.Snapshot().SelectedCount)

	w := env.do(t, http.MethodPost, "/console/files/clear", nil, map[string]string{"HX-Request": "true"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, c.Snapshot().SelectedCount)
	assert.Empty(t, env.api.callList())
}

func TestRecords_EditForm(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/console/files", nil, nil)

	// Без выбора форма недоступна
	w := env.do(t, http.MethodGet, "/console/files/edit", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	env.do(t, http.MethodPost, "/console/files/toggle/1", nil, nil)
	w = env.do(t, http.MethodGet, "/console/files/edit", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="publication_date" value="2024-03-05"`, "форма заполнена исходным значением")
	assert.Contains(t, w.Body.String(), `name="manufacturer" value="ACME"`)

	w = env.postForm(t, "/console/files/edit", url.Values{
		"id":           {"1"},
		"manufacturer": {" ACME Corp "},
		"model":        {"X1"},
		"year":         {"2024"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"update:1"}, env.api.callList())
	assert.Equal(t, "ACME Corp", env.api.fields["manufacturer"])
}

func TestRecords_EditFailureKeepsForm(t *testing.T) {
	env := newTestEnv(t)
	env.api.mutateErr = &apiclient.APIError{StatusCode: http.StatusBadRequest, Message: "Year is invalid"}
	env.do(t, http.MethodGet, "/console/files", nil, nil)
	env.do(t, http.MethodPost, "/console/files/toggle/1", nil, nil)

	w := env.postForm(t, "/console/files/edit", url.Values{"id": {"1"}, "year": {"20x4"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Year is invalid")
	assert.Contains(t, w.Body.String(), `name="year" value="20x4"`)
}

func TestRecords_EditStaleSelection(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/console/files", nil, nil)
	env.do(t, http.MethodPost, "/console/files/toggle/2", nil, nil)

	w := env.postForm(t, "/console/files/edit", url.Values{"id": {"1"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, env.api.callList())
}

func TestPartial_RendersFragment(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/console/partials/faqs/table", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="record-panel"`)
	assert.NotContains(t, w.Body.String(), "<html")
}

func TestPartial_PaginationLinksTargetFragment(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/console/partials/files/table?page=2", nil, map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, []int{1, 2}, env.api.pages)
	assert.True(t, strings.HasPrefix(body, `<div id="panel-area">`), "фрагмент заменяет блок panel-area целиком")
	assert.Contains(t, body, "Page 2 of 3")
	assert.Contains(t, body, `hx-get="/console/partials/files/table?page=3"`)
	assert.Contains(t, body, `hx-push-url="/console/files?page=3"`)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload_SubmitSuccess(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t,
		map[string]string{"manufacturer": "ACME", "model": "X1", "year": "2024"},
		map[string]string{"manual.pdf": "%PDF-1.7", "notes.txt": "text"},
	)
	w := env.do(t, http.MethodPost, "/console/upload/submit", body, map[string]string{"Content-Type": ct})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/upload", w.Header().Get("Location"))

	assert.Equal(t, []string{"manual.pdf"}, env.api.uploaded, "не-PDF пропущен")
	assert.Equal(t, "ACME", env.api.meta["manufacturer"])

	page := env.do(t, http.MethodGet, "/console/upload", nil, nil).Body.String()
	assert.Contains(t, page, "Only PDF files are allowed: notes.txt")
	assert.Contains(t, page, "Uploaded: manual.pdf")
	assert.Contains(t, page, "No files selected", "после успешной загрузки список очищен")
	assert.Contains(t, page, `name="manufacturer" value="ACME"`, "метаданные сохранены")
}

func TestUpload_MissingManufacturerKeepsFiles(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t,
		map[string]string{"model": "X1", "year": "2024"},
		map[string]string{"manual.pdf": "%PDF-1.7"},
	)
	env.do(t, http.MethodPost, "/console/upload/submit", body, map[string]string{"Content-Type": ct})
	assert.Nil(t, env.api.uploaded, "запрос не отправлен")

	page := env.do(t, http.MethodGet, "/console/upload", nil, nil).Body.String()
	assert.Contains(t, page, "Missing required fields: manufacturer")
	assert.Contains(t, page, "manual.pdf", "файлы сохранены")
}

func TestUpload_AddAndRemoveFiles(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, nil, map[string]string{"a.pdf": "1"})
	env.do(t, http.MethodPost, "/console/upload/files", body, map[string]string{"Content-Type": ct})
	body, ct = multipartBody(t, nil, map[string]string{"b.pdf": "2"})
	env.do(t, http.MethodPost, "/console/upload/files", body, map[string]string{"Content-Type": ct})

	form := env.store.Get(env.session.SessionID).Upload()
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, form.FileNames())

	w := env.do(t, http.MethodPost, "/console/upload/files/0/remove", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []string{"b.pdf"}, form.FileNames())

	w = env.do(t, http.MethodPost, "/console/upload/files/x/remove", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_TooManyFiles(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, nil, map[string]string{"a.pdf": "1", "b.pdf": "2", "c.pdf": "3", "d.pdf": "4"})
	env.do(t, http.MethodPost, "/console/upload/files", body, map[string]string{"Content-Type": ct})

	assert.Empty(t, env.store.Get(env.session.SessionID).Upload().FileNames())
	page := env.do(t, http.MethodGet, "/console/upload", nil, nil).Body.String()
	assert.Contains(t, page, "Too many files, at most 3 allowed")
}

func TestUpload_RequestTooLarge(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t,
		map[string]string{"manufacturer": "ACME", "model": "X1", "year": "2024"},
		map[string]string{"huge.pdf": strings.Repeat("x", testUploadMaxSize+1)},
	)
	w := env.do(t, http.MethodPost, "/console/upload/submit", body, map[string]string{"Content-Type": ct})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/upload", w.Header().Get("Location"))
	assert.Nil(t, env.api.uploaded, "запрос не отправлен")
	assert.Empty(t, env.store.Get(env.session.SessionID).Upload().FileNames())

	page := env.do(t, http.MethodGet, "/console/upload", nil, nil).Body.String()
	assert.Contains(t, page, fmt.Sprintf("Upload exceeds the maximum size of %d bytes", testUploadMaxSize))
	assert.NotContains(t, page, "Upload failed.")
}

func TestUpload_TotalSizeLimit(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, nil, map[string]string{"a.pdf": "0123456789"})
	env.do(t, http.MethodPost, "/console/upload/files", body, map[string]string{"Content-Type": ct})
	body, ct = multipartBody(t, nil, map[string]string{"b.pdf": "0123456789"})
	env.do(t, http.MethodPost, "/console/upload/files", body, map[string]string{"Content-Type": ct})

	assert.Equal(t, []string{"a.pdf"}, env.store.Get(env.session.SessionID).Upload().FileNames())
	page := env.do(t, http.MethodGet, "/console/upload", nil, nil).Body.String()
	assert.Contains(t, page, "Selected files exceed the maximum total size")
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/console/files", nil, nil)

	w := env.do(t, http.MethodGet, "/console/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Pages: 3")
	assert.Contains(t, body, "Not opened yet")
	assert.Contains(t, body, "Signed in as tester")
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm(t, "/console/login", url.Values{"token": {"  "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Token must not be empty")

	w = env.postForm(t, "/console/login", url.Values{"token": {"Bearer opaque-token"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)

	env.store.Get(env.session.SessionID)
	require.Equal(t, 1, env.store.Len())
	w = env.do(t, http.MethodPost, "/console/logout", nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/login", w.Header().Get("Location"))
	assert.Equal(t, 0, env.store.Len(), "рабочее пространство удалено")
}

func TestSetLanguage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/console/set-language?lang=ru", nil, map[string]string{"Referer": "http://host/console/files?page=2"})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/console/files?page=2", w.Header().Get("Location"))
	require.NotEmpty(t, w.Result().Cookies())
	assert.Equal(t, "ru", w.Result().Cookies()[0].Value)
}

func TestBackTo(t *testing.T) {
	tests := []struct {
		referer string
		want    string
	}{
		{"", "/console/"},
		{"https://evil.example/phish", "/console/"},
		{"http://host/console/faqs", "/console/faqs"},
		{"http://host/console/files?page=3", "/console/files?page=3"},
		{"http://host/metrics", "/console/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backTo(tt.referer), tt.referer)
	}
}
