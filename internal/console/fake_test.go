package console

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/bigkaa/manual-console/internal/apiclient"
	"github.com/bigkaa/manual-console/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mutation — записанный вызов мутирующей операции.
type mutation struct {
	op       string
	ids      []string
	flag     bool
	fields   map[string]string
	targetID string
	rowID    string
	status   string
}

// fakeAPI — in-memory реализация API для тестов ядра.
type fakeAPI struct {
	mu sync.Mutex

	// pages — данные по номеру страницы
	pages map[int][]map[string]any
	// totalPages — значение pagination.totalPages (0 — поле отсутствует)
	totalPages int
	// listErr — ошибка загрузки
	listErr error
	// mutateErr — ошибка мутаций
	mutateErr error
	// message — сообщение успешной мутации
	message string
	// block — если задан, List ждёт закрытия канала для страницы
	block map[int]chan struct{}
	// started — сигнал о начале запроса для страницы
	started map[int]chan struct{}
	// upload — результат загрузки
	upload *model.UploadResult

	listCalls []listCall
	mutations []mutation
	uploads   int
}

type listCall struct {
	path  string
	page  int
	extra url.Values
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{pages: map[int][]map[string]any{}}
}

func (f *fakeAPI) ListManuals(ctx context.Context, page int, archived bool) (*apiclient.ListResponse, error) {
	var extra url.Values
	if archived {
		extra = url.Values{"archived": []string{"true"}}
	}
	return f.list(ctx, "/pdf-manuals", page, extra)
}

func (f *fakeAPI) ListFAQs(ctx context.Context, page int) (*apiclient.ListResponse, error) {
	return f.list(ctx, "/faqs", page, nil)
}

func (f *fakeAPI) ListTrainingFiles(ctx context.Context, page int) (*apiclient.ListResponse, error) {
	return f.list(ctx, "/faqs/finetune", page, nil)
}

func (f *fakeAPI) list(ctx context.Context, path string, page int, extra url.Values) (*apiclient.ListResponse, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, listCall{path: path, page: page, extra: extra})
	block := f.block[page]
	started := f.started[page]
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	resp := &apiclient.ListResponse{}
	for _, row := range f.pages[page] {
		copied := make(map[string]any, len(row))
		for k, v := range row {
			copied[k] = v
		}
		resp.Data = append(resp.Data, copied)
	}
	if f.totalPages > 0 {
		resp.Pagination = &apiclient.Pagination{TotalPages: f.totalPages}
	}
	return resp, nil
}

func (f *fakeAPI) record(m mutation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, m)
	return f.message, f.mutateErr
}

func (f *fakeAPI) SetArchived(_ context.Context, ids []string, archived bool) (string, error) {
	return f.record(mutation{op: "archive", ids: ids, flag: archived})
}

func (f *fakeAPI) DeleteManuals(_ context.Context, ids []string) (string, error) {
	return f.record(mutation{op: "delete", ids: ids})
}

func (f *fakeAPI) UpdateManual(_ context.Context, id string, fields map[string]string) (string, error) {
	return f.record(mutation{op: "update", ids: []string{id}, fields: fields})
}

func (f *fakeAPI) SetFAQApproval(_ context.Context, ids []string, approved bool) (string, error) {
	return f.record(mutation{op: "approve", ids: ids, flag: approved})
}

func (f *fakeAPI) PrepareJSONL(context.Context) (string, error) {
	return f.record(mutation{op: "jsonl"})
}

func (f *fakeAPI) StartFineTune(_ context.Context, id string) (string, error) {
	return f.record(mutation{op: "finetune", ids: []string{id}})
}

func (f *fakeAPI) RefreshFineTuneStatus(_ context.Context, targetID, rowID, statusKind string) (string, error) {
	return f.record(mutation{op: "refresh", targetID: targetID, rowID: rowID, status: statusKind})
}

func (f *fakeAPI) UploadManuals(_ context.Context, files []model.UploadFile, meta model.UploadMetadata) (*model.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	return f.upload, nil
}

// fetchesFor возвращает количество запросов страницы page.
func (f *fakeAPI) fetchesFor(page int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.listCalls {
		if c.page == page {
			n++
		}
	}
	return n
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func (f *fakeAPI) mutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mutations)
}

func (f *fakeAPI) lastMutation() mutation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.mutations) == 0 {
		return mutation{}
	}
	return f.mutations[len(f.mutations)-1]
}

// fileRows создаёт n записей файлов с идентификаторами, начиная с first.
func fileRows(first, n int) []map[string]any {
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		id := first + i
		rows = append(rows, map[string]any{
			"id":               strconv.Itoa(id),
			"file_name":        "manual-" + strconv.Itoa(id) + ".pdf",
			"manufacturer":     "ACME",
			"model":            "M" + strconv.Itoa(id),
			"year":             "2020",
			"publication_date": "2020-05-10",
			"uploaded_by":      "admin",
			"created_at":       "2024-01-15T10:20:30Z",
		})
	}
	return rows
}

// serverError — ответ сервера с ошибкой.
func serverError(msg string) error {
	return &apiclient.APIError{StatusCode: http.StatusInternalServerError, Message: msg}
}

// counterValue возвращает значение счётчика name с указанными лейблами из registry.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}
