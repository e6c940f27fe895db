// Пакет console — ядро консоли: постраничная таблица записей
// с множественным выбором и пакетными действиями.
//
// Container объединяет загрузку страниц (Fetcher), вычисление полей
// (Enricher), выбор строк (Selection), пагинацию (Pagination) и
// пакетные действия (Dispatcher) для одного вида записей.
// Мьютекс контейнера не удерживается во время сетевых запросов;
// ответы устаревших загрузок отбрасываются по порядковому номеру запроса.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/manual-console/internal/domain/model"
)

// State — состояние таблицы.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// API — операции REST API, нужные контейнеру.
// Реализуется *apiclient.Client.
type API interface {
	Lister
	Mutator
}

// Options — параметры контейнера.
type Options struct {
	// Now — источник времени для вычисления давности (nil — time.Now)
	Now func() time.Time
	// Metrics — метрики (nil — без метрик)
	Metrics *Metrics
	// Logger — логгер (nil — slog.Default())
	Logger *slog.Logger
	// Fetcher — загрузчик страниц (nil — CollectionFetcher для вида записей)
	Fetcher Fetcher
}

// Container — страница консоли для одного вида записей.
type Container struct {
	schema     Schema
	fetcher    Fetcher
	enricher   Enricher
	dispatcher *Dispatcher
	metrics    *Metrics
	logger     *slog.Logger

	mu         sync.Mutex
	state      State
	errMsg     string
	records    []*model.Record
	selection  *Selection
	pagination Pagination
	seq        uint64
	mounted    bool
}

// NewContainer создаёт контейнер для вида записей kind.
func NewContainer(kind model.Kind, api API, opts Options) (*Container, error) {
	schema, ok := SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("неизвестный вид записей: %q", kind)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "container"), slog.String("kind", string(kind)))

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewCollectionFetcher(api, kind)
	}

	return &Container{
		schema:     schema,
		fetcher:    fetcher,
		enricher:   schema.Enricher(opts.Now),
		dispatcher: NewDispatcher(api, opts.Metrics, logger),
		metrics:    opts.Metrics,
		logger:     logger,
		state:      StateLoading,
		selection:  NewSelection(),
		pagination: NewPagination(),
	}, nil
}

// Kind возвращает вид записей контейнера.
func (c *Container) Kind() model.Kind {
	return c.schema.Kind
}

// Schema возвращает схему страницы.
func (c *Container) Schema() Schema {
	return c.schema
}

// Mount загружает первую страницу при первом обращении.
// Повторные вызовы ничего не делают.
func (c *Container) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	page := c.pagination.Current()
	c.mu.Unlock()

	c.load(ctx, page)
}

// GoTo переходит на страницу page и загружает её.
// Возвращает false, если страница вне диапазона или уже текущая.
func (c *Container) GoTo(ctx context.Context, page int) bool {
	c.mu.Lock()
	if !c.pagination.GoTo(page) {
		c.mu.Unlock()
		return false
	}
	c.selection.Reset(c.records)
	c.mu.Unlock()

	c.load(ctx, page)
	return true
}

// Next переходит на следующую страницу.
func (c *Container) Next(ctx context.Context) bool {
	c.mu.Lock()
	page := c.pagination.Current() + 1
	c.mu.Unlock()
	return c.GoTo(ctx, page)
}

// Prev переходит на предыдущую страницу.
func (c *Container) Prev(ctx context.Context) bool {
	c.mu.Lock()
	page := c.pagination.Current() - 1
	c.mu.Unlock()
	return c.GoTo(ctx, page)
}

// Refresh перезагружает текущую страницу.
func (c *Container) Refresh(ctx context.Context) {
	c.mu.Lock()
	c.mounted = true
	page := c.pagination.Current()
	c.mu.Unlock()

	c.load(ctx, page)
}

// Invalidate помечает данные устаревшими: следующий Mount перезагрузит текущую страницу.
// Используется, когда записи изменились вне контейнера (например, после загрузки файлов).
func (c *Container) Invalidate() {
	c.mu.Lock()
	c.mounted = false
	c.mu.Unlock()
}

// Toggle инвертирует выбор записи id.
// Возвращает ok=false, если записи нет на текущей странице.
func (c *Container) Toggle(id model.ID) (selected bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return false, false
	}
	return c.selection.Toggle(c.records, id)
}

// ClearSelection снимает выбор со всех записей.
func (c *Container) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Reset(c.records)
}

// SelectedRecord возвращает копию единственной выбранной записи.
// Используется для заполнения формы редактирования исходными значениями.
func (c *Container) SelectedRecord() (model.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selection.Len() != 1 {
		return model.Record{}, false
	}
	rec := findRecord(c.records, c.selection.IDs()[0])
	if rec == nil {
		return model.Record{}, false
	}
	return cloneRecord(rec), true
}

// Dispatch выполняет пакетное действие над текущим выбором.
// При успехе выбор сбрасывается и, если действие этого требует,
// текущая страница перезагружается. При ошибке состояние не меняется.
func (c *Container) Dispatch(ctx context.Context, action ActionKind, extra Extra) Result {
	if !c.schema.Exposes(action) {
		return Result{Action: action, Err: ErrUnknownAction, Notification: failure("Action is not available on this page")}
	}

	c.mu.Lock()
	var ids []model.ID
	if action == ActionRefreshStatus {
		// Цель обновления берётся из записи, а не из запроса
		var target *RefreshTarget
		if rec := findRecord(c.records, extra.RowID); rec != nil {
			target, _ = c.schema.rowTarget(rec, extra.StatusKind)
		}
		if target == nil {
			c.mu.Unlock()
			return Result{Action: action, Err: fmt.Errorf("%w: строка %s без статуса %s", ErrPrecondition, extra.RowID, extra.StatusKind), Notification: warning("Nothing to refresh")}
		}
		extra.TargetID = target.TargetID
	} else {
		ids = c.selection.IDs()
	}
	c.mu.Unlock()

	result := c.dispatcher.Dispatch(ctx, action, ids, extra)
	if result.Err != nil {
		return result
	}

	c.mu.Lock()
	c.selection.Reset(c.records)
	c.mu.Unlock()

	if result.Refresh {
		c.Refresh(ctx)
	}
	return result
}

// load загружает страницу page и применяет результат, если он не устарел.
// Если сервер сообщил меньше страниц, чем запрошенная, загружается последняя.
func (c *Container) load(ctx context.Context, page int) {
	for {
		next, again := c.fetchOnce(ctx, page)
		if !again {
			return
		}
		page = next
	}
}

func (c *Container) fetchOnce(ctx context.Context, page int) (int, bool) {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.state = StateLoading
	c.errMsg = ""
	c.mu.Unlock()

	start := time.Now()
	result, err := c.fetcher.Fetch(ctx, page)
	elapsed := time.Since(start).Seconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.seq {
		c.metrics.observeStale(string(c.schema.Kind))
		c.logger.Debug("Устаревший ответ отброшен",
			slog.Int("page", page),
			slog.Uint64("token", token),
			slog.Uint64("latest", c.seq),
		)
		return 0, false
	}

	if err != nil {
		c.metrics.observeFetch(string(c.schema.Kind), "error", elapsed)
		c.logger.Warn("Ошибка загрузки страницы",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		c.state = StateError
		c.errMsg = fetchErrorMessage(err)
		c.selection.Reset(c.records)
		c.records = nil
		return 0, false
	}

	c.metrics.observeFetch(string(c.schema.Kind), "success", elapsed)
	for _, rec := range result.Records {
		c.enricher.Enrich(rec)
	}
	c.records = result.Records
	c.selection.Reset(c.records)
	c.pagination.SetTotal(result.TotalPages)
	c.state = StateReady

	if c.pagination.Current() != page {
		return c.pagination.Current(), true
	}
	return 0, false
}

func cloneRecord(rec *model.Record) model.Record {
	out := model.Record{
		ID:       rec.ID,
		Fields:   make(map[string]any, len(rec.Fields)),
		Raw:      make(map[string]any, len(rec.Raw)),
		Selected: rec.Selected,
	}
	for k, v := range rec.Fields {
		out.Fields[k] = v
	}
	for k, v := range rec.Raw {
		out.Raw[k] = v
	}
	return out
}
