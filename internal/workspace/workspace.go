// Пакет workspace — рабочие пространства пользовательских сессий.
// Store — LRU-кэш рабочих пространств с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
//
// Каждое рабочее пространство владеет собственными страницами консоли
// (console.Container по одному на вид записей) и формой загрузки;
// состояние между сессиями не разделяется.
package workspace

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
)

// Config — параметры хранилища рабочих пространств.
type Config struct {
	// Size — максимальное количество рабочих пространств
	Size int
	// TTL — время жизни неиспользуемого рабочего пространства
	TTL time.Duration
	// UploadMaxFiles — лимит файлов формы загрузки
	UploadMaxFiles int
	// UploadMaxBytes — лимит суммарного размера файлов формы загрузки
	UploadMaxBytes int64
	// Now — источник времени для вычисляемых полей (nil — time.Now)
	Now func() time.Time
	// Metrics — метрики ядра консоли (nil — без метрик)
	Metrics *console.Metrics
}

// Store — хранилище рабочих пространств по идентификатору сессии.
type Store struct {
	cache  *expirable.LRU[string, *Workspace]
	api    console.API
	cfg    Config
	logger *slog.Logger

	// mu сериализует создание, чтобы параллельные запросы одной
	// сессии получили одно и то же рабочее пространство.
	mu sync.Mutex

	hits    prometheus.Counter
	misses  prometheus.Counter
	evicted prometheus.Counter
}

// NewStore создаёт хранилище рабочих пространств.
// Метрики регистрируются в reg (nil — prometheus.DefaultRegisterer).
func NewStore(api console.API, cfg Config, reg prometheus.Registerer, logger *slog.Logger) *Store {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	s := &Store{
		api:    api,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "workspace_store")),
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "mc_workspace_hits_total",
			Help: "Количество обращений к существующему рабочему пространству.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "mc_workspace_misses_total",
			Help: "Количество созданий нового рабочего пространства.",
		}),
		evicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mc_workspace_evicted_total",
			Help: "Количество вытесненных или истёкших рабочих пространств.",
		}),
	}

	s.cache = expirable.NewLRU[string, *Workspace](cfg.Size, func(id string, _ *Workspace) {
		s.evicted.Inc()
		s.logger.Debug("Рабочее пространство удалено", slog.String("session_id", id))
	}, cfg.TTL)
	return s
}

// Get возвращает рабочее пространство сессии, создавая его при отсутствии.
// Каждое обращение продлевает TTL.
func (s *Store) Get(sessionID string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.cache.Get(sessionID); ok {
		s.hits.Inc()
		// Повторное добавление продлевает TTL
		s.cache.Add(sessionID, ws)
		return ws
	}

	s.misses.Inc()
	ws := newWorkspace(sessionID, s.api, s.cfg, s.logger)
	s.cache.Add(sessionID, ws)
	s.logger.Debug("Рабочее пространство создано", slog.String("session_id", sessionID))
	return ws
}

// Drop удаляет рабочее пространство сессии (выход пользователя).
func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(sessionID)
}

// Len возвращает количество активных рабочих пространств.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Workspace — состояние консоли одной сессии.
type Workspace struct {
	id     string
	api    console.API
	opts   console.Options
	upload *console.UploadForm

	mu         sync.Mutex
	containers map[model.Kind]*console.Container
	flashes    []console.Notification
}

func newWorkspace(id string, api console.API, cfg Config, logger *slog.Logger) *Workspace {
	return &Workspace{
		id:  id,
		api: api,
		opts: console.Options{
			Now:     cfg.Now,
			Metrics: cfg.Metrics,
			Logger:  logger.With(slog.String("session_id", id)),
		},
		upload:     console.NewUploadForm(cfg.UploadMaxFiles, cfg.UploadMaxBytes),
		containers: make(map[model.Kind]*console.Container),
	}
}

// ID возвращает идентификатор сессии.
func (w *Workspace) ID() string {
	return w.id
}

// Container возвращает страницу консоли для вида записей, создавая её при первом обращении.
func (w *Workspace) Container(kind model.Kind) (*console.Container, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.containers[kind]; ok {
		return c, nil
	}
	c, err := console.NewContainer(kind, w.api, w.opts)
	if err != nil {
		return nil, err
	}
	w.containers[kind] = c
	return c, nil
}

// Upload возвращает форму загрузки сессии.
func (w *Workspace) Upload() *console.UploadForm {
	return w.upload
}

// Flash сохраняет уведомления для показа при следующей отрисовке страницы.
func (w *Workspace) Flash(notes ...console.Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flashes = append(w.flashes, notes...)
}

// TakeFlashes возвращает и очищает отложенные уведомления.
func (w *Workspace) TakeFlashes() []console.Notification {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.flashes
	w.flashes = nil
	return out
}

// Summary — карточка вида записей на дашборде.
type Summary struct {
	Kind       model.Kind
	Title      string
	Visited    bool
	State      console.State
	Page       int
	TotalPages int
	Rows       int
}

// Overview возвращает сводку по всем видам записей в порядке навигации.
// Непосещённые страницы не загружаются.
func (w *Workspace) Overview() []Summary {
	w.mu.Lock()
	containers := make(map[model.Kind]*console.Container, len(w.containers))
	for k, c := range w.containers {
		containers[k] = c
	}
	w.mu.Unlock()

	out := make([]Summary, 0, len(model.Kinds))
	for _, kind := range model.Kinds {
		schema, _ := console.SchemaFor(kind)
		sum := Summary{Kind: kind, Title: schema.Title}
		if c, ok := containers[kind]; ok {
			snap := c.Snapshot()
			sum.Visited = true
			sum.State = snap.State
			sum.Page = snap.Page
			sum.TotalPages = snap.TotalPages
			sum.Rows = len(snap.Rows)
		}
		out = append(out, sum)
	}
	return out
}
