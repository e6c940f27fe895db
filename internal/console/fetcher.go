package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/bigkaa/manual-console/internal/apiclient"
	"github.com/bigkaa/manual-console/internal/domain/model"
)

var (
	// ErrInvalidPage — номер страницы меньше 1.
	ErrInvalidPage = errors.New("номер страницы должен быть >= 1")
	// ErrMalformedPage — страница содержит запись без идентификатора или дубликат.
	ErrMalformedPage = errors.New("некорректная страница записей")
)

// Page — результат загрузки одной страницы.
type Page struct {
	Records    []*model.Record
	TotalPages int
}

// Fetcher загружает одну страницу коллекции.
type Fetcher interface {
	Fetch(ctx context.Context, page int) (Page, error)
}

// Lister — запросы страниц коллекций REST API.
// Реализуется *apiclient.Client.
type Lister interface {
	ListManuals(ctx context.Context, page int, archived bool) (*apiclient.ListResponse, error)
	ListFAQs(ctx context.Context, page int) (*apiclient.ListResponse, error)
	ListTrainingFiles(ctx context.Context, page int) (*apiclient.ListResponse, error)
}

// CollectionFetcher загружает страницы одной коллекции API.
type CollectionFetcher struct {
	kind model.Kind
	list func(ctx context.Context, page int) (*apiclient.ListResponse, error)
}

// NewCollectionFetcher создаёт загрузчик для вида записей kind.
func NewCollectionFetcher(lister Lister, kind model.Kind) *CollectionFetcher {
	f := &CollectionFetcher{kind: kind}
	switch kind {
	case model.KindArchived:
		f.list = func(ctx context.Context, page int) (*apiclient.ListResponse, error) {
			return lister.ListManuals(ctx, page, true)
		}
	case model.KindFAQs:
		f.list = lister.ListFAQs
	case model.KindFineTune:
		f.list = lister.ListTrainingFiles
	default:
		f.list = func(ctx context.Context, page int) (*apiclient.ListResponse, error) {
			return lister.ListManuals(ctx, page, false)
		}
	}
	return f
}

// Fetch загружает страницу page.
// Возвращает ошибку вместо частичного результата: страница без
// идентификатора или с повторяющимися идентификаторами отклоняется целиком.
func (f *CollectionFetcher) Fetch(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		return Page{}, ErrInvalidPage
	}

	resp, err := f.list(ctx, page)
	if err != nil {
		return Page{}, fmt.Errorf("загрузка %s, страница %d: %w", f.kind, page, err)
	}

	records := make([]*model.Record, 0, len(resp.Data))
	seen := make(map[model.ID]struct{}, len(resp.Data))
	for i, fields := range resp.Data {
		rec, err := model.NewRecord(fields)
		if err != nil {
			return Page{}, fmt.Errorf("%w: строка %d: %v", ErrMalformedPage, i+1, err)
		}
		if _, dup := seen[rec.ID]; dup {
			return Page{}, fmt.Errorf("%w: повторяющийся идентификатор %s", ErrMalformedPage, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
	}

	return Page{Records: records, TotalPages: resp.TotalPages()}, nil
}

// fetchErrorMessage формирует текст ошибки загрузки для пользователя.
func fetchErrorMessage(err error) string {
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}
	if errors.Is(err, ErrMalformedPage) {
		return "Malformed server response"
	}
	return "Failed to load records"
}
