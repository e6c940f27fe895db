package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/bigkaa/manual-console/internal/apiclient"
	"github.com/bigkaa/manual-console/internal/domain/model"
)

var (
	// ErrPrecondition — выбор не удовлетворяет требованиям действия.
	ErrPrecondition = errors.New("условие действия не выполнено")
	// ErrInFlight — предыдущий запуск действия ещё не завершён.
	ErrInFlight = errors.New("действие уже выполняется")
	// ErrUnknownAction — действие не поддерживается для этого вида записей.
	ErrUnknownAction = errors.New("неизвестное действие")
)

// ActionKind — вид пакетного действия.
type ActionKind string

const (
	ActionArchive       ActionKind = "archive"
	ActionUnarchive     ActionKind = "unarchive"
	ActionDelete        ActionKind = "delete"
	ActionUpdate        ActionKind = "update"
	ActionApprove       ActionKind = "approve"
	ActionStartFineTune ActionKind = "start-finetune"
	ActionPrepareJSONL  ActionKind = "prepare-jsonl"
	ActionRefreshStatus ActionKind = "refresh-status"
)

// ParseAction преобразует строку в ActionKind.
func ParseAction(s string) (ActionKind, bool) {
	a := ActionKind(s)
	_, ok := actionRules[a]
	return a, ok
}

// cardinality — требование к количеству выбранных записей.
type cardinality int

const (
	atLeastOne cardinality = iota
	exactlyOne
	noSelection
	rowTarget
)

// actionRule — описание действия: требования, блокировка, тексты по умолчанию.
type actionRule struct {
	need      cardinality
	guarded   bool
	refresh   bool
	successTo string
	failureTo string
}

var actionRules = map[ActionKind]actionRule{
	ActionArchive:       {need: atLeastOne, refresh: true, successTo: "Files archived", failureTo: "Failed to archive"},
	ActionUnarchive:     {need: atLeastOne, refresh: true, successTo: "Files restored", failureTo: "Failed to unarchive"},
	ActionDelete:        {need: atLeastOne, refresh: true, successTo: "Files deleted", failureTo: "Failed to delete"},
	ActionUpdate:        {need: exactlyOne, refresh: true, successTo: "File updated", failureTo: "Failed to update"},
	ActionApprove:       {need: atLeastOne, refresh: true, successTo: "Data Approved", failureTo: "Failed to approve"},
	ActionStartFineTune: {need: exactlyOne, guarded: true, refresh: true, successTo: "Fine-tuning started", failureTo: "Failed to start fine-tuning"},
	ActionPrepareJSONL:  {need: noSelection, guarded: true, successTo: "JSONL file created", failureTo: "Failed to prepare JSONL file"},
	ActionRefreshStatus: {need: rowTarget, refresh: true, successTo: "Status refreshed", failureTo: "Failed to refresh"},
}

// CanDispatch сообщает, допустимо ли действие при selected выбранных записях.
// Используется для блокировки кнопок.
func CanDispatch(action ActionKind, selected int) bool {
	rule, ok := actionRules[action]
	if !ok {
		return false
	}
	switch rule.need {
	case atLeastOne:
		return selected >= 1
	case exactlyOne:
		return selected == 1
	default:
		return true
	}
}

// Extra — дополнительные параметры действия.
type Extra struct {
	// Fields — новые значения метаданных (update)
	Fields map[string]string
	// RowID — строка, статус которой обновляется (refresh-status)
	RowID model.ID
	// TargetID — идентификатор файла или задачи fine-tune (refresh-status)
	TargetID string
	// StatusKind — вид обновляемого статуса (refresh-status)
	StatusKind model.StatusKind
}

// Result — итог пакетного действия.
type Result struct {
	Action       ActionKind
	Notification Notification
	// Refresh — требуется перезагрузка текущей страницы
	Refresh bool
	// Err — nil при успехе
	Err error
}

// Mutator — мутирующие операции REST API.
// Реализуется *apiclient.Client.
type Mutator interface {
	SetArchived(ctx context.Context, ids []string, archived bool) (string, error)
	DeleteManuals(ctx context.Context, ids []string) (string, error)
	UpdateManual(ctx context.Context, id string, fields map[string]string) (string, error)
	SetFAQApproval(ctx context.Context, ids []string, approved bool) (string, error)
	PrepareJSONL(ctx context.Context) (string, error)
	StartFineTune(ctx context.Context, id string) (string, error)
	RefreshFineTuneStatus(ctx context.Context, targetID, rowID, statusKind string) (string, error)
}

// Dispatcher выполняет пакетные действия над выбранными записями.
// Записи не изменяет: актуальное состояние приходит при следующей загрузке.
type Dispatcher struct {
	api      Mutator
	inFlight map[ActionKind]*atomic.Bool
	metrics  *Metrics
	logger   *slog.Logger
}

// NewDispatcher создаёт диспетчер действий.
func NewDispatcher(api Mutator, metrics *Metrics, logger *slog.Logger) *Dispatcher {
	inFlight := make(map[ActionKind]*atomic.Bool)
	for action, rule := range actionRules {
		if rule.guarded {
			inFlight[action] = new(atomic.Bool)
		}
	}
	return &Dispatcher{
		api:      api,
		inFlight: inFlight,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// InFlight сообщает, выполняется ли сейчас действие с блокировкой.
func (d *Dispatcher) InFlight(action ActionKind) bool {
	guard, ok := d.inFlight[action]
	return ok && guard.Load()
}

// Dispatch выполняет действие action над ids.
// При невыполненном условии или активной блокировке запрос не отправляется.
func (d *Dispatcher) Dispatch(ctx context.Context, action ActionKind, ids []model.ID, extra Extra) Result {
	rule, ok := actionRules[action]
	if !ok {
		return Result{Action: action, Err: ErrUnknownAction, Notification: failure("Unknown action")}
	}

	if err := checkPrecondition(rule, ids, extra); err != nil {
		d.metrics.observeDispatch(action, "rejected")
		return Result{Action: action, Err: err, Notification: warning(preconditionMessage(rule))}
	}

	if guard, ok := d.inFlight[action]; ok {
		if !guard.CompareAndSwap(false, true) {
			d.metrics.observeDispatch(action, "in_flight")
			return Result{Action: action, Err: ErrInFlight, Notification: warning("Please wait, the previous request is still running")}
		}
		defer guard.Store(false)
	}

	msg, err := d.send(ctx, action, toStrings(ids), extra)
	if err != nil {
		d.metrics.observeDispatch(action, "error")
		d.logger.Warn("Действие не выполнено",
			slog.String("action", string(action)),
			slog.Int("ids", len(ids)),
			slog.String("error", err.Error()),
		)
		text := apiclient.ServerMessage(err)
		if text == "" {
			text = rule.failureTo
		}
		return Result{Action: action, Err: err, Notification: failure(text)}
	}

	d.metrics.observeDispatch(action, "success")
	d.logger.Info("Действие выполнено",
		slog.String("action", string(action)),
		slog.Int("ids", len(ids)),
	)
	return Result{
		Action:       action,
		Notification: success(successMessage(action, rule, msg)),
		Refresh:      rule.refresh,
	}
}

// send отправляет запрос, соответствующий действию.
func (d *Dispatcher) send(ctx context.Context, action ActionKind, ids []string, extra Extra) (string, error) {
	switch action {
	case ActionArchive:
		return d.api.SetArchived(ctx, ids, true)
	case ActionUnarchive:
		return d.api.SetArchived(ctx, ids, false)
	case ActionDelete:
		return d.api.DeleteManuals(ctx, ids)
	case ActionUpdate:
		return d.api.UpdateManual(ctx, ids[0], extra.Fields)
	case ActionApprove:
		return d.api.SetFAQApproval(ctx, ids, true)
	case ActionStartFineTune:
		return d.api.StartFineTune(ctx, ids[0])
	case ActionPrepareJSONL:
		return d.api.PrepareJSONL(ctx)
	case ActionRefreshStatus:
		return d.api.RefreshFineTuneStatus(ctx, extra.TargetID, string(extra.RowID), string(extra.StatusKind))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func checkPrecondition(rule actionRule, ids []model.ID, extra Extra) error {
	switch rule.need {
	case atLeastOne:
		if len(ids) == 0 {
			return fmt.Errorf("%w: не выбрано ни одной записи", ErrPrecondition)
		}
	case exactlyOne:
		if len(ids) != 1 {
			return fmt.Errorf("%w: требуется ровно одна запись, выбрано %d", ErrPrecondition, len(ids))
		}
	case rowTarget:
		if extra.RowID == "" || extra.TargetID == "" || extra.StatusKind == "" {
			return fmt.Errorf("%w: не указана строка для обновления статуса", ErrPrecondition)
		}
	}
	return nil
}

func preconditionMessage(rule actionRule) string {
	switch rule.need {
	case atLeastOne:
		return "Select at least one record"
	case exactlyOne:
		return "Select exactly one record"
	default:
		return "Nothing to refresh"
	}
}

// successMessage строит текст успеха: сообщение сервера либо текст по умолчанию.
func successMessage(action ActionKind, rule actionRule, msg string) string {
	msg = strings.TrimSpace(msg)
	switch action {
	case ActionApprove:
		return strings.TrimSpace(msg + " " + rule.successTo)
	case ActionPrepareJSONL:
		if msg != "" {
			return msg + " created"
		}
	}
	if msg == "" {
		return rule.successTo
	}
	return msg
}

func toStrings(ids []model.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
