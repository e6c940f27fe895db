package console

// Level — уровень уведомления.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification — кратковременное сообщение пользователю
// (результат действия, ошибка валидации).
type Notification struct {
	Level   Level
	Message string
}

func success(msg string) Notification { return Notification{Level: LevelSuccess, Message: msg} }
func failure(msg string) Notification { return Notification{Level: LevelError, Message: msg} }
func warning(msg string) Notification { return Notification{Level: LevelWarning, Message: msg} }
func info(msg string) Notification    { return Notification{Level: LevelInfo, Message: msg} }
