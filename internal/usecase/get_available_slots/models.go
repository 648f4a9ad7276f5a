package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	TenantID    string    // ID tenant
	ResourceID  string    // ID ресурса
	ServiceID   string    // ID услуги
	From        time.Time // Первая дата диапазона (без времени)
	To          time.Time // Последняя дата диапазона включительно
	GridMinutes int       // Шаг сетки; 0 = значение по умолчанию
}

// Response модель ответа со списком доступных слотов
type Response struct {
	ResourceID      string
	ServiceID       string
	Timezone        string
	DurationMinutes int
	GridMinutes     int
	Slots           []domain.AvailableSlot // по возрастанию StartAt
}

// Config параметры генерации слотов
type Config struct {
	DefaultGridMinutes int
	MinNoticeMinutes   int // слоты раньше now + MinNoticeMinutes не предлагаются
}
