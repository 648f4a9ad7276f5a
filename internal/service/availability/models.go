package availability

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
)

// DayWindows открытые окна ресурса на одну календарную дату, в минутах суток зоны ресурса
type DayWindows struct {
	Date     time.Time // UTC полночь
	Weekday  int       // ISO
	Timezone string
	Location *time.Location
	Windows  []interval.MinuteRange
}

// Result окна по датам диапазона вместе с ресурсом, для которого они построены
type Result struct {
	Resource *domain.Resource
	Location *time.Location
	Days     []DayWindows
}
