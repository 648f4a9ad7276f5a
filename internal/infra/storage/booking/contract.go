package booking

import (
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Имена ограничений из migrations/001_init.sql
const (
	constraintNoOverlap = "bookings_no_overlap"
	constraintClientID  = "bookings_tenant_client_id_key"
)

const (
	pqExclusionViolation = "23P01"
	pqUniqueViolation    = "23505"
	pqSerialization      = "40001"
)
