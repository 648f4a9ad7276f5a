package availability

import (
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Имена ограничений из migrations/001_init.sql
const (
	constraintRuleNoOverlap = "availability_rules_no_overlap"
	constraintExceptionDate = "availability_exceptions_resource_date_key"
)

const (
	pqExclusionViolation = "23P01"
	pqUniqueViolation    = "23505"
)
