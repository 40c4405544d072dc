package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values of writeOperations.
const (
	outcomeOK                   = "ok"
	outcomeConstraintViolations = "constraint_violations"
	outcomeNameExists           = "name_exists"
	outcomeRecordNotExists      = "record_not_exists"
	outcomeVersionInvalid       = "version_invalid"
	outcomeVersionOutdated      = "version_outdated"
	outcomeNotDeleted           = "not_deleted"
	outcomeError                = "error"
)

var (
	writeOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_write_operations_total",
			Help: "Write operations on catalog items by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_notifications_total",
			Help: "Create notifications by outcome",
		},
		[]string{"outcome"},
	)
)

// outcomeOf maps an operation error to its metric label.
func outcomeOf(err error) string {
	switch err.(type) {
	case nil:
		return outcomeOK
	case ConstraintViolations:
		return outcomeConstraintViolations
	case NameExists:
		return outcomeNameExists
	case RecordNotExists:
		return outcomeRecordNotExists
	case VersionInvalid:
		return outcomeVersionInvalid
	case VersionOutdated:
		return outcomeVersionOutdated
	}
	return outcomeError
}
