// internal/service/alerts/stores.go
package alerts

import (
	"context"
	"time"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/domain/study"
)

// AlertStore is the narrow persistence surface the engine needs. The postgres
// AlertRepository satisfies it; tests use in-memory fakes.
type AlertStore interface {
	Create(ctx context.Context, a *alert.Alert) (created bool, err error)
	ListUnresolvedByType(ctx context.Context, ruleType alert.RuleType) ([]alert.Alert, error)
	Resolve(ctx context.Context, id int64) error
}

// ConfigurationStore provides the per-rule-type policy rows.
type ConfigurationStore interface {
	Get(ctx context.Context, ruleType alert.RuleType) (*alert.Configuration, error)
}

// ProgressStore aggregates the operational state the rules evaluate over.
type ProgressStore interface {
	ListEthicsPending(ctx context.Context) ([]study.EthicsStatus, error)
	ListMissingDocumentation(ctx context.Context) ([]study.DocumentationStatus, error)
	ListUpcomingRecruitment(ctx context.Context, within time.Duration) ([]study.RecruitmentWindow, error)
	ListActivity(ctx context.Context) ([]study.ActivityStatus, error)
	ListCompletionRates(ctx context.Context) ([]study.CompletionStatus, error)
}
