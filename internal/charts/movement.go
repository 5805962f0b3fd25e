package charts

import (
	"time"

	"github.com/jacobreesgit/musicmemory/internal/domain"
	"github.com/jacobreesgit/musicmemory/internal/logger"
)

// HistoryStore answers whether an entity has ever charted before a given
// period. Required to tell a genuine debut from a re-entry.
type HistoryStore interface {
	HasCharted(entityID string, entityType domain.EntityType, before time.Time) (bool, error)
}

// ApplyMovement classifies each entry's trend against the previous period's
// positions. With no previous chart, every entry is new. An entry absent
// from the previous chart is a re-entry when it charted in any earlier
// period, otherwise new.
func ApplyMovement(entries []domain.ChartEntry, previous map[string]int, entityType domain.EntityType, periodStart time.Time, history HistoryStore, log *logger.Logger) {
	if previous == nil {
		for i := range entries {
			entries[i].Movement = domain.Movement{Kind: domain.MovementNew}
		}
		return
	}

	for i := range entries {
		prevPos, ok := previous[entries[i].EntityID]
		if !ok {
			entries[i].Movement = classifyAbsent(entries[i].EntityID, entityType, periodStart, history, log)
			continue
		}

		delta := prevPos - entries[i].Position
		switch {
		case delta == 0:
			entries[i].Movement = domain.Movement{Kind: domain.MovementSteady}
		case delta > 0:
			entries[i].Movement = domain.Movement{Kind: domain.MovementUp, Delta: delta}
		default:
			entries[i].Movement = domain.Movement{Kind: domain.MovementDown, Delta: -delta}
		}
	}
}

func classifyAbsent(entityID string, entityType domain.EntityType, periodStart time.Time, history HistoryStore, log *logger.Logger) domain.Movement {
	charted, err := history.HasCharted(entityID, entityType, periodStart)
	if err != nil {
		// Degrade to "new" rather than failing the chart.
		log.Warn("chart history lookup failed", "entity_id", entityID, "error", err)
		return domain.Movement{Kind: domain.MovementNew}
	}
	if charted {
		return domain.Movement{Kind: domain.MovementReEntry}
	}
	return domain.Movement{Kind: domain.MovementNew}
}
