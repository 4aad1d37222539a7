package storage

import (
	"context"

	"go.uber.org/zap"

	"carbontrace/core/record"
	"carbontrace/core/session"
	"carbontrace/internal/logging"
)

// ExecutePlan runs a session's save plan against a store: new rows are batch
// inserted, drifted rows batch updated. The outcomes come back in session
// form so callers can reconcile with ApplySaveResults; failed rows are
// reported per row, never retried here.
func ExecutePlan(ctx context.Context, store Store, plan session.SavePlan) ([]session.SaveResult, error) {
	var results []session.SaveResult

	if len(plan.Inserts) > 0 {
		records := make([]*record.Record, len(plan.Inserts))
		for i, ins := range plan.Inserts {
			records[i] = ins.Record
		}
		rowResults, err := store.InsertRows(ctx, records)
		if err != nil {
			return nil, err
		}
		for i, res := range rowResults {
			results = append(results, session.SaveResult{
				LocalID:     plan.Inserts[i].LocalID,
				PersistedID: res.ID,
				Err:         res.Err,
			})
		}
	}

	if len(plan.Updates) > 0 {
		updates := make([]RowUpdate, len(plan.Updates))
		for i, upd := range plan.Updates {
			updates[i] = RowUpdate{ID: upd.PersistedID, Record: upd.Record}
		}
		rowResults, err := store.UpdateRows(ctx, updates)
		if err != nil {
			return nil, err
		}
		for i, res := range rowResults {
			results = append(results, session.SaveResult{
				LocalID:     plan.Updates[i].LocalID,
				PersistedID: res.ID,
				Err:         res.Err,
			})
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logging.Info("executed save plan",
		zap.Int("inserts", len(plan.Inserts)),
		zap.Int("updates", len(plan.Updates)),
		zap.Int("failed", failed))

	return results, nil
}

// LoadSession reads every stored row into a session
func LoadSession(ctx context.Context, store Store, s *session.Session) error {
	rows, err := store.ListRows(ctx, "")
	if err != nil {
		return err
	}

	saved := make([]session.SavedRow, len(rows))
	for i, row := range rows {
		saved[i] = session.SavedRow{ID: row.ID, Record: row.Record}
	}
	return s.Load(saved)
}
