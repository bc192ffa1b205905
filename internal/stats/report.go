package stats

import (
	"context"

	"github.com/verte-zerg/typedrill/internal/model"
)

// HistoryLister loads recorded rounds.
type HistoryLister interface {
	ListHistory(ctx context.Context, filter model.HistoryFilter) ([]model.HistoryRecord, error)
}

// Report contains precomputed data for history rendering.
type Report struct {
	Records []model.HistoryRecord
	// Best holds the best round per document.
	Best map[string]model.HistoryRecord
}

// BuildReport loads history and keeps the last filter.Last records.
func BuildReport(ctx context.Context, src HistoryLister, filter model.HistoryFilter) (Report, error) {
	records, err := src.ListHistory(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	if filter.Last > 0 && len(records) > filter.Last {
		records = records[len(records)-filter.Last:]
	}
	best := map[string]model.HistoryRecord{}
	for _, r := range records {
		cur, ok := best[r.DocID]
		if !ok || r.Words > cur.Words || (r.Words == cur.Words && r.Errors < cur.Errors) {
			best[r.DocID] = r
		}
	}
	return Report{Records: records, Best: best}, nil
}
