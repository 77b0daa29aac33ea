package attendance

import (
	"context"
	"sort"
	"sync"
)

// RepoMock is an in-memory records repo used in tests.
type RepoMock struct {
	mu      sync.Mutex
	nextID  int
	Records map[int]Record
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		nextID:  1,
		Records: make(map[int]Record),
	}
}

func (r *RepoMock) Add(_ context.Context, rec Record) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = r.nextID
	r.nextID++
	r.Records[rec.ID] = rec
	return &rec, nil
}

func (r *RepoMock) Get(_ context.Context, id int) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.Records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (r *RepoMock) ListForTrainee(_ context.Context, traineeID int, params RecordParams) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]Record, 0)
	for _, rec := range r.Records {
		if rec.TraineeID != traineeID {
			continue
		}
		if params.From != nil && rec.Timestamp.Before(*params.From) {
			continue
		}
		if params.To != nil && rec.Timestamp.After(*params.To) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

func (r *RepoMock) ListPage(ctx context.Context, traineeID int, params ListParams) ([]Record, error) {
	records, err := r.ListForTrainee(ctx, traineeID, params.RecordParams)
	if err != nil {
		return nil, err
	}
	// newest first, as the real repo does
	sort.Slice(records, func(i, j int) bool {
		return records[j].Timestamp.Before(records[i].Timestamp)
	})
	from := params.Page * params.Size
	if from >= len(records) {
		return []Record{}, nil
	}
	to := from + params.Size
	if to > len(records) {
		to = len(records)
	}
	return records[from:to], nil
}

func (r *RepoMock) Count(_ context.Context, traineeID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, rec := range r.Records {
		if rec.TraineeID == traineeID {
			count++
		}
	}
	return count, nil
}

func (r *RepoMock) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Records[id]; !ok {
		return ErrRecordNotFound
	}
	delete(r.Records, id)
	return nil
}
