package trainees

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RepoMock is an in-memory trainees repo used in tests.
type RepoMock struct {
	mu       sync.Mutex
	nextID   int
	Trainees map[int]Trainee
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		nextID:   1,
		Trainees: make(map[int]Trainee),
	}
}

func (r *RepoMock) Add(_ context.Context, t Trainee) (*Trainee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	r.nextID++
	r.Trainees[t.ID] = t
	return &t, nil
}

func (r *RepoMock) Get(_ context.Context, id int) (*Trainee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Trainees[id]
	if !ok {
		return nil, ErrTraineeNotFound
	}
	return &t, nil
}

func (r *RepoMock) List(_ context.Context) ([]Trainee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]Trainee, 0, len(r.Trainees))
	for _, t := range r.Trainees {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all, nil
}

func (r *RepoMock) EnrollmentStart(ctx context.Context, traineeID int) (time.Time, error) {
	t, err := r.Get(ctx, traineeID)
	if err != nil {
		return time.Time{}, err
	}
	if t.EnrollmentStart == nil {
		return time.Time{}, nil
	}
	return *t.EnrollmentStart, nil
}
