package service

import (
	"context"
	"sort"
	"sync"

	"task-board/backend/internal/board/domain"
)

type memBoardRepo struct {
	mu    sync.Mutex
	cols  []*domain.Column
	tasks map[string]*domain.Task
}

func newMemBoardRepo() *memBoardRepo {
	return &memBoardRepo{
		cols:  []*domain.Column{{ID: "daily", Title: "Daily", Position: 0}, {ID: "pgm", Title: "PGM", Position: 1}},
		tasks: make(map[string]*domain.Task),
	}
}

func (r *memBoardRepo) ListColumns(context.Context) ([]*domain.Column, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Column(nil), r.cols...), nil
}

func (r *memBoardRepo) ListTasks(context.Context) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memBoardRepo) GetTask(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *memBoardRepo) CreateTask(_ context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; ok {
		return domain.ErrTaskExists
	}
	known := false
	for _, c := range r.cols {
		known = known || c.ID == t.ColumnID
	}
	if !known {
		return domain.ErrColumnNotFound
	}
	c := *t
	r.tasks[t.ID] = &c
	return nil
}

func (r *memBoardRepo) UpdateTask(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	c := *t
	r.tasks[t.ID] = &c
	return nil
}

func (r *memBoardRepo) DeleteTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}
