package forum

import (
	"CodeCollab/models/postgres"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Store persists problems, solutions and resources. Find methods fail with
// ErrNotFound, lists are never nil.
type Store interface {
	SaveProblem(ctx context.Context, p *postgres.Problem) error
	FindProblem(ctx context.Context, id string) (*postgres.Problem, error)
	ListProblems(ctx context.Context) ([]postgres.Problem, error)

	SaveSolution(ctx context.Context, s *postgres.Solution) error
	FindSolution(ctx context.Context, id string) (*postgres.Solution, error)
	ListSolutions(ctx context.Context, problemID, username string) ([]postgres.Solution, error)
	DeleteSolution(ctx context.Context, id string) error

	SaveResource(ctx context.Context, r *postgres.Resource) error
	FindResource(ctx context.Context, id string) (*postgres.Resource, error)
	ListResources(ctx context.Context, category string) ([]postgres.Resource, error)
	DeleteResource(ctx context.Context, id string) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) find(ctx context.Context, dst interface{}, id, what string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(dst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
		}
		return fmt.Errorf("error finding %s %s: %w", what, id, err)
	}
	return nil
}

func (s *GormStore) SaveProblem(ctx context.Context, p *postgres.Problem) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *GormStore) FindProblem(ctx context.Context, id string) (*postgres.Problem, error) {
	var p postgres.Problem
	if err := s.find(ctx, &p, id, "problem"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) ListProblems(ctx context.Context) ([]postgres.Problem, error) {
	problems := []postgres.Problem{}
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&problems).Error; err != nil {
		return nil, fmt.Errorf("error listing problems: %w", err)
	}
	return problems, nil
}

func (s *GormStore) SaveSolution(ctx context.Context, sol *postgres.Solution) error {
	return s.db.WithContext(ctx).Save(sol).Error
}

func (s *GormStore) FindSolution(ctx context.Context, id string) (*postgres.Solution, error) {
	var sol postgres.Solution
	if err := s.find(ctx, &sol, id, "solution"); err != nil {
		return nil, err
	}
	return &sol, nil
}

func (s *GormStore) ListSolutions(ctx context.Context, problemID, username string) ([]postgres.Solution, error) {
	query := s.db.WithContext(ctx).Order("created_at asc")
	if problemID != "" {
		query = query.Where("problem_id = ?", problemID)
	}
	if username != "" {
		query = query.Where("username = ?", username)
	}
	solutions := []postgres.Solution{}
	if err := query.Find(&solutions).Error; err != nil {
		return nil, fmt.Errorf("error listing solutions: %w", err)
	}
	return solutions, nil
}

func (s *GormStore) DeleteSolution(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&postgres.Solution{}).Error
}

func (s *GormStore) SaveResource(ctx context.Context, r *postgres.Resource) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *GormStore) FindResource(ctx context.Context, id string) (*postgres.Resource, error) {
	var r postgres.Resource
	if err := s.find(ctx, &r, id, "resource"); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) ListResources(ctx context.Context, category string) ([]postgres.Resource, error) {
	query := s.db.WithContext(ctx).Order("title asc")
	if category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", category)
	}
	resources := []postgres.Resource{}
	if err := query.Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("error listing resources: %w", err)
	}
	return resources, nil
}

func (s *GormStore) DeleteResource(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&postgres.Resource{}).Error
}

// MemoryStore is the in-process Store used without PostgreSQL
type MemoryStore struct {
	mu        sync.RWMutex
	problems  map[string]postgres.Problem
	solutions map[string]postgres.Solution
	resources map[string]postgres.Resource
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		problems:  make(map[string]postgres.Problem),
		solutions: make(map[string]postgres.Solution),
		resources: make(map[string]postgres.Resource),
	}
}

func (s *MemoryStore) SaveProblem(_ context.Context, p *postgres.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.SolutionIDs = append([]string(nil), p.SolutionIDs...)
	s.problems[p.ID] = cp
	return nil
}

func (s *MemoryStore) FindProblem(_ context.Context, id string) (*postgres.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.problems[id]
	if !ok {
		return nil, fmt.Errorf("%w: problem %s", ErrNotFound, id)
	}
	p.SolutionIDs = append([]string(nil), p.SolutionIDs...)
	return &p, nil
}

func (s *MemoryStore) ListProblems(_ context.Context) ([]postgres.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	problems := make([]postgres.Problem, 0, len(s.problems))
	for _, p := range s.problems {
		problems = append(problems, p)
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].CreatedAt.After(problems[j].CreatedAt) })
	return problems, nil
}

func (s *MemoryStore) SaveSolution(_ context.Context, sol *postgres.Solution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solutions[sol.ID] = *sol
	return nil
}

func (s *MemoryStore) FindSolution(_ context.Context, id string) (*postgres.Solution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sol, ok := s.solutions[id]
	if !ok {
		return nil, fmt.Errorf("%w: solution %s", ErrNotFound, id)
	}
	return &sol, nil
}

func (s *MemoryStore) ListSolutions(_ context.Context, problemID, username string) ([]postgres.Solution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	solutions := []postgres.Solution{}
	for _, sol := range s.solutions {
		if (problemID == "" || sol.ProblemID == problemID) && (username == "" || sol.Username == username) {
			solutions = append(solutions, sol)
		}
	}
	sort.Slice(solutions, func(i, j int) bool { return solutions[i].CreatedAt.Before(solutions[j].CreatedAt) })
	return solutions, nil
}

func (s *MemoryStore) DeleteSolution(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.solutions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SaveResource(_ context.Context, r *postgres.Resource) error {
	s.mu.Lock()
	s.resources[r.ID] = *r
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) FindResource(_ context.Context, id string) (*postgres.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, fmt.Errorf("%w: resource %s", ErrNotFound, id)
	}
	return &r, nil
}

func (s *MemoryStore) ListResources(_ context.Context, category string) ([]postgres.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resources := []postgres.Resource{}
	for _, r := range s.resources {
		if category == "" || equalFold(r.Category, category) {
			resources = append(resources, r)
		}
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Title < resources[j].Title })
	return resources, nil
}

func (s *MemoryStore) DeleteResource(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.resources, id)
	s.mu.Unlock()
	return nil
}
