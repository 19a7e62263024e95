package forum

import (
	"CodeCollab/models/postgres"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }

// Service holds the problem board: problems, their solutions and the
// resource catalog.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) CreateProblem(ctx context.Context, title, description, username string, attachments []postgres.Attachment) (*postgres.Problem, error) {
	title = strings.TrimSpace(title)
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: user must be logged in to post problems", ErrForbidden)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	raw, err := json.Marshal(lo.Ternary(attachments == nil, []postgres.Attachment{}, attachments))
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &postgres.Problem{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Username:    username,
		SolutionIDs: []string{},
		Attachments: datatypes.JSON(raw),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveProblem(ctx, p); err != nil {
		return nil, fmt.Errorf("error saving problem: %w", err)
	}
	log.Printf("[FORUM] %s posted problem %s", username, p.ID)
	return p, nil
}

func (s *Service) GetProblem(ctx context.Context, id string) (*postgres.Problem, error) {
	return s.store.FindProblem(ctx, id)
}

func (s *Service) ListProblems(ctx context.Context) ([]postgres.Problem, error) {
	return s.store.ListProblems(ctx)
}

// CreateSolution stores the solution, then appends its id to the problem.
// The two writes are not atomic: a failure of the second is logged and the
// solution is still returned.
func (s *Service) CreateSolution(ctx context.Context, problemID, username, title, content string) (*postgres.Solution, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: user must be logged in to post solutions", ErrForbidden)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	problem, err := s.store.FindProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sol := &postgres.Solution{
		ID:        uuid.NewString(),
		ProblemID: problem.ID,
		Username:  username,
		Title:     strings.TrimSpace(title),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveSolution(ctx, sol); err != nil {
		return nil, fmt.Errorf("error saving solution: %w", err)
	}

	problem.SolutionIDs = append(problem.SolutionIDs, sol.ID)
	problem.UpdatedAt = now
	if err := s.store.SaveProblem(ctx, problem); err != nil {
		log.Printf("[FORUM-ERROR] Linking solution %s to problem %s: %v", sol.ID, problem.ID, err)
	}
	return sol, nil
}

func (s *Service) GetSolution(ctx context.Context, id string) (*postgres.Solution, error) {
	return s.store.FindSolution(ctx, id)
}

func (s *Service) SolutionsByProblem(ctx context.Context, problemID string) ([]postgres.Solution, error) {
	return s.store.ListSolutions(ctx, problemID, "")
}

func (s *Service) SolutionsByUser(ctx context.Context, username string) ([]postgres.Solution, error) {
	return s.store.ListSolutions(ctx, "", username)
}

// UpdateSolution is restricted to the solution author
func (s *Service) UpdateSolution(ctx context.Context, id, username, title, content string) (*postgres.Solution, error) {
	sol, err := s.store.FindSolution(ctx, id)
	if err != nil {
		return nil, err
	}
	if sol.Username != username {
		return nil, fmt.Errorf("%w: only the author can edit a solution", ErrForbidden)
	}
	if strings.TrimSpace(title) != "" {
		sol.Title = strings.TrimSpace(title)
	}
	if strings.TrimSpace(content) != "" {
		sol.Content = content
	}
	sol.UpdatedAt = s.now()
	if err := s.store.SaveSolution(ctx, sol); err != nil {
		return nil, fmt.Errorf("error saving solution: %w", err)
	}
	return sol, nil
}

// AcceptSolution is restricted to the author of the problem
func (s *Service) AcceptSolution(ctx context.Context, id, username string) (*postgres.Solution, error) {
	sol, err := s.store.FindSolution(ctx, id)
	if err != nil {
		return nil, err
	}
	problem, err := s.store.FindProblem(ctx, sol.ProblemID)
	if err != nil {
		return nil, err
	}
	if problem.Username != username {
		return nil, fmt.Errorf("%w: only the problem author can accept a solution", ErrForbidden)
	}
	sol.IsAccepted = true
	sol.UpdatedAt = s.now()
	if err := s.store.SaveSolution(ctx, sol); err != nil {
		return nil, fmt.Errorf("error saving solution: %w", err)
	}
	return sol, nil
}

// DeleteSolution removes the solution and unlinks it from its problem
func (s *Service) DeleteSolution(ctx context.Context, id, username string) error {
	sol, err := s.store.FindSolution(ctx, id)
	if err != nil {
		return err
	}
	if sol.Username != username {
		return fmt.Errorf("%w: only the author can delete a solution", ErrForbidden)
	}
	if err := s.store.DeleteSolution(ctx, id); err != nil {
		return fmt.Errorf("error deleting solution: %w", err)
	}

	problem, err := s.store.FindProblem(ctx, sol.ProblemID)
	if err != nil {
		log.Printf("[FORUM-ERROR] Unlinking solution %s: %v", id, err)
		return nil
	}
	problem.SolutionIDs = lo.Without([]string(problem.SolutionIDs), id)
	problem.UpdatedAt = s.now()
	if err := s.store.SaveProblem(ctx, problem); err != nil {
		log.Printf("[FORUM-ERROR] Unlinking solution %s from problem %s: %v", id, problem.ID, err)
	}
	return nil
}

func (s *Service) ListResources(ctx context.Context, category string) ([]postgres.Resource, error) {
	return s.store.ListResources(ctx, strings.TrimSpace(category))
}

func (s *Service) GetResource(ctx context.Context, id string) (*postgres.Resource, error) {
	return s.store.FindResource(ctx, id)
}

func (s *Service) SaveResource(ctx context.Context, r *postgres.Resource) (*postgres.Resource, error) {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	if r.Title == "" || r.Category == "" {
		return nil, fmt.Errorf("%w: title and category are required", ErrInvalidInput)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if _, err := s.store.FindResource(ctx, r.ID); err != nil {
		return nil, err
	}
	if err := s.store.SaveResource(ctx, r); err != nil {
		return nil, fmt.Errorf("error saving resource: %w", err)
	}
	return r, nil
}

func (s *Service) DeleteResource(ctx context.Context, id string) error {
	if _, err := s.store.FindResource(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteResource(ctx, id)
}
