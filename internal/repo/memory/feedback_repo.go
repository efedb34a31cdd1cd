package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/teamloop/feedbackhub/internal/domain/feedback"
	"github.com/teamloop/feedbackhub/internal/domain/user"
)

// FeedbackRepo keeps feedback records in memory with the same semantics the
// postgres repo enforces: employee validation on create, atomic conditional
// acknowledge keyed by id+owner.
type FeedbackRepo struct {
	mu    sync.RWMutex
	items map[string]feedback.Feedback
	users *UsersRepo
}

func NewFeedbackRepo(users *UsersRepo) *FeedbackRepo {
	return &FeedbackRepo{
		items: make(map[string]feedback.Feedback),
		users: users,
	}
}

func (r *FeedbackRepo) Create(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error) {
	if r.users != nil {
		u, err := r.users.GetByID(ctx, req.EmployeeID)
		if err != nil || u.Role != user.RoleEmployee {
			return feedback.Feedback{}, feedback.ErrEmployeeNotFound
		}
	}

	fb := feedback.NewFromCreateRequest(req)

	r.mu.Lock()
	r.items[fb.ID] = fb
	r.mu.Unlock()

	return fb, nil
}

func (r *FeedbackRepo) ListForEmployee(ctx context.Context, employeeID string) ([]feedback.Feedback, error) {
	return r.list(func(fb feedback.Feedback) bool { return fb.EmployeeID == employeeID })
}

func (r *FeedbackRepo) ListForManager(ctx context.Context, managerID string) ([]feedback.Feedback, error) {
	return r.list(func(fb feedback.Feedback) bool { return fb.ManagerID == managerID })
}

func (r *FeedbackRepo) list(keep func(feedback.Feedback) bool) ([]feedback.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]feedback.Feedback, 0)
	for _, fb := range r.items {
		if keep(fb) {
			out = append(out, fb)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *FeedbackRepo) SetAcknowledged(ctx context.Context, id, employeeID string, acknowledged bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fb, ok := r.items[id]
	if !ok || fb.EmployeeID != employeeID {
		// a record owned by someone else is indistinguishable from a missing one
		return feedback.ErrNotFound
	}

	fb.Acknowledged = acknowledged
	r.items[id] = fb
	return nil
}
