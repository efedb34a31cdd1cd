package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/teamloop/feedbackhub/internal/domain/feedback"
	"github.com/teamloop/feedbackhub/internal/domain/user"
	"github.com/teamloop/feedbackhub/internal/repo/postgres"
)

func seedUsers(t *testing.T) (*UsersRepo, user.User, user.User, user.User) {
	t.Helper()

	ctx := context.Background()
	users := NewUsersRepo()

	mgr, err := users.Create(ctx, "Morgan", "morgan@example.com", "hash", "", "", user.RoleManager)
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	emp1, err := users.Create(ctx, "Evan", "evan@example.com", "hash", "", "", user.RoleEmployee)
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	emp2, err := users.Create(ctx, "Erin", "erin@example.com", "hash", "", "", user.RoleEmployee)
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return users, mgr, emp1, emp2
}

func TestUsersRepoDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUsersRepo()

	if _, err := users.Create(ctx, "A", "a@example.com", "h", "", "", user.RoleEmployee); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := users.Create(ctx, "B", "a@example.com", "h", "", "", user.RoleManager)
	if !errors.Is(err, postgres.ErrEmailAlreadyUsed) {
		t.Fatalf("err = %v, want ErrEmailAlreadyUsed", err)
	}
}

func TestCreateRejectsNonEmployeeTarget(t *testing.T) {
	ctx := context.Background()
	users, mgr, emp1, _ := seedUsers(t)
	repo := NewFeedbackRepo(users)

	tests := []struct {
		name       string
		employeeID string
	}{
		{name: "unknown id", employeeID: "nope"},
		{name: "manager as target", employeeID: mgr.ID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.Create(ctx, feedback.CreateRequest{
				EmployeeID:   tc.employeeID,
				ManagerID:    mgr.ID,
				Strengths:    "s",
				Improvements: "i",
				Sentiment:    "neutral",
			})
			if !errors.Is(err, feedback.ErrEmployeeNotFound) {
				t.Fatalf("err = %v, want ErrEmployeeNotFound", err)
			}
		})
	}

	// sanity: a real employee target works
	if _, err := repo.Create(ctx, feedback.CreateRequest{
		EmployeeID: emp1.ID, ManagerID: mgr.ID,
		Strengths: "s", Improvements: "i", Sentiment: "positive",
	}); err != nil {
		t.Fatalf("create for employee: %v", err)
	}
}

func TestListsAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	users, mgr, emp1, emp2 := seedUsers(t)
	repo := NewFeedbackRepo(users)

	for _, empID := range []string{emp1.ID, emp1.ID, emp2.ID} {
		if _, err := repo.Create(ctx, feedback.CreateRequest{
			EmployeeID: empID, ManagerID: mgr.ID,
			Strengths: "s", Improvements: "i", Sentiment: "neutral",
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got1, err := repo.ListForEmployee(ctx, emp1.ID)
	if err != nil {
		t.Fatalf("list emp1: %v", err)
	}
	if len(got1) != 2 {
		t.Fatalf("emp1 sees %d records, want 2", len(got1))
	}
	for _, fb := range got1 {
		if fb.EmployeeID != emp1.ID {
			t.Fatalf("emp1 list leaked record for %q", fb.EmployeeID)
		}
	}

	gotMgr, err := repo.ListForManager(ctx, mgr.ID)
	if err != nil {
		t.Fatalf("list manager: %v", err)
	}
	if len(gotMgr) != 3 {
		t.Fatalf("manager sees %d records, want 3", len(gotMgr))
	}

	gotOther, err := repo.ListForManager(ctx, "other-mgr")
	if err != nil {
		t.Fatalf("list other manager: %v", err)
	}
	if len(gotOther) != 0 {
		t.Fatalf("unrelated manager sees %d records, want 0", len(gotOther))
	}
}

func TestSetAcknowledgedOwnership(t *testing.T) {
	ctx := context.Background()
	users, mgr, emp1, emp2 := seedUsers(t)
	repo := NewFeedbackRepo(users)

	fb, err := repo.Create(ctx, feedback.CreateRequest{
		EmployeeID: emp1.ID, ManagerID: mgr.ID,
		Strengths: "s", Improvements: "i", Sentiment: "neutral",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// another employee cannot acknowledge, and cannot tell the record exists
	if err := repo.SetAcknowledged(ctx, fb.ID, emp2.ID, true); !errors.Is(err, feedback.ErrNotFound) {
		t.Fatalf("cross-employee ack err = %v, want ErrNotFound", err)
	}

	// a missing record looks exactly the same
	if err := repo.SetAcknowledged(ctx, "missing", emp1.ID, true); !errors.Is(err, feedback.ErrNotFound) {
		t.Fatalf("missing record ack err = %v, want ErrNotFound", err)
	}

	if err := repo.SetAcknowledged(ctx, fb.ID, emp1.ID, true); err != nil {
		t.Fatalf("owner ack: %v", err)
	}

	got, err := repo.ListForEmployee(ctx, emp1.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || !got[0].Acknowledged {
		t.Fatalf("record not acknowledged after ack: %+v", got)
	}

	// ack is idempotent and can be undone
	if err := repo.SetAcknowledged(ctx, fb.ID, emp1.ID, false); err != nil {
		t.Fatalf("un-ack: %v", err)
	}
	got, _ = repo.ListForEmployee(ctx, emp1.ID)
	if got[0].Acknowledged {
		t.Fatal("record still acknowledged after un-ack")
	}
}
