package feedback

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers both a missing record and a record owned by a
	// different employee; callers must not be able to tell them apart.
	ErrNotFound = errors.New("feedback not found")

	// ErrEmployeeNotFound is returned when a submit names an id that is not
	// an existing employee-role user.
	ErrEmployeeNotFound = errors.New("employee not found")
)

type Feedback struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	ManagerID    string    `json:"manager_id"`
	Strengths    string    `json:"strengths"`
	Improvements string    `json:"improvements"`
	Sentiment    string    `json:"sentiment"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateRequest struct {
	EmployeeID   string
	ManagerID    string
	Strengths    string
	Improvements string
	Sentiment    string
}

// NewFromCreateRequest builds a record in its initial state:
// acknowledged=false, created_at set once and never mutated after.
func NewFromCreateRequest(req CreateRequest) Feedback {
	return Feedback{
		ID:           uuid.NewString(),
		EmployeeID:   req.EmployeeID,
		ManagerID:    req.ManagerID,
		Strengths:    req.Strengths,
		Improvements: req.Improvements,
		Sentiment:    req.Sentiment,
		Acknowledged: false,
		CreatedAt:    time.Now().UTC(),
	}
}
