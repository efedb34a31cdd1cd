package jobs

import "time"

// FeedbackSubmittedPayload is ID-based and minimal; the worker loads the
// current record and user details from the DB when it runs.
type FeedbackSubmittedPayload struct {
	FeedbackID  string    `json:"feedbackId"`
	EmployeeID  string    `json:"employeeId"`
	ManagerID   string    `json:"managerId"`
	SubmittedAt time.Time `json:"submittedAt"`
	RequestID   string    `json:"requestId,omitempty"` // correlation
}
