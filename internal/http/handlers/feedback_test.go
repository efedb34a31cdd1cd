package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamloop/feedbackhub/internal/domain/feedback"
	"github.com/teamloop/feedbackhub/internal/domain/job"
	"github.com/teamloop/feedbackhub/internal/domain/user"
	"github.com/teamloop/feedbackhub/internal/http/middlewares"
	"github.com/teamloop/feedbackhub/internal/jobs"
)

type fakeFeedbackStore struct {
	createErr error
	created   []feedback.CreateRequest

	listEmployee []feedback.Feedback
	listManager  []feedback.Feedback
	listErr      error

	ackErr   error
	ackCalls []ackCall
}

type ackCall struct {
	id         string
	employeeID string
	value      bool
}

func (f *fakeFeedbackStore) Create(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error) {
	if f.createErr != nil {
		return feedback.Feedback{}, f.createErr
	}
	f.created = append(f.created, req)
	return feedback.NewFromCreateRequest(req), nil
}

func (f *fakeFeedbackStore) ListForEmployee(ctx context.Context, employeeID string) ([]feedback.Feedback, error) {
	return f.listEmployee, f.listErr
}

func (f *fakeFeedbackStore) ListForManager(ctx context.Context, managerID string) ([]feedback.Feedback, error) {
	return f.listManager, f.listErr
}

func (f *fakeFeedbackStore) SetAcknowledged(ctx context.Context, id, employeeID string, acknowledged bool) error {
	if f.ackErr != nil {
		return f.ackErr
	}
	f.ackCalls = append(f.ackCalls, ackCall{id: id, employeeID: employeeID, value: acknowledged})
	return nil
}

type fakeEnqueuer struct {
	err  error
	jobs []job.CreateRequest
}

func (f *fakeEnqueuer) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	if f.err != nil {
		return job.Job{}, f.err
	}
	f.jobs = append(f.jobs, req)
	return job.New(req), nil
}

// serveAs mounts a single handler behind an identity-injecting middleware so
// tests can act as a given user without minting tokens.
func serveAs(u user.User, method, path string, h gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		middlewares.SetIdentity(c, u)
	}, h)

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var (
	testManager  = user.User{ID: "mgr-1", Name: "Morgan", Email: "morgan@example.com", Role: user.RoleManager}
	testEmployee = user.User{ID: "emp-1", Name: "Evan", Email: "evan@example.com", Role: user.RoleEmployee}
)

func TestSubmitFeedback(t *testing.T) {
	valid := `{"employee_id":"emp-1","strengths":"ships fast","improvements":"more tests","sentiment":"positive"}`

	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			body:       valid,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown employee",
			body:       valid,
			createErr:  feedback.ErrEmployeeNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "employee_not_found",
		},
		{
			name:       "missing sentiment",
			body:       `{"employee_id":"emp-1","strengths":"ships fast","improvements":"more tests"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "store failure",
			body:       valid,
			createErr:  errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeFeedbackStore{createErr: tc.createErr}
			enq := &fakeEnqueuer{}
			h := NewFeedbackHandler(store, enq, nil, nil)

			w := serveAs(testManager, http.MethodPost, "/api/feedback", h.Submit, tc.body)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.wantStatus, w.Body.String())
			}

			if tc.wantStatus != http.StatusOK {
				if got := errorCode(t, w); got != tc.wantCode {
					t.Fatalf("error code = %q, want %q", got, tc.wantCode)
				}
				if len(enq.jobs) != 0 {
					t.Fatal("notification enqueued on failed submit")
				}
				return
			}

			var fb feedback.Feedback
			if err := json.Unmarshal(w.Body.Bytes(), &fb); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if fb.ID == "" {
				t.Fatal("response missing feedback id")
			}
			if fb.ManagerID != testManager.ID {
				t.Fatalf("manager_id = %q, want submitter %q", fb.ManagerID, testManager.ID)
			}
			if fb.Acknowledged {
				t.Fatal("new feedback must start unacknowledged")
			}

			if len(store.created) != 1 || store.created[0].ManagerID != testManager.ID {
				t.Fatalf("unexpected create calls: %+v", store.created)
			}
			if len(enq.jobs) != 1 || enq.jobs[0].Type != string(jobs.JobFeedbackSubmitted) {
				t.Fatalf("unexpected enqueued jobs: %+v", enq.jobs)
			}
		})
	}
}

func TestSubmitSurvivesEnqueueFailure(t *testing.T) {
	store := &fakeFeedbackStore{}
	enq := &fakeEnqueuer{err: errors.New("queue down")}
	h := NewFeedbackHandler(store, enq, nil, nil)

	w := serveAs(testManager, http.MethodPost, "/api/feedback", h.Submit,
		`{"employee_id":"emp-1","strengths":"s","improvements":"i","sentiment":"neutral"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; a queue outage must not fail the submit", w.Code)
	}
}

func TestSubmitWithoutIdentity(t *testing.T) {
	h := NewFeedbackHandler(&fakeFeedbackStore{}, nil, nil, nil)

	r := gin.New()
	r.POST("/api/feedback", h.Submit)

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestListForEmployee(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeFeedbackStore{
		listEmployee: []feedback.Feedback{
			{ID: "fb-2", EmployeeID: testEmployee.ID, ManagerID: "mgr-1", CreatedAt: now},
			{ID: "fb-1", EmployeeID: testEmployee.ID, ManagerID: "mgr-1", CreatedAt: now.Add(-time.Hour)},
		},
	}
	h := NewFeedbackHandler(store, nil, nil, nil)

	w := serveAs(testEmployee, http.MethodGet, "/api/feedback/employee", h.ListForEmployee, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var items []feedback.Feedback
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(items) != 2 || items[0].ID != "fb-2" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestListForEmployeeEmpty(t *testing.T) {
	h := NewFeedbackHandler(&fakeFeedbackStore{listEmployee: []feedback.Feedback{}}, nil, nil, nil)

	w := serveAs(testEmployee, http.MethodGet, "/api/feedback/employee", h.ListForEmployee, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	// empty list, not null
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Fatalf("body = %s, want []", got)
	}
}

func TestListForManager(t *testing.T) {
	store := &fakeFeedbackStore{
		listManager: []feedback.Feedback{
			{ID: "fb-1", EmployeeID: "emp-1", ManagerID: testManager.ID},
		},
	}
	h := NewFeedbackHandler(store, nil, nil, nil)

	w := serveAs(testManager, http.MethodGet, "/api/feedback/manager", h.ListForManager, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var items []feedback.Feedback
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(items) != 1 || items[0].ManagerID != testManager.ID {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestAcknowledge(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ackErr     error
		wantStatus int
		wantCode   string
		wantCall   *ackCall
	}{
		{
			name:       "acknowledge true",
			body:       `{"feedback_id":"fb-1","acknowledged":true}`,
			wantStatus: http.StatusOK,
			wantCall:   &ackCall{id: "fb-1", employeeID: testEmployee.ID, value: true},
		},
		{
			name:       "acknowledge false is a valid value",
			body:       `{"feedback_id":"fb-1","acknowledged":false}`,
			wantStatus: http.StatusOK,
			wantCall:   &ackCall{id: "fb-1", employeeID: testEmployee.ID, value: false},
		},
		{
			name:       "missing acknowledged field",
			body:       `{"feedback_id":"fb-1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "not found or not owned",
			body:       `{"feedback_id":"fb-404","acknowledged":true}`,
			ackErr:     feedback.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "feedback_not_found",
		},
		{
			name:       "store failure",
			body:       `{"feedback_id":"fb-1","acknowledged":true}`,
			ackErr:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeFeedbackStore{ackErr: tc.ackErr}
			h := NewFeedbackHandler(store, nil, nil, nil)

			w := serveAs(testEmployee, http.MethodPut, "/api/feedback/acknowledge", h.Acknowledge, tc.body)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.wantStatus, w.Body.String())
			}

			if tc.wantStatus == http.StatusOK {
				body := decodeBody(t, w)
				if body["detail"] != "Acknowledged successfully" {
					t.Fatalf("unexpected body: %s", w.Body.String())
				}
				if len(store.ackCalls) != 1 || store.ackCalls[0] != *tc.wantCall {
					t.Fatalf("ack calls = %+v, want %+v", store.ackCalls, *tc.wantCall)
				}
				return
			}

			if got := errorCode(t, w); got != tc.wantCode {
				t.Fatalf("error code = %q, want %q", got, tc.wantCode)
			}
		})
	}
}
