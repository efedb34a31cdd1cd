package notifications

import "context"

type SendFeedbackSubmittedInput struct {
	Email       string
	Name        string
	ManagerName string
	FeedbackID  string
}

type Notifier interface {
	SendFeedbackSubmitted(ctx context.Context, input SendFeedbackSubmittedInput) error
}
