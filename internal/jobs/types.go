package jobs

type JobType string

const (
	JobFeedbackSubmitted JobType = "feedback.submitted"
)

// IsValid checks the job type against the known constants.
func (t JobType) IsValid() bool {
	switch t {
	case JobFeedbackSubmitted:
		return true
	default:
		return false
	}
}
