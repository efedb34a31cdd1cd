package utils

// Cache keys for the per-identity feedback list responses. Versioned so a
// shape change can invalidate the whole family at once.

func EmployeeFeedbackCacheKey(employeeID string) string {
	return "feedback:list:v1:employee=" + employeeID
}

func ManagerFeedbackCacheKey(managerID string) string {
	return "feedback:list:v1:manager=" + managerID
}
