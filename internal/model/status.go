package model

func canTransition(table map[string][]string, currentStatus, targetStatus string) bool {
	allowedStatuses, exists := table[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}
