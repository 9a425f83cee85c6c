package shared

import "fmt"

// DealLockKey builds the redis key that serializes syncs of one deal.
func DealLockKey(dealID string) string {
	return fmt.Sprintf("dealsync:deal:%s:lock", dealID)
}
