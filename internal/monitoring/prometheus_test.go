package monitoring

import (
	"testing"
	"time"
)

func TestRecordHelpersDoNotPanic(t *testing.T) {
	RecordStoreOperation("create_principal", "tenant", 5*time.Millisecond, true)
	RecordStoreOperation("create_principal", "domain", 5*time.Millisecond, false)
	RecordCacheOperation("get", "hit")
	RecordCacheOperation("delete_multiple", "success")
	RecordProvisionOperation("success")
	RecordProvisionOperation("denied")
}
