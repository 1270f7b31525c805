package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(bookingCreated.WithLabelValues(StatusConflict))
	IncBookingCreated(StatusConflict)
	assert.Equal(t, before+1, testutil.ToFloat64(bookingCreated.WithLabelValues(StatusConflict)))

	canceled := testutil.ToFloat64(bookingCanceled)
	IncBookingCanceled()
	assert.Equal(t, canceled+1, testutil.ToFloat64(bookingCanceled))

	hits := testutil.ToFloat64(httpRequests.WithLabelValues("list_bookings"))
	IncHTTP("list_bookings")
	assert.Equal(t, hits+1, testutil.ToFloat64(httpRequests.WithLabelValues("list_bookings")))

	ObserveLockWait(0.002)
	assert.Equal(t, 1, testutil.CollectAndCount(lockWait))
}
