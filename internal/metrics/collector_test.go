package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestCollector() *Collector {
	return NewCollector("maestro_test", prometheus.NewRegistry(), zap.NewNop())
}

func TestNewCollector(t *testing.T) {
	c := newTestCollector()
	assert.NotNil(t, c)
	assert.NotNil(t, c.turnsTotal)
	assert.NotNil(t, c.providerRequestsTotal)
	assert.NotNil(t, c.milestonesTotal)
}

func TestCollector_RecordTurn(t *testing.T) {
	c := newTestCollector()

	c.RecordTurn("boardroom", "UXBot", "ok", 800*time.Millisecond)
	c.RecordTurn("boardroom", "UXBot", "ok", 400*time.Millisecond)
	c.RecordTurn("boardroom", "Maestro", "error", time.Second)

	assert.Equal(t, 2, testutil.CollectAndCount(c.turnsTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(c.turnDuration))
}

func TestCollector_RecordProviderRequest(t *testing.T) {
	c := newTestCollector()

	c.RecordProviderRequest("gemini", "gemini-2.0-flash", "ok", 500*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(c.providerRequestsTotal))
}

func TestCollector_RecordSessionAndSynthesis(t *testing.T) {
	c := newTestCollector()

	c.RecordSession("project", "completed", 90*time.Second)
	c.RecordSynthesis(3 * time.Second)
	c.RecordMilestone("done")
	c.RecordMilestone("failed")

	assert.Equal(t, 1, testutil.CollectAndCount(c.sessionsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(c.synthesisDuration))
	assert.Equal(t, 2, testutil.CollectAndCount(c.milestonesTotal))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordSession("boardroom", "completed", time.Second)
		c.RecordTurn("boardroom", "QABot", "ok", time.Second)
		c.RecordProviderRequest("anthropic", "claude", "ok", time.Second)
		c.RecordMilestone("done")
		c.RecordSynthesis(time.Second)
	})
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	c := newTestCollector()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			c.RecordTurn("sandbox", "AudioBot", "ok", 100*time.Millisecond)
			c.RecordProviderRequest("gemini", "gemini-2.0-flash", "ok", 50*time.Millisecond)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Greater(t, testutil.CollectAndCount(c.turnsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(c.providerRequestsTotal), 0)
}
