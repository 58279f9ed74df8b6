package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-queue-backend/internal/models"
)

// sink collects everything a client's writer delivers.
type sink struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (s *sink) write(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(msg))
	copy(cp, msg)
	s.msgs = append(s.msgs, cp)
	return nil
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *sink) all() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func waitForMessages(t *testing.T, s *sink, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.count() >= n },
		time.Second, 5*time.Millisecond)
}

func TestHub_PublishReachesRoomMembersOnly(t *testing.T) {
	hub := NewHub()

	regSink, admSink := &sink{}, &sink{}
	reg := NewClient(regSink.write)
	adm := NewClient(admSink.write)
	defer hub.Unsubscribe(reg)
	defer hub.Unsubscribe(adm)

	hub.Subscribe(reg, RoomDepartment(models.DepartmentRegistrar))
	hub.Subscribe(adm, RoomDepartment(models.DepartmentAdmissions))

	hub.Publish(RoomDepartment(models.DepartmentRegistrar), map[string]string{"type": "ping"})

	waitForMessages(t, regSink, 1)
	assert.JSONEq(t, `{"type":"ping"}`, string(regSink.all()[0]))

	// The other department's room never sees it.
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, admSink.count())
}

func TestHub_PerClientOrdering(t *testing.T) {
	hub := NewHub()
	s := &sink{}
	c := NewClient(s.write)
	defer hub.Unsubscribe(c)
	hub.Subscribe(c, "room")

	const total = 20
	for i := 0; i < total; i++ {
		hub.Publish("room", map[string]int{"seq": i})
	}

	waitForMessages(t, s, total)
	for i, raw := range s.all() {
		var got struct {
			Seq int `json:"seq"`
		}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, i, got.Seq)
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	s := &sink{}
	c := NewClient(s.write)
	hub.Subscribe(c, "room")
	require.Equal(t, 1, hub.RoomSize("room"))

	hub.Unsubscribe(c)
	assert.Zero(t, hub.RoomSize("room"))
	assert.True(t, c.Closed())

	hub.Publish("room", map[string]string{"type": "ping"})
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, s.count())
}

func TestHub_SlowClientDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()

	// A writer that never returns until released.
	release := make(chan struct{})
	var wrote sync.WaitGroup
	wrote.Add(1)
	var once sync.Once
	stuck := NewClient(func([]byte) error {
		once.Do(wrote.Done)
		<-release
		return errors.New("gone")
	})
	defer close(release)
	defer hub.Unsubscribe(stuck)

	healthySink := &sink{}
	healthy := NewClient(healthySink.write)
	defer hub.Unsubscribe(healthy)

	hub.Subscribe(stuck, "room")
	hub.Subscribe(healthy, "room")

	// Fill the stuck client's queue well past capacity; Publish must
	// stay non-blocking and the healthy client must keep receiving.
	const total = clientQueueSize * 3
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			hub.Publish("room", map[string]int{"seq": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	wrote.Wait()
	waitForMessages(t, healthySink, 1)
}

func TestHub_RoomCountObserver(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	counts := make(map[string]int)
	hub.OnRoomCount(func(room string, n int) {
		mu.Lock()
		counts[room] = n
		mu.Unlock()
	})

	a := NewClient((&sink{}).write)
	b := NewClient((&sink{}).write)
	hub.Subscribe(a, "room")
	hub.Subscribe(b, "room")

	mu.Lock()
	assert.Equal(t, 2, counts["room"])
	mu.Unlock()

	hub.Unsubscribe(a)
	mu.Lock()
	assert.Equal(t, 1, counts["room"])
	mu.Unlock()
	hub.Unsubscribe(b)
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "registrar", RoomDepartment(models.DepartmentRegistrar))
	assert.Equal(t, "registrar:W1", RoomWindow(models.DepartmentRegistrar, "W1"))
}
