package broadcast

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clatterlab/clatter/internal/common/cnst"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (s *fakeSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("connection reset")
	}
	s.frames = append(s.frames, data)
	return nil
}

func (s *fakeSender) received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

type fakeConns struct {
	senders map[string]*fakeSender
}

func (c *fakeConns) Sender(connID string) (Sender, bool) {
	s, ok := c.senders[connID]
	return s, ok
}

func newTestEngine(t *testing.T, conns *fakeConns, onFailure func(string)) (*Engine, *presence.Registry) {
	t.Helper()
	registry := presence.NewRegistry(zap.NewNop())
	return New(zap.NewNop(), registry, conns, nil, onFailure), registry
}

func TestSendTo_DeliversToAll(t *testing.T) {
	conns := &fakeConns{senders: map[string]*fakeSender{
		"c1": {}, "c2": {},
	}}
	engine, _ := newTestEngine(t, conns, nil)

	engine.SendTo([]string{"c1", "c2"}, cnst.EventNewMessage, map[string]string{"text": "hi"})

	assert.Equal(t, 1, conns.senders["c1"].received())
	assert.Equal(t, 1, conns.senders["c2"].received())
	assert.JSONEq(t, `{"@":"new_message","#":{"text":"hi"}}`, string(conns.senders["c1"].frames[0]))
}

func TestSendTo_FailureDoesNotAbortBatch(t *testing.T) {
	conns := &fakeConns{senders: map[string]*fakeSender{
		"c1": {}, "c2": {fail: true}, "c3": {},
	}}

	var mu sync.Mutex
	var failed []string
	done := make(chan struct{}, 1)
	engine, _ := newTestEngine(t, conns, func(connID string) {
		mu.Lock()
		failed = append(failed, connID)
		mu.Unlock()
		done <- struct{}{}
	})

	engine.SendTo([]string{"c1", "c2", "c3"}, cnst.EventNewMessage, "x")

	assert.Equal(t, 1, conns.senders["c1"].received())
	assert.Equal(t, 1, conns.senders["c3"].received())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disconnect callback was not invoked")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"c2"}, failed)
}

func TestSendTo_UnknownConnectionSkipped(t *testing.T) {
	conns := &fakeConns{senders: map[string]*fakeSender{"c1": {}}}
	engine, _ := newTestEngine(t, conns, func(string) { t.Fatal("no failure expected") })

	engine.SendTo([]string{"gone", "c1"}, cnst.EventSystem, nil)
	assert.Equal(t, 1, conns.senders["c1"].received())
}

func TestSendToRoom_ExcludesAndScopes(t *testing.T) {
	conns := &fakeConns{senders: map[string]*fakeSender{
		"a": {}, "b": {}, "outsider": {},
	}}
	engine, registry := newTestEngine(t, conns, nil)

	registry.Create("a")
	registry.Create("b")
	registry.Create("outsider")
	_, err := registry.Join("a", 7, presence.RankUser)
	require.NoError(t, err)
	_, err = registry.Join("b", 7, presence.RankUser)
	require.NoError(t, err)
	_, err = registry.Join("outsider", 8, presence.RankUser)
	require.NoError(t, err)

	engine.SendToRoom(7, cnst.EventNewMessage, "hi", "a")

	assert.Zero(t, conns.senders["a"].received(), "excluded sender must not receive")
	assert.Equal(t, 1, conns.senders["b"].received())
	assert.Zero(t, conns.senders["outsider"].received(), "other room must not receive")
}
