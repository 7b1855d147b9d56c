package pipeline

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowstate.dev/cortex/internal/codec"
	"flowstate.dev/cortex/internal/core"
	"flowstate.dev/cortex/internal/log"
	"flowstate.dev/cortex/internal/quality"
)

// mockSource pushes a fixed list of frames and then blocks until cancelled.
type mockSource struct {
	frames [][]byte
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Run(ctx context.Context, frames chan<- core.RawFrame) error {
	for _, data := range m.frames {
		select {
		case frames <- core.RawFrame{Data: data, Timestamp: time.Now()}:
		case <-ctx.Done():
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

// recordingListener collects results in order.
type recordingListener struct {
	mu      sync.Mutex
	results []Result
}

func (r *recordingListener) OnResult(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recordingListener) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *recordingListener) all() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// headbandFrame encodes a synthetic 6 Hz theta frame at the headband rate.
func headbandFrame(t *testing.T, seq uint16, samples int) []byte {
	t.Helper()
	rate := core.Headband.SamplingRate()
	channels := make(core.ChannelSamples, core.Headband.ChannelCount())
	for ch := range channels {
		channels[ch] = make([]float64, samples)
		for i := range channels[ch] {
			channels[ch][i] = 15 * math.Sin(2*math.Pi*6*float64(i)/float64(rate))
		}
	}
	data, err := codec.Encode(core.Headband, seq, channels)
	require.NoError(t, err)
	return data
}

func newTestPipeline(src *mockSource) (*Pipeline, *recordingListener) {
	p := New(Config{
		Source: src,
		Engine: quality.NewEngine(quality.DefaultThresholds()),
		Logger: log.GetLogger(),
	})
	l := &recordingListener{}
	p.Subscribe(l)
	return p, l
}

func TestPipelineEndToEnd(t *testing.T) {
	// Headband frame: 4 channels, 10 samples/channel, sequence 42,
	// 6 Hz content at 500 Hz sampling.
	src := &mockSource{frames: [][]byte{headbandFrame(t, 42, 10)}}
	p, l := newTestPipeline(src)

	p.Start()
	require.Eventually(t, func() bool { return l.count() == 1 },
		time.Second, time.Millisecond)
	p.Stop()

	res := l.all()[0]
	md := res.Packet.Metadata
	assert.Equal(t, core.Headband, md.DeviceClass)
	assert.Equal(t, uint16(42), md.SequenceNumber)
	assert.Equal(t, 500, md.SamplingRate)
	assert.Len(t, res.Packet.Channels, 4)
	for _, ch := range res.Packet.Channels {
		assert.Len(t, ch, 10)
	}
	assert.Greater(t, res.Verdict.Score, 80)
	assert.True(t, res.Stream.IsFirstPacket)
	assert.Equal(t, uint64(1), res.PacketsReceived)
}

func TestPipelineDropAccounting(t *testing.T) {
	src := &mockSource{frames: [][]byte{
		headbandFrame(t, 10, 5),
		headbandFrame(t, 11, 5),
		headbandFrame(t, 15, 5), // 3 lost
	}}
	p, l := newTestPipeline(src)

	p.Start()
	require.Eventually(t, func() bool { return l.count() == 3 },
		time.Second, time.Millisecond)
	p.Stop()

	results := l.all()
	assert.Equal(t, uint32(0), results[1].Stream.DroppedSinceLast)
	assert.Equal(t, uint32(3), results[2].Stream.DroppedSinceLast)
	assert.Equal(t, uint64(3), results[2].PacketsDropped)

	received, dropped := p.Stats()
	assert.Equal(t, uint64(3), received)
	assert.Equal(t, uint64(3), dropped)
}

func TestPipelineRejectsCorruptFrames(t *testing.T) {
	good := headbandFrame(t, 1, 5)
	corrupt := headbandFrame(t, 2, 5)
	corrupt[9] ^= 0xFF // payload flip, checksum untouched

	src := &mockSource{frames: [][]byte{
		good,
		corrupt,
		headbandFrame(t, 3, 5),
		{0xAA}, // too short
	}}
	p, l := newTestPipeline(src)

	p.Start()
	require.Eventually(t, func() bool { return l.count() == 2 },
		time.Second, time.Millisecond)
	p.Stop()

	// The corrupt frame must not advance stream state: 1 -> 3 is a real
	// one-frame gap regardless of the garbage in between.
	results := l.all()
	assert.Equal(t, uint32(1), results[1].Stream.DroppedSinceLast)

	received, _ := p.Stats()
	assert.Equal(t, uint64(2), received, "rejected frames must not count as received")
}

func TestPipelineSubscribeIdempotent(t *testing.T) {
	src := &mockSource{frames: [][]byte{headbandFrame(t, 1, 5)}}
	p, l := newTestPipeline(src)
	p.Subscribe(l) // duplicate, ignored

	p.Start()
	require.Eventually(t, func() bool { return l.count() >= 1 },
		time.Second, time.Millisecond)
	p.Stop()

	assert.Equal(t, 1, l.count(), "one frame must dispatch exactly once")
}

func TestPipelineUnsubscribe(t *testing.T) {
	src := &mockSource{frames: [][]byte{headbandFrame(t, 1, 5)}}
	p, l := newTestPipeline(src)
	p.Unsubscribe(l)

	p.Start()
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	assert.Zero(t, l.count())
}

func TestPipelineStopWithoutFrames(t *testing.T) {
	p, _ := newTestPipeline(&mockSource{})
	p.Start()
	p.Stop()

	received, dropped := p.Stats()
	assert.Zero(t, received)
	assert.Zero(t, dropped)
}
