package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectWriter struct {
	got    []uint16
	failAt int
	closed bool
}

func (w *collectWriter) WriteRTP(pkt *rtp.Packet) error {
	if w.failAt > 0 && len(w.got)+1 == w.failAt {
		return errors.New("disk full")
	}
	w.got = append(w.got, pkt.SequenceNumber)
	return nil
}

func (w *collectWriter) Close() error {
	w.closed = true
	return nil
}

func TestPumpUntilTrackEnds(t *testing.T) {
	s := NewSink()
	tr := newChanTrack("a", 3)
	for i := uint16(1); i <= 3; i++ {
		tr.pkts <- packet(i)
	}
	close(tr.pkts)
	require.True(t, s.BindTrack(tr))

	w := &collectWriter{}
	logger := zerolog.Nop()
	n, err := Pump(context.Background(), s, w, &logger)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uint16{1, 2, 3}, w.got)
}

func TestPumpStopsOnWriteError(t *testing.T) {
	s := NewSink()
	tr := newChanTrack("a", 3)
	for i := uint16(1); i <= 3; i++ {
		tr.pkts <- packet(i)
	}
	require.True(t, s.BindTrack(tr))

	w := &collectWriter{failAt: 2}
	logger := zerolog.Nop()
	n, err := Pump(context.Background(), s, w, &logger)
	require.EqualError(t, err, "disk full")
	assert.Equal(t, 1, n)
}

func TestPumpCancelled(t *testing.T) {
	s := NewSink()
	require.True(t, s.BindTrack(newChanTrack("idle", 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logger := zerolog.Nop()
	n, err := Pump(ctx, s, Discard, &logger)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecorderWriterFor(t *testing.T) {
	tr := newChanTrack("a", 0)

	w, err := Recorder{}.WriterFor("sid-1", tr)
	require.NoError(t, err)
	assert.Equal(t, Discard, w)

	dir := filepath.Join(t.TempDir(), "rec")
	w, err = Recorder{Dir: dir}.WriterFor("sid-1", tr)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = os.Stat(filepath.Join(dir, "sid-1.ogg"))
	assert.NoError(t, err)

	tr.codec.MimeType = webrtc.MimeTypePCMU
	w, err = Recorder{Dir: dir}.WriterFor("sid-2", tr)
	require.NoError(t, err)
	assert.Equal(t, Discard, w)
}

func TestRecorderRunWritesOgg(t *testing.T) {
	s := NewSink()
	tr := newChanTrack("a", 4)
	for i := uint16(1); i <= 4; i++ {
		tr.pkts <- packet(i)
	}
	close(tr.pkts)
	require.True(t, s.BindTrack(tr))

	dir := t.TempDir()
	Recorder{Dir: dir}.Run(context.Background(), "sid-ogg", s)

	info, err := os.Stat(filepath.Join(dir, "sid-ogg.ogg"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
