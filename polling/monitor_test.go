// go-pn532-rhizome
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-pn532-rhizome.
//
// go-pn532-rhizome is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-pn532-rhizome is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-pn532-rhizome; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package polling

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pn532 "github.com/ZaparooProject/go-pn532-rhizome"
	testutil "github.com/ZaparooProject/go-pn532-rhizome/internal/testing"
	"github.com/ZaparooProject/go-pn532-rhizome/internal/validation"
)

// createMockDeviceWithTransport creates a device with mock transport for testing
func createMockDeviceWithTransport(t *testing.T) (*pn532.Device, *pn532.MockTransport) {
	t.Helper()
	mockTransport := pn532.NewMockTransport()
	device, err := pn532.New(mockTransport)
	require.NoError(t, err)
	return device, mockTransport
}

// runMonitor starts Run in the background and returns a function that stops it
func runMonitor(t *testing.T, monitor *Monitor) (context.Context, func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- monitor.Run(ctx)
	}()
	return ctx, func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(time.Second):
			t.Fatal("monitor did not stop")
			return nil
		}
	}
}

// step waits for the loop to sleep and then wakes it up after d
func step(ctx context.Context, t *testing.T, clock *clockwork.FakeClock, d time.Duration) {
	t.Helper()
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(d)
}

func TestConfig(t *testing.T) {
	t.Parallel()

	validate := validation.MustNew()

	t.Run("Defaults", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		assert.Equal(t, 100*time.Millisecond, cfg.PollTimeout)
		assert.Equal(t, 100*time.Millisecond, cfg.ScanInterval)
		assert.Equal(t, time.Second, cfg.RemovalPause)
		assert.False(t, cfg.RepeatSuppression)
		assert.NoError(t, cfg.Validate(validate))
	})

	t.Run("ZeroPollTimeout", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.PollTimeout = 0
		assert.Error(t, cfg.Validate(validate))
	})

	t.Run("NegativePause", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.RemovalPause = -time.Second
		assert.Error(t, cfg.Validate(validate))
	})
}

func TestNewMonitor(t *testing.T) {
	t.Parallel()
	device, _ := createMockDeviceWithTransport(t)

	t.Run("WithDefaultConfig", func(t *testing.T) {
		t.Parallel()
		monitor := NewMonitor(device, nil)

		require.NotNil(t, monitor)
		assert.Equal(t, DefaultConfig(), monitor.config)
		assert.NotNil(t, monitor.clock)
		assert.NotNil(t, monitor.logger)
		assert.Equal(t, StateIdle, monitor.GetState().DetectionState)
	})

	t.Run("WithOptions", func(t *testing.T) {
		t.Parallel()
		clock := clockwork.NewFakeClock()
		config := &Config{PollTimeout: 50 * time.Millisecond}
		monitor := NewMonitor(device, config, WithClock(clock))

		assert.Same(t, config, monitor.config)
		assert.Equal(t, clock, monitor.clock)
	})
}

func TestPollOnce(t *testing.T) {
	t.Parallel()

	t.Run("TagPresent", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.SetResponse(testutil.CmdInListPassiveTarget,
			testutil.BuildTagDetectionResponse("NTAG213", testutil.TestNTAG213UID))

		tag, err := NewMonitor(device, nil).PollOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, testutil.TestNTAG213UID, tag.UIDBytes)
		assert.Equal(t, "04ABCDEF123456", tag.UID)
		assert.Equal(t, []pn532.MockCall{
			{Cmd: testutil.CmdInListPassiveTarget, Args: []byte{0x01, 0x00}},
		}, mock.History())
	})

	t.Run("EmptyField", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.SetResponse(testutil.CmdInListPassiveTarget, testutil.BuildNoTagResponse())

		_, err := NewMonitor(device, nil).PollOnce(context.Background())

		assert.ErrorIs(t, err, ErrNoTagInPoll)
	})

	t.Run("TransportTimeout", func(t *testing.T) {
		t.Parallel()
		device, _ := createMockDeviceWithTransport(t)

		_, err := NewMonitor(device, nil).PollOnce(context.Background())

		assert.ErrorIs(t, err, ErrNoTagInPoll)
	})

	t.Run("PollTimeoutElapses", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.SetDelay(time.Second)
		config := DefaultConfig()
		config.PollTimeout = 10 * time.Millisecond

		start := time.Now()
		_, err := NewMonitor(device, config).PollOnce(context.Background())

		assert.ErrorIs(t, err, ErrNoTagInPoll)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("DriverFailure", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.SetError(testutil.CmdInListPassiveTarget, pn532.ErrTransportRead)

		_, err := NewMonitor(device, nil).PollOnce(context.Background())

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoTagInPoll)
		assert.ErrorIs(t, err, pn532.ErrTransportRead)
	})

	t.Run("ParentCancelled", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.SetDelay(time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewMonitor(device, nil).PollOnce(ctx)

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoTagInPoll)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRun_NoTagRepeatsScanInterval(t *testing.T) {
	t.Parallel()

	const iterations = 25
	device, mock := createMockDeviceWithTransport(t)
	mock.SetResponse(testutil.CmdInListPassiveTarget, testutil.BuildNoTagResponse())
	clock := clockwork.NewFakeClock()

	var detected atomic.Int32
	monitor := NewMonitor(device, nil, WithClock(clock))
	monitor.OnCardDetected = func(*pn532.DetectedTag) error {
		detected.Add(1)
		return nil
	}

	ctx, stop := runMonitor(t, monitor)
	for i := 0; i < iterations; i++ {
		step(ctx, t, clock, 100*time.Millisecond)
	}
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	assert.Equal(t, iterations+1, mock.GetCallCount(testutil.CmdInListPassiveTarget))
	state := monitor.GetState()
	assert.Equal(t, uint64(iterations+1), state.Misses)
	assert.Zero(t, state.Detections)
	assert.False(t, state.Present)
	assert.Zero(t, detected.Load())

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestRun_DetectionPausesAndRepeats(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	mock.SetResponse(testutil.CmdInListPassiveTarget,
		testutil.BuildTagDetectionResponse("MIFARE1K", testutil.TestMIFARE1KUID))
	clock := clockwork.NewFakeClock()

	var (
		mu   sync.Mutex
		uids []string
	)
	monitor := NewMonitor(device, nil, WithClock(clock))
	monitor.OnCardDetected = func(tag *pn532.DetectedTag) error {
		mu.Lock()
		defer mu.Unlock()
		uids = append(uids, tag.UID)
		return nil
	}

	ctx, stop := runMonitor(t, monitor)

	// first detection, sleeping through the removal pause
	step(ctx, t, clock, time.Second)
	// scan interval after the removal pause
	step(ctx, t, clock, 100*time.Millisecond)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	state := monitor.GetState()
	assert.Equal(t, StateRemovalPause, state.DetectionState)
	assert.Equal(t, uint64(2), state.Detections)
	assert.Equal(t, "12345678", state.LastUID)
	assert.True(t, state.Present)

	mu.Lock()
	assert.Equal(t, []string{"12345678", "12345678"}, uids)
	mu.Unlock()

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestRun_RepeatSuppression(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	tag := testutil.BuildTagDetectionResponse("NTAG213", testutil.TestNTAG213UID)
	mock.QueueResponses(testutil.CmdInListPassiveTarget, tag, tag, testutil.BuildNoTagResponse(), tag)
	clock := clockwork.NewFakeClock()

	config := DefaultConfig()
	config.RepeatSuppression = true

	var (
		mu      sync.Mutex
		results []PollResult
	)
	monitor := NewMonitor(device, config, WithClock(clock))
	monitor.OnPoll = func(result PollResult, _ error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, result)
	}

	ctx, stop := runMonitor(t, monitor)
	step(ctx, t, clock, config.RemovalPause)
	step(ctx, t, clock, config.ScanInterval)
	step(ctx, t, clock, config.ScanInterval)
	step(ctx, t, clock, config.ScanInterval)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	mu.Lock()
	assert.Equal(t, []PollResult{ResultHit, ResultSuppressed, ResultMiss, ResultHit}, results)
	mu.Unlock()
	assert.Equal(t, uint64(2), monitor.GetState().Detections)

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestRun_DriverErrorsAreTransient(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	mock.SetError(testutil.CmdInListPassiveTarget, pn532.ErrCommunicationFailed)
	clock := clockwork.NewFakeClock()

	var failures atomic.Int32
	monitor := NewMonitor(device, nil, WithClock(clock))
	monitor.OnPoll = func(result PollResult, err error) {
		if result == ResultError && errors.Is(err, pn532.ErrCommunicationFailed) {
			failures.Add(1)
		}
	}
	monitor.OnCardDetected = func(*pn532.DetectedTag) error {
		t.Error("no tag should be reported")
		return nil
	}

	ctx, stop := runMonitor(t, monitor)
	step(ctx, t, clock, 100*time.Millisecond)
	step(ctx, t, clock, 100*time.Millisecond)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	assert.Equal(t, int32(3), failures.Load())
	assert.Equal(t, uint64(3), monitor.GetState().Errors)

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestRun_CallbackErrorDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	mock.SetResponse(testutil.CmdInListPassiveTarget,
		testutil.BuildTagDetectionResponse("NTAG213", testutil.TestNTAG213UID))
	clock := clockwork.NewFakeClock()

	monitor := NewMonitor(device, nil, WithClock(clock))
	monitor.OnCardDetected = func(*pn532.DetectedTag) error {
		return errors.New("display unavailable")
	}

	ctx, stop := runMonitor(t, monitor)
	step(ctx, t, clock, time.Second)
	step(ctx, t, clock, 100*time.Millisecond)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, uint64(2), monitor.GetState().Detections)

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestRun_AlreadyCancelled(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMonitor(device, nil).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, mock.GetCallCount(testutil.CmdInListPassiveTarget))
}

func TestStateStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "tag detected", StateTagDetected.String())
	assert.Equal(t, "removal pause", StateRemovalPause.String())
	assert.Equal(t, "DetectionState(7)", DetectionState(7).String())
	assert.Equal(t, "miss", ResultMiss.String())
	assert.Equal(t, "hit", ResultHit.String())
	assert.Equal(t, "suppressed", ResultSuppressed.String())
	assert.Equal(t, "error", ResultError.String())
}
