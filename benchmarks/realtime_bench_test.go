package benchmarks

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/realtime"
)

// Runtime benchmarks measure the synchronous Step path (command batch plus
// one controller tick) and the cost of queueing commands from many
// goroutines. Wall-clock ticking is left out so results do not depend on the
// ticker resolution.

func BenchmarkRuntimeStep(b *testing.B) {
	for _, batch := range []int{0, 2, 16} {
		b.Run(fmt.Sprintf("commands=%d", batch), func(b *testing.B) {
			c, err := StartedController(25, 16)
			if err != nil {
				b.Fatal(err)
			}
			rt := realtime.NewRuntime(c, realtime.Config{DeltaMs: frameMs, Logger: zerolog.Nop()})
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				// Pause toggles pair up so the procession keeps moving.
				for j := 0; j < batch; j++ {
					if err := rt.Send(realtime.PauseCommand()); err != nil {
						b.Fatal(err)
					}
				}
				rt.Step()
			}
			b.ReportMetric(float64(rt.TickNumber())/b.Elapsed().Seconds(), "ticks/sec")
		})
	}
}

func BenchmarkRuntimeSend(b *testing.B) {
	rt := realtime.NewRuntime(NewController(), realtime.Config{MaxCommandsPerTick: 1 << 14, Logger: zerolog.Nop()})
	workers := 8
	perWorker := b.N / workers
	if perWorker == 0 {
		perWorker = 1
	}
	var wg sync.WaitGroup
	b.ResetTimer()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if i%4096 == 4095 {
					rt.Step()
				}
				_ = rt.Send(realtime.CancelCommand())
			}
		}()
	}
	wg.Wait()
	b.StopTimer()
	rt.Step()
	b.ReportMetric(float64(workers*perWorker)/b.Elapsed().Seconds(), "commands/sec")
}
