package match

import (
	"runtime"
	"sync"
	"time"
)

// waveSize is how many files are dispatched before the worker count is
// reconsidered.
const waveSize = 256

// limiter adjusts the worker count between waves based on observed
// throughput. It grows while adding workers keeps paying off and backs
// off when throughput drops, which keeps slow storage from being
// hammered by too many concurrent readers.
type limiter struct {
	min, max int
	current  int
	lastRate float64
}

func newLimiter(min, max int) *limiter {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	current := runtime.NumCPU()
	if current < min {
		current = min
	}
	if current > max {
		current = max
	}
	return &limiter{min: min, max: max, current: current}
}

func (l *limiter) workers() int { return l.current }

// observe records a completed wave and adjusts the worker count: a clear
// speedup earns one more worker, a clear slowdown gives one back.
func (l *limiter) observe(files int, elapsed time.Duration) {
	if files == 0 || elapsed <= 0 {
		return
	}
	rate := float64(files) / elapsed.Seconds()
	if l.lastRate > 0 {
		switch {
		case rate >= l.lastRate*1.05 && l.current < l.max:
			l.current++
		case rate < l.lastRate*0.9 && l.current > l.min:
			l.current--
		}
	}
	l.lastRate = rate
}

// task is one file to examine in a wave. index addresses the shared
// result slot so workers never contend on assembly.
type task struct {
	index int
	path  string
	size  int64
	heavy bool
}

type taskResult struct {
	digest string
	size   int64
	err    error
}

// runWave processes one wave of tasks. Heavy tasks run on a smaller pool
// so a few giant files cannot occupy every worker while small files
// queue behind them.
func runWave(tasks []task, workers int, results []taskResult, fn func(task) taskResult) {
	var light, heavy []task
	for _, t := range tasks {
		if t.heavy {
			heavy = append(heavy, t)
		} else {
			light = append(light, t)
		}
	}

	heavyWorkers := workers / 4
	if heavyWorkers < 1 {
		heavyWorkers = 1
	}
	lightWorkers := workers - heavyWorkers
	if lightWorkers < 1 {
		lightWorkers = 1
	}
	if len(heavy) == 0 {
		lightWorkers = workers
	}

	var wg sync.WaitGroup
	runPool(&wg, light, lightWorkers, results, fn)
	runPool(&wg, heavy, heavyWorkers, results, fn)
	wg.Wait()
}

// runPool starts up to workers goroutines draining a preloaded channel,
// each writing its result into the slot the task names.
func runPool(wg *sync.WaitGroup, tasks []task, workers int, results []taskResult, fn func(task) taskResult) {
	if len(tasks) == 0 {
		return
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	jobs := make(chan task, len(tasks))
	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				results[t.index] = fn(t)
			}
		}()
	}
}
