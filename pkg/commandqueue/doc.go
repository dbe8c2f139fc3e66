// Package commandqueue is an unbounded FIFO task queue drained by exactly one worker.
//
// Invariants:
// - Items are handled one at a time in submission order; none are lost or reordered.
// - The stop sentinel ends the worker after every item submitted before it.
// - Queue activity is observable through enqueued/completed events and metrics.
//
// Usage:
//
//	queue := commandqueue.New(commandqueue.Config{Logger: logger})
//	_ = queue.Start(ctx, func(ctx context.Context, item commandqueue.Item) error {
//		return nil
//	})
//	_, _ = queue.Submit("run command echo hi")
//	_ = queue.Stop()
//	queue.Wait()
package commandqueue
