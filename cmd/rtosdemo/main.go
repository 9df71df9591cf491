// Command rtosdemo exercises the kernel package end to end on the host
// port: a priority-preemptive producer/consumer built from a priority
// message queue and a binary semaphore the consumer posts after each
// message, driven by the same tick pump a real target's systick
// interrupt would provide.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"rtoscore/internal/buildinfo"
	"rtoscore/kernel"
	"rtoscore/klog"
	"rtoscore/port"
)

func main() {
	var (
		hz        int
		producers int
		version   bool
	)
	flag.IntVar(&hz, "hz", kernel.TickFrequencyHz, "tick rate, Hz")
	flag.IntVar(&producers, "producers", 2, "number of producer threads")
	flag.BoolVar(&version, "version", false, "print build info and exit")
	flag.Parse()

	if version {
		fmt.Println(buildinfo.Full())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, hz, producers); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, hz, producers int) error {
	log := klog.NewStdout()

	p := port.NewHost()
	k := kernel.New(p)
	k.SetLogger(log)
	k.Initialize()

	q, res := k.NewQueue(kernel.QueueAttr{Name: "work", MsgSize: 8, Capacity: 4})
	if res != kernel.OK {
		return fmt.Errorf("new queue: %s", res)
	}
	sink, res := k.NewSemaphore(kernel.SemaphoreAttr{Name: "drained", InitialCount: 0, MaxCount: 1})
	if res != kernel.OK {
		return fmt.Errorf("new semaphore: %s", res)
	}

	for i := 0; i < producers; i++ {
		id := i
		prio := kernel.PriorityNormal
		if id == 0 {
			prio = kernel.PriorityHigh
		}
		t, res := k.NewThread(kernel.ThreadAttr{Name: fmt.Sprintf("producer-%d", id), Priority: prio}, func(any) {
			producerLoop(k, q, log, id)
		}, nil)
		if res != kernel.OK {
			return fmt.Errorf("new producer thread: %s", res)
		}
		k.Start(t)
	}

	consumer, res := k.NewThread(kernel.ThreadAttr{Name: "consumer", Priority: kernel.PriorityAboveNormal}, func(any) {
		consumerLoop(k, q, sink, log)
	}, nil)
	if res != kernel.OK {
		return fmt.Errorf("new consumer thread: %s", res)
	}
	k.Start(consumer)

	go k.Run()

	ticks := port.NewTickSource(hz)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticks.Run(func() {
			k.SystickHandler()
		})
		return nil
	})
	g.Go(func() error {
		rtc := time.NewTicker(time.Second)
		defer rtc.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-rtc.C:
				k.RtcHandler()
			}
		}
	})

	<-gctx.Done()
	ticks.Stop()
	log.WriteLineString("shutting down")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func producerLoop(k *kernel.Kernel, q *kernel.Queue, log klog.Logger, id int) {
	var seq byte
	msg := make([]byte, 8)
	for {
		msg[0] = byte(id)
		msg[1] = seq
		seq++
		if res := q.TimedSend(msg, uint8(id), 50); res != kernel.OK && res != kernel.ErrTimedOut {
			log.WriteLineString(fmt.Sprintf("producer %d: send failed: %s", id, res))
		}
		k.SleepFor(20)
	}
}

func consumerLoop(k *kernel.Kernel, q *kernel.Queue, sink *kernel.Semaphore, log klog.Logger) {
	buf := make([]byte, 8)
	for {
		n, prio, res := q.TimedReceive(buf, 200)
		switch res {
		case kernel.OK:
			log.WriteLineString(fmt.Sprintf("consumer: received %d bytes from producer %d (prio %d)", n, buf[0], prio))
			sink.Post()
		case kernel.ErrTimedOut:
		default:
			log.WriteLineString(fmt.Sprintf("consumer: receive failed: %s", res))
		}
	}
}
