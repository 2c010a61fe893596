package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 100
	sendTimeout      = 30 * time.Second
)

type Worker struct {
	ID         int
	WorkerPool chan chan *Message
	JobChannel chan *Message
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan *Message, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan *Message),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(*Message)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case msg := <-w.JobChannel:
				w.Logger.Debug("mail worker processing message", "worker_id", w.ID, "kind", msg.Kind)
				processFunc(msg)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Dispatcher delivers messages on a fixed pool of workers fed by a bounded queue.
// Enqueue never blocks: when the queue is full the message is dropped and logged.
type Dispatcher struct {
	renderer *Renderer
	sender   Sender
	logger   *slog.Logger

	jobQueue   chan *Message
	workerPool chan chan *Message
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type DispatcherConfig struct {
	Workers   int
	QueueSize int
}

func NewDispatcher(cfg DispatcherConfig, renderer *Renderer, sender Sender, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = defaultWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Dispatcher{
		renderer:   renderer,
		sender:     sender,
		logger:     logger,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan *Message, queueSize),
		workerPool: make(chan chan *Message, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (d *Dispatcher) Start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.deliver)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("mail dispatcher started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) Enqueue(msg *Message) bool {
	select {
	case d.jobQueue <- msg:
		return true
	default:
		d.logger.Warn("mail queue full, message dropped",
			"kind", msg.Kind,
			"subject", msg.Subject)
		return false
	}
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case msg := <-d.jobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- msg:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			d.logger.Debug("mail dispatcher shutting down")
			return
		}
	}
}

func (d *Dispatcher) deliver(msg *Message) {
	html, err := d.renderer.HTML(msg.Body)
	if err != nil {
		d.logger.Error("failed to render mail", "kind", msg.Kind, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	err = d.sender.Send(ctx, &Email{
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    html,
		Text:    msg.Body,
	})
	if err != nil {
		d.logger.Error("failed to send mail", "kind", msg.Kind, "to", msg.To, "error", err)
		return
	}
	d.logger.Info("mail sent", "kind", msg.Kind, "to", msg.To)
}

// Shutdown stops accepting work and waits for in-flight deliveries until ctx expires.
// Messages still queued are discarded.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("mail dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("mail dispatcher shutdown timed out")
		return ctx.Err()
	}
}
