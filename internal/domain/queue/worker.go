package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openshr/xds-repository/internal/domain/clinical"
	"github.com/openshr/xds-repository/internal/domain/contenthandler"
)

// Processor executes one queued discrete-processing job: it rebuilds the
// provider assignment captured at submission time, fetches the stored
// content, and hands it to the discrete handler registered for the content's
// type and format codes.
type Processor struct {
	store    *clinical.Store
	handlers *contenthandler.Registry
	log      zerolog.Logger
}

func NewProcessor(store *clinical.Store, handlers *contenthandler.Registry, log zerolog.Logger) *Processor {
	return &Processor{store: store, handlers: handlers, log: log}
}

// Process runs the job and marks the item SUCCESSFUL or FAILED on the given
// queue. A failed item is never retried automatically.
func (p *Processor) Process(ctx context.Context, q Store, item *Item) {
	err := p.run(ctx, item)
	if err != nil {
		p.log.Error().Err(err).
			Int64("item_id", item.ID).
			Str("doc_unique_id", item.DocUniqueID).
			Msg("discrete processing failed")
	}
	// outcome is recorded even when the parent context is being torn down
	if cerr := q.Complete(context.WithoutCancel(ctx), item, err == nil); cerr != nil {
		p.log.Error().Err(cerr).Int64("item_id", item.ID).Msg("could not record queue item outcome")
	}
}

func (p *Processor) run(ctx context.Context, item *Item) error {
	byRole, err := HydrateRoleProviderMap(ctx, p.store, item.RoleProviderMap)
	if err != nil {
		return err
	}

	patient, err := p.store.Patients.GetByID(ctx, item.PatientID)
	if err != nil {
		return fmt.Errorf("fetch patient %d: %w", item.PatientID, err)
	}
	encounterType, err := p.store.EncounterTypes.GetByID(ctx, item.EncounterTypeID)
	if err != nil {
		return fmt.Errorf("fetch encounter type %d: %w", item.EncounterTypeID, err)
	}

	content, err := p.handlers.DefaultUnstructuredHandler().FetchContent(ctx, item.DocUniqueID)
	if err != nil {
		return fmt.Errorf("fetch content for document %q: %w", item.DocUniqueID, err)
	}

	h := p.handlers.HandlerFor(content.TypeCode, content.FormatCode)
	if h == nil {
		return fmt.Errorf("no discrete handler registered for type %q format %q",
			content.TypeCode.Code, content.FormatCode.Code)
	}
	if err := h.SaveContent(ctx, patient, byRole, encounterType, content); err != nil {
		return fmt.Errorf("save discrete content for document %q: %w", item.DocUniqueID, err)
	}
	return nil
}

// Supervisor drains the queue with a fixed pool of pollers. Each poller
// sleeps for the poll period when the queue is empty. An optional sweeper
// returns items stuck in PROCESSING back to QUEUED.
type Supervisor struct {
	queue         Store
	proc          *Processor
	workers       int
	pollPeriod    time.Duration
	shutdownGrace time.Duration
	requeueAfter  time.Duration
	log           zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSupervisor(q Store, proc *Processor, workers int, pollPeriod, shutdownGrace, requeueAfter time.Duration, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		queue:         q,
		proc:          proc,
		workers:       workers,
		pollPeriod:    pollPeriod,
		shutdownGrace: shutdownGrace,
		requeueAfter:  requeueAfter,
		log:           log,
	}
}

// Start launches the pollers. They run until Stop is called or the parent
// context is cancelled.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.poll(ctx)
		}()
	}
	if s.requeueAfter > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.sweep(ctx)
		}()
	}
	s.log.Info().Int("workers", s.workers).Dur("poll_period", s.pollPeriod).Msg("queue supervisor started")
}

func (s *Supervisor) poll(ctx context.Context) {
	for {
		item, err := s.queue.DequeueNext(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("dequeue failed")
		} else if item != nil {
			s.proc.Process(ctx, s.queue, item)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.pollPeriod):
		}
	}
}

func (s *Supervisor) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.requeueAfter)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.queue.RequeueStale(ctx, s.requeueAfter)
			if err != nil {
				s.log.Error().Err(err).Msg("stale item sweep failed")
			} else if n > 0 {
				s.log.Warn().Int("requeued", n).Msg("returned stale processing items to the queue")
			}
		}
	}
}

// Stop cancels the pollers and waits up to the shutdown grace period for
// in-flight jobs to finish.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("queue supervisor stopped")
	case <-time.After(s.shutdownGrace):
		s.log.Warn().Dur("grace", s.shutdownGrace).Msg("queue supervisor shutdown grace elapsed with jobs in flight")
	}
}
