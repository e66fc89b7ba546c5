package attest

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/chainvault/internal/logging"
	"github.com/dmitrijs2005/chainvault/internal/server/repositories/filerecords"
)

// Job is one pending attestation: a record awaiting its verified flag.
type Job struct {
	RecordID string
	CID      string
}

// Invalidator drops a cached verification verdict after the underlying
// record changes. A nil Invalidator disables invalidation.
type Invalidator interface {
	Invalidate(ctx context.Context, cid string) error
}

// Driver runs attestation jobs on a fixed pool of workers behind a
// buffered queue. Jobs that fail are logged and dropped; the record
// simply stays unverified. There is no retry here, callers re-upload
// or re-attest through their own flows.
type Driver struct {
	attestor   Attestor
	records    filerecords.Repository
	inv        Invalidator
	logger     logging.Logger
	jobTimeout time.Duration

	jobs    chan Job
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

// NewDriver sizes the pool queue and binds the collaborators. workers
// and queueSize below 1 are clamped to 1.
func NewDriver(attestor Attestor, records filerecords.Repository, inv Invalidator, logger logging.Logger, workers, queueSize int, jobTimeout time.Duration) *Driver {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Driver{
		attestor:   attestor,
		records:    records,
		inv:        inv,
		logger:     logger,
		jobTimeout: jobTimeout,
		jobs:       make(chan Job, queueSize),
	}
	d.start(workers)
	return d
}

func (d *Driver) start(workers int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for job := range d.jobs {
				d.process(job)
			}
		}()
	}
	d.logger.Info(context.Background(), "attestation pool started", "workers", workers, "queue", cap(d.jobs))
}

// AttestAsync enqueues a job without blocking. When the queue is full
// the job is dropped with a warning and the record stays unverified.
// The mutex is held across the send so Stop cannot close the channel
// between the stopped check and the enqueue.
func (d *Driver) AttestAsync(job Job) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.logger.Warn(context.Background(), "attestation dropped, driver stopped", "record_id", job.RecordID)
		return
	}
	var dropped bool
	select {
	case d.jobs <- job:
	default:
		dropped = true
	}
	d.mu.Unlock()

	if dropped {
		d.logger.Warn(context.Background(), "attestation dropped, queue full", "record_id", job.RecordID, "cid", job.CID)
	}
}

func (d *Driver) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()

	// The digest is computed here, before any collaborator call, so a
	// real ledger backend receives the same bytes the simulated one does.
	txHash, err := d.attestor.Attest(ctx, Digest(job.CID))
	if err != nil {
		d.logger.Error(ctx, "attestation failed", "record_id", job.RecordID, "cid", job.CID, "error", err)
		return
	}

	if err := d.records.MarkVerified(ctx, job.RecordID); err != nil {
		d.logger.Error(ctx, "marking record verified failed", "record_id", job.RecordID, "error", err)
		return
	}

	if d.inv != nil {
		if err := d.inv.Invalidate(ctx, job.CID); err != nil {
			d.logger.Warn(ctx, "cache invalidation failed", "cid", job.CID, "error", err)
		}
	}

	d.logger.Info(ctx, "record attested", "record_id", job.RecordID, "cid", job.CID, "tx_hash", txHash)
}

// Stop closes the queue and waits for in-flight jobs to drain, bounded
// by ctx.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
