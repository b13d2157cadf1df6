package auth

import (
	"context"
	"log"
)

// Verifier runs password-hash verification on a bounded worker pool.
// Argon2id is deliberately CPU- and memory-hard; running it inline would let
// a handful of login attempts starve the goroutines serving every other
// request.
type Verifier struct {
	jobs chan verifyJob
	done chan struct{}
}

type verifyJob struct {
	password    string
	encodedHash string
	result      chan verifyResult
}

type verifyResult struct {
	match bool
	err   error
}

// NewVerifier starts a verifier with numWorkers workers.
func NewVerifier(numWorkers int) *Verifier {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	v := &Verifier{
		jobs: make(chan verifyJob),
		done: make(chan struct{}),
	}
	for i := 0; i < numWorkers; i++ {
		go v.worker()
	}
	log.Printf("[auth] started %d password verification workers", numWorkers)
	return v
}

func (v *Verifier) worker() {
	for {
		select {
		case job := <-v.jobs:
			match, err := VerifyPassword(job.password, job.encodedHash)
			// result is buffered, so an abandoned caller never wedges a worker
			job.result <- verifyResult{match: match, err: err}
		case <-v.done:
			return
		}
	}
}

// Verify submits one verification to the pool and waits for its result.
// Returns early if ctx is canceled while queued or in flight.
func (v *Verifier) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	job := verifyJob{
		password:    password,
		encodedHash: encodedHash,
		result:      make(chan verifyResult, 1),
	}

	select {
	case v.jobs <- job:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.match, res.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Close stops the workers. In-flight verifications finish; queued callers
// waiting on a worker will block, so close only after the server has drained.
func (v *Verifier) Close() {
	close(v.done)
}
