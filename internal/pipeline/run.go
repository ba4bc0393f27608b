package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of a generation run.
type RunStatus string

const (
	StatusIdle       RunStatus = "idle"
	StatusExtracting RunStatus = "extracting"
	StatusGenerating RunStatus = "generating"
	StatusDone       RunStatus = "done"
	StatusFailed     RunStatus = "failed"
	StatusCanceled   RunStatus = "canceled"
)

// Per-chunk phases reported while generating.
const (
	PhasePrompting  = "prompting"
	PhaseRequesting = "requesting"
	PhaseParsing    = "parsing"
	PhasePersisting = "persisting"
)

const maxRunErrors = 100

// Run tracks the state of one document run. It is safe for concurrent use;
// readers should use Snapshot.
type Run struct {
	mu sync.Mutex

	ID     string
	Input  string
	Output string

	status      RunStatus
	phase       string
	progress    Progress
	contentHash string
	createdAt   time.Time
	updatedAt   time.Time
}

// Progress tracks processing progress.
type Progress struct {
	TotalPages      int      `json:"total_pages"`
	PagesExtracted  int      `json:"pages_extracted"`
	TotalChunks     int      `json:"total_chunks"`
	ChunksProcessed int      `json:"chunks_processed"`
	ChunksSucceeded int      `json:"chunks_succeeded"`
	ChunksFailed    int      `json:"chunks_failed"`
	Pairs           int      `json:"pairs"`
	Errors          []string `json:"errors"`
}

func NewRun(input, output string) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.NewString(),
		Input:     input,
		Output:    output,
		status:    StatusIdle,
		phase:     "idle",
		createdAt: now,
		updatedAt: now,
	}
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.phase = phase
	r.updatedAt = time.Now()
}

func (r *Run) SetPhase(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = phase
	r.updatedAt = time.Now()
}

// Status returns the current status.
func (r *Run) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// AddError records an error. Only the first maxRunErrors are kept.
func (r *Run) AddError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addErrorLocked(msg)
}

func (r *Run) addErrorLocked(msg string) {
	if len(r.progress.Errors) < maxRunErrors {
		r.progress.Errors = append(r.progress.Errors, msg)
	}
	r.updatedAt = time.Now()
}

func (r *Run) SetPages(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress.PagesExtracted = done
	r.progress.TotalPages = total
	r.updatedAt = time.Now()
}

func (r *Run) SetTotalChunks(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress.TotalChunks = n
	r.updatedAt = time.Now()
}

// ChunkSucceeded records a chunk whose pairs were appended to the result set.
func (r *Run) ChunkSucceeded(pairs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress.ChunksProcessed++
	r.progress.ChunksSucceeded++
	r.progress.Pairs += pairs
	r.updatedAt = time.Now()
}

// ChunkFailed records a skipped chunk. index is 0-based.
func (r *Run) ChunkFailed(index int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress.ChunksProcessed++
	r.progress.ChunksFailed++
	r.addErrorLocked(fmt.Sprintf("chunk %d: %s", index+1, err))
}

// SetContentHash records the hash of the extracted text.
func (r *Run) SetContentHash(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contentHash = ContentHashHex([]byte(text))
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID          string    `json:"run_id"`
	Status      RunStatus `json:"status"`
	Phase       string    `json:"phase"`
	Input       string    `json:"input"`
	Output      string    `json:"output"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.progress
	p.Errors = append([]string{}, r.progress.Errors...)
	return RunSnapshot{
		ID:          r.ID,
		Status:      r.status,
		Phase:       r.phase,
		Input:       r.Input,
		Output:      r.Output,
		ContentHash: r.contentHash,
		Progress:    p,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
