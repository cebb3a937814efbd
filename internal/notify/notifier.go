package notify

import (
	"sync"

	"github.com/devSoft1007/netraAI-sub000/pkg/logging"
)

// Notifier surfaces transient, user-visible notifications for operation
// outcomes. It is the CLI analogue of the web app's toasts.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(msg string) {
	n.logger.Info("notification", "kind", "success", "message", msg)
}

func (n *LogNotifier) Failure(msg string) {
	n.logger.Warn("notification", "kind", "failure", "message", msg)
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *Recorder) Failure(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, msg)
}

// Successes returns a copy of recorded success messages.
func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

// Failures returns a copy of recorded failure messages.
func (r *Recorder) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.failures...)
}
