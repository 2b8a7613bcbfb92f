package configs

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/homeboard/internal/metrics"
)

const (
	logEventConfigurationSaved      = "configuration_saved"
	logEventConfigurationSaveFailed = "configuration_save_failed"
	logEventConfigurationSuperseded = "configuration_save_superseded"
	logFieldConfigurationName       = "config_name"
)

// SaveRecorder receives the outcome of every dispatched save.
type SaveRecorder interface {
	ObserveSave(result string)
}

// AsyncSaver runs saves in the background so the caller never waits on storage.
// Saves for one name run one at a time; a save that is still queued when a newer
// one for the same name is dispatched is dropped, so the stored document always
// follows the order of the dispatches. A name is only tracked while it has saves
// in flight.
type AsyncSaver struct {
	saver    Saver
	logger   *zap.Logger
	recorder SaveRecorder

	mutex     sync.Mutex
	names     map[string]*nameQueue
	waitGroup sync.WaitGroup
}

type nameQueue struct {
	lock     sync.Mutex
	sequence uint64
	pending  int
}

// NewAsyncSaver wraps saver. A nil logger or recorder is allowed.
func NewAsyncSaver(saver Saver, logger *zap.Logger, recorder SaveRecorder) *AsyncSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncSaver{
		saver:    saver,
		logger:   logger,
		recorder: recorder,
		names:    make(map[string]*nameQueue),
	}
}

// Dispatch schedules a save and returns immediately. Names that cannot be
// stored are rejected without being queued.
func (asyncSaver *AsyncSaver) Dispatch(name string, configuration Configuration) {
	if nameErr := ValidateName(name); nameErr != nil {
		asyncSaver.logger.Warn(logEventConfigurationSaveFailed, zap.String(logFieldConfigurationName, name), zap.Error(nameErr))
		asyncSaver.observe(metrics.SaveResultFailed)
		return
	}

	asyncSaver.mutex.Lock()
	queue, exists := asyncSaver.names[name]
	if !exists {
		queue = &nameQueue{}
		asyncSaver.names[name] = queue
	}
	queue.sequence++
	queue.pending++
	sequence := queue.sequence
	asyncSaver.mutex.Unlock()

	asyncSaver.waitGroup.Add(1)
	go func() {
		defer asyncSaver.waitGroup.Done()
		defer asyncSaver.finish(name, queue)
		queue.lock.Lock()
		defer queue.lock.Unlock()
		asyncSaver.run(name, queue, sequence, configuration)
	}()
}

// Wait blocks until every dispatched save has finished.
func (asyncSaver *AsyncSaver) Wait() {
	asyncSaver.waitGroup.Wait()
}

func (asyncSaver *AsyncSaver) run(name string, queue *nameQueue, sequence uint64, configuration Configuration) {
	if asyncSaver.latestSequence(queue) != sequence {
		asyncSaver.logger.Debug(logEventConfigurationSuperseded, zap.String(logFieldConfigurationName, name))
		asyncSaver.observe(metrics.SaveResultSuperseded)
		return
	}

	if saveErr := asyncSaver.saver.Save(context.Background(), name, configuration); saveErr != nil {
		asyncSaver.logger.Error(logEventConfigurationSaveFailed, zap.String(logFieldConfigurationName, name), zap.Error(saveErr))
		asyncSaver.observe(metrics.SaveResultFailed)
		return
	}

	asyncSaver.logger.Info(logEventConfigurationSaved, zap.String(logFieldConfigurationName, name))
	asyncSaver.observe(metrics.SaveResultSucceeded)
}

func (asyncSaver *AsyncSaver) latestSequence(queue *nameQueue) uint64 {
	asyncSaver.mutex.Lock()
	defer asyncSaver.mutex.Unlock()
	return queue.sequence
}

// finish drops the queue of name once its last save is done.
func (asyncSaver *AsyncSaver) finish(name string, queue *nameQueue) {
	asyncSaver.mutex.Lock()
	defer asyncSaver.mutex.Unlock()
	queue.pending--
	if queue.pending == 0 {
		delete(asyncSaver.names, name)
	}
}

func (asyncSaver *AsyncSaver) observe(result string) {
	if asyncSaver.recorder == nil {
		return
	}
	asyncSaver.recorder.ObserveSave(result)
}
