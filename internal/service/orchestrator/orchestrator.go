package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// 默认单个生成任务的超时
const defaultJobTimeout = 10 * time.Minute

// Job 一次演示文稿生成
type Job struct {
	PresentationID uint
	EnqueuedAt     time.Time
	// SubmitRetries 协程池提交失败时的剩余重试次数，生成本身不重试
	SubmitRetries int
	Timeout       time.Duration
}

// Executor 执行生成任务
type Executor interface {
	Generate(ctx context.Context, presentationID uint) error
}

// Orchestrator 异步生成任务调度器
type Orchestrator struct {
	jobQueue    *jobQueue
	retryQueue  *jobQueue
	retryTicker *time.Ticker

	pool *ants.Pool

	executor Executor

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	active      map[uint]context.CancelFunc
	activeMutex sync.Mutex
}

var (
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
	ErrQueueFull           = errors.New("job queue is full")
	ErrAlreadyRunning      = errors.New("presentation is already generating")
)

// NewJob 创建生成任务
func NewJob(presentationID uint) *Job {
	return &Job{
		PresentationID: presentationID,
		EnqueuedAt:     time.Now(),
		SubmitRetries:  3,
		Timeout:        defaultJobTimeout,
	}
}

// New 创建调度器，workers 为并发生成数，queueSize 为排队上限
func New(workers, queueSize int, executor Executor) (*Orchestrator, error) {
	ctx, cancel := context.WithCancel(context.Background())

	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(1),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		cancel()
		klog.Errorf("[Orchestrator] 协程池初始化失败: %v", err)
		return nil, err
	}

	return &Orchestrator{
		jobQueue:    newJobQueue(queueSize),
		retryQueue:  newJobQueue(queueSize),
		retryTicker: time.NewTicker(500 * time.Millisecond),
		pool:        pool,
		active:      make(map[uint]context.CancelFunc),
		executor:    executor,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func (o *Orchestrator) Start() {
	go o.dispatchLoop()
	go o.processRetryQueue()
}

// Stop 停止接收新任务，等待运行中的任务结束
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		klog.V(6).Infof("[Orchestrator] 正在停止")
		o.cancel()
		o.jobQueue.Close()
		o.retryQueue.Close()

		if running := o.pool.Running(); running > 0 {
			klog.V(6).Infof("[Orchestrator] 等待运行中的任务: running=%d", running)
		}
		if err := o.pool.ReleaseTimeout(defaultJobTimeout + time.Minute); err != nil {
			klog.Warningf("[Orchestrator] 等待任务结束超时: %v", err)
		}
		klog.V(6).Infof("[Orchestrator] 已停止")
	})
}

// Enqueue 加入生成队列，队列满时拒绝
func (o *Orchestrator) Enqueue(job *Job) error {
	select {
	case <-o.ctx.Done():
		return ErrOrchestratorStopped
	default:
	}

	o.activeMutex.Lock()
	_, running := o.active[job.PresentationID]
	o.activeMutex.Unlock()
	if running {
		return ErrAlreadyRunning
	}

	if err := o.jobQueue.Enqueue(job); err != nil {
		if errors.Is(err, ErrQueueFull) {
			klog.Warningf("[Orchestrator] 队列已满: presentationID=%d", job.PresentationID)
		}
		return err
	}
	klog.V(6).Infof("[Orchestrator] 任务入队: presentationID=%d", job.PresentationID)
	return nil
}

// Cancel 取消正在执行的生成任务，没有对应任务时返回 false
func (o *Orchestrator) Cancel(presentationID uint) bool {
	o.activeMutex.Lock()
	cancel, ok := o.active[presentationID]
	o.activeMutex.Unlock()
	if !ok {
		return false
	}
	klog.V(6).Infof("[Orchestrator] 取消任务: presentationID=%d", presentationID)
	cancel()
	return true
}

func (o *Orchestrator) register(id uint, cancel context.CancelFunc) {
	o.activeMutex.Lock()
	defer o.activeMutex.Unlock()
	o.active[id] = cancel
}

func (o *Orchestrator) unregister(id uint) {
	o.activeMutex.Lock()
	defer o.activeMutex.Unlock()
	delete(o.active, id)
}

func (o *Orchestrator) dispatchLoop() {
	for {
		job, ok := o.jobQueue.Dequeue()
		if !ok {
			return
		}
		o.tryDispatch(job)
	}
}

func (o *Orchestrator) processRetryQueue() {
	defer o.retryTicker.Stop()
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("[Orchestrator] 重试循环 panic: %v", r)
		}
	}()
	for {
		select {
		case <-o.ctx.Done():
			return
		case <-o.retryTicker.C:
			for range 10 {
				job, ok := o.retryQueue.TryDequeue()
				if !ok {
					break
				}
				o.tryDispatch(job)
			}
		}
	}
}

// tryDispatch 提交到协程池，池满时阻塞等待空闲 worker，提交出错时放入重试队列
func (o *Orchestrator) tryDispatch(job *Job) {
	err := o.pool.Submit(func() {
		o.executeJob(job)
	})
	if err == nil {
		return
	}
	klog.Warningf("[Orchestrator] 提交任务失败: presentationID=%d, err=%v", job.PresentationID, err)

	if job.SubmitRetries <= 0 {
		klog.Errorf("[Orchestrator] 提交重试已达上限，放弃任务: presentationID=%d", job.PresentationID)
		return
	}
	job.SubmitRetries--
	if err := o.retryQueue.Enqueue(job); err != nil {
		klog.Errorf("[Orchestrator] 任务重试入队失败: presentationID=%d, err=%v", job.PresentationID, err)
	}
}

// executeJob 执行一次生成，失败不重试
func (o *Orchestrator) executeJob(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("[Orchestrator] 任务 panic: presentationID=%d, err=%v", job.PresentationID, r)
			o.unregister(job.PresentationID)
		}
	}()

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(o.ctx, timeout)
	defer cancel()

	o.register(job.PresentationID, cancel)
	defer o.unregister(job.PresentationID)

	start := time.Now()
	if err := o.executor.Generate(ctx, job.PresentationID); err != nil {
		klog.Errorf("[Orchestrator] 生成失败: presentationID=%d, err=%v", job.PresentationID, err)
		return
	}
	klog.V(6).Infof("[Orchestrator] 生成完成: presentationID=%d, wait=%v, run=%v",
		job.PresentationID, start.Sub(job.EnqueuedAt), time.Since(start))
}

type QueueStatus struct {
	QueueLength   int `json:"queue_length"`
	RetryLength   int `json:"retry_length"`
	ActiveWorkers int `json:"active_workers"`
}

func (o *Orchestrator) Status() *QueueStatus {
	return &QueueStatus{
		QueueLength:   o.jobQueue.Len(),
		RetryLength:   o.retryQueue.Len(),
		ActiveWorkers: o.pool.Running(),
	}
}

// jobQueue 有界队列，满时拒绝新任务
type jobQueue struct {
	maxSize int
	items   []*Job
	mutex   sync.Mutex
	cond    *sync.Cond
	closed  bool
}

func newJobQueue(maxSize int) *jobQueue {
	q := &jobQueue{
		maxSize: maxSize,
		items:   make([]*Job, 0, maxSize),
	}
	q.cond = sync.NewCond(&q.mutex)
	return q
}

func (q *jobQueue) Enqueue(job *Job) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.closed {
		return ErrOrchestratorStopped
	}
	if q.maxSize > 0 && len(q.items) >= q.maxSize {
		return ErrQueueFull
	}
	q.items = append(q.items, job)
	q.cond.Signal()
	return nil
}

// Dequeue 阻塞直到有任务或队列关闭
func (q *jobQueue) Dequeue() (*Job, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.pop()
}

// TryDequeue 非阻塞出队
func (q *jobQueue) TryDequeue() (*Job, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.pop()
}

func (q *jobQueue) pop() (*Job, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	job := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return job, true
}

func (q *jobQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

func (q *jobQueue) Close() {
	q.mutex.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mutex.Unlock()
}
