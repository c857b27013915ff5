package statemachine

import (
	"fmt"

	"github.com/slidesmith/backend/internal/model"
	"k8s.io/klog/v2"
)

// PresentationTransition 定义演示文稿状态迁移
type PresentationTransition struct {
	From string
	To   string
}

// PresentationStateMachine 演示文稿状态机
type PresentationStateMachine struct {
	allowedTransitions map[PresentationTransition]bool
}

// NewPresentationStateMachine 创建演示文稿状态机
func NewPresentationStateMachine() *PresentationStateMachine {
	sm := &PresentationStateMachine{
		allowedTransitions: make(map[PresentationTransition]bool),
	}

	// generating -> ready/failed
	// 生成失败不自动重试，ready 与 failed 为终止态
	transitions := []PresentationTransition{
		{model.StatusGenerating, model.StatusReady},
		{model.StatusGenerating, model.StatusFailed},
	}
	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}
	return sm
}

// CanTransition 检查状态迁移是否合法
func (sm *PresentationStateMachine) CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	return sm.allowedTransitions[PresentationTransition{From: from, To: to}]
}

// Transition 验证状态迁移（带日志）
func (sm *PresentationStateMachine) Transition(from, to string, presentationID uint) error {
	if !sm.CanTransition(from, to) {
		err := &InvalidStateTransitionError{From: from, To: to}
		klog.V(6).Infof("演示文稿状态迁移被拒绝: presentationID=%d, %s -> %s", presentationID, from, to)
		return err
	}
	klog.V(6).Infof("演示文稿状态迁移: presentationID=%d, %s -> %s", presentationID, from, to)
	return nil
}

// InvalidStateTransitionError 无效的状态迁移错误
type InvalidStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid presentation state transition: %s -> %s", e.From, e.To)
}

// IsTerminal 判断状态是否为终止态
func IsTerminal(status string) bool {
	return status == model.StatusReady || status == model.StatusFailed
}
