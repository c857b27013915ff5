package subscriber

import (
	"context"
	"fmt"

	"github.com/slidesmith/backend/internal/eventbus"
	"k8s.io/klog/v2"
)

// PresentationEventSubscriber 处理演示文稿生命周期事件
type PresentationEventSubscriber struct {
	queue jobCanceller
}

type jobCanceller interface {
	Cancel(presentationID uint) bool
}

func NewPresentationEventSubscriber(queue jobCanceller) *PresentationEventSubscriber {
	return &PresentationEventSubscriber{queue: queue}
}

func (s *PresentationEventSubscriber) Register(bus *eventbus.PresentationEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.PresentationEventCreated, s.handleCreated)
	bus.Subscribe(eventbus.PresentationEventReady, s.handleReady)
	bus.Subscribe(eventbus.PresentationEventFailed, s.handleFailed)
	bus.Subscribe(eventbus.PresentationEventDeleted, s.handleDeleted)
}

func (s *PresentationEventSubscriber) handleCreated(ctx context.Context, event eventbus.PresentationEvent) error {
	klog.V(6).Infof("演示文稿事件: type=%s, presentationID=%d", event.Type, event.PresentationID)
	return nil
}

func (s *PresentationEventSubscriber) handleReady(ctx context.Context, event eventbus.PresentationEvent) error {
	klog.V(6).Infof("演示文稿事件: type=%s, presentationID=%d, title=%s, slides=%d",
		event.Type, event.PresentationID, event.Title, event.SlidesCount)
	return nil
}

func (s *PresentationEventSubscriber) handleFailed(ctx context.Context, event eventbus.PresentationEvent) error {
	klog.Warningf("演示文稿生成失败: presentationID=%d, error=%s", event.PresentationID, event.Error)
	return nil
}

// handleDeleted 取消仍在运行的生成任务
func (s *PresentationEventSubscriber) handleDeleted(ctx context.Context, event eventbus.PresentationEvent) error {
	if event.PresentationID == 0 {
		return fmt.Errorf("演示文稿ID为空")
	}
	if s.queue == nil {
		return nil
	}
	if s.queue.Cancel(event.PresentationID) {
		klog.V(6).Infof("已取消生成任务: presentationID=%d", event.PresentationID)
	}
	return nil
}
