package eventbus

type PresentationEventType string

const (
	PresentationEventCreated PresentationEventType = "Created"
	PresentationEventReady   PresentationEventType = "Ready"
	PresentationEventFailed  PresentationEventType = "Failed"
	PresentationEventDeleted PresentationEventType = "Deleted"
)

type PresentationEvent struct {
	Type           PresentationEventType
	PresentationID uint
	Title          string
	SlidesCount    int
	// Error 仅 Failed 事件携带
	Error          string
}

type PresentationEventHandler = Handler[PresentationEvent]
type PresentationEventBus = Bus[PresentationEventType, PresentationEvent]

func NewPresentationEventBus() *PresentationEventBus {
	return NewBus[PresentationEventType, PresentationEvent]()
}
