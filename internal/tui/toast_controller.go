package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/colonyops/scribe/internal/core/toast"
)

const (
	toastFrameInterval = time.Second / 16
	toastEventBuffer   = 16
	swipeThreshold     = 3
)

type (
	toastChangedMsg toast.Event
	toastFrameMsg   time.Time
)

// press is the cell where a pointer went down on the toast.
type press struct {
	x, y int
}

// ToastController bridges the toast engine into the Bubble Tea update loop.
// Engine callbacks may fire on timer goroutines, so they are forwarded
// through a buffered channel and read back by a listening command.
type ToastController struct {
	engine  *toast.Engine
	events  chan toast.Event
	ticking bool
	pressed *press
}

// NewToastController subscribes to engine.
func NewToastController(engine *toast.Engine) *ToastController {
	c := &ToastController{
		engine: engine,
		events: make(chan toast.Event, toastEventBuffer),
	}
	engine.Subscribe(c.publish)
	return c
}

// publish never blocks. A full buffer drops the event; the view reads engine
// state directly so only the redraw is lost, and the next event or frame
// catches up.
func (c *ToastController) publish(ev toast.Event) {
	select {
	case c.events <- ev:
	default:
	}
}

// Listen waits for the next engine event.
func (c *ToastController) Listen() tea.Cmd {
	return listenForToastEvent(c.events)
}

func listenForToastEvent(ch <-chan toast.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return toastChangedMsg(ev)
	}
}

func scheduleToastFrame() tea.Cmd {
	return tea.Tick(toastFrameInterval, func(t time.Time) tea.Msg {
		return toastFrameMsg(t)
	})
}

// HandleEvent re-arms the listener and starts the frame tick when a
// notification is animating.
func (c *ToastController) HandleEvent(ev toastChangedMsg) tea.Cmd {
	if ev.Type == toast.EventShown || ev.Type == toast.EventHidden {
		c.pressed = nil
	}
	return tea.Batch(c.Listen(), c.startFrames())
}

// HandleFrame keeps the progress bar animating while the countdown runs.
func (c *ToastController) HandleFrame() tea.Cmd {
	if !c.animating() {
		c.ticking = false
		return nil
	}
	return scheduleToastFrame()
}

func (c *ToastController) startFrames() tea.Cmd {
	if c.ticking || !c.animating() {
		return nil
	}
	c.ticking = true
	return scheduleToastFrame()
}

func (c *ToastController) animating() bool {
	n, ok := c.engine.Current()
	return ok && n.ShowProgressBar && !c.engine.Paused()
}

// HandleMouse applies pointer gestures to the visible notification. It
// reports whether the event was consumed.
func (c *ToastController) HandleMouse(msg tea.MouseMsg, width, height int) bool {
	m := msg.Mouse()

	switch msg.(type) {
	case tea.MouseClickMsg:
		n, ok := c.engine.Current()
		if !ok || m.Button != tea.MouseLeft {
			return false
		}
		r := toastRect(n, width, height)
		if !r.contains(m.X, m.Y) {
			return false
		}
		if n.ShowCloseIcon && r.onClose(m.X, m.Y) {
			c.pressed = nil
			c.engine.Close()
			return true
		}
		c.pressed = &press{x: m.X, y: m.Y}
		c.engine.Pause()
		return true

	case tea.MouseMotionMsg:
		if c.pressed == nil {
			return false
		}
		if dir, ok := swipeDirection(m.X-c.pressed.x, m.Y-c.pressed.y); ok {
			c.pressed = nil
			c.engine.Swipe(dir)
		}
		return true

	case tea.MouseReleaseMsg:
		if c.pressed == nil {
			return false
		}
		c.pressed = nil
		c.engine.Resume()
		return true
	}

	return false
}

// Close dismisses the visible notification. It reports whether one was shown.
func (c *ToastController) Close() bool {
	if !c.engine.Visible() {
		return false
	}
	c.pressed = nil
	c.engine.Close()
	return true
}

// Engine returns the wrapped engine.
func (c *ToastController) Engine() *toast.Engine {
	return c.engine
}

// Ticking returns whether the frame timer is currently running.
func (c *ToastController) Ticking() bool {
	return c.ticking
}

// swipeDirection classifies a drag. The dominant axis wins once it travels
// swipeThreshold cells.
func swipeDirection(dx, dy int) (toast.SwipeDirection, bool) {
	ax, ay := abs(dx), abs(dy)
	switch {
	case ax >= ay && ax >= swipeThreshold:
		if dx < 0 {
			return toast.SwipeLeft, true
		}
		return toast.SwipeRight, true
	case ay >= swipeThreshold:
		if dy < 0 {
			return toast.SwipeUp, true
		}
		return toast.SwipeDown, true
	}
	return "", false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
