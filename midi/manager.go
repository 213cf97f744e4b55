package midi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"lightful/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// ErrPortsTimeout means the MIDI driver did not answer (CoreMIDI can hang)
var ErrPortsTimeout = errors.New("timed out listing MIDI ports")

// ListPorts lists MIDI ports, giving up after timeout
func ListPorts(timeout time.Duration) ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case result := <-ch:
		return result.inPorts, result.outPorts, nil
	case <-time.After(timeout):
		return nil, nil, ErrPortsTimeout
	}
}

// DeviceManager handles hot-plug of the live keyboard, the MIDI output and
// an optional Launchpad surface
type DeviceManager struct {
	hub         *Hub
	inputMatch  string
	outputMatch string

	controllers map[string]Controller
	output      *Port
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
}

// NewDeviceManager creates a device manager feeding hub. Inputs whose name
// contains inputMatch become keyboards (empty matches every non-Launchpad
// input); the first output containing outputMatch becomes the hub output
// (empty disables output).
func NewDeviceManager(hub *Hub, inputMatch, outputMatch string) *DeviceManager {
	return &DeviceManager{
		hub:         hub,
		inputMatch:  strings.ToLower(inputMatch),
		outputMatch: strings.ToLower(outputMatch),
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	snapshot := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		snapshot[k] = v
	}
	return snapshot
}

// OutputName returns the connected output port, or ""
func (dm *DeviceManager) OutputName() string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	if dm.output == nil {
		return ""
	}
	return dm.output.Name()
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) matchesInput(name string) bool {
	return dm.inputMatch == "" || strings.Contains(name, dm.inputMatch)
}

func (dm *DeviceManager) scan() {
	inPorts, outPorts, err := ListPorts(3 * time.Second)
	if err != nil {
		// driver is hung - skip this scan
		debug.Warn("devices", "%v", err)
		return
	}

	seenIDs := make(map[string]bool)

	for i, inPort := range inPorts {
		id := inPort.String()
		name := strings.ToLower(id)
		launchpad := IsLaunchpad(name)
		if !launchpad && !dm.matchesInput(name) {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		var ctrl Controller
		if launchpad {
			var outPort drivers.Out
			for j, op := range outPorts {
				if strings.ToLower(op.String()) == name {
					outPort = outPorts[j]
					break
				}
			}
			ctrl, err = NewLaunchpadController(id, inPorts[i], outPort)
		} else {
			ctrl, err = NewKeyboardController(id, inPorts[i], dm.hub)
		}
		if err != nil {
			debug.Error("devices", "connect %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = ctrl
		dm.mu.Unlock()
		debug.Info("devices", "connected %s (%s)", id, ctrl.Type())
		dm.emit(DeviceEvent{Type: DeviceConnected, Controller: ctrl, ID: id})
	}

	dm.scanOutput(outPorts)

	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
		debug.Info("devices", "disconnected %s", id)
		dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
	dm.mu.Unlock()
}

func (dm *DeviceManager) scanOutput(outPorts []drivers.Out) {
	if dm.outputMatch == "" {
		return
	}

	dm.mu.RLock()
	current := dm.output
	dm.mu.RUnlock()

	for _, op := range outPorts {
		name := op.String()
		if current != nil && name == current.Name() {
			return
		}
		if current == nil && strings.Contains(strings.ToLower(name), dm.outputMatch) && !IsLaunchpad(name) {
			port, err := OpenPort(op)
			if err != nil {
				debug.Error("devices", "%v", err)
				return
			}
			dm.mu.Lock()
			dm.output = port
			dm.mu.Unlock()
			dm.hub.SetOutput(port)
			debug.Info("devices", "output %s", name)
			return
		}
	}

	if current != nil {
		dm.mu.Lock()
		dm.output = nil
		dm.mu.Unlock()
		dm.hub.SetOutput(nil)
		debug.Info("devices", "output %s gone", current.Name())
	}
}

// emit never blocks the scan; a slow reader misses events, not devices
func (dm *DeviceManager) emit(evt DeviceEvent) {
	select {
	case dm.events <- evt:
	default:
		debug.Warn("devices", "event queue full, dropped %s", evt.ID)
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
	if dm.output != nil {
		dm.hub.SetOutput(nil)
		dm.output = nil
	}
}
