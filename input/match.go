package input

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// Capabilities is the event type to event code table a device reports
type Capabilities map[evdev.CapabilityType][]evdev.CapabilityCode

func (c Capabilities) has(eventType int, codes ...int) bool {
	for capType, capCodes := range c {
		if capType.Type != eventType {
			continue
		}

		if len(codes) == 0 {
			return true
		}

		found := 0
		for _, want := range codes {
			for _, code := range capCodes {
				if code.Code == want {
					found++
					break
				}
			}
		}
		return found == len(codes)
	}
	return false
}

// DeviceKind is the reason a device is considered a source of user activity
type DeviceKind uint8

const (
	DeviceNone DeviceKind = iota
	// DeviceTouchscreen reports multitouch positions
	DeviceTouchscreen
	// DeviceTouchpad reports single touch positions along with a touch button
	DeviceTouchpad
	// DeviceKeypad reports key presses
	DeviceKeypad
)

var deviceKindNames = map[DeviceKind]string{
	DeviceNone:        "None",
	DeviceTouchscreen: "Touchscreen",
	DeviceTouchpad:    "Touchpad",
	DeviceKeypad:      "Keypad",
}

func (k DeviceKind) String() string {
	name, ok := deviceKindNames[k]
	if !ok {
		return "Unknown"
	}
	return name
}

// Classify returns the kind of activity source a device with caps is, or DeviceNone
func Classify(caps Capabilities) DeviceKind {
	switch {
	case caps.has(evdev.EV_ABS, evdev.ABS_MT_POSITION_X, evdev.ABS_MT_POSITION_Y):
		return DeviceTouchscreen
	case caps.has(evdev.EV_KEY, evdev.BTN_TOUCH) && caps.has(evdev.EV_ABS, evdev.ABS_X, evdev.ABS_Y):
		return DeviceTouchpad
	case caps.has(evdev.EV_KEY):
		return DeviceKeypad
	}
	return DeviceNone
}
