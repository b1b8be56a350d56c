package interception

import (
	"fmt"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/internal/driverio"
)

// strokeFromRaw decodes a driver wire stroke, folding the E0/E1 flag bits
// back into the key code's prefix byte.
func strokeFromRaw(raw driverio.Stroke) interceptor.Stroke {
	switch data := raw.(type) {
	case driverio.KeyData:
		return interceptor.KeyStrokeFromWire(data.Code, data.Flags, data.Information)
	case driverio.MouseData:
		return interceptor.MouseStroke{
			Flags:       interceptor.MouseFlag(data.Flags),
			Buttons:     interceptor.MouseState(data.ButtonFlags),
			Data:        int16(data.ButtonData),
			X:           data.X,
			Y:           data.Y,
			Information: data.Information,
		}
	}
	return nil
}

// rawFromStroke encodes a stroke for the wire, validating that the stroke
// kind matches the target device class. Zero Information is replaced with
// the injected marker.
func rawFromStroke(device interceptor.Device, s interceptor.Stroke) (driverio.Stroke, error) {
	switch stroke := s.(type) {
	case interceptor.KeyStroke:
		if !device.IsKeyboard() {
			return nil, fmt.Errorf("cannot send key stroke to %s", device)
		}
		info := stroke.Information
		if info == 0 {
			info = interceptor.InjectedInformation
		}
		return driverio.KeyData{
			Code:        stroke.WireCode(),
			Flags:       stroke.WireFlags(),
			Information: info,
		}, nil
	case interceptor.MouseStroke:
		if !device.IsMouse() {
			return nil, fmt.Errorf("cannot send mouse stroke to %s", device)
		}
		info := stroke.Information
		if info == 0 {
			info = interceptor.InjectedInformation
		}
		return driverio.MouseData{
			Flags:       uint16(stroke.Flags),
			ButtonFlags: uint16(stroke.Buttons),
			ButtonData:  uint16(stroke.Data),
			X:           stroke.X,
			Y:           stroke.Y,
			Information: info,
		}, nil
	}
	return nil, fmt.Errorf("unsupported stroke type %T", s)
}
