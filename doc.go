// Package interceptor defines the value types shared by the interception
// driver wrapper: key codes, mouse buttons, driver flag bitmasks, input
// strokes, and device identity.
//
// The types in this package are immutable values with no behaviour beyond
// wire-format conversion. The stateful machinery lives in the subpackages:
//
//   - interception: the process-wide driver context (receive/send/filter)
//   - keystate: pressed-key tracking per device class
//   - hotkey: hotkey registration, matching, and the dispatch loop
//   - input: keyboard and mouse simulation
//   - profile: YAML hotkey profiles with hot reload
//   - monitor: WebSocket event inspector
//   - record: stroke recording and replay
package interceptor
