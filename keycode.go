package interceptor

import "fmt"

// KeyCode identifies a physical key by its PS/2 scan code. Extended keys
// carry their 0xE0/0xE1 prefix in the high byte so that, for example, left
// and right Ctrl remain distinct values. Codes outside this table are legal
// and are tracked opaquely.
type KeyCode uint32

// Scan codes (set 1, US layout). Extended keys are prefixed with 0xE0 or
// 0xE1 in the high byte.
const (
	// Modifier keys
	KeyLeftShift  KeyCode = 0x2A
	KeyRightShift KeyCode = 0x36
	KeyLeftCtrl   KeyCode = 0x1D
	KeyRightCtrl  KeyCode = 0xE01D
	KeyLeftAlt    KeyCode = 0x38
	KeyRightAlt   KeyCode = 0xE038 // AltGr
	KeyCapsLock   KeyCode = 0x3A

	// Alphanumeric keys
	KeyA KeyCode = 0x1E
	KeyB KeyCode = 0x30
	KeyC KeyCode = 0x2E
	KeyD KeyCode = 0x20
	KeyE KeyCode = 0x12
	KeyF KeyCode = 0x21
	KeyG KeyCode = 0x22
	KeyH KeyCode = 0x23
	KeyI KeyCode = 0x17
	KeyJ KeyCode = 0x24
	KeyK KeyCode = 0x25
	KeyL KeyCode = 0x26
	KeyM KeyCode = 0x32
	KeyN KeyCode = 0x31
	KeyO KeyCode = 0x18
	KeyP KeyCode = 0x19
	KeyQ KeyCode = 0x10
	KeyR KeyCode = 0x13
	KeyS KeyCode = 0x1F
	KeyT KeyCode = 0x14
	KeyU KeyCode = 0x16
	KeyV KeyCode = 0x2F
	KeyW KeyCode = 0x11
	KeyX KeyCode = 0x2D
	KeyY KeyCode = 0x15
	KeyZ KeyCode = 0x2C

	Key0 KeyCode = 0x0B
	Key1 KeyCode = 0x02
	Key2 KeyCode = 0x03
	Key3 KeyCode = 0x04
	Key4 KeyCode = 0x05
	Key5 KeyCode = 0x06
	Key6 KeyCode = 0x07
	Key7 KeyCode = 0x08
	Key8 KeyCode = 0x09
	Key9 KeyCode = 0x0A

	KeySpace     KeyCode = 0x39
	KeyTab       KeyCode = 0x0F
	KeyEnter     KeyCode = 0x1C
	KeyBackspace KeyCode = 0x0E
	KeyEsc       KeyCode = 0x01

	// Function keys
	KeyF1  KeyCode = 0x3B
	KeyF2  KeyCode = 0x3C
	KeyF3  KeyCode = 0x3D
	KeyF4  KeyCode = 0x3E
	KeyF5  KeyCode = 0x3F
	KeyF6  KeyCode = 0x40
	KeyF7  KeyCode = 0x41
	KeyF8  KeyCode = 0x42
	KeyF9  KeyCode = 0x43
	KeyF10 KeyCode = 0x44
	KeyF11 KeyCode = 0x57
	KeyF12 KeyCode = 0x58

	// Navigation and editing keys
	KeyInsert   KeyCode = 0xE052
	KeyDelete   KeyCode = 0xE053
	KeyHome     KeyCode = 0xE047
	KeyEnd      KeyCode = 0xE04F
	KeyPageUp   KeyCode = 0xE049
	KeyPageDown KeyCode = 0xE051
	KeyUp       KeyCode = 0xE048
	KeyDown     KeyCode = 0xE050
	KeyLeft     KeyCode = 0xE04B
	KeyRight    KeyCode = 0xE04D

	KeyPrintScreen KeyCode = 0xE037
	KeyScrollLock  KeyCode = 0x46
	// KeyPauseBreak is the multi-part E1 sequence; the driver delivers it as
	// an E1-flagged 0x1D followed by 0x45.
	KeyPauseBreak KeyCode = 0xE11D45

	// Numpad keys
	KeyNumpad0        KeyCode = 0x52
	KeyNumpad1        KeyCode = 0x4F
	KeyNumpad2        KeyCode = 0x50
	KeyNumpad3        KeyCode = 0x51
	KeyNumpad4        KeyCode = 0x4B
	KeyNumpad5        KeyCode = 0x4C
	KeyNumpad6        KeyCode = 0x4D
	KeyNumpad7        KeyCode = 0x47
	KeyNumpad8        KeyCode = 0x48
	KeyNumpad9        KeyCode = 0x49
	KeyNumpadEnter    KeyCode = 0xE01C
	KeyNumpadPlus     KeyCode = 0x4E
	KeyNumpadMinus    KeyCode = 0x4A
	KeyNumpadMultiply KeyCode = 0x37
	KeyNumpadDivide   KeyCode = 0xE035
	KeyNumpadDecimal  KeyCode = 0x53
	KeyNumLock        KeyCode = 0x45

	// OEM / punctuation keys (US layout)
	KeySemicolon  KeyCode = 0x27
	KeyApostrophe KeyCode = 0x28
	KeyGrave      KeyCode = 0x29
	KeyComma      KeyCode = 0x33
	KeyPeriod     KeyCode = 0x34
	KeySlash      KeyCode = 0x35
	KeyBackslash  KeyCode = 0x2B
	KeyLBracket   KeyCode = 0x1A
	KeyRBracket   KeyCode = 0x1B
	KeyMinus      KeyCode = 0x0C
	KeyEqual      KeyCode = 0x0D

	// Extended keys (F13-F24, media keys)
	KeyF13 KeyCode = 0x64
	KeyF14 KeyCode = 0x65
	KeyF15 KeyCode = 0x66
	KeyF16 KeyCode = 0x67
	KeyF17 KeyCode = 0x68
	KeyF18 KeyCode = 0x69
	KeyF19 KeyCode = 0x6A
	KeyF20 KeyCode = 0x6B
	KeyF21 KeyCode = 0x6C
	KeyF22 KeyCode = 0x6D
	KeyF23 KeyCode = 0x6E
	KeyF24 KeyCode = 0x76

	KeyMediaNextTrack KeyCode = 0xE019
	KeyMediaPrevTrack KeyCode = 0xE010
	KeyMediaStop      KeyCode = 0xE024
	KeyMediaPlayPause KeyCode = 0xE022

	KeyVolumeMute KeyCode = 0xE020
	KeyVolumeDown KeyCode = 0xE02E
	KeyVolumeUp   KeyCode = 0xE030

	KeyLaunchMail       KeyCode = 0xE06C
	KeyLaunchMedia      KeyCode = 0xE06D
	KeyLaunchApp1       KeyCode = 0xE06B
	KeyLaunchApp2       KeyCode = 0xE021
	KeyBrowserHome      KeyCode = 0xE032
	KeyBrowserSearch    KeyCode = 0xE065
	KeyBrowserFavorites KeyCode = 0xE066
	KeyBrowserRefresh   KeyCode = 0xE067
	KeyBrowserStop      KeyCode = 0xE068
	KeyBrowserForward   KeyCode = 0xE069
	KeyBrowserBack      KeyCode = 0xE06A

	KeyLeftWindows  KeyCode = 0xE05B
	KeyRightWindows KeyCode = 0xE05C
	KeyAppMenu      KeyCode = 0xE05D
)

var keyCodeNames = map[KeyCode]string{
	KeyLeftShift: "LEFT_SHIFT", KeyRightShift: "RIGHT_SHIFT",
	KeyLeftCtrl: "LEFT_CTRL", KeyRightCtrl: "RIGHT_CTRL",
	KeyLeftAlt: "LEFT_ALT", KeyRightAlt: "RIGHT_ALT",
	KeyCapsLock: "CAPS_LOCK",
	KeyA:        "A", KeyB: "B", KeyC: "C", KeyD: "D", KeyE: "E", KeyF: "F",
	KeyG: "G", KeyH: "H", KeyI: "I", KeyJ: "J", KeyK: "K", KeyL: "L",
	KeyM: "M", KeyN: "N", KeyO: "O", KeyP: "P", KeyQ: "Q", KeyR: "R",
	KeyS: "S", KeyT: "T", KeyU: "U", KeyV: "V", KeyW: "W", KeyX: "X",
	KeyY: "Y", KeyZ: "Z",
	Key0: "NUM_0", Key1: "NUM_1", Key2: "NUM_2", Key3: "NUM_3", Key4: "NUM_4",
	Key5: "NUM_5", Key6: "NUM_6", Key7: "NUM_7", Key8: "NUM_8", Key9: "NUM_9",
	KeySpace: "SPACE", KeyTab: "TAB", KeyEnter: "ENTER",
	KeyBackspace: "BACKSPACE", KeyEsc: "ESC",
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5",
	KeyF6: "F6", KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10",
	KeyF11: "F11", KeyF12: "F12",
	KeyInsert: "INSERT", KeyDelete: "DELETE", KeyHome: "HOME", KeyEnd: "END",
	KeyPageUp: "PAGE_UP", KeyPageDown: "PAGE_DOWN",
	KeyUp: "UP", KeyDown: "DOWN", KeyLeft: "LEFT", KeyRight: "RIGHT",
	KeyPrintScreen: "PRINT_SCREEN", KeyScrollLock: "SCROLL_LOCK",
	KeyPauseBreak: "PAUSE_BREAK",
	KeyNumpad0:    "NUMPAD_0", KeyNumpad1: "NUMPAD_1", KeyNumpad2: "NUMPAD_2",
	KeyNumpad3: "NUMPAD_3", KeyNumpad4: "NUMPAD_4", KeyNumpad5: "NUMPAD_5",
	KeyNumpad6: "NUMPAD_6", KeyNumpad7: "NUMPAD_7", KeyNumpad8: "NUMPAD_8",
	KeyNumpad9: "NUMPAD_9", KeyNumpadEnter: "NUMPAD_ENTER",
	KeyNumpadPlus: "NUMPAD_PLUS", KeyNumpadMinus: "NUMPAD_MINUS",
	KeyNumpadMultiply: "NUMPAD_MULTIPLY", KeyNumpadDivide: "NUMPAD_DIVIDE",
	KeyNumpadDecimal: "NUMPAD_DECIMAL", KeyNumLock: "NUM_LOCK",
	KeySemicolon: "SEMICOLON", KeyApostrophe: "APOSTROPHE", KeyGrave: "GRAVE",
	KeyComma: "COMMA", KeyPeriod: "PERIOD", KeySlash: "SLASH",
	KeyBackslash: "BACKSLASH", KeyLBracket: "LBRACKET", KeyRBracket: "RBRACKET",
	KeyMinus: "MINUS", KeyEqual: "EQUAL",
	KeyF13: "F13", KeyF14: "F14", KeyF15: "F15", KeyF16: "F16", KeyF17: "F17",
	KeyF18: "F18", KeyF19: "F19", KeyF20: "F20", KeyF21: "F21", KeyF22: "F22",
	KeyF23: "F23", KeyF24: "F24",
	KeyMediaNextTrack: "MEDIA_NEXT_TRACK", KeyMediaPrevTrack: "MEDIA_PREV_TRACK",
	KeyMediaStop: "MEDIA_STOP", KeyMediaPlayPause: "MEDIA_PLAY_PAUSE",
	KeyVolumeMute: "VOLUME_MUTE", KeyVolumeDown: "VOLUME_DOWN", KeyVolumeUp: "VOLUME_UP",
	KeyLaunchMail: "LAUNCH_MAIL", KeyLaunchMedia: "LAUNCH_MEDIA",
	KeyLaunchApp1: "LAUNCH_APP1", KeyLaunchApp2: "LAUNCH_APP2",
	KeyBrowserHome: "BROWSER_HOME", KeyBrowserSearch: "BROWSER_SEARCH",
	KeyBrowserFavorites: "BROWSER_FAVORITES", KeyBrowserRefresh: "BROWSER_REFRESH",
	KeyBrowserStop: "BROWSER_STOP", KeyBrowserForward: "BROWSER_FORWARD",
	KeyBrowserBack: "BROWSER_BACK",
	KeyLeftWindows: "LEFT_WINDOWS", KeyRightWindows: "RIGHT_WINDOWS",
	KeyAppMenu: "APP_MENU",
}

var keyCodeByName = func() map[string]KeyCode {
	m := make(map[string]KeyCode, len(keyCodeNames))
	for code, name := range keyCodeNames {
		m[name] = code
	}
	return m
}()

// KeyCodeByName resolves a canonical key name (as used in hotkey profiles,
// e.g. "LEFT_CTRL") to its KeyCode.
func KeyCodeByName(name string) (KeyCode, bool) {
	code, ok := keyCodeByName[name]
	return code, ok
}

// Name returns the canonical name for the code, or "" for unnamed codes.
func (k KeyCode) Name() string { return keyCodeNames[k] }

func (k KeyCode) String() string {
	if name, ok := keyCodeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KeyCode(0x%X)", uint32(k))
}
