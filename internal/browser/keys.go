package browser

// Key is a decoded user action
type Key int

const (
	KeyNone Key = iota
	KeyNext
	KeyPrev
	KeyLike
	KeyInfo
	KeyShare
	KeyLanguage
	KeyQuit
)

// ParseKeys decodes raw terminal input into actions. Unknown bytes are dropped.
func ParseKeys(b []byte) []Key {
	var keys []Key
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case 0x1b:
			// Arrow keys arrive as ESC [ A..D
			if i+2 < len(b) && b[i+1] == '[' {
				switch b[i+2] {
				case 'A':
					keys = append(keys, KeyPrev)
				case 'B':
					keys = append(keys, KeyNext)
				}
				i += 2
			}
		case 'j', ' ', '\r', '\n':
			keys = append(keys, KeyNext)
		case 'k':
			keys = append(keys, KeyPrev)
		case 'l':
			keys = append(keys, KeyLike)
		case 'i':
			keys = append(keys, KeyInfo)
		case 's':
			keys = append(keys, KeyShare)
		case 'L':
			keys = append(keys, KeyLanguage)
		case 'q', 0x03, 0x04:
			keys = append(keys, KeyQuit)
		}
	}
	return keys
}
