package nn

// Mode selects training or evaluation behavior of mode-sensitive layers.
type Mode int

// Modes. The zero value is Train.
const (
	Train Mode = iota
	Eval
)

func (m Mode) String() string {
	if m == Eval {
		return "eval"
	}
	return "train"
}

// ModeSetter is implemented by layers whose output depends on the mode
// (Dropout, GaussianNoise) and by containers that forward the mode to them.
type ModeSetter interface {
	SetMode(m Mode)
	Mode() Mode
}

// setMode forwards m to l when l is mode-sensitive.
func setMode(l any, m Mode) {
	if ms, ok := l.(ModeSetter); ok {
		ms.SetMode(m)
	}
}
