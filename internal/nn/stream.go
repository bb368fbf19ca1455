package nn

import (
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/stream/internal/tensor"
)

// Registration names a parameter-owning entry of a Stream.
type Registration[B tensor.Backend] struct {
	Name   string
	Module Module[B]
}

// NamedParameter pairs a parameter with its dotted path inside a Stream,
// e.g. "layer_2_0.weight".
type NamedParameter[B tensor.Backend] struct {
	Name      string
	Parameter *Parameter[B]
}

// Stream is an ordered, append-only pipeline of layers.
//
// Every appended entry that owns parameters is registered under a name
// derived from its position: "layer_<i>" for a direct entry and
// "layer_<i>_<j>" for sub-layer j of a Group (Residual) at position i.
// Nested groups extend the name ("layer_<i>_<j>_<k>"). A module instance
// appended more than once is registered only under its first name.
// Optimizers and serializers discover parameters through the registry.
//
// Example:
//
//	s := nn.NewStream[B](
//	    nn.NewLinear(16, 16, backend),
//	    nn.NewReLU[B](),
//	    nn.NewResidual[B](nn.NewLinear(16, 16, backend), nn.NewReLU[B]()),
//	)
//	// registry: layer_0, layer_2_0
//	y := s.Forward(x)
//
// The zero value is an empty stream ready for Append.
type Stream[B tensor.Backend] struct {
	layers   []Layer[B]
	registry []Registration[B]
	mode     Mode
}

// NewStream creates a stream from an initial list of layers.
func NewStream[B tensor.Backend](layers ...Layer[B]) *Stream[B] {
	s := &Stream[B]{}
	s.Append(layers...)
	return s
}

// Append adds layers at the end of the stream, registering each
// parameter-owning entry once. Positions continue from the current length.
// Appended layers adopt the stream's mode.
func (s *Stream[B]) Append(layers ...Layer[B]) {
	for _, l := range layers {
		if l == nil {
			panic(fmt.Sprintf("stream: nil layer at position %d", len(s.layers)))
		}
		s.registerEntry(fmt.Sprintf("layer_%d", len(s.layers)), l)
		setMode(l, s.mode)
		s.layers = append(s.layers, l)
	}
}

// registerEntry registers l under name and walks into groups, so sub-layer
// j of a group registered as name becomes name_j at any depth.
func (s *Stream[B]) registerEntry(name string, l Layer[B]) {
	if m, ok := ownsParameters(l); ok {
		s.register(name, m)
	}
	if g, ok := l.(Group[B]); ok {
		for j, sub := range g.Layers() {
			s.registerEntry(fmt.Sprintf("%s_%d", name, j), sub)
		}
	}
}

// register records m unless the same instance already owns a registry
// entry; a shared module keeps its first name.
func (s *Stream[B]) register(name string, m Module[B]) {
	if slices.ContainsFunc(s.registry, func(r Registration[B]) bool { return r.Module == m }) {
		return
	}
	s.registry = append(s.registry, Registration[B]{Name: name, Module: m})
}

// Forward feeds x through every entry in order.
func (s *Stream[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	for _, l := range s.layers {
		x = l.Forward(x)
	}
	return x
}

// Len returns the number of entries.
func (s *Stream[B]) Len() int {
	return len(s.layers)
}

// Layer returns the entry at position i.
//
// Panics if i is out of bounds.
func (s *Stream[B]) Layer(i int) Layer[B] {
	if i < 0 || i >= len(s.layers) {
		panic(fmt.Sprintf("stream: layer index %d out of range [0, %d)", i, len(s.layers)))
	}
	return s.layers[i]
}

// Registered returns the registry in registration order.
func (s *Stream[B]) Registered() []Registration[B] {
	return slices.Clone(s.registry)
}

// Parameters returns every registered parameter, in registry order.
func (s *Stream[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, r := range s.registry {
		params = append(params, r.Module.Parameters()...)
	}
	return params
}

// NamedParameters returns every registered parameter with its dotted path,
// in the same order as Parameters.
func (s *Stream[B]) NamedParameters() []NamedParameter[B] {
	var named []NamedParameter[B]
	for _, r := range s.registry {
		if inner, ok := r.Module.(*Stream[B]); ok {
			for _, np := range inner.NamedParameters() {
				named = append(named, NamedParameter[B]{Name: r.Name + "." + np.Name, Parameter: np.Parameter})
			}
			continue
		}
		for _, p := range r.Module.Parameters() {
			named = append(named, NamedParameter[B]{Name: r.Name + "." + p.Name(), Parameter: p})
		}
	}
	return named
}

// StateDict returns the state of every registered module, keys prefixed
// with the registration name ("layer_0.weight", "layer_2_0.bias").
func (s *Stream[B]) StateDict() map[string]*tensor.RawTensor {
	sd := make(map[string]*tensor.RawTensor)
	for _, r := range s.registry {
		for k, v := range r.Module.StateDict() {
			sd[r.Name+"."+k] = v
		}
	}
	return sd
}

// LoadStateDict loads every registered module from stateDict.
// Keys that belong to no registered module are rejected.
func (s *Stream[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	claimed := make(map[string]bool, len(stateDict))
	for _, r := range s.registry {
		prefix := r.Name + "."
		sub := make(map[string]*tensor.RawTensor)
		for k, v := range stateDict {
			if name, ok := strings.CutPrefix(k, prefix); ok {
				sub[name] = v
				claimed[k] = true
			}
		}
		if err := r.Module.LoadStateDict(sub); err != nil {
			return fmt.Errorf("load %s: %w", r.Name, err)
		}
	}

	var unknown []string
	for k := range stateDict {
		if !claimed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("unexpected keys in state dict: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// SetMode sets m on the stream and every mode-sensitive entry, including
// layers inside residual groups and nested streams.
func (s *Stream[B]) SetMode(m Mode) {
	s.mode = m
	for _, l := range s.layers {
		setMode(l, m)
	}
}

// Mode returns the stream's mode.
func (s *Stream[B]) Mode() Mode {
	return s.mode
}

// Train puts the stream in training mode.
func (s *Stream[B]) Train() { s.SetMode(Train) }

// Eval puts the stream in evaluation mode.
func (s *Stream[B]) Eval() { s.SetMode(Eval) }

func (s *Stream[B]) String() string {
	registered := make(map[string]bool, len(s.registry))
	for _, r := range s.registry {
		registered[r.Name] = true
	}

	var sb strings.Builder
	sb.WriteString("Stream(\n")
	for i, l := range s.layers {
		fmt.Fprintf(&sb, "  (%d): %s", i, strings.ReplaceAll(describe(l), "\n", "\n  "))
		if name := fmt.Sprintf("layer_%d", i); registered[name] {
			fmt.Fprintf(&sb, " [%s]", name)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(")")
	return sb.String()
}
