package codec

import (
	"fmt"

	"github.com/danielpatrickdp/reg-trainer/internal/scene"
)

// #region encode
// EncodeObject renders o as a feature dict, omitting absent features.
func EncodeObject(o scene.Object) map[string]any {
	m := make(map[string]any, 4)
	if o.Type != nil {
		m[scene.FeatureType] = *o.Type
	}
	if o.RGB != nil {
		m[scene.FeatureRGB] = []any{o.RGB[0], o.RGB[1], o.RGB[2]}
	}
	if o.Location != nil {
		m[scene.FeatureLocation] = []any{o.Location.X, o.Location.Y}
	}
	if o.Dim != nil {
		m[scene.FeatureDim] = []any{o.Dim.W, o.Dim.H}
	}
	return m
}

// EncodeContext renders c as a list of feature dicts.
func EncodeContext(c scene.Context) []any {
	out := make([]any, c.Len())
	for i := 0; i < c.Len(); i++ {
		out[i] = EncodeObject(c.At(i))
	}
	return out
}

// #endregion encode

// #region decode
// DecodeObject reverses EncodeObject on a decoded Struct value.
func DecodeObject(v any) (scene.Object, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return scene.Object{}, fmt.Errorf("object: want struct, got %T: %w", v, ErrBadPayload)
	}

	var o scene.Object
	if t, ok := m[scene.FeatureType]; ok {
		s, ok := t.(string)
		if !ok {
			return scene.Object{}, fmt.Errorf("type: want string, got %T: %w", t, ErrBadPayload)
		}
		o.Type = &s
	}
	if raw, ok := m[scene.FeatureRGB]; ok {
		fs, err := fixedFloats(raw, 3)
		if err != nil {
			return scene.Object{}, fmt.Errorf("rgb: %w", err)
		}
		rgb := scene.RGB{fs[0], fs[1], fs[2]}
		o.RGB = &rgb
	}
	if raw, ok := m[scene.FeatureLocation]; ok {
		fs, err := fixedFloats(raw, 2)
		if err != nil {
			return scene.Object{}, fmt.Errorf("location: %w", err)
		}
		o.Location = &scene.Point{X: int(fs[0]), Y: int(fs[1])}
	}
	if raw, ok := m[scene.FeatureDim]; ok {
		fs, err := fixedFloats(raw, 2)
		if err != nil {
			return scene.Object{}, fmt.Errorf("dim: %w", err)
		}
		o.Dim = &scene.Dim{W: int(fs[0]), H: int(fs[1])}
	}
	return o, nil
}

// DecodeContext reverses EncodeContext.
func DecodeContext(v any) (scene.Context, error) {
	list, ok := v.([]any)
	if !ok {
		return scene.Context{}, fmt.Errorf("context: want list, got %T: %w", v, ErrBadPayload)
	}
	objs := make([]scene.Object, len(list))
	for i, e := range list {
		o, err := DecodeObject(e)
		if err != nil {
			return scene.Context{}, fmt.Errorf("context[%d]: %w", i, err)
		}
		objs[i] = o
	}
	return scene.NewContext(objs), nil
}

func fixedFloats(v any, n int) ([]float64, error) {
	fs, err := Floats(v)
	if err != nil {
		return nil, err
	}
	if len(fs) != n {
		return nil, fmt.Errorf("want %d values, got %d: %w", n, len(fs), ErrBadPayload)
	}
	return fs, nil
}

// #endregion decode
