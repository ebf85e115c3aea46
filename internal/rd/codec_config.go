package rd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type ParamKind int

const (
	ParamInt ParamKind = iota
	ParamFloat
	ParamBool
	ParamText
)

// ParamValue is a single tuning parameter value. It encodes to JSON as the
// bare value.
type ParamValue struct {
	Kind  ParamKind
	Int   int64
	Float float64
	Bool  bool
	Text  string
}

func IntParam(v int64) ParamValue     { return ParamValue{Kind: ParamInt, Int: v} }
func FloatParam(v float64) ParamValue { return ParamValue{Kind: ParamFloat, Float: v} }
func BoolParam(v bool) ParamValue     { return ParamValue{Kind: ParamBool, Bool: v} }
func TextParam(v string) ParamValue   { return ParamValue{Kind: ParamText, Text: v} }

func (v ParamValue) String() string {
	switch v.Kind {
	case ParamInt:
		return strconv.FormatInt(v.Int, 10)
	case ParamFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case ParamBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

func (v ParamValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ParamInt:
		return json.Marshal(v.Int)
	case ParamFloat:
		return json.Marshal(v.Float)
	case ParamBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Text)
	}
}

// UnmarshalJSON accepts a bare value. Numbers without a fraction or exponent
// decode as ints.
func (v *ParamValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("param value: %w", err)
	}
	switch x := raw.(type) {
	case bool:
		*v = BoolParam(x)
	case string:
		*v = TextParam(x)
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if i, err := x.Int64(); err == nil {
				*v = IntParam(i)
				return nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("param value: %w", err)
		}
		*v = FloatParam(f)
	default:
		return fmt.Errorf("param value: unsupported JSON %s", string(data))
	}
	return nil
}

// CodecConfig is the set of tuning knobs that produced an encode.
type CodecConfig struct {
	Codec   string                `json:"codec"`
	Version string                `json:"version"`
	Params  map[string]ParamValue `json:"params"`
}

func NewCodecConfig(codec, version string) CodecConfig {
	return CodecConfig{Codec: codec, Version: version, Params: map[string]ParamValue{}}
}

// WithParam returns a copy of c with key set to value.
func (c CodecConfig) WithParam(key string, value ParamValue) CodecConfig {
	params := make(map[string]ParamValue, len(c.Params)+1)
	for k, v := range c.Params {
		params[k] = v
	}
	params[key] = value
	c.Params = params
	return c
}

// Fingerprint renders "codec@version [k=v, ...]" with keys sorted, so equal
// parameter sets fingerprint identically whatever their insertion order.
func (c CodecConfig) Fingerprint() string {
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + c.Params[k].String()
	}
	return fmt.Sprintf("%s@%s [%s]", c.Codec, c.Version, strings.Join(parts, ", "))
}
