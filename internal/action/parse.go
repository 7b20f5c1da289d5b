package action

import (
	"errors"
	"fmt"
	"time"

	"github.com/frudas24/qaagent/internal/geom"
	"github.com/tidwall/gjson"
)

// ErrMalformed reports input that is not shaped like an action program.
var ErrMalformed = errors.New("malformed action input")

// W3CElementKey is the WebDriver element reference key.
const W3CElementKey = "element-6066-11e4-a52e-4f735466cecf"

// ParseList decodes an action list such as
// [{"action":"press","options":{"x":1,"y":2}},{"action":"release"}].
func ParseList(raw []byte) (List, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	return ListFromResult(gjson.ParseBytes(raw))
}

// ListFromResult decodes an action list from an already parsed value.
// An object wrapping the list under "actions" is accepted too.
func ListFromResult(r gjson.Result) (List, error) {
	r = unwrapActions(r)
	if !r.IsArray() {
		return nil, fmt.Errorf("%w: action list must be an array", ErrMalformed)
	}
	items := r.Array()
	out := make(List, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("%w: action %d is not an object", ErrMalformed, i)
		}
		out = append(out, decodeAction(item))
	}
	return out, nil
}

// ParseMulti decodes a list of action lists, one per simulated finger.
func ParseMulti(raw []byte) ([]List, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	return MultiFromResult(gjson.ParseBytes(raw))
}

// MultiFromResult decodes a list of action lists from a parsed value.
func MultiFromResult(r gjson.Result) ([]List, error) {
	r = unwrapActions(r)
	if !r.IsArray() {
		return nil, fmt.Errorf("%w: multi action must be an array", ErrMalformed)
	}
	var out []List
	for i, item := range r.Array() {
		list, err := ListFromResult(item)
		if err != nil {
			return nil, fmt.Errorf("finger %d: %w", i, err)
		}
		out = append(out, list)
	}
	return out, nil
}

// ParseChain decodes WebDriver input sources into a key and a pointer timeline.
// The first source of each type is used. A missing source is filled with
// zero-length pauses matching the other timeline's length.
func ParseChain(raw []byte) (Chain, error) {
	if !gjson.ValidBytes(raw) {
		return Chain{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	return ChainFromResult(gjson.ParseBytes(raw))
}

// ChainFromResult decodes a chained action set from a parsed value.
func ChainFromResult(r gjson.Result) (Chain, error) {
	r = unwrapActions(r)
	if !r.IsArray() {
		return Chain{}, fmt.Errorf("%w: input sources must be an array", ErrMalformed)
	}

	var (
		chain              Chain
		haveKey, havePoint bool
	)
	for _, src := range r.Array() {
		switch src.Get("type").String() {
		case "key":
			if haveKey {
				continue
			}
			haveKey = true
			chain.Keys = decodeKeySteps(src.Get("actions"))
		case "pointer":
			if havePoint {
				continue
			}
			havePoint = true
			chain.Pointer = decodePointerSteps(src.Get("actions"))
		}
	}

	switch {
	case haveKey && !havePoint:
		for range chain.Keys {
			chain.Pointer = append(chain.Pointer, PointerPause(0))
		}
	case havePoint && !haveKey:
		for range chain.Pointer {
			chain.Keys = append(chain.Keys, Pause(0))
		}
	}
	return chain, nil
}

// decodeAction maps one {"action":..,"options":{..}} object.
func decodeAction(item gjson.Result) Action {
	opts := item.Get("options")
	if !opts.Exists() {
		opts = item
	}
	a := Action{Kind: Kind(item.Get("action").String())}

	switch a.Kind {
	case KindWait:
		a.Duration = millis(opts.Get("ms"), 0)
	case KindTap:
		a.Target = decodeTarget(opts)
		a.Count = int(opts.Get("count").Int())
		if !opts.Get("count").Exists() {
			a.Count = DefaultTapCount
		}
	case KindPress:
		a.Target = decodeTarget(opts)
	case KindLongPress:
		a.Target = decodeTarget(opts)
		a.Duration = millis(opts.Get("duration"), 0)
	case KindMoveTo:
		a.Target = decodeTarget(opts)
		a.Duration = millis(opts.Get("duration"), DefaultMoveDuration)
		a.Steps = DefaultMoveSteps
		if s := opts.Get("steps"); s.Exists() {
			a.Steps = int(s.Int())
		}
	case KindRelease:
		if opts.Get("x").Exists() && opts.Get("y").Exists() {
			a.Target = At(point(opts))
		}
	}
	return a
}

// decodeTarget reads x/y and an optional element reference.
func decodeTarget(opts gjson.Result) Target {
	t := Target{Point: point(opts), HasPoint: true}
	if el := opts.Get("element"); el.Exists() {
		t.Element = elementID(el)
	}
	return t
}

// decodeKeySteps maps the actions of a key input source.
func decodeKeySteps(actions gjson.Result) []KeyStep {
	out := []KeyStep{}
	for _, item := range actions.Array() {
		step := KeyStep{Kind: StepKind(item.Get("type").String())}
		switch step.Kind {
		case StepPause:
			step.Duration = millis(item.Get("duration"), 0)
		case StepKeyDown, StepKeyUp:
			step.Value = item.Get("value").String()
		}
		out = append(out, step)
	}
	return out
}

// decodePointerSteps maps the actions of a pointer input source.
func decodePointerSteps(actions gjson.Result) []PointerStep {
	out := []PointerStep{}
	for _, item := range actions.Array() {
		step := PointerStep{Kind: StepKind(item.Get("type").String())}
		switch step.Kind {
		case StepPause:
			step.Duration = millis(item.Get("duration"), 0)
		case StepPointerMove:
			step.Point = point(item)
			step.Duration = millis(item.Get("duration"), 0)
			step.Origin, step.Element = decodeOrigin(item.Get("origin"))
		case StepPointerDown, StepPointerUp:
			step.Button = int(item.Get("button").Int())
		}
		out = append(out, step)
	}
	return out
}

// decodeOrigin maps "viewport", "pointer", an element id or an element reference object.
func decodeOrigin(origin gjson.Result) (Origin, string) {
	if !origin.Exists() {
		return OriginViewport, ""
	}
	if origin.IsObject() {
		return OriginElement, elementID(origin)
	}
	switch s := origin.String(); s {
	case "", string(OriginViewport):
		return OriginViewport, ""
	case string(OriginPointer):
		return OriginPointer, ""
	default:
		return OriginElement, s
	}
}

// elementID extracts an id from a string or a WebDriver element reference object.
func elementID(r gjson.Result) string {
	if !r.IsObject() {
		return r.String()
	}
	for _, key := range []string{W3CElementKey, "ELEMENT"} {
		if v := r.Get(key); v.Exists() {
			return v.String()
		}
	}
	id := ""
	r.ForEach(func(_, value gjson.Result) bool {
		id = value.String()
		return false
	})
	return id
}

// unwrapActions returns the "actions" member of an object, or r itself.
func unwrapActions(r gjson.Result) gjson.Result {
	if r.IsObject() {
		if inner := r.Get("actions"); inner.Exists() {
			return inner
		}
	}
	return r
}

func point(r gjson.Result) geom.Point {
	return geom.Point{X: r.Get("x").Float(), Y: r.Get("y").Float()}
}

// millis reads a millisecond count, clamping negatives to zero.
func millis(r gjson.Result, def time.Duration) time.Duration {
	if !r.Exists() {
		return def
	}
	ms := r.Float()
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}
