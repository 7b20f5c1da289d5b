package command

import (
	"context"
	"fmt"
	"time"

	"github.com/frudas24/qaagent/internal/action"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/gesture"
	"github.com/tidwall/gjson"
)

func (d *Dispatcher) click(ctx context.Context, params gjson.Result) (any, error) {
	id := params.Get("0").String()
	if id == "" {
		return nil, fmt.Errorf("%w: click needs an element id", ErrBadParams)
	}
	if d.resolver == nil {
		return nil, fmt.Errorf("%w: no element table", ErrBadParams)
	}
	if _, err := d.resolver.Resolve(ctx, id); err != nil {
		return nil, err
	}
	return nil, d.await(ctx, d.engine.Click(action.On(id)), d.opts.ClickTail)
}

func (d *Dispatcher) performTouch(ctx context.Context, params gjson.Result) (any, error) {
	list, err := action.ListFromResult(params.Get("0"))
	if err != nil {
		return nil, err
	}
	return nil, d.await(ctx, d.engine.PerformTouchAction(list), 0)
}

func (d *Dispatcher) performMultiAction(ctx context.Context, params gjson.Result) (any, error) {
	lists, err := action.MultiFromResult(params.Get("0"))
	if err != nil {
		return nil, err
	}
	return nil, d.await(ctx, d.engine.PerformMultiAction(lists), 0)
}

func (d *Dispatcher) performActions(ctx context.Context, params gjson.Result) (any, error) {
	sources := params.Get("0")
	if sources.IsArray() && len(sources.Array()) == 0 {
		return nil, nil
	}
	chain, err := action.ChainFromResult(sources)
	if err != nil {
		return nil, err
	}
	return nil, d.await(ctx, d.engine.PerformChainActions(chain), 0)
}

func (d *Dispatcher) pressEnter(ctx context.Context, _ gjson.Result) (any, error) {
	return nil, d.await(ctx, d.engine.PressEnter(), 0)
}

// executeCommand routes ["app:name", [args...]] through the app table.
func (d *Dispatcher) executeCommand(ctx context.Context, params gjson.Result) (any, error) {
	name := params.Get("0").String()
	h, ok := d.app[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(ctx, params.Get("1"))
}

func (d *Dispatcher) appClick(ctx context.Context, args gjson.Result) (any, error) {
	nums, err := numbers(args, 2)
	if err != nil {
		return nil, err
	}
	return nil, d.await(ctx, d.engine.Click(action.At(geom.Pt(nums[0], nums[1]))), d.opts.ClickTail)
}

func (d *Dispatcher) appPressAndHold(ctx context.Context, args gjson.Result) (any, error) {
	nums, err := numbers(args, 2)
	if err != nil {
		return nil, err
	}
	op := d.engine.PressAndHold(action.At(geom.Pt(nums[0], nums[1])), AppPressAndHold)
	return nil, d.await(ctx, op, d.opts.ClickTail)
}

func (d *Dispatcher) appMove(ctx context.Context, args gjson.Result) (any, error) {
	nums, err := numbers(args, 4)
	if err != nil {
		return nil, err
	}
	from, to := action.At(geom.Pt(nums[0], nums[1])), action.At(geom.Pt(nums[2], nums[3]))
	return nil, d.await(ctx, d.engine.Move(from, to, gesture.DefaultTiming()), d.opts.MoveTail)
}

// appDrag takes fx, fy, tx, ty and an optional press delay in milliseconds.
func (d *Dispatcher) appDrag(ctx context.Context, args gjson.Result) (any, error) {
	nums, err := numbers(args, 4)
	if err != nil {
		return nil, err
	}
	t := gesture.DefaultTiming()
	if delay := args.Get("4"); delay.Exists() && delay.Float() > 0 {
		t.Delay = time.Duration(delay.Float() * float64(time.Millisecond))
	}
	from, to := action.At(geom.Pt(nums[0], nums[1])), action.At(geom.Pt(nums[2], nums[3]))
	return nil, d.await(ctx, d.engine.Drag(from, to, t), d.opts.MoveTail)
}

// numbers reads the first n numeric entries of an argument array.
func numbers(args gjson.Result, n int) ([]float64, error) {
	items := args.Array()
	if len(items) < n {
		return nil, fmt.Errorf("%w: expected %d numbers, got %d", ErrBadParams, n, len(items))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if items[i].Type != gjson.Number {
			return nil, fmt.Errorf("%w: argument %d is not a number", ErrBadParams, i)
		}
		out[i] = items[i].Float()
	}
	return out, nil
}
