package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/frudas24/qaagent/internal/geom"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"
)

// registerGestureTools registers one tool per gesture command.
func (s *Server) registerGestureTools() {
	// ui_click - click an element or a screen point
	s.server.AddTool(
		mcp.NewTool("ui_click",
			mcp.WithDescription("Click a registered element by id, or a screen point when x and y are given"),
			mcp.WithString("element",
				mcp.Description("Registered element id"),
			),
			mcp.WithNumber("x",
				mcp.Description("Screen x in pixels"),
			),
			mcp.WithNumber("y",
				mcp.Description("Screen y in pixels"),
			),
		),
		s.handleClick,
	)

	// ui_press_and_hold - long press a point
	s.server.AddTool(
		mcp.NewTool("ui_press_and_hold",
			mcp.WithDescription("Press and hold a screen point for 1.5 seconds"),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Screen x in pixels")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("Screen y in pixels")),
		),
		s.handlePressAndHold,
	)

	// ui_drag - press, move and release
	s.server.AddTool(
		mcp.NewTool("ui_drag",
			mcp.WithDescription("Drag from one screen point to another"),
			mcp.WithNumber("from_x", mcp.Required(), mcp.Description("Start x")),
			mcp.WithNumber("from_y", mcp.Required(), mcp.Description("Start y")),
			mcp.WithNumber("to_x", mcp.Required(), mcp.Description("End x")),
			mcp.WithNumber("to_y", mcp.Required(), mcp.Description("End y")),
			mcp.WithNumber("delay_ms",
				mcp.Description("Hold before moving, in milliseconds"),
				mcp.Min(0),
			),
		),
		s.handleDrag,
	)

	// ui_move - hover path with no press
	s.server.AddTool(
		mcp.NewTool("ui_move",
			mcp.WithDescription("Move the pointer from one screen point to another without pressing"),
			mcp.WithNumber("from_x", mcp.Required(), mcp.Description("Start x")),
			mcp.WithNumber("from_y", mcp.Required(), mcp.Description("Start y")),
			mcp.WithNumber("to_x", mcp.Required(), mcp.Description("End x")),
			mcp.WithNumber("to_y", mcp.Required(), mcp.Description("End y")),
		),
		s.handleMove,
	)

	s.server.AddTool(
		mcp.NewTool("ui_perform_touch",
			mcp.WithDescription("Run one touch action list, e.g. [{\"action\":\"press\",\"options\":{\"x\":10,\"y\":10}},{\"action\":\"release\"}]"),
			mcp.WithString("actions", mcp.Required(), mcp.Description("JSON array of touch actions")),
		),
		s.handlePerformTouch,
	)

	s.server.AddTool(
		mcp.NewTool("ui_perform_multi_action",
			mcp.WithDescription("Run several touch action lists concurrently, one finger each"),
			mcp.WithString("actions", mcp.Required(), mcp.Description("JSON array of touch action arrays")),
		),
		s.handleMultiAction,
	)

	s.server.AddTool(
		mcp.NewTool("ui_perform_actions",
			mcp.WithDescription("Run W3C-style input sources tick by tick"),
			mcp.WithString("sources", mcp.Required(), mcp.Description("JSON array of input sources")),
		),
		s.handlePerformActions,
	)

	s.server.AddTool(
		mcp.NewTool("ui_press_enter",
			mcp.WithDescription("Press and release the Enter key"),
		),
		s.handlePressEnter,
	)
}

// registerElementTools registers the element table tools.
func (s *Server) registerElementTools() {
	s.server.AddTool(
		mcp.NewTool("ui_set_element",
			mcp.WithDescription("Register or move an element rectangle so ui_click can target it by id"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Element id")),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Left edge")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("Top edge")),
			mcp.WithNumber("w", mcp.Required(), mcp.Description("Width"), mcp.Min(0)),
			mcp.WithNumber("h", mcp.Required(), mcp.Description("Height"), mcp.Min(0)),
		),
		s.handleSetElement,
	)

	s.server.AddTool(
		mcp.NewTool("ui_remove_element",
			mcp.WithDescription("Forget a registered element"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Element id")),
		),
		s.handleRemoveElement,
	)

	s.server.AddTool(
		mcp.NewTool("ui_list_elements",
			mcp.WithDescription("List the registered element rectangles"),
		),
		s.handleListElements,
	)
}

func (s *Server) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := request.GetString("element", ""); id != "" {
		return s.dispatch(ctx, "click", id)
	}
	x, errX := request.RequireFloat("x")
	y, errY := request.RequireFloat("y")
	if errX != nil || errY != nil {
		return errorResult("ui_click needs element or both x and y"), nil
	}
	return s.dispatch(ctx, "executeCommand", "app:click", []float64{x, y})
}

func (s *Server) handlePressAndHold(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pt, err := requirePoint(request, "x", "y")
	if err != nil {
		return errorResult("%v", err), nil
	}
	return s.dispatch(ctx, "executeCommand", "app:pressAndHold", pt)
}

func (s *Server) handleDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireSegment(request)
	if err != nil {
		return errorResult("%v", err), nil
	}
	if delay := request.GetFloat("delay_ms", -1); delay >= 0 {
		args = append(args, delay)
	}
	return s.dispatch(ctx, "executeCommand", "app:drag", args)
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireSegment(request)
	if err != nil {
		return errorResult("%v", err), nil
	}
	return s.dispatch(ctx, "executeCommand", "app:move", args)
}

func (s *Server) handlePerformTouch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := requireJSONArray(request, "actions")
	if err != nil {
		return errorResult("%v", err), nil
	}
	return s.dispatch(ctx, "performTouch", raw)
}

func (s *Server) handleMultiAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := requireJSONArray(request, "actions")
	if err != nil {
		return errorResult("%v", err), nil
	}
	return s.dispatch(ctx, "performMultiAction", raw)
}

func (s *Server) handlePerformActions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := requireJSONArray(request, "sources")
	if err != nil {
		return errorResult("%v", err), nil
	}
	return s.dispatch(ctx, "performActions", raw)
}

func (s *Server) handlePressEnter(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(ctx, "pressEnter")
}

func (s *Server) handleSetElement(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return errorResult("%v", err), nil
	}
	var r geom.Rect
	for _, f := range []struct {
		key string
		dst *float64
	}{{"x", &r.X}, {"y", &r.Y}, {"w", &r.W}, {"h", &r.H}} {
		v, err := request.RequireFloat(f.key)
		if err != nil {
			return errorResult("%v", err), nil
		}
		*f.dst = v
	}
	if err := s.elements.Set(id, r); err != nil {
		return errorResult("set element: %v", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("element %s at (%g,%g) %gx%g", id, r.X, r.Y, r.W, r.H)), nil
}

func (s *Server) handleRemoveElement(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return errorResult("%v", err), nil
	}
	if !s.elements.Remove(id) {
		return errorResult("element %s not registered", id), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("element %s removed", id)), nil
}

func (s *Server) handleListElements(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(s.elements.Entries())
	if err != nil {
		return nil, fmt.Errorf("encode elements: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func requirePoint(request mcp.CallToolRequest, kx, ky string) ([]float64, error) {
	x, err := request.RequireFloat(kx)
	if err != nil {
		return nil, err
	}
	y, err := request.RequireFloat(ky)
	if err != nil {
		return nil, err
	}
	return []float64{x, y}, nil
}

func requireSegment(request mcp.CallToolRequest) ([]float64, error) {
	from, err := requirePoint(request, "from_x", "from_y")
	if err != nil {
		return nil, err
	}
	to, err := requirePoint(request, "to_x", "to_y")
	if err != nil {
		return nil, err
	}
	return append(from, to...), nil
}

// requireJSONArray reads a string argument holding a JSON array.
func requireJSONArray(request mcp.CallToolRequest, key string) (json.RawMessage, error) {
	text, err := request.RequireString(key)
	if err != nil {
		return nil, err
	}
	if !gjson.Valid(text) || !gjson.Parse(text).IsArray() {
		return nil, fmt.Errorf("%s must be a JSON array", key)
	}
	return json.RawMessage(text), nil
}
