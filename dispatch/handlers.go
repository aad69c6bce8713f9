package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"sarahdemo/board"
	"sarahdemo/persona"
)

// Policy decides whether a handler waits for child creation.
type Policy int

const (
	// Await creates children one by one before the follow-up completion.
	Await Policy = iota
	// Detach creates children in the background; the reply may arrive first.
	Detach
)

func (p Policy) String() string {
	if p == Detach {
		return "detach"
	}
	return "await"
}

// Board is the board side of a toolbox.
type Board struct {
	Adapter board.Adapter
	Policy  Policy
	// Pace is the delay between two child creations.
	Pace time.Duration
}

// Toolbox builds the tools a persona declares, bound to a board.
func (d *Dispatcher) Toolbox(p *persona.Persona, b Board) ([]Tool, error) {
	c := &creator{
		adapter: b.Adapter,
		policy:  b.Policy,
		pace:    b.Pace,
		logger:  d.logger.With(zap.String("board", b.Adapter.Name()), zap.String("policy", b.Policy.String())),
		detach:  d.detach,
	}
	h := handlers{persona: p, creator: c}

	builders := map[string]func() Handler{
		persona.ToolBuildWorkflow:  h.buildWorkflow,
		persona.ToolCreateItem:     h.createItem,
		persona.ToolBuildBoard:     h.buildBoard,
		persona.ToolShareScreen:    h.shareScreen,
		persona.ToolCreateWorkflow: h.createWorkflow,
		persona.ToolAddFeature:     h.addFeature,
		persona.ToolShowPricing:    h.showPricing,
	}

	tools := make([]Tool, 0, len(p.Tools))
	for _, name := range p.Tools {
		def, ok := persona.Definition(name)
		build, hasHandler := builders[name]
		if !ok || !hasHandler {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		tools = append(tools, Tool{Definition: def, Handle: build()})
	}
	return tools, nil
}

// creator adds children to a board under a Policy.
type creator struct {
	adapter board.Adapter
	policy  Policy
	pace    time.Duration
	logger  *zap.Logger
	detach  func(func())
}

type tally struct {
	total   int
	created int
	failed  int
	queued  bool
}

func (c *creator) createAll(ctx context.Context, items []board.Item) tally {
	if c.policy == Detach {
		bg := context.WithoutCancel(ctx)
		batch := append([]board.Item(nil), items...)
		c.detach(func() {
			t := c.sequential(bg, batch)
			c.logger.Info("detached creation finished", zap.Int("created", t.created), zap.Int("failed", t.failed))
		})
		return tally{total: len(items), queued: true}
	}
	return c.sequential(ctx, items)
}

func (c *creator) sequential(ctx context.Context, items []board.Item) tally {
	t := tally{total: len(items)}
	for i, item := range items {
		if _, err := c.adapter.CreateItem(ctx, item); err != nil {
			t.failed++
			c.logger.Warn("failed to create item", zap.String("item", item.Name), zap.Error(err))
		} else {
			t.created++
		}

		if c.pace > 0 && i < len(items)-1 {
			timer := time.NewTimer(c.pace)
			select {
			case <-ctx.Done():
				timer.Stop()
				t.failed += len(items) - i - 1
				c.logger.Warn("item creation cancelled", zap.Error(ctx.Err()), zap.Int("skipped", len(items)-i-1))
				return t
			case <-timer.C:
			}
		}
	}
	return t
}

type handlers struct {
	persona *persona.Persona
	creator *creator
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode arguments: %w", err)
	}
	return v, nil
}

// result renders the persona's result text and notes partial failures.
func (h handlers) result(tool string, t tally, vars map[string]string) string {
	if vars == nil {
		vars = map[string]string{}
	}
	vars["count"] = strconv.Itoa(t.total)
	vars["created"] = strconv.Itoa(t.created)
	vars["failed"] = strconv.Itoa(t.failed)

	text := h.persona.Result(tool, vars)
	if t.failed > 0 {
		text += fmt.Sprintf(" Note: %d of %d could not be created.", t.failed, t.total)
	}
	return text
}

func (h handlers) buildWorkflow() Handler {
	return func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
		args, err := decode[persona.BuildWorkflowArgs](raw)
		if err != nil {
			return Outcome{}, err
		}
		out := Outcome{
			Echo:     Echo{BoardName: args.BoardName, Items: args.Items},
			Fallback: h.persona.Fallback(persona.ToolBuildWorkflow),
		}

		boardID, err := h.creator.adapter.CreateContainer(ctx, args.BoardName)
		if err != nil {
			return out, fmt.Errorf("create board %q: %w", args.BoardName, err)
		}
		out.Echo.BoardID = boardID

		items := make([]board.Item, len(args.Items))
		for i, it := range args.Items {
			items[i] = board.Item{Name: it.Name, Status: it.Status}
		}
		t := h.creator.createAll(ctx, items)
		out.Result = h.result(persona.ToolBuildWorkflow, t, map[string]string{"name": args.BoardName})
		return out, nil
	}
}

func (h handlers) createItem() Handler {
	return func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
		args, err := decode[persona.CreateItemArgs](raw)
		if err != nil {
			return Outcome{}, err
		}

		t := h.creator.createAll(ctx, []board.Item{{Name: args.ItemName, Status: args.Status}})
		return Outcome{
			Result:   h.result(persona.ToolCreateItem, t, map[string]string{"name": args.ItemName}),
			Echo:     Echo{Items: []persona.StatusItem{{Name: args.ItemName, Status: args.Status}}},
			Fallback: h.persona.Fallback(persona.ToolCreateItem),
		}, nil
	}
}

func (h handlers) buildBoard() Handler {
	return func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
		args, err := decode[persona.BuildBoardArgs](raw)
		if err != nil {
			return Outcome{}, err
		}
		out := Outcome{
			Echo:     Echo{BoardName: args.WorkflowName, Cards: args.Cards},
			Fallback: h.persona.Fallback(persona.ToolBuildBoard),
		}

		if _, err := h.creator.adapter.CreateContainer(ctx, args.WorkflowName); err != nil {
			return out, fmt.Errorf("prepare board %q: %w", args.WorkflowName, err)
		}
		t := h.creator.createAll(ctx, cardItems(args.Cards))
		out.Result = h.result(persona.ToolBuildBoard, t, map[string]string{"name": args.WorkflowName})
		return out, nil
	}
}

func (h handlers) shareScreen() Handler {
	return func(context.Context, json.RawMessage) (Outcome, error) {
		return Outcome{
			Result:   h.persona.Result(persona.ToolShareScreen, nil),
			Echo:     Echo{Action: ActionShareScreen},
			Fallback: h.persona.Fallback(persona.ToolShareScreen),
			Nested:   true,
		}, nil
	}
}

func (h handlers) createWorkflow() Handler {
	return func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
		args, err := decode[persona.CreateWorkflowArgs](raw)
		if err != nil {
			return Outcome{}, err
		}

		t := h.creator.createAll(ctx, cardItems(args.Cards))
		return Outcome{
			Result:   h.result(persona.ToolCreateWorkflow, t, map[string]string{"name": args.WorkflowName}),
			Echo:     Echo{Cards: args.Cards},
			Fallback: h.persona.Fallback(persona.ToolCreateWorkflow),
		}, nil
	}
}

func (h handlers) addFeature() Handler {
	return func(_ context.Context, raw json.RawMessage) (Outcome, error) {
		args, err := decode[persona.AddFeatureArgs](raw)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Result: h.persona.Result(persona.ToolAddFeature, map[string]string{
				"type": args.FeatureType,
				"name": args.FeatureName,
			}),
			Echo: Echo{
				Action:  ActionAddFeature,
				Feature: &Feature{Type: args.FeatureType, Name: args.FeatureName},
			},
			Fallback: h.persona.Fallback(persona.ToolAddFeature),
		}, nil
	}
}

func (h handlers) showPricing() Handler {
	return func(_ context.Context, raw json.RawMessage) (Outcome, error) {
		args, err := decode[persona.ShowPricingArgs](raw)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Result:   h.persona.Result(persona.ToolShowPricing, map[string]string{"plan": args.RecommendedPlan}),
			Echo:     Echo{Action: ActionShowPricing, Pricing: &Pricing{Plan: args.RecommendedPlan}},
			Fallback: h.persona.Fallback(persona.ToolShowPricing),
		}, nil
	}
}

func cardItems(cards []persona.Card) []board.Item {
	items := make([]board.Item, len(cards))
	for i, c := range cards {
		items[i] = board.Item{Name: c.Name, List: c.List, Description: c.Description}
	}
	return items
}
