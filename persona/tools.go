package persona

import (
	"slices"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Tool names the personas may declare.
const (
	ToolBuildWorkflow  = "build_workflow"
	ToolCreateItem     = "create_item"
	ToolBuildBoard     = "build_board"
	ToolShareScreen    = "share_screen"
	ToolCreateWorkflow = "create_workflow"
	ToolAddFeature     = "add_feature"
	ToolShowPricing    = "show_pricing"
)

var (
	// WorkflowStatuses are the statuses build_workflow accepts per item.
	WorkflowStatuses = []string{
		"Not Started", "Working on it", "Stuck", "Done", "In Progress",
		"To Do", "In Review", "Backlog", "Blocked",
	}
	// ItemStatuses are the statuses create_item accepts.
	ItemStatuses = []string{"Working on it", "Done", "Stuck"}
	// TrelloLists are the list names create_workflow may place cards in.
	TrelloLists  = []string{"To Do", "In Progress", "Review", "Done"}
	FeatureTypes = []string{"automation", "dashboard", "notification", "due_dates"}
	PricingPlans = []string{"free", "pro", "enterprise"}
)

// StatusItem is one build_workflow item.
type StatusItem struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type BuildWorkflowArgs struct {
	BoardName string       `json:"board_name"`
	Items     []StatusItem `json:"items"`
}

type CreateItemArgs struct {
	ItemName string `json:"item_name"`
	Status   string `json:"status,omitempty"`
}

// Card is a Trello card as the model describes it. List is only set by
// create_workflow and Description only by build_board.
type Card struct {
	Name        string `json:"name"`
	List        string `json:"list,omitempty"`
	Description string `json:"description,omitempty"`
}

type BuildBoardArgs struct {
	WorkflowName string `json:"workflow_name"`
	Cards        []Card `json:"cards"`
}

type CreateWorkflowArgs struct {
	WorkflowName string `json:"workflow_name"`
	Cards        []Card `json:"cards"`
}

type AddFeatureArgs struct {
	FeatureType string `json:"feature_type"`
	FeatureName string `json:"feature_name"`
}

type ShowPricingArgs struct {
	RecommendedPlan string `json:"recommended_plan"`
}

func objectItems(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func stringProp(description string, enum ...string) map[string]any {
	prop := map[string]any{"type": "string"}
	if description != "" {
		prop["description"] = description
	}
	if len(enum) > 0 {
		prop["enum"] = enum
	}
	return prop
}

var definitions = map[string]mcptypes.Tool{
	ToolBuildWorkflow: mcptypes.NewTool(ToolBuildWorkflow,
		mcptypes.WithDescription("Build a complete workflow board with multiple items"),
		mcptypes.WithString("board_name", mcptypes.Required(), mcptypes.Description("Name for the board")),
		mcptypes.WithArray("items",
			mcptypes.Required(),
			mcptypes.Items(objectItems(map[string]any{
				"name":   stringProp(""),
				"status": stringProp("", WorkflowStatuses...),
			}, "name", "status")),
		),
	),

	ToolCreateItem: mcptypes.NewTool(ToolCreateItem,
		mcptypes.WithDescription("Create a new item on the Monday.com board to demonstrate value"),
		mcptypes.WithString("item_name",
			mcptypes.Required(),
			mcptypes.Description(`Name of the item to create (e.g., "Follow up with Enterprise Lead")`),
		),
		mcptypes.WithString("status",
			mcptypes.Enum(ItemStatuses...),
			mcptypes.Description("Status of the item"),
		),
	),

	ToolBuildBoard: mcptypes.NewTool(ToolBuildBoard,
		mcptypes.WithDescription("Create multiple Trello cards to build a workflow for the user"),
		mcptypes.WithString("workflow_name", mcptypes.Required(), mcptypes.Description("Name describing this workflow")),
		mcptypes.WithArray("cards",
			mcptypes.Required(),
			mcptypes.Description("Array of 5-7 cards to create"),
			mcptypes.Items(objectItems(map[string]any{
				"name":        stringProp("Card name"),
				"description": stringProp("Card description (optional)"),
			}, "name")),
		),
	),

	ToolShareScreen: mcptypes.NewTool(ToolShareScreen,
		mcptypes.WithDescription("Start sharing your screen to show the demo. Call this when transitioning from discovery to the live demo."),
	),

	ToolCreateWorkflow: mcptypes.NewTool(ToolCreateWorkflow,
		mcptypes.WithDescription("Create cards on the Trello board to demonstrate the workflow"),
		mcptypes.WithString("workflow_name", mcptypes.Required(), mcptypes.Description("Name of the workflow being created")),
		mcptypes.WithArray("cards",
			mcptypes.Required(),
			mcptypes.Description("Array of cards to create (5-7 cards)"),
			mcptypes.Items(objectItems(map[string]any{
				"name": stringProp("Card name"),
				"list": stringProp("Which list to put the card in", TrelloLists...),
			}, "name", "list")),
		),
	),

	ToolAddFeature: mcptypes.NewTool(ToolAddFeature,
		mcptypes.WithDescription("Add an automation or extra feature to demonstrate additional value"),
		mcptypes.WithString("feature_type",
			mcptypes.Required(),
			mcptypes.Enum(FeatureTypes...),
			mcptypes.Description("Type of feature to add"),
		),
		mcptypes.WithString("feature_name", mcptypes.Required(), mcptypes.Description("Name/description of the feature")),
	),

	ToolShowPricing: mcptypes.NewTool(ToolShowPricing,
		mcptypes.WithDescription("Show the pricing modal to start the signup/trial process"),
		mcptypes.WithString("recommended_plan",
			mcptypes.Required(),
			mcptypes.Enum(PricingPlans...),
			mcptypes.Description("The plan to recommend based on their team size and needs"),
		),
	),
}

// Definition returns the declared schema of a tool.
func Definition(name string) (mcptypes.Tool, bool) {
	tool, ok := definitions[name]
	return tool, ok
}

// ToolNames lists every tool a persona may declare, sorted.
func ToolNames() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
