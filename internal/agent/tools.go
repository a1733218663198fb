package agent

import (
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pliu/taskchat/internal/tasks"
)

// Chat metadata actions, reported alongside the assistant reply.
const (
	ActionTaskCreated     = "task_created"
	ActionTaskUpdated     = "task_updated"
	ActionTaskDeleted     = "task_deleted"
	ActionTaskCompleted   = "task_completed"
	ActionTaskUncompleted = "task_uncompleted"
	ActionTasksListed     = "tasks_listed"
)

// Metadata describes the last tool action taken during a chat turn. It is
// informational only; clients should refetch rather than trust it.
type Metadata struct {
	Action string `json:"action"`
	TaskID *int   `json:"task_id,omitempty"`
	Count  *int   `json:"count,omitempty"`
}

// Tool is one ownership-enforced task operation exposed to the model. The
// binding captures the requester's identity; the model never sees or supplies
// a user id.
type Tool interface {
	Name() string
	Definition() openai.Tool
	Execute(args json.RawMessage) (string, *Metadata, error)
}

// Registry dispatches tool calls by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(ts ...Tool) *Registry {
	m := make(map[string]Tool, len(ts))
	order := make([]string, 0, len(ts))
	for _, t := range ts {
		m[t.Name()] = t
		order = append(order, t.Name())
	}
	return &Registry{tools: m, order: order}
}

func (r *Registry) Definitions() []openai.Tool {
	out := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Definition())
	}
	return out
}

func (r *Registry) Execute(name string, args json.RawMessage) (string, *Metadata, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown tool: %s", name)
	}
	return t.Execute(args)
}

// TaskTools builds the closed tool set for one request, each bound to the
// requester's user id.
func TaskTools(svc *tasks.Service, userID int) *Registry {
	return NewRegistry(
		&createTaskTool{svc: svc, userID: userID},
		&listTasksTool{svc: svc, userID: userID},
		&updateTaskTool{svc: svc, userID: userID},
		&toggleTaskTool{svc: svc, userID: userID},
		&deleteTaskTool{svc: svc, userID: userID},
	)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"ok":false,"error":"marshal result: %s"}`, err.Error())
	}
	return string(data)
}

// toolFailure reports a domain error back to the model as a tool result
// instead of failing the whole chat request.
func toolFailure(err error) string {
	return mustJSON(map[string]any{"ok": false, "error": err.Error()})
}

type createTaskTool struct {
	svc    *tasks.Service
	userID int
}

func (t *createTaskTool) Name() string { return "create_task" }

func (t *createTaskTool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name(),
			Description: "Create a new todo task for the current user",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string", "description": "Task title, 1-200 characters"},
					"description": map[string]any{"type": "string", "description": "Optional task description, up to 2000 characters"},
					"priority":    map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
				},
				"required": []string{"title"},
			},
		},
	}
}

func (t *createTaskTool) Execute(args json.RawMessage) (string, *Metadata, error) {
	var in tasks.CreateInput
	if err := json.Unmarshal(args, &in); err != nil {
		return "", nil, fmt.Errorf("create_task args: %w", err)
	}
	task, err := t.svc.Create(t.userID, in)
	if err != nil {
		return toolFailure(err), nil, nil
	}
	meta := &Metadata{Action: ActionTaskCreated, TaskID: &task.ID}
	return mustJSON(map[string]any{"ok": true, "task": task}), meta, nil
}

type listTasksTool struct {
	svc    *tasks.Service
	userID int
}

func (t *listTasksTool) Name() string { return "list_tasks" }

func (t *listTasksTool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name(),
			Description: "List all todo tasks of the current user, newest first",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (t *listTasksTool) Execute(args json.RawMessage) (string, *Metadata, error) {
	list, err := t.svc.List(t.userID)
	if err != nil {
		return toolFailure(err), nil, nil
	}
	count := len(list)
	meta := &Metadata{Action: ActionTasksListed, Count: &count}
	return mustJSON(map[string]any{"ok": true, "tasks": list}), meta, nil
}

type updateTaskTool struct {
	svc    *tasks.Service
	userID int
}

func (t *updateTaskTool) Name() string { return "update_task" }

func (t *updateTaskTool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name(),
			Description: "Update fields of an existing task; only supplied fields change",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id":     map[string]any{"type": "integer"},
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"priority":    map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
				},
				"required": []string{"task_id"},
			},
		},
	}
}

func (t *updateTaskTool) Execute(args json.RawMessage) (string, *Metadata, error) {
	var in struct {
		TaskID int `json:"task_id"`
		tasks.UpdateInput
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", nil, fmt.Errorf("update_task args: %w", err)
	}
	task, err := t.svc.Update(t.userID, in.TaskID, in.UpdateInput)
	if err != nil {
		return toolFailure(err), nil, nil
	}
	meta := &Metadata{Action: ActionTaskUpdated, TaskID: &task.ID}
	return mustJSON(map[string]any{"ok": true, "task": task}), meta, nil
}

type toggleTaskTool struct {
	svc    *tasks.Service
	userID int
}

func (t *toggleTaskTool) Name() string { return "toggle_task" }

func (t *toggleTaskTool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name(),
			Description: "Flip the completion flag of a task",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{"type": "integer"},
				},
				"required": []string{"task_id"},
			},
		},
	}
}

func (t *toggleTaskTool) Execute(args json.RawMessage) (string, *Metadata, error) {
	var in struct {
		TaskID int `json:"task_id"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", nil, fmt.Errorf("toggle_task args: %w", err)
	}
	task, err := t.svc.Toggle(t.userID, in.TaskID)
	if err != nil {
		return toolFailure(err), nil, nil
	}
	action := ActionTaskUncompleted
	if task.IsComplete {
		action = ActionTaskCompleted
	}
	meta := &Metadata{Action: action, TaskID: &task.ID}
	return mustJSON(map[string]any{"ok": true, "task": task}), meta, nil
}

type deleteTaskTool struct {
	svc    *tasks.Service
	userID int
}

func (t *deleteTaskTool) Name() string { return "delete_task" }

func (t *deleteTaskTool) Definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name(),
			Description: "Permanently delete a task",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": map[string]any{"type": "integer"},
				},
				"required": []string{"task_id"},
			},
		},
	}
}

func (t *deleteTaskTool) Execute(args json.RawMessage) (string, *Metadata, error) {
	var in struct {
		TaskID int `json:"task_id"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", nil, fmt.Errorf("delete_task args: %w", err)
	}
	if err := t.svc.Delete(t.userID, in.TaskID); err != nil {
		return toolFailure(err), nil, nil
	}
	meta := &Metadata{Action: ActionTaskDeleted, TaskID: &in.TaskID}
	return mustJSON(map[string]any{"ok": true, "deleted": in.TaskID}), meta, nil
}
