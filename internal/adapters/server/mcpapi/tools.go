package mcpapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/join/internal/adapters/server/common"
)

var columnStatuses = []string{"todo", "in-progress", "await-feedback", "done"}

// registerTaskTools registers task read and write tools.
func registerTaskTools(srv *mcpserver.MCPServer, tasks common.TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"join.list_tasks",
			mcp.WithDescription("List board tasks, optionally limited to one column."),
			mcp.WithString("status", mcp.Description("Column filter"), mcp.Enum(columnStatuses...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := tasks.ListTasks(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			if status := strings.TrimSpace(req.GetString("status", "")); status != "" {
				filtered := make([]common.Task, 0, len(rows))
				for _, row := range rows {
					if row.Status == status {
						filtered = append(filtered, row)
					}
				}
				rows = filtered
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"tasks": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"join.get_task",
			mcp.WithDescription("Return one task with its subtasks."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.GetTask(ctx, taskID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeTask("get_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"join.create_task",
			mcp.WithDescription("Create one task on the board."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("status", mcp.Description("Initial column"), mcp.Enum(columnStatuses...)),
			mcp.WithString("due_date", mcp.Description("Due date as YYYY-MM-DD")),
			mcp.WithString("priority", mcp.Description("Priority"), mcp.Enum("low", "medium", "urgent")),
			mcp.WithString("category", mcp.Description("Category label")),
			mcp.WithArray("assigned_to", mcp.Description("Assigned contact ids"), mcp.WithStringItems()),
			mcp.WithArray("subtasks", mcp.Description("Subtask titles"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in := common.CreateTaskRequest{
				Title:       title,
				Description: req.GetString("description", ""),
				Status:      req.GetString("status", ""),
				DueDate:     req.GetString("due_date", ""),
				Priority:    req.GetString("priority", ""),
				Category:    req.GetString("category", ""),
				AssignedTo:  req.GetStringSlice("assigned_to", nil),
			}
			for _, subtask := range req.GetStringSlice("subtasks", nil) {
				in.Subtasks = append(in.Subtasks, common.Subtask{Title: subtask})
			}
			task, err := tasks.CreateTask(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeTask("create_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"join.move_task",
			mcp.WithDescription("Move one task to another board column."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("status", mcp.Required(), mcp.Description("Destination column"), mcp.Enum(columnStatuses...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			status, err := req.RequireString("status")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.MoveTask(ctx, common.MoveTaskRequest{ID: taskID, Status: status})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeTask("move_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"join.toggle_subtask",
			mcp.WithDescription("Flip the done state of one subtask."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based subtask index")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			index, err := req.RequireInt("index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.ToggleSubtask(ctx, taskID, index)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return encodeTask("toggle_subtask", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"join.delete_task",
			mcp.WithDescription("Delete one task."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := tasks.DeleteTask(ctx, taskID); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"deleted": taskID})
			if err != nil {
				return nil, fmt.Errorf("encode delete_task result: %w", err)
			}
			return result, nil
		},
	)
}

// registerBoardTools registers search and summary tools.
func registerBoardTools(srv *mcpserver.MCPServer, tasks common.TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"join.search_tasks",
			mcp.WithDescription("Find tasks whose title or description contains the query."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Case-insensitive search text")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, err := req.RequireString("query")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			rows, err := tasks.SearchTasks(ctx, query)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"tasks": rows})
			if err != nil {
				return nil, fmt.Errorf("encode search_tasks result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"join.summary",
			mcp.WithDescription("Return column counts, urgent count, and the next deadline."),
			mcp.WithString("assignee", mcp.Description("Contact id used for the greeting")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			summary, err := tasks.Summary(ctx, req.GetString("assignee", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(summary)
			if err != nil {
				return nil, fmt.Errorf("encode summary result: %w", err)
			}
			return result, nil
		},
	)
}

// registerContactTools registers the contact listing tool.
func registerContactTools(srv *mcpserver.MCPServer, contacts common.ContactService) {
	srv.AddTool(
		mcp.NewTool(
			"join.list_contacts",
			mcp.WithDescription("List contacts that tasks can be assigned to."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := contacts.ListContacts(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"contacts": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_contacts result: %w", err)
			}
			return result, nil
		},
	)
}

func encodeTask(tool string, task common.Task) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(task)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}
