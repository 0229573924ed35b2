package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/naveenspark/protasker/pkg/domain"
)

// TaskRequest is the payload for creating or updating a task.
type TaskRequest struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      domain.TaskStatus `json:"status,omitempty"`
}

// ListTasks returns the tasks of a project.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.get(ctx, "/"+url.PathEscape(projectID)+"/tasks", &tasks); err != nil {
		return nil, fmt.Errorf("client.ListTasks: %w", err)
	}
	return tasks, nil
}

// CreateTask adds a task to a project.
func (c *Client) CreateTask(ctx context.Context, projectID string, req TaskRequest) (*domain.Task, error) {
	if req.Status == "" {
		req.Status = domain.StatusToDo
	}
	var created domain.Task
	if err := c.post(ctx, "/"+url.PathEscape(projectID)+"/tasks", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateTask: %w", err)
	}
	return &created, nil
}

// GetTask fetches a single task by ID.
func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	if err := c.get(ctx, "/tasks/"+url.PathEscape(id), &t); err != nil {
		return nil, fmt.Errorf("client.GetTask: %w", err)
	}
	return &t, nil
}

// UpdateTask sends the non-empty fields of req and returns the server's copy.
func (c *Client) UpdateTask(ctx context.Context, id string, req TaskRequest) (*domain.Task, error) {
	var updated domain.Task
	if err := c.put(ctx, "/tasks/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateTask: %w", err)
	}
	return &updated, nil
}

// UpdateTaskStatus moves a task to status.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status domain.TaskStatus) (*domain.Task, error) {
	t, err := c.UpdateTask(ctx, id, TaskRequest{Status: status})
	if err != nil {
		return nil, fmt.Errorf("client.UpdateTaskStatus: %w", err)
	}
	return t, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/tasks/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("client.DeleteTask: %w", err)
	}
	return nil
}
