package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/naveenspark/protasker/pkg/domain"
)

// ProjectRequest is the payload for creating or updating a project.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListProjects returns the session user's projects.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.get(ctx, "/projects", &projects); err != nil {
		return nil, fmt.Errorf("client.ListProjects: %w", err)
	}
	return projects, nil
}

// GetProject fetches a single project by ID.
func (c *Client) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	if err := c.get(ctx, "/projects/"+url.PathEscape(id), &p); err != nil {
		return nil, fmt.Errorf("client.GetProject: %w", err)
	}
	return &p, nil
}

// CreateProject creates a new project.
func (c *Client) CreateProject(ctx context.Context, req ProjectRequest) (*domain.Project, error) {
	var created domain.Project
	if err := c.post(ctx, "/projects", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateProject: %w", err)
	}
	return &created, nil
}

// UpdateProject replaces a project's name and description.
func (c *Client) UpdateProject(ctx context.Context, id string, req ProjectRequest) (*domain.Project, error) {
	var updated domain.Project
	if err := c.put(ctx, "/projects/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateProject: %w", err)
	}
	return &updated, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/projects/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("client.DeleteProject: %w", err)
	}
	return nil
}
