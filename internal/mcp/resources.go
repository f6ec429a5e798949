package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusURI is the URI of the catalogue status resource.
const StatusURI = "catalog://status"

// registerResources registers the status resource.
func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "status",
			URI:         StatusURI,
			Description: "Index freshness, cache statistics and query telemetry",
			MIMEType:    "application/json",
		},
		s.handleStatusResource,
	)
}

// handleStatusResource renders the catalogue status as JSON.
func (s *Server) handleStatusResource(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	content, err := s.StatusJSON()
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      StatusURI,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}

// StatusJSON returns the indented JSON form of the catalogue status.
func (s *Server) StatusJSON() ([]byte, error) {
	return json.MarshalIndent(s.catalog.Status(), "", "  ")
}
