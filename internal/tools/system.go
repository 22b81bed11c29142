package tools

import (
	"context"
)

// PingInput defines the input schema for the ping tool.
type PingInput struct {
	Echo string `json:"echo,omitempty" jsonschema:"Text to echo back"`
}

// PingResult is the response from ping.
type PingResult struct {
	Message string `json:"message"`
}

func registerSystem(r *Registry) {
	Add(r, "system", "ping",
		"Test tool - responds with pong or echoes input",
		func(ctx context.Context, in PingInput) (any, error) {
			if in.Echo != "" {
				return &PingResult{Message: in.Echo}, nil
			}
			return &PingResult{Message: "pong"}, nil
		})
}
