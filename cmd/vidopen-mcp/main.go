package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("VIDOPEN_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"vidopen",
		"0.1.0",
		server.WithToolCapabilities(false),
	)
	registerTools(s, newAPIClient(apiURL, os.Getenv("VIDOPEN_API_KEY")))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
