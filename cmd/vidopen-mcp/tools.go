package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/vidopen/models"
)

func registerTools(s *server.MCPServer, c *apiClient) {
	pageArgs := []mcp.ToolOption{
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL of the page containing the video element"),
		),
		mcp.WithString("xpath",
			mcp.Description("XPath of the video element. Defaults to the saved selector."),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("How to load the page: 'auto' (default, HTTP first then a headless browser), 'http' or 'browser'"),
			mcp.Enum("auto", "http", "browser"),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Enable anti-bot evasions when rendering in the browser"),
		),
	}

	s.AddTool(mcp.NewTool("resolve_media", append([]mcp.ToolOption{
		mcp.WithDescription("Find the video element on a page with an XPath and return its absolute media URL (from src, href, data-src, data-url or data-video-url)."),
	}, pageArgs...)...), handleResolve(c, "/api/v1/resolve"))

	s.AddTool(mcp.NewTool("open_media", append([]mcp.ToolOption{
		mcp.WithDescription("Resolve the media URL like resolve_media, then open it in a new tab on the vidopen host."),
		mcp.WithBoolean("background", mcp.Description("Open without taking focus")),
	}, pageArgs...)...), handleResolve(c, "/api/v1/open"))

	s.AddTool(mcp.NewTool("get_selector",
		mcp.WithDescription("Return the saved video XPath, if any."),
	), handleSelector(c, http.MethodGet))

	s.AddTool(mcp.NewTool("set_selector",
		mcp.WithDescription("Save the video XPath used when no xpath is given. An empty value clears it."),
		mcp.WithString("xpath", mcp.Required(), mcp.Description("XPath of the video element")),
	), handleSelector(c, http.MethodPut))

	s.AddTool(mcp.NewTool("clear_selector",
		mcp.WithDescription("Clear the saved video XPath."),
	), handleSelector(c, http.MethodDelete))
}

func handleResolve(c *apiClient, path string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		req := &models.ResolveRequest{
			URL:       url,
			XPath:     request.GetString("xpath", ""),
			FetchMode: request.GetString("fetch_mode", ""),
			Stealth:   request.GetBool("stealth", false),
		}
		if args := request.GetArguments(); args != nil {
			if _, ok := args["background"]; ok {
				bg := request.GetBool("background", true)
				req.Background = &bg
			}
		}

		resp, err := c.resolve(ctx, path, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "resolution failed")), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Media URL: %s\n", resp.MediaURL)
		fmt.Fprintf(&b, "Attribute: %s\nXPath: %s\nPage: %s\n", resp.Attribute, resp.XPath, resp.PageURL)
		if resp.PageTitle != "" {
			fmt.Fprintf(&b, "Title: %s\n", resp.PageTitle)
		}
		if resp.EngineUsed != "" {
			fmt.Fprintf(&b, "Engine: %s\n", resp.EngineUsed)
		}
		if resp.Opened {
			b.WriteString("Opened in a new tab.\n")
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleSelector(c *apiClient, method string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req *models.SelectorRequest
		if method == http.MethodPut {
			req = &models.SelectorRequest{XPath: request.GetString("xpath", "")}
		}

		resp, err := c.selector(ctx, method, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(errorText(resp.Error, "selector request failed")), nil
		}

		switch {
		case resp.Message != "":
			return mcp.NewToolResultText(resp.Message), nil
		case resp.Saved && resp.Warning != "":
			return mcp.NewToolResultText("Saved XPath: " + resp.XPath + "\nWarning: " + resp.Warning), nil
		case resp.Saved:
			return mcp.NewToolResultText("Saved XPath: " + resp.XPath), nil
		default:
			return mcp.NewToolResultText("No XPath saved."), nil
		}
	}
}
