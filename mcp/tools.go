package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/vinted-backoffice/internal/analytics"
	"github.com/lukman83/vinted-backoffice/internal/listing"
	"github.com/lukman83/vinted-backoffice/internal/models"
	"github.com/lukman83/vinted-backoffice/internal/store"
)

type handlers struct {
	svc *listing.Service
}

func registerTools(s *server.MCPServer, h *handlers) {
	// list_listings
	listTool := mcp.NewTool("list_listings",
		mcp.WithDescription("List published listings with their statuses and insights"),
		mcp.WithString("query",
			mcp.Description("Free-text match on title, brand or SKU"),
		),
		mcp.WithString("brand",
			mcp.Description("Exact brand filter (case-insensitive)"),
		),
		mcp.WithString("category",
			mcp.Description("Exact category filter (case-insensitive)"),
		),
		mcp.WithBoolean("hidden",
			mcp.Description("Only hidden (true) or only visible (false) listings"),
		),
		mcp.WithBoolean("sold",
			mcp.Description("Only sold (true) or only unsold (false) listings"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum listings to return (default: 20)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Listings to skip (default: 0)"),
		),
	)
	s.AddTool(listTool, h.handleListListings)

	// listing_insights
	insightsTool := mcp.NewTool("listing_insights",
		mcp.WithDescription("Get one listing with its statuses, primary status and insights"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Listing id"),
		),
	)
	s.AddTool(insightsTool, h.handleListingInsights)

	// listing_report
	reportTool := mcp.NewTool("listing_report",
		mcp.WithDescription("Aggregate KPIs, series and insight counts over a date range"),
		mcp.WithString("range",
			mcp.Description("today, 7d, 30d or custom (default: 7d)"),
		),
		mcp.WithString("from",
			mcp.Description("Custom range start, YYYY-MM-DD"),
		),
		mcp.WithString("to",
			mcp.Description("Custom range end (inclusive), YYYY-MM-DD"),
		),
		mcp.WithString("brand",
			mcp.Description("Restrict the report to one brand"),
		),
		mcp.WithString("category",
			mcp.Description("Restrict the report to one category"),
		),
	)
	s.AddTool(reportTool, h.handleListingReport)

	// boost_listing
	boostTool := mcp.NewTool("boost_listing",
		mcp.WithDescription("Boost a listing for a number of days"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Listing id"),
		),
		mcp.WithNumber("days",
			mcp.Description("Boost duration in days (default: 7)"),
		),
	)
	s.AddTool(boostTool, h.handleBoostListing)

	// repost_listing
	repostTool := mcp.NewTool("repost_listing",
		mcp.WithDescription("Republish a listing so it counts as fresh again"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Listing id"),
		),
	)
	s.AddTool(repostTool, h.handleRepostListing)

	// set_listing_hidden
	hiddenTool := mcp.NewTool("set_listing_hidden",
		mcp.WithDescription("Hide a listing from buyers or make it visible again"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Listing id"),
		),
		mcp.WithBoolean("hidden",
			mcp.Required(),
			mcp.Description("true to hide, false to show"),
		),
	)
	s.AddTool(hiddenTool, h.handleSetListingHidden)

	// mark_listing_sold
	soldTool := mcp.NewTool("mark_listing_sold",
		mcp.WithDescription("Record that a listing has been sold"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Listing id"),
		),
	)
	s.AddTool(soldTool, h.handleMarkListingSold)

	// create_listing
	createTool := mcp.NewTool("create_listing",
		mcp.WithDescription("Create a listing; id and SKU are assigned automatically"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Listing title"),
		),
		mcp.WithNumber("price",
			mcp.Required(),
			mcp.Description("Asking price, must be positive"),
		),
		mcp.WithString("description", mcp.Description("Listing description")),
		mcp.WithString("category", mcp.Description("Category, e.g. tops")),
		mcp.WithString("brand", mcp.Description("Brand name")),
		mcp.WithString("condition", mcp.Description("new_with_tags, very_good, good or satisfactory")),
		mcp.WithString("size", mcp.Description("Size label")),
		mcp.WithString("package_size", mcp.Description("small, medium or large")),
		mcp.WithString("photos", mcp.Description("Comma-separated photo URLs, main photo first")),
	)
	s.AddTool(createTool, h.handleCreateListing)
}

func (h *handlers) handleListListings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := store.Filter{
		Query:    request.GetString("query", ""),
		Brand:    request.GetString("brand", ""),
		Category: request.GetString("category", ""),
		Hidden:   optionalBool(request, "hidden"),
		Sold:     optionalBool(request, "sold"),
		Limit:    request.GetInt("limit", 20),
		Offset:   request.GetInt("offset", 0),
	}

	views, err := h.svc.List(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list error: %v", err)), nil
	}
	return jsonResult(views), nil
}

func (h *handlers) handleListingInsights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	v, err := h.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup error: %v", err)), nil
	}
	return jsonResult(v), nil
}

func (h *handlers) handleListingReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := analytics.ParseRange(request.GetString("range", ""), request.GetString("from", ""), request.GetString("to", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f := store.Filter{
		Brand:    request.GetString("brand", ""),
		Category: request.GetString("category", ""),
	}

	summary, err := h.svc.Report(ctx, r, f, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report error: %v", err)), nil
	}
	return jsonResult(summary), nil
}

func (h *handlers) handleBoostListing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	days := request.GetInt("days", 7)

	v, err := h.svc.Boost(ctx, id, time.Duration(days)*24*time.Hour)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("boost error: %v", err)), nil
	}
	return jsonResult(v), nil
}

func (h *handlers) handleRepostListing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	v, err := h.svc.Repost(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("repost error: %v", err)), nil
	}
	return jsonResult(v), nil
}

func (h *handlers) handleSetListingHidden(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	hidden := optionalBool(request, "hidden")
	if hidden == nil {
		return mcp.NewToolResultError("hidden is required"), nil
	}

	v, err := h.svc.SetHidden(ctx, id, *hidden)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("visibility error: %v", err)), nil
	}
	return jsonResult(v), nil
}

func (h *handlers) handleMarkListingSold(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	v, err := h.svc.MarkSold(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("mark sold error: %v", err)), nil
	}
	return jsonResult(v), nil
}

func (h *handlers) handleCreateListing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draft := models.PublishedListing{
		Title:       request.GetString("title", ""),
		Price:       request.GetFloat("price", 0),
		Description: request.GetString("description", ""),
		Category:    request.GetString("category", ""),
		Brand:       request.GetString("brand", ""),
		Condition:   models.Condition(request.GetString("condition", "")),
		Size:        request.GetString("size", ""),
		PackageSize: models.PackageSize(request.GetString("package_size", "")),
		Photos:      splitList(request.GetString("photos", "")),
	}

	v, err := h.svc.Create(ctx, draft)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create error: %v", err)), nil
	}
	return jsonResult(v), nil
}

// optionalBool distinguishes an absent argument from an explicit false.
func optionalBool(request mcp.CallToolRequest, key string) *bool {
	v, ok := request.GetArguments()[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode error: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
