package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/variantsync/models"
)

func main() {
	apiURL := os.Getenv("VARIANTSYNC_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8090"
	}
	apiKey := os.Getenv("VARIANTSYNC_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "VARIANTSYNC_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"variantsync",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	startRunTool := mcp.NewTool("start_run",
		mcp.WithDescription("Enroll and price variants across the open campaign page. Walks the given number of result pages, toggles eligible variants into the campaign and sets their prices, then returns per-page counts."),
		mcp.WithNumber("pages",
			mcp.Required(),
			mcp.Description("Number of result pages to process, starting from the current page (1-500)"),
		),
		mcp.WithString("webhook_url",
			mcp.Description("Optional URL that receives run.page and run.completed events"),
		),
	)
	s.AddTool(startRunTool, handleStartRun(apiURL, apiKey))

	getRunTool := mcp.NewTool("get_run",
		mcp.WithDescription("Get the status and adjustment records of a run started earlier."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Run ID returned by start_run"),
		),
	)
	s.AddTool(getRunTool, handleGetRun(apiURL, apiKey))

	classifyTool := mcp.NewTool("classify_label",
		mcp.WithDescription("Classify a variant label as SIZE, COLOR, STYLE or GENERIC and return its normalized text and keywords."),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Variant label, e.g. '黑色 XL'"),
		),
	)
	s.AddTool(classifyTool, handleClassify(apiURL, apiKey))

	normalizeTool := mcp.NewTool("normalize_price",
		mcp.WithDescription("Turn the raw price texts and input values shown next to a variant into an integer price with provenance."),
		mcp.WithArray("texts",
			mcp.Description("Visible price texts, e.g. ['原价¥1000']"),
		),
		mcp.WithArray("inputs",
			mcp.Description("Current values of price inputs, e.g. ['8.0']"),
		),
	)
	s.AddTool(normalizeTool, handleNormalize(apiURL, apiKey))

	suggestTool := mcp.NewTool("suggest_price",
		mcp.WithDescription("Suggest the target campaign price for one variant of a product, based on its siblings."),
		mcp.WithString("product",
			mcp.Required(),
			mcp.Description("Product JSON: {\"name\": ..., \"variants\": [{\"name\", \"stock\", \"raw_price\": {\"texts\", \"inputs\"}, \"toggle_state\", \"disabled\"}]}"),
		),
		mcp.WithString("variant",
			mcp.Required(),
			mcp.Description("Name of the variant to price"),
		),
	)
	s.AddTool(suggestTool, handleSuggest(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the VariantSync API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(client, req, apiKey)
}

// apiGet sends a GET request to the VariantSync API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return do(client, req, apiKey)
}

func do(client *http.Client, req *http.Request, apiKey string) ([]byte, error) {
	req.Header.Set("X-API-Key", apiKey)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var e models.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != nil {
			return nil, fmt.Errorf("[%s] %s", e.Error.Code, e.Error.Message)
		}
		return nil, fmt.Errorf("API returned %d", resp.StatusCode)
	}
	return body, nil
}

// pollRunCompletion polls a run until its status is no longer "running" or ctx is cancelled.
func pollRunCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, id string) (*models.RunStatusResponse, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/runs/"+id)
			if err != nil {
				return nil, fmt.Errorf("poll run: %w", err)
			}
			var status models.RunStatusResponse
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != models.RunStatusRunning {
				return &status, nil
			}
		}
	}
}

func handleStartRun(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pages, err := request.RequireInt("pages")
		if err != nil || pages < 1 {
			return mcp.NewToolResultError("pages is required and must be at least 1"), nil
		}

		payload := models.RunRequest{
			Pages:      pages,
			WebhookURL: request.GetString("webhook_url", ""),
		}
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/runs", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run request failed: %v", err)), nil
		}

		var runResp models.RunResponse
		if err := json.Unmarshal(respBody, &runResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse run response: %v", err)), nil
		}
		if runResp.ID == "" {
			return mcp.NewToolResultError("run creation failed"), nil
		}

		status, err := pollRunCompletion(ctx, client, apiURL, apiKey, runResp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling run %s failed: %v", runResp.ID, err)), nil
		}
		return mcp.NewToolResultText(formatRun(status, false)), nil
	}
}

func handleGetRun(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/runs/"+id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get run failed: %v", err)), nil
		}

		var status models.RunStatusResponse
		if err := json.Unmarshal(respBody, &status); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse run status: %v", err)), nil
		}
		return mcp.NewToolResultText(formatRun(&status, true)), nil
	}
}

// formatRun renders per-page counts and, when detailed, every non-skipped record.
func formatRun(r *models.RunStatusResponse, detailed bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run %s: %s (%d/%d pages)\n", r.ID, r.Status, len(r.Pages), r.PagesWanted))
	sb.WriteString(fmt.Sprintf("Variants seen: %d, toggled: %d, priced: %d\n\n",
		r.Summary.TotalVariantsSeen, r.Summary.ToggleSuccesses, r.Summary.PriceSuccesses))

	for _, p := range r.Pages {
		if p.Skipped {
			sb.WriteString(fmt.Sprintf("--- Page %d: SKIPPED: %s ---\n", p.Page, p.SkipReason))
			continue
		}
		sb.WriteString(fmt.Sprintf("--- Page %d: %d seen, %d toggled, %d priced ---\n",
			p.Page, p.TotalVariantsSeen, p.ToggleSuccesses, p.PriceSuccesses))
		if !detailed {
			continue
		}
		for _, rec := range p.Records {
			if rec.Outcome == models.OutcomeSkipped {
				continue
			}
			line := fmt.Sprintf("  %s / %s: %s", rec.Product, rec.Variant, rec.Outcome)
			if rec.TargetPrice > 0 {
				line += fmt.Sprintf(" %d -> %d", rec.PreviousPrice.Amount, rec.TargetPrice)
			}
			if rec.Message != "" {
				line += " (" + rec.Message + ")"
			}
			sb.WriteString(line + "\n")
		}
	}
	return sb.String()
}

func handleClassify(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		label, err := request.RequireString("label")
		if err != nil {
			return mcp.NewToolResultError("label is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/classify", models.ClassifyRequest{Label: label})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("classify request failed: %v", err)), nil
		}

		var resp models.ClassifyResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse classify response: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s: %s %q\nKeywords: %s",
			resp.Label, resp.Category, resp.NormalizedText, strings.Join(resp.Keywords, ", "))), nil
	}
}

func handleNormalize(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := models.RawPrice{
			Texts:  request.GetStringSlice("texts", nil),
			Inputs: request.GetStringSlice("inputs", nil),
		}
		if len(raw.Texts) == 0 && len(raw.Inputs) == 0 {
			return mcp.NewToolResultError("texts or inputs is required"), nil
		}

		payload := models.NormalizeRequest{Variant: models.Variant{RawPrice: raw}}
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/normalize", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("normalize request failed: %v", err)), nil
		}

		var fact models.PriceFact
		if err := json.Unmarshal(respBody, &fact); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse normalize response: %v", err)), nil
		}

		result := fmt.Sprintf("Price: %d (%s)", fact.Amount, fact.Provenance)
		if fact.Original > 0 {
			result += fmt.Sprintf("\nOriginal: %d", fact.Original)
		}
		if fact.Rate > 0 {
			result += fmt.Sprintf("\nRate: %g", fact.Rate)
		}
		return mcp.NewToolResultText(result), nil
	}
}

func handleSuggest(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		productStr, err := request.RequireString("product")
		if err != nil {
			return mcp.NewToolResultError("product is required"), nil
		}
		variant, err := request.RequireString("variant")
		if err != nil {
			return mcp.NewToolResultError("variant is required"), nil
		}

		var product models.Product
		if err := json.Unmarshal([]byte(productStr), &product); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("product must be valid JSON: %v", err)), nil
		}

		payload := models.SuggestRequest{Product: product, Variant: variant}
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/suggest", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("suggest request failed: %v", err)), nil
		}

		var s models.Suggestion
		if err := json.Unmarshal(respBody, &s); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse suggest response: %v", err)), nil
		}

		result := fmt.Sprintf("Suggested price: %d (basis: %s", s.Price, s.Basis)
		if s.Reference != "" {
			result += ", reference: " + s.Reference
		}
		result += ")\n"
		if s.NeedsChange {
			result += fmt.Sprintf("Current %d (%s), change needed", s.Current.Amount, s.Current.Provenance)
		} else {
			result += fmt.Sprintf("Current %d already matches", s.Current.Amount)
		}
		return mcp.NewToolResultText(result), nil
	}
}
