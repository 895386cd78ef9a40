// Package mcp exposes the toolkit as Model Context Protocol tools so that
// agents can convert, generate and audit assets on the local machine.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mektycoon/mekforge"
	"github.com/mektycoon/mekforge/pkg/audit"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/essence"
	"github.com/mektycoon/mekforge/pkg/imageio"
)

// VariationsURI names the catalog resource.
const VariationsURI = "mekforge://variations"

// ConvertArgs are the arguments of convert_blueprint.
type ConvertArgs struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Mode   string `json:"mode,omitempty"`
}

// ConvertResult describes a written blueprint.
type ConvertResult struct {
	Output string `json:"output" jsonschema_description:"Path of the written image"`
	Mode   string `json:"mode" jsonschema_description:"Renderer used (classic or technical)"`
}

// AuditArgs are the arguments of audit_directories.
type AuditArgs struct {
	DirA string `json:"dir_a"`
	DirB string `json:"dir_b"`
}

// SourceKeyArgs are the arguments of analyze_source_keys.
type SourceKeyArgs struct {
	Frequencies string `json:"frequencies"`
}

// Server wraps a Toolkit and exposes it as an MCP Server.
type Server struct {
	kit       *mekforge.Toolkit
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(kit *mekforge.Toolkit) *Server {
	s := &Server{
		kit:       kit,
		mcpServer: server.NewMCPServer("mekforge-mcp", strings.TrimSpace(mekforge.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: convert_blueprint
	convertTool := mcp.NewTool("convert_blueprint",
		mcp.WithDescription("Render a Mek image file as a blueprint drawing and write it to disk."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Path of the source image (webp, png or jpg)")),
		mcp.WithString("output", mcp.Required(), mcp.Description("Path of the output image; .webp selects WebP, anything else PNG")),
		mcp.WithString("mode", mcp.Description("classic (white on blue, default) or technical (gold on black)")),
		mcp.WithOutputSchema[ConvertResult](),
	)
	s.mcpServer.AddTool(convertTool, mcp.NewStructuredToolHandler(s.handleConvert))

	// TOOL: generate_essence
	s.mcpServer.AddTool(mcp.NewTool("generate_essence",
		mcp.WithDescription("Render the placeholder icon of one variation and return it as an image."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Variation name printed on the icon")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Variation slot: head, body or trait")),
		mcp.WithNumber("size", mcp.Description("Edge length in pixels (default 120)")),
	), s.handleEssence)

	// TOOL: audit_directories
	auditTool := mcp.NewTool("audit_directories",
		mcp.WithDescription("Compare the image keys of two asset folders and list what is missing on either side."),
		mcp.WithString("dir_a", mcp.Required(), mcp.Description("First directory")),
		mcp.WithString("dir_b", mcp.Required(), mcp.Description("Second directory")),
		mcp.WithOutputSchema[audit.DirComparison](),
	)
	s.mcpServer.AddTool(auditTool, mcp.NewStructuredToolHandler(s.handleAudit))

	// TOOL: analyze_source_keys
	keysTool := mcp.NewTool("analyze_source_keys",
		mcp.WithDescription("Match every catalog variation against a source-key frequency table and propose corrections."),
		mcp.WithString("frequencies", mcp.Required(), mcp.Description("Path of the frequency JSON (body_frequencies, head_frequencies, trait_frequencies)")),
		mcp.WithOutputSchema[audit.KeyAnalysis](),
	)
	s.mcpServer.AddTool(keysTool, mcp.NewStructuredToolHandler(s.handleSourceKeys))
}

func (s *Server) handleConvert(ctx context.Context, request mcp.CallToolRequest, args ConvertArgs) (ConvertResult, error) {
	if args.Input == "" || args.Output == "" {
		return ConvertResult{}, fmt.Errorf("input and output are required")
	}
	mode, err := mekforge.ParseMode(args.Mode)
	if err != nil {
		return ConvertResult{}, err
	}
	if err := s.kit.ConvertFile(ctx, mode, args.Input, args.Output); err != nil {
		return ConvertResult{}, fmt.Errorf("convert failed: %w", err)
	}
	return ConvertResult{Output: args.Output, Mode: string(mode)}, nil
}

func (s *Server) handleEssence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := domain.ParseVariationType(request.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	size := request.GetInt("size", essence.DefaultSize)
	if size < 16 || size > 1024 {
		return mcp.NewToolResultError(fmt.Sprintf("size must be within 16..1024, got %d", size)), nil
	}

	img, err := essence.NewGenerator(size).Render(name, t)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	data, err := imageio.EncodeBytes(img, imageio.FormatPNG)
	if err != nil {
		return nil, err
	}
	caption := fmt.Sprintf("%s (%s), %dpx", name, t, size)
	return mcp.NewToolResultImage(caption, base64.StdEncoding.EncodeToString(data), imageio.FormatPNG.ContentType()), nil
}

func (s *Server) handleAudit(ctx context.Context, request mcp.CallToolRequest, args AuditArgs) (*audit.DirComparison, error) {
	if args.DirA == "" || args.DirB == "" {
		return nil, fmt.Errorf("dir_a and dir_b are required")
	}
	return audit.CompareDirs(args.DirA, args.DirB, audit.DefaultDirOptions())
}

func (s *Server) handleSourceKeys(ctx context.Context, request mcp.CallToolRequest, args SourceKeyArgs) (*audit.KeyAnalysis, error) {
	if args.Frequencies == "" {
		return nil, fmt.Errorf("frequencies is required")
	}
	return s.kit.AnalyzeSourceKeys(args.Frequencies)
}

func (s *Server) registerResources() {
	// EXPOSE: mekforge://variations
	s.mcpServer.AddResource(mcp.NewResource(VariationsURI, "Variation Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.kit.Variations())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      VariationsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
