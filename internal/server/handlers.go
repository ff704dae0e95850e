package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"docsift-backend/internal/document"
	"docsift-backend/internal/engine"
	"docsift-backend/internal/profile"
	"docsift-backend/internal/provider"
	"docsift-backend/internal/services/health"
	"docsift-backend/internal/shared/fault"
	"docsift-backend/internal/shared/server/respond"
	"docsift-backend/internal/shared/util"
)

// Handler exposes the extraction engine over HTTP.
type Handler struct {
	Engine    *engine.Engine
	Resolver  *profile.Resolver
	Provider  provider.Provider
	Health    *health.Service
	AWSRegion string
}

// Status reports readiness of the configured stack.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Health.Status())
}

type fileSpec struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
	Name string `json:"name"`
}

type optionsSpec struct {
	ModelName       string   `json:"model_name"`
	Temperature     *float64 `json:"temperature"`
	MaxOutputTokens *int     `json:"max_output_tokens"`
}

type extractRequest struct {
	Files   []fileSpec     `json:"files"`
	Schema  map[string]any `json:"schema"`
	Profile string         `json:"profile"`
	Multi   string         `json:"multi"`
	Options *optionsSpec   `json:"options"`
}

// Extract runs one extraction over the posted documents.
func (h *Handler) Extract(c *gin.Context) {
	var body extractRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, fault.KindExtraction, "invalid request body")
		return
	}
	if body.Schema == nil && body.Profile == "" {
		respond.Error(c, http.StatusBadRequest, fault.KindExtraction, "schema or profile is required")
		return
	}

	sources := make([]document.Source, 0, len(body.Files))
	for i, spec := range body.Files {
		switch {
		case spec.Text != "":
			name := spec.Name
			if name != "" {
				var err error
				if name, err = util.SanitizeFileName(name); err != nil {
					respond.Error(c, http.StatusBadRequest, fault.KindDocument, "invalid file name")
					return
				}
			}
			sources = append(sources, document.InlineSource{Text: spec.Text, Name: name})
		case spec.URI != "":
			src, err := document.FromURI(c.Request.Context(), spec.URI, h.AWSRegion)
			if err != nil {
				respond.FromError(c, err)
				return
			}
			sources = append(sources, src)
		default:
			respond.Error(c, http.StatusBadRequest, fault.KindDocument, fmt.Sprintf("file %d: uri or text is required", i))
			return
		}
	}

	req := engine.Request{
		Documents: sources,
		Schema:    body.Schema,
		ProfileID: body.Profile,
		Provider:  h.Provider,
		MultiMode: profile.MultiMode(body.Multi),
	}
	if body.Options != nil {
		req.Options = provider.Options{
			ModelName:       body.Options.ModelName,
			Temperature:     body.Options.Temperature,
			MaxOutputTokens: body.Options.MaxOutputTokens,
		}
	}

	result, err := h.Engine.Extract(c.Request.Context(), req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, result, gin.H{"documents": len(sources)})
}

// ListProfiles names every resolvable profile.
func (h *Handler) ListProfiles(c *gin.Context) {
	ids, err := h.Resolver.List()
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"profiles": ids}, nil)
}

// ShowProfile returns a summary of one resolved profile.
func (h *Handler) ShowProfile(c *gin.Context) {
	prof, err := h.Resolver.Resolve(c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"id":                 prof.ID,
		"mode":               string(prof.Mode),
		"multi_doc_behavior": string(prof.MultiDoc),
		"has_schema":         prof.Schema != nil,
		"prompt":             prof.Prompt,
		"system_instruction": prof.SystemInstruction,
	}, nil)
}
