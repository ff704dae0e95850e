package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"docsift-backend/internal/bootstrap"
	"docsift-backend/internal/config"
	"docsift-backend/internal/document"
	"docsift-backend/internal/engine"
	"docsift-backend/internal/export"
	"docsift-backend/internal/profile"
	"docsift-backend/internal/schema"
)

func main() {
	var (
		schemaPath   = flag.String("schema", "", "path to a schema file (json or yaml)")
		profileID    = flag.String("profile", "", "profile id to resolve")
		multi        = flag.String("multi", "", "multi-document mode: per_file, aggregate, or both")
		providerName = flag.String("provider", "", "model backend: stub, openai, or gemini")
		model        = flag.String("model", "", "model name override")
		format       = flag.String("out", "json", "output format: json or xlsx")
		outPath      = flag.String("o", "", "output file (default stdout; required for xlsx)")
		listProfiles = flag.Bool("list-profiles", false, "list resolvable profiles and exit")
	)
	flag.Parse()

	cfg := config.Load()
	if *providerName != "" {
		cfg.Provider = strings.ToLower(*providerName)
	}
	if *model != "" {
		cfg.Model = *model
	}

	resolver := profile.DefaultResolver(cfg.ProfileDir)

	if *listProfiles {
		ids, err := resolver.List()
		if err != nil {
			log.Fatalf("list profiles: %v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	if flag.NArg() == 0 {
		log.Fatal("no documents given; pass file paths, http(s) URLs, or s3:// URIs")
	}
	if *schemaPath == "" && *profileID == "" {
		log.Fatal("-schema or -profile is required")
	}

	ctx := context.Background()

	prov, err := bootstrap.BuildProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("provider: %v", err)
	}

	var rawSchema map[string]any
	if *schemaPath != "" {
		rawSchema, err = readSchemaFile(*schemaPath)
		if err != nil {
			log.Fatalf("schema: %v", err)
		}
	}

	sources := make([]document.Source, 0, flag.NArg())
	for _, uri := range flag.Args() {
		src, err := document.FromURI(ctx, uri, cfg.AWSRegion)
		if err != nil {
			log.Fatalf("document %s: %v", uri, err)
		}
		sources = append(sources, src)
	}

	eng := engine.New(resolver, engine.Defaults{
		ModelName:    cfg.Model,
		MaxDocuments: cfg.MaxDocuments,
		Concurrency:  cfg.Concurrency,
	})

	result, err := eng.Extract(ctx, engine.Request{
		Documents: sources,
		Schema:    rawSchema,
		ProfileID: *profileID,
		Provider:  prov,
		MultiMode: profile.MultiMode(*multi),
	})
	if err != nil {
		log.Fatalf("extract: %v", err)
	}

	switch *format {
	case "json":
		if err := writeJSON(result, *outPath); err != nil {
			log.Fatalf("write: %v", err)
		}
	case "xlsx":
		if *outPath == "" {
			log.Fatal("-o is required for xlsx output")
		}
		sch, err := outputSchema(rawSchema, resolver, *profileID)
		if err != nil {
			log.Fatalf("schema: %v", err)
		}
		data, err := export.XLSX(result, sch)
		if err != nil {
			log.Fatalf("export: %v", err)
		}
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			log.Fatalf("write: %v", err)
		}
	default:
		log.Fatalf("unknown output format %q", *format)
	}
}

func readSchemaFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// outputSchema recovers the schema that shaped the result so the workbook
// columns match it.
func outputSchema(raw map[string]any, resolver *profile.Resolver, profileID string) (*schema.InternalSchema, error) {
	if raw != nil {
		return schema.Parse(raw)
	}
	if profileID != "" {
		prof, err := resolver.Resolve(profileID)
		if err != nil {
			return nil, err
		}
		return prof.Schema, nil
	}
	return nil, nil
}

func writeJSON(result *engine.MultiResult, path string) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if path == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
