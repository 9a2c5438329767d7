// Command graph-retriever queries a vector store with entity-edge graph
// traversal, or ingests a chunk file into it.
//
//	graph-retriever [-config retriever.yaml] [-store astra|chromem] query "your question"
//	graph-retriever [-store chromem] ingest out.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/Lllllllleong/chunkflow/internal/embedding"
	"github.com/Lllllllleong/chunkflow/internal/gcp"
	"github.com/Lllllllleong/chunkflow/internal/records"
	"github.com/Lllllllleong/chunkflow/internal/retriever"
	"github.com/Lllllllleong/chunkflow/internal/vectorstore/astra"
	"github.com/Lllllllleong/chunkflow/internal/vectorstore/chromemstore"
	"github.com/joho/godotenv"
)

const defaultQuery = "your question here"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	fs := flag.NewFlagSet("graph-retriever", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML retriever config (optional)")
	storeType := fs.String("store", "", "Vector store: astra or chromem (overrides config)")
	concurrency := fs.Int("concurrency", 4, "Embedding requests in flight during ingest")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	command, rest := "query", fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	cfg, err := retriever.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return 1
	}
	if *storeType != "" {
		cfg.Store = *storeType
	}

	embedder, err := embedding.NewOpenAI(gcp.GetEnv("OPENAI_API_KEY", ""), gcp.GetEnv("EMBEDDING_MODEL", embedding.DefaultOpenAIModel))
	if err != nil {
		slog.Error("Failed to create embedder", "error", err)
		return 1
	}
	store, err := openStore(cfg, embedder)
	if err != nil {
		slog.Error("Failed to open vector store", "error", err, "store", cfg.Store)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case "query":
		query := defaultQuery
		if len(rest) > 0 {
			query = strings.Join(rest, " ")
		}
		docs, err := retriever.New(store, embedder, cfg.Edges, cfg.Strategy).Invoke(ctx, query)
		if err != nil {
			slog.Error("Retrieval failed", "error", err)
			return 1
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(docs); err != nil {
			slog.Error("Failed to write results", "error", err)
			return 1
		}
	case "ingest":
		if len(rest) < 1 {
			fmt.Println("Usage: graph-retriever ingest <chunks_json_path>")
			return 1
		}
		recs, err := records.Load(rest[0])
		if err != nil {
			slog.Error("Failed to load records", "error", err)
			return 1
		}
		n, err := retriever.Ingest(ctx, store, embedder, recs, *concurrency)
		if err != nil {
			slog.Error("Ingest failed", "error", err)
			return 1
		}
		fmt.Printf("Ingested %d documents into %s\n", n, cfg.Collection)
	default:
		fmt.Printf("Unknown command %q. Usage: graph-retriever [flags] query|ingest ...\n", command)
		return 1
	}
	return 0
}

func openStore(cfg *retriever.Config, embedder *embedding.OpenAI) (retriever.Store, error) {
	switch cfg.Store {
	case "astra":
		return astra.NewStore(astra.Config{
			Endpoint:   gcp.GetEnv("ASTRA_DB_API_ENDPOINT", ""),
			Token:      gcp.GetEnv("ASTRA_DB_APPLICATION_TOKEN", ""),
			Namespace:  gcp.GetEnv("ASTRA_DB_NAMESPACE", ""),
			Collection: gcp.GetEnv("ASTRA_DB_COLLECTION", cfg.Collection),
		})
	case "chromem":
		return chromemstore.Open(gcp.GetEnv("CHROMEM_PATH", "./chromemdb"), cfg.Collection, embedder.Func())
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
