// Command explore resolves a search term from the command line and
// prints the entity card and its relationship graph. Ambiguous terms
// prompt for a numbered choice on stdin.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/DavidLiger/wikiwiki/engine/entity"
	"github.com/DavidLiger/wikiwiki/engine/relgraph"
	"github.com/DavidLiger/wikiwiki/engine/resolve"
	"github.com/DavidLiger/wikiwiki/pkg/locale"
	"github.com/DavidLiger/wikiwiki/providers/archive"
	"github.com/DavidLiger/wikiwiki/providers/arxiv"
	"github.com/DavidLiger/wikiwiki/providers/commons"
	"github.com/DavidLiger/wikiwiki/providers/musicbrainz"
	"github.com/DavidLiger/wikiwiki/providers/nominatim"
	"github.com/DavidLiger/wikiwiki/providers/openlibrary"
	"github.com/DavidLiger/wikiwiki/providers/wiki"
	"github.com/DavidLiger/wikiwiki/providers/wikidata"
)

func main() {
	var (
		lang     = flag.String("lang", "", "language code, e.g. en or de (default: from locale env)")
		depth    = flag.Int("depth", 1, "graph traversal depth")
		maxNodes = flag.Int("max", relgraph.DefaultMaxNodesPerLevel, "max nodes added per expanded node")
		asJSON   = flag.Bool("json", false, "print raw JSON instead of a card")
	)
	flag.Parse()

	term := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if term == "" {
		fmt.Fprintln(os.Stderr, "usage: explore [flags] <search term>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Warnings only; progress chatter would drown the card output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loc := locale.FromEnv()
	if *lang != "" {
		loc.Set(*lang)
	}

	resolver := resolve.New(resolve.Providers{
		Wiki:   wiki.New(loc),
		Data:   wikidata.New(loc),
		Music:  musicbrainz.New(),
		Books:  openlibrary.New(),
		Images: commons.New(),
		Geo:    nominatim.New(loc),
		Papers: arxiv.New(),
		Media:  archive.New(),
	}, resolve.Config{Locale: loc, Logger: logger})

	builder := relgraph.New(wikidata.New(loc), relgraph.Config{
		Loader:  loaderFunc(resolver.ResolveFromCandidate),
		Locale:  loc,
		Logger:  logger,
	})

	res, err := resolver.Resolve(ctx, term)
	if err != nil {
		if entity.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "no results for %q\n", term)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
		os.Exit(1)
	}

	e := res.Entity
	if res.NeedsDisambiguation() {
		choice, err := pickCandidate(res.Candidates)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		e, err = resolver.ResolveFromCandidate(ctx, choice.Title, choice.CanonicalID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "resolve candidate: %v\n", err)
			os.Exit(1)
		}
	}

	g := builder.Build(ctx, e, relgraph.Options{Depth: *depth, MaxNodesPerLevel: *maxNodes})

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(map[string]any{"entity": e, "graph": g})
		return
	}
	printCard(e)
	printGraph(g)
}

// loaderFunc adapts the resolver's candidate resolution to the graph
// builder's Loader interface.
type loaderFunc func(ctx context.Context, title, canonicalID string) (*entity.Entity, error)

func (f loaderFunc) Load(ctx context.Context, canonicalID string) (*entity.Entity, error) {
	return f(ctx, "", canonicalID)
}

func pickCandidate(cands []entity.Candidate) (entity.Candidate, error) {
	fmt.Println("Multiple matches:")
	for i, c := range cands {
		fmt.Printf("  %d. %s (%s)\n", i+1, c.Title, c.CanonicalID)
	}
	fmt.Print("Pick one: ")

	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return entity.Candidate{}, fmt.Errorf("no selection")
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || n < 1 || n > len(cands) {
		return entity.Candidate{}, fmt.Errorf("invalid selection %q", sc.Text())
	}
	return cands[n-1], nil
}

func printCard(e *entity.Entity) {
	fmt.Printf("%s  [%s, %s]\n", e.Name, e.ID, e.Type)
	if e.Description != "" {
		fmt.Printf("  %s\n", e.Description)
	}
	if src, ok := e.Sources[entity.SourceWikipedia].(*entity.WikipediaSource); ok && src.Extract != "" {
		fmt.Printf("\n%s\n", src.Extract)
	}
	if len(e.Identifiers) > 0 {
		fmt.Println("\nIdentifiers:")
		for k, v := range e.Identifiers {
			fmt.Printf("  %-14s %v\n", k, v)
		}
	}
	if len(e.Sources) > 0 {
		keys := make([]string, 0, len(e.Sources))
		for k := range e.Sources {
			keys = append(keys, k)
		}
		fmt.Printf("\nSources: %s\n", strings.Join(keys, ", "))
	}
}

func printGraph(g *relgraph.Graph) {
	fmt.Printf("\nGraph: %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	for _, n := range g.Nodes {
		marker := " "
		if n.IsCenter {
			marker = "*"
		}
		fmt.Printf("  %s L%d %-40s %s\n", marker, n.Level, n.Label, n.ID)
	}
}
