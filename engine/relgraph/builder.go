package relgraph

import (
	"context"
	"log/slog"
	"time"

	"github.com/DavidLiger/wikiwiki/engine/entity"
	"github.com/DavidLiger/wikiwiki/pkg/fn"
	"github.com/DavidLiger/wikiwiki/pkg/locale"
	"github.com/DavidLiger/wikiwiki/pkg/metrics"
	"github.com/DavidLiger/wikiwiki/pkg/resilience"
	"go.opentelemetry.io/otel"
)

// DefaultMaxNodesPerLevel caps the breadth added around each expanded
// node.
const DefaultMaxNodesPerLevel = 20

// LabelResolver batch-resolves canonical ids to display labels.
type LabelResolver interface {
	Labels(ctx context.Context, ids []string) (map[string]string, error)
}

// Loader fetches the full entity behind a canonical id so traversal
// can expand beyond the center's immediate neighborhood. Optional:
// without one, depth is effectively capped at 1.
type Loader interface {
	Load(ctx context.Context, canonicalID string) (*entity.Entity, error)
}

// Options tunes one build.
type Options struct {
	// Depth is the number of BFS levels to expand. Zero or negative
	// means 1.
	Depth int
	// MaxNodesPerLevel caps the relations processed per expanded node,
	// taken by descending score. Zero or negative means
	// DefaultMaxNodesPerLevel.
	MaxNodesPerLevel int
}

func (o Options) normalized() Options {
	if o.Depth <= 0 {
		o.Depth = 1
	}
	if o.MaxNodesPerLevel <= 0 {
		o.MaxNodesPerLevel = DefaultMaxNodesPerLevel
	}
	return o
}

// Config carries the builder's ambient dependencies.
type Config struct {
	Loader  Loader
	Locale  *locale.Context
	Logger  *slog.Logger
	Metrics *metrics.Registry
}

// Builder assembles relationship graphs from resolved entities.
type Builder struct {
	labels       LabelResolver
	labelBreaker *resilience.Breaker
	loader       Loader
	loc          *locale.Context
	log          *slog.Logger

	buildSeconds *metrics.Histogram
	graphNodes   *metrics.Gauge
	graphEdges   *metrics.Gauge
}

// New creates a Builder.
func New(labels LabelResolver, cfg Config) *Builder {
	if cfg.Locale == nil {
		cfg.Locale = locale.FromEnv()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	return &Builder{
		labels:       labels,
		labelBreaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		loader:       cfg.Loader,
		loc:          cfg.Locale,
		log:          cfg.Logger,
		buildSeconds: cfg.Metrics.Histogram(
			"wikiwiki_graph_build_seconds", "Time spent building a relationship graph.", nil),
		graphNodes: cfg.Metrics.Gauge(
			"wikiwiki_graph_nodes", "Node count of the most recently built graph."),
		graphEdges: cfg.Metrics.Gauge(
			"wikiwiki_graph_edges", "Edge count of the most recently built graph."),
	}
}

type queueItem struct {
	ent   *entity.Entity
	level int
}

// Build runs a breadth-first expansion around center and returns a
// fresh graph. Relations below the relevance threshold are dropped,
// each expansion processes at most MaxNodesPerLevel surviving
// relations by descending score, and already-visited targets consume
// cap budget but contribute an edge rather than a duplicate node. The
// final label pass is best-effort: on failure canonical nodes keep
// their raw ids.
func (b *Builder) Build(ctx context.Context, center *entity.Entity, opts Options) *Graph {
	ctx, span := otel.Tracer("engine/relgraph").Start(ctx, "build")
	defer span.End()
	defer b.buildSeconds.Since(time.Now())

	opts = opts.normalized()
	lang := b.loc.Get()

	g := &Graph{}
	nodeIndex := make(map[string]int)
	visited := make(map[string]bool)

	addNode := func(n Node) {
		nodeIndex[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
		visited[n.ID] = true
	}

	centerNode := Node{
		ID:       center.ID,
		Label:    center.Name,
		Type:     center.Type,
		Level:    0,
		IsCenter: true,
	}
	if src, ok := center.Sources[entity.SourceWikipedia].(*entity.WikipediaSource); ok {
		centerNode.Thumbnail = src.Thumbnail
	}
	addNode(centerNode)

	var unresolved []string
	queue := []queueItem{{ent: center, level: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.level >= opts.Depth {
			continue
		}

		// Threshold, then cap: the breadth budget is spent on the
		// highest-scoring survivors whether or not they are new.
		relations := fn.Take(
			fn.Filter(extractRelations(item.ent, lang), func(r relation) bool {
				return r.Score >= minScore
			}),
			opts.MaxNodesPerLevel)

		for _, rel := range relations {
			id := rel.ID.String()
			if id == item.ent.ID {
				continue
			}
			if visited[id] {
				// Cross-link between known nodes; no new vertex.
				g.Edges = append(g.Edges, Edge{
					Source: item.ent.ID, Target: id,
					Type: rel.Rel, Origin: rel.Origin, Value: rel.Score,
				})
				continue
			}

			addNode(Node{
				ID:    id,
				Label: rel.Label,
				Level: item.level + 1,
				Score: rel.Score,
			})
			g.Edges = append(g.Edges, Edge{
				Source: item.ent.ID, Target: id,
				Type: rel.Rel, Origin: rel.Origin, Value: rel.Score,
			})

			if rel.ID.Kind != KindCanonical {
				continue
			}
			unresolved = append(unresolved, rel.ID.Value)

			if b.loader != nil && item.level+1 < opts.Depth {
				child, err := b.loader.Load(ctx, rel.ID.Value)
				if err != nil {
					b.log.Warn("graph expansion failed",
						"id", rel.ID.Value, "err", err)
					continue
				}
				queue = append(queue, queueItem{ent: child, level: item.level + 1})
			}
		}
	}

	b.resolveLabels(ctx, g, nodeIndex, unresolved)
	b.graphNodes.Set(int64(len(g.Nodes)))
	b.graphEdges.Set(int64(len(g.Edges)))
	return g
}

// resolveLabels swaps raw canonical ids for display labels in one
// batch call. Missing labels and lookup failures leave the ids in
// place.
func (b *Builder) resolveLabels(ctx context.Context, g *Graph, nodeIndex map[string]int, ids []string) {
	if len(ids) == 0 || b.labels == nil {
		return
	}
	var labels map[string]string
	err := b.labelBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		labels, err = b.labels.Labels(ctx, ids)
		return err
	})
	if err != nil {
		b.log.Warn("label resolution failed", "count", len(ids), "err", err)
		return
	}
	for _, id := range ids {
		label, ok := labels[id]
		if !ok || label == "" {
			continue
		}
		if i, ok := nodeIndex[id]; ok {
			g.Nodes[i].Label = label
		}
	}
}
