// Package aggregate runs the fetch, parse and dedupe pipeline over an ordered
// list of source references.
package aggregate

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/subagg-go/internal/model"
	"github.com/John-Robertt/subagg-go/internal/sub"
)

// Fetcher retrieves the text behind one http(s) reference.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

const (
	DefaultConcurrency = 4
	DefaultSelectGroup = "回国"
	DefaultFallback    = "Fallback"

	selectGroupSize = 5
)

// DefaultRules is the static rule template appended to every aggregate.
var DefaultRules = []string{
	"RULE-SET,china-cn,回国",
	"DOMAIN-SUFFIX,google.com,海外",
	"MATCH,Fallback",
}

type Options struct {
	Concurrency   int    // parallel fetches, default 4
	SelectGroup   string // default "回国"
	FallbackGroup string // default "Fallback"
	Rules         []string

	Logger *slog.Logger
	// Observe, when set, is called once per source with "ok", "skipped" or
	// "inline".
	Observe func(outcome string)
}

type Aggregator struct {
	fetcher Fetcher
	opt     Options
	log     *slog.Logger
}

func New(fetcher Fetcher, opt Options) *Aggregator {
	if opt.Concurrency <= 0 {
		opt.Concurrency = DefaultConcurrency
	}
	if opt.SelectGroup == "" {
		opt.SelectGroup = DefaultSelectGroup
	}
	if opt.FallbackGroup == "" {
		opt.FallbackGroup = DefaultFallback
	}
	if opt.Rules == nil {
		opt.Rules = DefaultRules
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{fetcher: fetcher, opt: opt, log: log}
}

// IsRemote reports whether ref is fetched rather than read inline.
func IsRemote(ref string) bool {
	l := strings.ToLower(ref)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

type result struct {
	text string
	ok   bool
}

// Run aggregates refs in order. Sources that fail to fetch or return blank
// text are skipped; no source can fail the run. Identical references are read
// once. An empty refs list is not special here: callers wanting the sample
// document use Sample.
func (a *Aggregator) Run(ctx context.Context, refs []string) model.Aggregate {
	uniq := uniqueRefs(refs)
	results := make([]result, len(uniq))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opt.Concurrency)
	for i, ref := range uniq {
		if !IsRemote(ref) {
			results[i] = result{text: ref, ok: true}
			continue
		}
		g.Go(func() error {
			text, err := a.fetcher.FetchText(gctx, ref)
			if err != nil {
				a.log.Warn("source skipped", "source", ref, "error", err)
				return nil
			}
			results[i] = result{text: text, ok: true}
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	agg := model.Aggregate{
		Stats: model.Stats{Sources: len(uniq), Formats: make(map[string]int)},
	}
	seen := make(map[string]struct{})
	for i, ref := range uniq {
		r := results[i]
		if !r.ok || strings.TrimSpace(r.text) == "" {
			if r.ok {
				a.log.Warn("source skipped", "source", ref, "error", "empty body")
			}
			agg.Stats.Skipped++
			a.observe("skipped")
			continue
		}
		agg.Stats.Fetched++
		if IsRemote(ref) {
			a.observe("ok")
		} else {
			a.observe("inline")
		}

		nodes, verdict := sub.Parse(ref, r.text)
		agg.Stats.Formats[verdict.Name()]++
		added := 0
		for _, n := range nodes {
			k := model.Key(n)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			agg.Nodes = append(agg.Nodes, n)
			added++
		}
		a.log.Debug("source parsed", "source", ref, "format", verdict.Name(),
			"nodes", len(nodes), "added", added)
	}

	agg.Groups = a.groups(agg.Names())
	agg.Rules = append([]string(nil), a.opt.Rules...)
	return agg
}

func (a *Aggregator) groups(names []string) []model.Group {
	head := names
	if len(head) > selectGroupSize {
		head = head[:selectGroupSize]
	}
	return []model.Group{
		{Name: a.opt.SelectGroup, Type: "select", Proxies: append([]string{}, head...)},
		{Name: a.opt.FallbackGroup, Type: "fallback", Proxies: append([]string{}, names...)},
	}
}

func (a *Aggregator) observe(outcome string) {
	if a.opt.Observe != nil {
		a.opt.Observe(outcome)
	}
}

// uniqueRefs trims refs, drops blanks and keeps the first occurrence of each.
func uniqueRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Sample is the document served when no source is configured.
func Sample() model.Aggregate {
	return model.Aggregate{
		Nodes: []model.Node{{
			Name:   "sample-node-1",
			Type:   model.TypeSS,
			Server: "1.2.3.4",
			Port:   443,
			Cipher: "aes-128-gcm",
		}},
		Groups: []model.Group{},
		Rules:  []string{"GEOIP,CN,DIRECT", "MATCH,Fallback"},
		Stats:  model.Stats{Formats: map[string]int{}},
	}
}
