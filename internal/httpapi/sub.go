package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/John-Robertt/subagg-go/internal/aggregate"
	"github.com/John-Robertt/subagg-go/internal/auth"
	"github.com/John-Robertt/subagg-go/internal/model"
	"github.com/John-Robertt/subagg-go/internal/render"
)

type subRequest struct {
	Sources  []string
	Target   render.Target
	Encoding render.Encoding
	FileName string
}

// parseSubRequest reads everything but the token, which is checked before
// any other validation.
func parseSubRequest(r *http.Request) (subRequest, error) {
	q := r.URL.Query()
	req := subRequest{
		Sources:  splitSources(q.Get("sources")),
		FileName: q.Get("fileName"),
	}
	var err error
	if req.Target, err = render.ParseTarget(q.Get("target")); err != nil {
		return req, err
	}
	if req.Encoding, err = render.ParseEncoding(q.Get("encode")); err != nil {
		return req, err
	}
	return req, nil
}

func splitSources(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *server) handleSub(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	role := s.deps.Tokens.Role(token)
	if role == auth.RoleNone {
		s.writeErrorFromErr(w, errUnauthorized)
		return
	}

	if s.deps.Limiter != nil {
		d := s.deps.Limiter.Check(r.Context(), token)
		switch {
		case d.Err != nil:
			s.metrics.RateLimit.WithLabelValues("fail_open").Inc()
			s.log.Warn("rate limiter unavailable, admitting request",
				"error", d.Err, "request_id", RequestID(r.Context()))
		case !d.Allowed:
			s.metrics.RateLimit.WithLabelValues("deny").Inc()
			s.writeErrorFromErr(w, errRateLimited)
			return
		default:
			s.metrics.RateLimit.WithLabelValues("allow").Inc()
		}
	}

	req, err := parseSubRequest(r)
	if err != nil {
		s.writeErrorFromErr(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opt.ConvertTimeout)
	defer cancel()

	agg := s.aggregate(ctx, req.Sources)
	s.metrics.Nodes.Set(float64(len(agg.Nodes)))

	out, err := render.Render(agg, req.Target, req.Encoding)
	if err != nil {
		s.writeErrorFromErr(w, err)
		return
	}
	if err := setAttachmentHeaders(w, req.FileName, req.Target, req.Encoding); err != nil {
		s.writeErrorFromErr(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	s.log.Debug("sub served",
		"role", string(role),
		"nodes", len(agg.Nodes),
		"sources", agg.Stats.Sources,
		"skipped", agg.Stats.Skipped,
		"target", string(req.Target),
		"encode", string(req.Encoding),
		"request_id", RequestID(r.Context()),
	)
	WriteBody(w, http.StatusOK, out.ContentType, out.Body)
}

// aggregate runs the pipeline, or returns the sample document when neither
// the request nor the configuration names a source. Only real aggregates are
// persisted.
func (s *server) aggregate(ctx context.Context, refs []string) model.Aggregate {
	if len(refs) == 0 {
		refs = s.opt.DefaultSources
	}
	if len(refs) == 0 || s.deps.Aggregator == nil {
		return aggregate.Sample()
	}

	agg := s.deps.Aggregator.Run(ctx, refs)
	if s.deps.Snapshots != nil {
		snap := model.NewSnapshot(agg, s.deps.Now())
		if err := s.deps.Snapshots.SaveLatest(ctx, snap); err != nil {
			s.log.Warn("snapshot not persisted", "error", err, "request_id", RequestID(ctx))
		}
	}
	return agg
}
