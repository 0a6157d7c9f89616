package mcp

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/bayesplot/internal/logging"
	"github.com/nvandessel/bayesplot/internal/plot"
	"github.com/nvandessel/bayesplot/internal/posterior"
	"github.com/nvandessel/bayesplot/internal/ratelimit"
	"github.com/nvandessel/bayesplot/internal/session"
)

const (
	plotURI     = "bayesplot://plot.svg"
	snapshotURI = "bayesplot://snapshot.json"
)

// registerTools registers the posterior tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "posterior_update",
		Description: "Recompute the posterior of a Normal mean with known variance for new prior and likelihood parameters. Observations are kept between calls.",
	}, s.handlePosteriorUpdate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "posterior_regenerate",
		Description: "Draw a fresh set of ten observations and recompute the posterior with the current parameters",
	}, s.handlePosteriorRegenerate)
}

// registerResources exposes the current plot and snapshot.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         plotURI,
		Name:        "bayesplot-plot",
		Description: "Prior, posterior and sampling distributions for the current parameters, as SVG.",
		MIMEType:    plot.FormatSVG.ContentType(),
	}, s.handlePlotResource)

	s.server.AddResource(&sdk.Resource{
		URI:         snapshotURI,
		Name:        "bayesplot-snapshot",
		Description: "Full snapshot of the current curves and observations, as JSON.",
		MIMEType:    plot.FormatJSON.ContentType(),
	}, s.handleSnapshotResource)
}

func (s *Server) handlePosteriorUpdate(ctx context.Context, req *sdk.CallToolRequest, args PosteriorUpdateInput) (_ *sdk.CallToolResult, out PosteriorUpdateOutput, retErr error) {
	start := time.Now()
	defer func() { s.record(ctx, "posterior_update", out, start, retErr) }()

	if err := ratelimit.CheckLimit(s.toolLimiters, "posterior_update"); err != nil {
		return nil, PosteriorUpdateOutput{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := args.apply(s.state.Params)
	if err := p.Validate(); err != nil {
		return nil, PosteriorUpdateOutput{}, err
	}

	st := s.state
	if args.Seeds != nil {
		seeds := append(posterior.Seeds(nil), args.Seeds...)
		if err := seeds.Validate(); err != nil {
			return nil, PosteriorUpdateOutput{}, err
		}
		st.Seeds = seeds
	}

	st, snap := session.Update(st, p)
	s.state = st
	return nil, summarize(snap, args.IncludeCurves), nil
}

func (s *Server) handlePosteriorRegenerate(ctx context.Context, req *sdk.CallToolRequest, args PosteriorRegenerateInput) (_ *sdk.CallToolResult, out PosteriorRegenerateOutput, retErr error) {
	start := time.Now()
	defer func() { s.record(ctx, "posterior_regenerate", out.Posterior, start, retErr) }()

	if err := ratelimit.CheckLimit(s.toolLimiters, "posterior_regenerate"); err != nil {
		return nil, PosteriorRegenerateOutput{}, err
	}

	var src rand.Source
	if args.Seed != nil {
		src = posterior.SeededSource(*args.Seed)
	} else {
		var err error
		if src, err = s.newSrc(); err != nil {
			return nil, PosteriorRegenerateOutput{}, fmt.Errorf("new random source: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, snap := session.Regenerate(s.state, src)
	s.state = st
	return nil, PosteriorRegenerateOutput{
		Seeds:     append([]float64(nil), st.Seeds...),
		Posterior: summarize(snap, false),
	}, nil
}

func (s *Server) handlePlotResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	return s.readResource(plotURI, plot.FormatSVG)
}

func (s *Server) handleSnapshotResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	return s.readResource(snapshotURI, plot.FormatJSON)
}

func (s *Server) readResource(uri string, format plot.Format) (*sdk.ReadResourceResult, error) {
	st := s.State()

	var buf bytes.Buffer
	if err := plot.Render(&buf, posterior.Compute(st.Params, st.Seeds), format); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: format.ContentType(),
				Text:     buf.String(),
			},
		},
	}, nil
}

// record logs a tool invocation and appends it to the trace log.
func (s *Server) record(ctx context.Context, tool string, out PosteriorUpdateOutput, start time.Time, err error) {
	ev := logging.Event{
		Kind:              tool,
		Session:           "mcp",
		Mu0:               out.Params.Mu0,
		Sigma0:            out.Params.Sigma0,
		Sigma:             out.Params.Sigma,
		N:                 out.Params.N,
		PosteriorMean:     out.PosteriorMean,
		PosteriorVariance: out.PosteriorVariance,
		DurationMicros:    time.Since(start).Microseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
		s.logger.WarnContext(ctx, "tool call failed", "tool", tool, "error", err)
	} else {
		s.logger.DebugContext(ctx, "tool call", "tool", tool, "duration", time.Since(start))
	}
	s.trace.Log(ev)
}
