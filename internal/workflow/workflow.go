// Package workflow coordinates one research run: it resolves the tool
// catalog for a toolkit whitelist, prepares downstream actions from the
// research text, and hands them to the execution dispatcher. It is thin
// glue by design; the interesting machinery lives in discovery,
// dispatch, and catalog.
package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/golovatskygroup/toolbridge/internal/analyze"
	"github.com/golovatskygroup/toolbridge/internal/catalog"
	"github.com/golovatskygroup/toolbridge/internal/discovery"
	"github.com/golovatskygroup/toolbridge/internal/dispatch"
)

// Coordinator drives one workflow run.
type Coordinator struct {
	cfg        Config
	resolver   *discovery.Resolver
	dispatcher *dispatch.Dispatcher
	catalog    *catalog.Catalog
	rule       *analyze.Rule
	log        zerolog.Logger
}

// ActionResult pairs a dispatched action with its outcome.
type ActionResult struct {
	Action  string           `json:"action"`
	Outcome dispatch.Outcome `json:"outcome"`
}

// Report is the run summary handed back to the caller.
type Report struct {
	RunID       string         `json:"run_id"`
	Subject     string         `json:"subject"`
	CatalogSize int            `json:"catalog_size"`
	Actions     []Action       `json:"actions"`
	Results     []ActionResult `json:"results"`
}

// NewCoordinator wires a Coordinator. A configured risk rule is compiled
// here so a broken rule surfaces immediately; compilation failure falls
// back to the term scan.
func NewCoordinator(cfg Config, resolver *discovery.Resolver, dispatcher *dispatch.Dispatcher, log zerolog.Logger) *Coordinator {
	c := &Coordinator{
		cfg:        cfg,
		resolver:   resolver,
		dispatcher: dispatcher,
		catalog:    catalog.New(nil),
		log:        log,
	}
	if cfg.RiskRule != "" {
		rule, err := analyze.CompileRule(cfg.RiskRule)
		if err != nil {
			log.Warn().Err(err).Msg("risk rule failed to compile; falling back to term scan")
		} else {
			c.rule = rule
		}
	}
	return c
}

// Run executes one workflow pass over the research text. Discovery and
// every prepared action are best-effort: a failing tool degrades the
// report, it never aborts the run.
func (c *Coordinator) Run(ctx context.Context, subject, researchText string) Report {
	report := Report{
		RunID:   uuid.New().String(),
		Subject: subject,
	}

	records := c.resolver.Resolve(ctx, c.cfg.Toolkits)
	c.catalog = catalog.New(records)
	report.CatalogSize = len(records)
	c.log.Info().
		Str("run_id", report.RunID).
		Int("tools", len(records)).
		Msg("tool catalog resolved")

	text := analyze.Flatten(researchText)

	for _, action := range []*Action{
		c.prepareGmailAction(subject, text),
		c.prepareSlackAction(subject, text),
		c.prepareSheetsAction(subject, text),
	} {
		if action == nil {
			continue
		}
		report.Actions = append(report.Actions, *action)
	}

	for _, action := range report.Actions {
		c.validateAction(action)
		outcome := c.dispatcher.Execute(ctx, action.Name, action.Params)
		report.Results = append(report.Results, ActionResult{
			Action:  action.Name,
			Outcome: outcome,
		})
	}
	return report
}

// Catalog exposes the most recently resolved catalog, for reporting.
func (c *Coordinator) Catalog() *catalog.Catalog {
	return c.catalog
}

// validateAction checks prepared params against the tool's discovered
// input schema. Validation is advisory: a mismatch is logged and the
// action still dispatches, since schemas coming off the wire are not
// always trustworthy enough to veto a run.
func (c *Coordinator) validateAction(action Action) {
	rec, ok := c.catalog.Get(action.Name)
	if !ok {
		return
	}
	if err := catalog.ValidateParams(rec, action.Params); err != nil {
		c.log.Warn().Err(err).Str("action", action.Name).Msg("action params failed schema validation")
	}
}

func (c *Coordinator) riskDetected(text string) bool {
	if c.rule != nil {
		verdict, err := c.rule.Evaluate(text, c.cfg.RiskTerms)
		if err == nil {
			return verdict
		}
		c.log.Warn().Err(err).Msg("risk rule evaluation failed; falling back to term scan")
	}
	return analyze.ContainsAny(text, c.cfg.RiskTerms)
}
