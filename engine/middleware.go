package engine

import (
	"log/slog"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/middleware"
)

// middlewareFor builds the attempt middleware chain. The attempt bound
// is a multiple of the step timeout since one attempt may make several
// external calls, each individually bounded tighter by its step.
func middlewareFor(cfg fluxdesk.Config, logger *slog.Logger) []middleware.Middleware {
	return []middleware.Middleware{
		middleware.Recover(logger),
		middleware.Logging(logger),
		middleware.Tracing("fluxdesk/engine"),
		middleware.Timeout(4 * cfg.StepTimeout),
	}
}
