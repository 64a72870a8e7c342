// Package signals provides the built-in signal registry.
package signals

import (
	"github.com/kagawa-dx/bosaictl/internal/signal"
	"github.com/kagawa-dx/bosaictl/internal/signals/listen"
	"github.com/kagawa-dx/bosaictl/internal/signals/logtail"
	"github.com/kagawa-dx/bosaictl/internal/signals/procenv"
	"github.com/kagawa-dx/bosaictl/internal/signals/source"
	"github.com/kagawa-dx/bosaictl/internal/signals/unit"
)

// GetAllDescriptions returns descriptions of all built-in signals.
func GetAllDescriptions() []signal.Description {
	return []signal.Description{
		listen.GetDescription(),
		logtail.GetDescription(),
		procenv.GetDescription(),
		source.GetDescription(),
		unit.GetDescription(),
	}
}
