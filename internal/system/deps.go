package system

import (
	"time"

	"github.com/dudliq/locomotion/internal/config"
	"github.com/dudliq/locomotion/internal/core/event"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/scripting"
	"github.com/dudliq/locomotion/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into every frame stage.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	World     *world.State
	Bus       *event.Bus
	Scripting *scripting.Engine // nil when no scripts are loaded
	Oracle    movement.Oracle
	Resolver  *movement.Resolver
}

// seconds converts a frame duration to the float seconds the movement code
// integrates with.
func seconds(dt time.Duration) float32 {
	return float32(dt.Seconds())
}
