package strategy

import "errors"

// ErrNoFeasibleRegion is returned when no region satisfies the task's SLA
// latency bound (or no feasible region has capacity). The caller decides the
// fallback policy; the selector never silently picks an infeasible region.
var ErrNoFeasibleRegion = errors.New("no feasible region")
