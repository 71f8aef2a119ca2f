// Package fluxchart provides a hierarchical state machine engine.
//
// Charts are defined declaratively in YAML and built into trees of states:
// composite states with initial children and history, final states that
// report an outcome, and service states that run an action and move on when
// it completes. A machine owns one chart, serialises every transition on a
// single worker and reports its lifecycle to listeners.
//
// Host applications typically use the Service facade:
//
//	srv, _ := fluxchart.New()
//	def, _ := srv.LoadChart(ctx, "order.yaml")
//	m, _ := srv.Runtime().StartMachine(ctx, def)
//	_ = m.ReceiveEvent(event.New("submit", nil))
//	run, _ := srv.Runtime().Wait(ctx, m.ID())
//
// For more details see the README and individual sub-packages.
package fluxchart
