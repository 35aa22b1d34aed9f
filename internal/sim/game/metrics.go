package game

import "sync/atomic"

type stats struct {
	players    atomic.Int64
	waystones  atomic.Int64
	stepMicros atomic.Int64
	teleports  atomic.Int64
	denied     atomic.Int64
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

// Metrics is a point-in-time view safe to read from any goroutine.
type Metrics struct {
	Tick        uint64      `json:"tick"`
	Players     int         `json:"players"`
	Waystones   int         `json:"waystones"`
	Teleports   int64       `json:"teleports"`
	Denied      int64       `json:"denied"`
	StepMS      float64     `json:"step_ms"`
	QueueDepths QueueDepths `json:"queue_depths"`
}

func (g *Game) Metrics() Metrics {
	return Metrics{
		Tick:      g.tick.Load(),
		Players:   int(g.stats.players.Load()),
		Waystones: int(g.stats.waystones.Load()),
		Teleports: g.stats.teleports.Load(),
		Denied:    g.stats.denied.Load(),
		StepMS:    float64(g.stats.stepMicros.Load()) / 1000,
		QueueDepths: QueueDepths{
			Inbox: len(g.inbox),
			Join:  len(g.join),
			Leave: len(g.leave),
		},
	}
}
