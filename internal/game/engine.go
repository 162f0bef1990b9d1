package game

import (
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink receives the engine's outbound traffic. The websocket hub implements
// it; tests plug in a recorder.
type Sink interface {
	SendWorld(id PlayerID, msg *WorldMessage)
	SendError(id PlayerID, errType, text string)
}

// Engine owns the world behind a mutex and advances it on a fixed ticker.
// All world mutation happens on the tick goroutine; transports only enqueue
// actions and read snapshots.
type Engine struct {
	mu      sync.Mutex
	world   *World
	actions []Action
	sink    Sink

	step     time.Duration
	ticker   *time.Ticker
	stopChan chan struct{}
	running  bool

	onTick func(time.Duration)

	lastSent map[PlayerID]sentState
}

// sentState remembers the last per-player status fields so unchanged ones
// are trimmed from the next message.
type sentState struct {
	pos     Pos
	hasPos  bool
	health  HealthMessage
	hasHP   bool
	weapons string
}

// NewEngine wraps a world. step is the tick interval.
func NewEngine(world *World, step time.Duration, sink Sink) *Engine {
	return &Engine{
		world:    world,
		sink:     sink,
		step:     step,
		stopChan: make(chan struct{}),
		lastSent: make(map[PlayerID]sentState),
	}
}

// SetTickObserver registers a callback receiving each tick's duration.
func (e *Engine) SetTickObserver(fn func(time.Duration)) {
	e.onTick = fn
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(e.step)
	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Tick()
			case <-e.stopChan:
				return
			}
		}
	}()
	log.Printf("🎮 Simulation started, one tick every %s", e.step)
}

// Stop halts the tick loop. The tick in flight completes.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Simulation stopped")
}

// Enqueue adds an inbound action. Actions are applied in arrival order at
// the start of the next tick.
func (e *Engine) Enqueue(action Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions = append(e.actions, action)
}

// Tick runs one full simulation step: drain the inbox, update the world,
// synthesize and send views. Exposed so tests can step manually.
func (e *Engine) Tick() {
	start := time.Now()

	e.mu.Lock()
	actions := e.actions
	e.actions = nil
	for _, action := range actions {
		e.apply(action)
	}
	e.world.Update()
	views := e.world.View()
	order := make([]PlayerID, len(e.world.playerOrder))
	copy(order, e.world.playerOrder)
	e.mu.Unlock()

	for _, id := range order {
		msg, ok := views[id]
		if !ok {
			continue
		}
		e.trim(id, msg)
		if msg.IsEmpty() {
			continue
		}
		e.sink.SendWorld(id, msg)
	}

	if e.onTick != nil {
		e.onTick(time.Since(start))
	}
}

func (e *Engine) apply(action Action) {
	switch action.Kind {
	case ActionJoin:
		if err := e.world.AddPlayer(action.Player, action.Sprite); err != nil {
			log.Printf("⚠️ Can not add player %s: %v", action.Player, err)
			e.sink.SendError(action.Player, "worlderror", "player name already in use")
		} else {
			log.Printf("👤 Player joined: %s", action.Player)
		}
	case ActionLeave:
		if err := e.world.RemovePlayer(action.Player); err != nil {
			log.Printf("⚠️ Can not remove player %s: %v", action.Player, err)
		} else {
			log.Printf("👤 Player left: %s", action.Player)
		}
		delete(e.lastSent, action.Player)
	case ActionInput:
		if err := e.world.ControlPlayer(action.Player, action.Control); err != nil {
			e.sink.SendError(action.Player, "worlderror", "unknown player")
		}
	}
}

// trim drops status fields that match what the player last received, so idle
// ticks cost almost nothing on the wire.
func (e *Engine) trim(id PlayerID, msg *WorldMessage) {
	last := e.lastSent[id]
	next := last
	if msg.Pos != nil {
		if last.hasPos && *msg.Pos == last.pos {
			msg.Pos = nil
		} else {
			next.pos = *msg.Pos
			next.hasPos = true
		}
	}
	if msg.Health != nil {
		if last.hasHP && *msg.Health == last.health {
			msg.Health = nil
		} else {
			next.health = *msg.Health
			next.hasHP = true
		}
	}
	if msg.Weapons != nil {
		key := weaponsKey(msg.Weapons)
		if key == last.weapons {
			msg.Weapons = nil
		} else {
			next.weapons = key
		}
	}
	if len(msg.Change) == 0 {
		msg.Change = nil
	}
	e.lastSent[id] = next
}

func weaponsKey(w *WeaponsMessage) string {
	return strings.Join(w.Names, ",") + "#" + strconv.Itoa(w.Selected)
}

// Stats returns a consistent snapshot of the world summary.
func (e *Engine) Stats() WorldStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Stats()
}

// PlayerInfos returns a consistent snapshot of the player table.
func (e *Engine) PlayerInfos() []PlayerInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.PlayerInfos()
}
