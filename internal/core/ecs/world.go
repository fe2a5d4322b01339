package ecs

// World is the top-level ECS container. It owns the entity pool, the stores
// registered for bulk removal, and a deferred destruction queue flushed by
// CleanupSystem at the end of each frame.
type World struct {
	pool         *EntityPool
	stores       []Removable
	onDestroy    []func(EntityID)
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		stores:       make([]Removable, 0, 16),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool { return w.pool }

// Register adds a component store so destroyed entities are cleared from it.
func (w *World) Register(store Removable) {
	w.stores = append(w.stores, store)
}

// OnDestroy registers a hook run for each entity just before its components
// are dropped. Hooks see the entity's components still attached.
func (w *World) OnDestroy(fn func(EntityID)) {
	w.onDestroy = append(w.onDestroy, fn)
}

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for end-of-frame cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
// Returns how many live entities were destroyed.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if !w.pool.Alive(id) {
			continue
		}
		for _, fn := range w.onDestroy {
			fn(id)
		}
		for _, s := range w.stores {
			s.Remove(id)
		}
		w.pool.Destroy(id)
		n++
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}
