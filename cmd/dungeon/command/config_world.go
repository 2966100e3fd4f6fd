package command

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/pixil98/go-dungeon/internal/game"
	"github.com/pixil98/go-dungeon/internal/spawn"
	"github.com/pixil98/go-dungeon/internal/storage"
	"github.com/pixil98/go-errors"
)

type WorldConfig struct {
	AssetsPath string `json:"asset_path"`
	StartRoom  string `json:"start_room"`
}

// roomSpec is the on-disk shape of one room. Exits refer to other rooms
// by asset id; numbering is assigned at build time.
type roomSpec struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Exits       []string   `json:"exits"`
	Spawner     spawn.Spec `json:"spawner"`
}

func (r *roomSpec) Validate() error {
	el := errors.NewErrorList()

	if r.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	el.Add(r.Spawner.Validate())

	return el.Err()
}

func (w *WorldConfig) Validate() error {
	el := errors.NewErrorList()

	if w.AssetsPath == "" {
		el.Add(fmt.Errorf("asset_path is required"))
	}
	if w.StartRoom == "" {
		el.Add(fmt.Errorf("start_room is required"))
	}

	return el.Err()
}

// buildWorld loads every room asset under the assets path and assembles
// the world map. It fails fast on exits to unknown rooms and a missing
// start room; the store already rejects duplicate ids.
func (w *WorldConfig) buildWorld() (*game.Map, error) {
	store, err := storage.NewFileStore[*roomSpec](w.AssetsPath)
	if err != nil {
		return nil, fmt.Errorf("loading rooms: %w", err)
	}

	rooms := store.GetAll()
	if len(rooms) == 0 {
		return nil, fmt.Errorf("no room files found under %s", w.AssetsPath)
	}

	seed := rand.NewPCG(rand.Uint64(), rand.Uint64())
	rng := rand.New(seed)

	// Register in id order so numbering is stable across restarts.
	ids := make([]storage.Identifier, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	builder := game.NewMapBuilder()
	numbers := make(map[storage.Identifier]int, len(rooms))
	for _, id := range ids {
		room := rooms[id]
		spawner, err := room.Spawner.Build(rng)
		if err != nil {
			return nil, fmt.Errorf("building spawner for room %q: %w", id, err)
		}
		numbers[id] = builder.RegisterRoom(room.Name, room.Description, spawner)
	}

	for _, id := range ids {
		for _, exit := range rooms[id].Exits {
			target, ok := numbers[storage.Identifier(exit)]
			if !ok {
				return nil, fmt.Errorf("room %q exits to unknown room %q", id, exit)
			}
			if err := builder.LinkRooms(numbers[id], target); err != nil {
				return nil, fmt.Errorf("linking %q to %q: %w", id, exit, err)
			}
		}
	}

	start, ok := numbers[storage.Identifier(w.StartRoom)]
	if !ok {
		return nil, fmt.Errorf("start room %q not found", w.StartRoom)
	}
	if err := builder.SetStartRoom(start); err != nil {
		return nil, fmt.Errorf("setting start room: %w", err)
	}

	return builder.Complete()
}
