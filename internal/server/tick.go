package server

import (
	"context"
	"time"

	"github.com/pixil98/go-dungeon/internal/game"
	"github.com/pixil98/go-dungeon/internal/proto"
	"github.com/pixil98/go-log"
)

// Tick advances the world one step: started players regenerate, room
// spawners run, and every entity whose state changed since the last
// tick is resynced to the players who can see it.
func (s *Server) Tick(ctx context.Context) error {
	var out []delivery

	s.mu.Lock()
	s.worldMu.Lock()

	for _, sess := range s.sessions {
		if !sess.Started {
			continue
		}
		sess.Entity.Regenerate()
	}

	s.world.UpdateMonsters()

	for _, room := range s.world.Rooms() {
		occupants := room.PlayerIDs()
		if len(occupants) == 0 {
			continue
		}

		var changed []*game.Entity
		changed = append(changed, room.DirtyMonsters(false)...)
		for _, id := range occupants {
			if sess, ok := s.sessions[id]; ok && sess.Entity.Dirty {
				changed = append(changed, sess.Entity)
			}
		}

		for _, e := range changed {
			pkt := characterPacket(e, true)
			for _, id := range occupants {
				out = append(out, delivery{packet: pkt, client: id})
			}
		}
	}

	s.world.ClearDirtyFlags()
	for _, sess := range s.sessions {
		sess.Entity.Dirty = false
	}

	s.worldMu.Unlock()
	s.mu.Unlock()

	if len(out) > 0 {
		log.GetLogger(ctx).Infof("tick resyncing %d packets", len(out))
	}
	s.flush(out)
	return nil
}

// Status is a point-in-time summary of the server for diagnostics.
type Status struct {
	Sessions      int   `json:"sessions"`
	Started       int   `json:"started"`
	Rooms         int   `json:"rooms"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// RoomCensus describes one room's population for diagnostics.
type RoomCensus struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Players  int    `json:"players"`
	Monsters int    `json:"monsters"`
	Alive    int    `json:"alive"`
}

// Snapshot returns the current status without disturbing game state.
func (s *Server) Snapshot() Status {
	s.mu.Lock()
	s.worldMu.Lock()
	defer s.worldMu.Unlock()
	defer s.mu.Unlock()

	st := Status{
		Sessions:      len(s.sessions),
		Rooms:         len(s.world.Rooms()),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	for _, sess := range s.sessions {
		if sess.Started {
			st.Started++
		}
	}
	return st
}

// Census returns a per-room population summary, ordered by room number.
func (s *Server) Census() []RoomCensus {
	s.mu.Lock()
	s.worldMu.Lock()
	defer s.worldMu.Unlock()
	defer s.mu.Unlock()

	rooms := s.world.Rooms()
	census := make([]RoomCensus, 0, len(rooms))
	for _, room := range rooms {
		rc := RoomCensus{
			Number:   room.Number(),
			Name:     room.Name(),
			Players:  len(room.PlayerIDs()),
			Monsters: len(room.Monsters()),
		}
		for _, m := range room.Monsters() {
			if m.Alive {
				rc.Alive++
			}
		}
		census = append(census, rc)
	}
	return census
}

// Broadcast sends a system message to every started player. The driver
// uses it for shutdown notices.
func (s *Server) Broadcast(content string) {
	var out []delivery

	s.mu.Lock()
	for id, sess := range s.sessions {
		if !sess.Started {
			continue
		}
		out = append(out, delivery{
			packet: proto.Message{Sender: proto.SystemSender, Recipient: sess.Entity.Name, Content: content},
			client: id,
		})
	}
	s.mu.Unlock()

	s.flush(out)
}
