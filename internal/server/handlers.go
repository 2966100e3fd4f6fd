package server

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pixil98/go-dungeon/internal/game"
	"github.com/pixil98/go-dungeon/internal/proto"
)

// HandleConnect registers a fresh session and greets it with the game
// rules. Reconnecting an id that is already registered is a no-op.
func (s *Server) HandleConnect(id uuid.UUID) error {
	s.mu.Lock()
	if _, exists := s.sessions[id]; exists {
		s.mu.Unlock()
		return nil
	}
	s.sessions[id] = newSession(id, &s.consts)
	n := len(s.sessions)
	s.mu.Unlock()

	if s.rec != nil {
		s.rec.SetPlayers(n)
	}

	s.flush([]delivery{{
		packet: proto.GameInfo{
			InitialPoints: s.consts.StatPoints,
			StatLimit:     s.consts.StatLimit,
			Description:   s.consts.Description,
		},
		client: id,
	}})
	return nil
}

// HandleCharacter validates a character submission. A valid submission
// marks the session ready; submitting again before starting replaces the
// pending character outright.
func (s *Server) HandleCharacter(id uuid.UUID, name string, attack, defense, regen int, desc string) error {
	var out []delivery

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("character submission from unknown client %s", id)
	}

	switch {
	case sess.Started:
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrOther, Message: "You have already started with a character."},
			client: id,
		})

	case name == "":
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrStat, Message: "A character needs a name."},
			client: id,
		})

	case s.nameTaken(name, id):
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrOther, Message: fmt.Sprintf("The name %q is already taken.", name)},
			client: id,
		})

	default:
		if reason := s.consts.checkStats(attack, defense, regen); reason != "" {
			out = append(out, delivery{
				packet: proto.Error{Code: proto.ErrStat, Message: reason},
				client: id,
			})
			break
		}

		sess.Entity = game.NewPlayer(name, attack, defense, regen, s.consts.InitHealth, s.consts.InitGold, desc)
		sess.Ready = true
		out = append(out,
			delivery{packet: proto.Accept{Action: "character"}, client: id},
			delivery{packet: characterPacket(sess.Entity, false), client: id},
		)
	}
	s.mu.Unlock()

	s.flush(out)
	return nil
}

// nameTaken reports whether another session already owns the name.
// Callers hold mu.
func (s *Server) nameTaken(name string, self uuid.UUID) bool {
	for id, other := range s.sessions {
		if id != self && other.Ready && other.Entity.Name == name {
			return true
		}
	}
	return false
}

// HandleStart promotes a ready session into the world at the start room.
func (s *Server) HandleStart(id uuid.UUID) error {
	var out []delivery

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("start request from unknown client %s", id)
	}

	switch {
	case !sess.Ready:
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrNotReady, Message: "You need to submit a valid character before starting."},
			client: id,
		})
	case sess.Started:
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrOther, Message: "You have already started."},
			client: id,
		})
	default:
		s.worldMu.Lock()
		start := s.world.StartRoom()
		start.PlacePlayer(id)
		sess.Started = true
		sess.Entity.Location = start.Number()

		out = append(out, delivery{packet: proto.Accept{Action: "start"}, client: id})
		out = append(out, delivery{packet: characterPacket(sess.Entity, true), client: id})
		out = append(out, s.roomEntryPackets(start, sess)...)
		out = s.broadcastToRoom(out, start, characterPacket(sess.Entity, true), id)
		s.worldMu.Unlock()
	}
	s.mu.Unlock()

	s.flush(out)
	return nil
}

// HandleChangeRoom moves a started player to an adjacent room. Adjacency
// is validated here; the map's move only checks existence.
func (s *Server) HandleChangeRoom(id uuid.UUID, target int) error {
	var out []delivery

	s.mu.Lock()
	sess, started := s.startedSession(id)
	if sess == nil {
		s.mu.Unlock()
		return fmt.Errorf("change room request from unknown client %s", id)
	}
	if !started {
		s.mu.Unlock()
		s.flush([]delivery{{
			packet: proto.Error{Code: proto.ErrNotReady, Message: "You are not in the world yet."},
			client: id,
		}})
		return nil
	}

	s.worldMu.Lock()
	cur := s.world.PlayerRoom(id)
	if cur == nil {
		s.worldMu.Unlock()
		s.mu.Unlock()
		return fmt.Errorf("started player %s is missing from the map", id)
	}

	switch {
	case !cur.IsAdjacentTo(target):
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrBadRoom, Message: "Not an adjacent room."},
			client: id,
		})

	default:
		switch s.world.MovePlayer(id, target) {
		case game.MoveInvalidRoom:
			out = append(out, delivery{
				packet: proto.Error{Code: proto.ErrBadRoom, Message: "No such room."},
				client: id,
			})
		case game.MoveInvalidPlayer:
			s.worldMu.Unlock()
			s.mu.Unlock()
			return fmt.Errorf("started player %s vanished during move", id)
		case game.MoveSuccess:
			dest := s.world.Room(target)
			sess.Entity.Location = target
			sess.Entity.Dirty = true

			out = append(out, s.roomEntryPackets(dest, sess)...)
			moved := characterPacket(sess.Entity, true)
			out = s.broadcastToRoom(out, cur, moved, id)
			out = s.broadcastToRoom(out, dest, moved, id)
			sess.Entity.Dirty = false
		}
	}
	s.worldMu.Unlock()
	s.mu.Unlock()

	s.flush(out)
	return nil
}

// HandleFight resolves one combat exchange between the player and a
// random living monster in its room.
func (s *Server) HandleFight(id uuid.UUID) error {
	var out []delivery

	s.mu.Lock()
	sess, started := s.startedSession(id)
	if sess == nil {
		s.mu.Unlock()
		return fmt.Errorf("fight request from unknown client %s", id)
	}
	if !started {
		s.mu.Unlock()
		s.flush([]delivery{{
			packet: proto.Error{Code: proto.ErrNotReady, Message: "You are not in the world yet."},
			client: id,
		}})
		return nil
	}

	s.worldMu.Lock()
	room := s.world.PlayerRoom(id)
	if room == nil {
		s.worldMu.Unlock()
		s.mu.Unlock()
		return fmt.Errorf("started player %s is missing from the map", id)
	}

	monster := room.RandomAliveMonster(s.rng)
	if monster == nil {
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrNoTarget, Message: "There is nothing here to fight."},
			client: id,
		})
	} else {
		narrative := s.resolver.Resolve(sess.Entity, monster)
		if s.rec != nil {
			s.rec.CountCombat()
		}

		out = narrate(out, id, sess.Entity.Name, narrative)

		// Resync both combatants to everyone in the room, then clear
		// their flags so the tick does not repeat the push.
		for _, e := range []*game.Entity{sess.Entity, monster} {
			pkt := characterPacket(e, true)
			out = append(out, delivery{packet: pkt, client: id})
			out = s.broadcastToRoom(out, room, pkt, id)
			e.Dirty = false
		}
	}
	s.worldMu.Unlock()
	s.mu.Unlock()

	s.flush(out)
	return nil
}

// HandlePvpFight always rejects: there is no player-versus-player
// resolution on this server.
func (s *Server) HandlePvpFight(id uuid.UUID, target string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("pvp fight request from unknown client %s", id)
	}

	s.flush([]delivery{{
		packet: proto.Error{Code: proto.ErrOther, Message: "PvP fighting is not enabled on this server."},
		client: id,
	}})
	return nil
}

// HandleLoot transfers a dead monster's gold to the player, exactly once.
func (s *Server) HandleLoot(id uuid.UUID, target string) error {
	var out []delivery

	s.mu.Lock()
	sess, started := s.startedSession(id)
	if sess == nil {
		s.mu.Unlock()
		return fmt.Errorf("loot request from unknown client %s", id)
	}
	if !started {
		s.mu.Unlock()
		s.flush([]delivery{{
			packet: proto.Error{Code: proto.ErrNotReady, Message: "You are not in the world yet."},
			client: id,
		}})
		return nil
	}

	s.worldMu.Lock()
	room := s.world.PlayerRoom(id)
	if room == nil {
		s.worldMu.Unlock()
		s.mu.Unlock()
		return fmt.Errorf("started player %s is missing from the map", id)
	}

	switch result, monster := room.LootMonster(target); result {
	case game.LootInvalidTarget:
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrNoTarget, Message: fmt.Sprintf("There is no %q here to loot.", target)},
			client: id,
		})

	case game.LootTargetAlive:
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrOther, Message: fmt.Sprintf("%s is still alive. Perhaps fight it first.", target)},
			client: id,
		})

	case game.LootSuccess:
		looted := monster.Gold
		sess.Entity.Gold += looted
		monster.Gold = 0

		out = narrate(out, id, sess.Entity.Name, fmt.Sprintf("You loot %d gold from %s.", looted, monster.Name))

		// The monster is gone from the room; push its final state and
		// the looter's new wealth to everyone present.
		finalMonster := characterPacket(monster, true)
		looter := characterPacket(sess.Entity, true)
		out = append(out, delivery{packet: finalMonster, client: id})
		out = append(out, delivery{packet: looter, client: id})
		out = s.broadcastToRoom(out, room, finalMonster, id)
		out = s.broadcastToRoom(out, room, looter, id)
		sess.Entity.Dirty = false
	}
	s.worldMu.Unlock()
	s.mu.Unlock()

	s.flush(out)
	return nil
}

// HandleMessage relays chat to a named started player.
func (s *Server) HandleMessage(id uuid.UUID, target, content string) error {
	var out []delivery

	s.mu.Lock()
	sess, started := s.startedSession(id)
	if sess == nil {
		s.mu.Unlock()
		return fmt.Errorf("message from unknown client %s", id)
	}

	switch {
	case !started:
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrNotReady, Message: "You are not in the world yet."},
			client: id,
		})

	case !sess.allowChat():
		out = append(out, delivery{
			packet: proto.Error{Code: proto.ErrOther, Message: "You are sending messages too quickly."},
			client: id,
		})

	case target == sess.Entity.Name:
		// Self-messages skip the recipient lookup entirely. Routing them
		// through the registry would touch state this operation already
		// holds locked, so the direct path is load-bearing.
		out = append(out, delivery{
			packet: proto.Message{Sender: sess.Entity.Name, Recipient: target, Content: content},
			client: id,
		})

	default:
		recipient := s.sessionByName(target)
		if recipient == nil || !recipient.Started {
			out = append(out, delivery{
				packet: proto.Error{Code: proto.ErrNoTarget, Message: fmt.Sprintf("There is no player named %q.", target)},
				client: id,
			})
			break
		}
		out = append(out, delivery{
			packet: proto.Message{Sender: sess.Entity.Name, Recipient: target, Content: content},
			client: recipient.ClientID,
		})
	}
	s.mu.Unlock()

	s.flush(out)
	return nil
}

// HandleLeave removes the player from the world and the registry. It is
// idempotent: a disconnect racing a leave applies cleanly.
func (s *Server) HandleLeave(id uuid.UUID) error {
	var out []delivery

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.sessions, id)
	n := len(s.sessions)

	s.worldMu.Lock()
	if sess.Started {
		if room := s.world.PlayerRoom(id); room != nil {
			s.world.ClearPlayer(id)
			out = s.broadcastToRoom(out, room,
				proto.Message{
					Sender:    proto.SystemSender,
					Content:   fmt.Sprintf("%s has left the realm.", sess.Entity.Name),
					Recipient: "",
				}, id)
		} else {
			s.world.ClearPlayer(id)
		}
	}
	s.worldMu.Unlock()
	s.mu.Unlock()

	if s.rec != nil {
		s.rec.SetPlayers(n)
	}

	s.flush(out)
	return nil
}

// HandleDisconnect is a transport-initiated leave.
func (s *Server) HandleDisconnect(id uuid.UUID) error {
	return s.HandleLeave(id)
}

// startedSession returns the session and whether it has entered the
// world. Callers hold mu. A nil session means the client is unknown.
func (s *Server) startedSession(id uuid.UUID) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return sess, sess.Started
}

// sessionByName finds a ready session by character name. Callers hold mu.
func (s *Server) sessionByName(name string) *Session {
	for _, sess := range s.sessions {
		if sess.Ready && sess.Entity.Name == name {
			return sess
		}
	}
	return nil
}
