package app

import (
	"github.com/rs/zerolog/log"
	"trivia-client/internal/protocol"
)

// requestResync asks the server for the active question. The reply goes
// through the normal question handler; silence only ends the wait.
func (c *Client) requestResync() {
	if c.phase != PhaseInGame || c.events == nil || c.ident.IsZero() {
		return
	}
	if err := c.emit(protocol.GetCurrentQuestion{RoomCode: c.room.Code, PlayerID: c.ident.ParticipantID}); err != nil {
		return
	}
	if c.resyncTimer != nil {
		c.resyncTimer.Stop()
	}
	c.resyncTimer = c.clock.NewTimer(c.resyncWait)
	c.resyncing = true
	log.Debug().Str("room", c.room.Code).Msg("resync requested")
}

func (c *Client) onResyncTimeout() {
	if c.resyncTimer == nil {
		return
	}
	c.resyncTimer = nil
	c.resyncing = false
	log.Warn().Str("room", c.room.Code).Dur("waited", c.resyncWait).Msg("no current question, waiting for next broadcast")
}
