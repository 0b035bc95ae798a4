// Package transport declares the messaging-protocol collaborator.
//
// Connecting, event delivery, and encryption live behind this interface;
// this core only reads history and membership and revokes membership.
package transport

import (
	"context"

	"github.com/concordchat/concord/internal/domain"
)

// Transport is the messaging backend this core coordinates over.
type Transport interface {
	// ThreadHistory returns a thread's messages oldest first. The root
	// message is included. Always read fresh, never cached here.
	ThreadHistory(ctx context.Context, roomID, threadID string) ([]domain.Event, error)

	// RoomMembers returns the identities currently joined to a room.
	RoomMembers(ctx context.Context, roomID string) ([]string, error)

	// JoinedRooms returns the rooms a given identity is joined to.
	JoinedRooms(ctx context.Context, userID string) ([]string, error)

	// Kick revokes a member's room membership with a human-readable reason.
	Kick(ctx context.Context, roomID, userID, reason string) error
}

// KickFunc is the narrow revocation hook handed to sweeps.
type KickFunc func(ctx context.Context, roomID, userID, reason string) error

// Binding couples a Transport with its inbound event stream. Concrete
// chat-network integrations implement this and register with the CLI
// at startup.
type Binding interface {
	Transport

	// Events subscribes to inbound room events. The channel closes when
	// ctx is canceled or the underlying connection is lost.
	Events(ctx context.Context) (<-chan domain.Event, error)
}
