// Package handlers implements the per-message-class event handlers of §4.5:
// parsing a message's family-specific fixed struct and attributes, then
// consulting the mode-dependent policy of §4.6 to decide whether a derived
// request should be enqueued. The handlers themselves hold no state; all
// state (mode, interface mapping, sequence counter, interface-index cache)
// is borrowed through the Context interface from the reconciler that owns
// it, per §9's "one owned context value, not global mutable state".
package handlers

import "github.com/simula/dynmhs/internal/wire"

// Mode is the three-state operating mode of §3: Undefined, Operational,
// Reset. It gates reconciler policy; it is not a protocol state.
type Mode int

const (
	ModeUndefined Mode = iota
	ModeOperational
	ModeReset
)

func (m Mode) String() string {
	switch m {
	case ModeOperational:
		return "operational"
	case ModeReset:
		return "reset"
	default:
		return "undefined"
	}
}

// Context is the narrow slice of reconciler state a handler needs to decide
// whether, and how, to derive a request from an observed message. It is
// implemented by *reconciler.Reconciler; handlers are tested against a fake.
type Context interface {
	// Mode reports the current operating mode.
	Mode() Mode

	// TableFor returns the custom table mapped to ifaceName, if managed.
	TableFor(ifaceName string) (uint32, bool)

	// IsCustomTable reports whether table is one of the mapping's custom
	// table identifiers (§3 invariant: disjoint from RT_TABLE_MAIN).
	IsCustomTable(table uint32) bool

	// NextSeq consumes and returns the next sequence number (§3: "every
	// outbound request consumes one", strictly increasing).
	NextSeq() uint32

	// ResolveIfName returns the interface name last observed for ifindex,
	// maintained from link dumps/notifications.
	ResolveIfName(ifindex int32) (string, bool)

	// RememberIfName records or updates an index-to-name mapping.
	RememberIfName(ifindex int32, name string)
}

// Dispatch routes a decoded message to its handler by nlmsg_type, returning
// zero or one derived request ready for the queue. Unknown types are logged
// and discarded (§4.5 edge cases); Dispatch never returns an error itself —
// handlers log and continue, the only propagated failures are transport-level
// (§4.5: "handlers never propagate errors").
func Dispatch(ctx Context, msg wire.Message) []byte {
	switch msg.Header.Type {
	case wire.RtmNewLink, wire.RtmDelLink:
		HandleLink(ctx, msg)
		return nil
	case wire.RtmNewAddr, wire.RtmDelAddr:
		return HandleAddr(ctx, msg)
	case wire.RtmNewRoute, wire.RtmDelRoute:
		return HandleRoute(ctx, msg)
	case wire.RtmNewRule, wire.RtmDelRule:
		return HandleRule(ctx, msg)
	case wire.NlmsgError, wire.NlmsgDone:
		// Consumed by the acknowledgement tracker, not a handler.
		return nil
	default:
		logUnknownType(msg.Header.Type)
		return nil
	}
}
