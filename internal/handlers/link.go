package handlers

import (
	"github.com/simula/dynmhs/internal/rtlog"
	"github.com/simula/dynmhs/internal/wire"
)

// HandleLink parses IFLA_IFNAME and updates the interface-index cache.
// Link identity is consumed by the other handlers through ctx.ResolveIfName;
// the link event itself never enqueues a derived request (§4.5).
func HandleLink(ctx Context, msg wire.Message) {
	info, ok := parseLinkInfo(msg.Payload)
	if !ok {
		rtlog.Debugf("handlers: truncated link message, discarding")
		return
	}

	attrs, err := wire.Attrs(wire.NewAttrIter(msg.Payload, wire.SizeofIfinfomsg))
	if err != nil {
		rtlog.Debugf("handlers: truncated link attributes for ifindex %d, discarding", info.Index)
		return
	}

	var name string
	for _, a := range attrs {
		if a.Type == wire.IflaIfname {
			name = cString(a.Value)
		}
	}
	if name == "" {
		return
	}

	ctx.RememberIfName(info.Index, name)

	verb := "seen"
	if msg.Header.Type == wire.RtmDelLink {
		verb = "removed"
	}
	rtlog.Debugf("handlers: link %s: ifindex=%d name=%s", verb, info.Index, name)
}

// cString trims the trailing NUL (and anything after it) from a
// NUL-terminated attribute value such as IFLA_IFNAME.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
