package handlers

import (
	"encoding/binary"

	"github.com/simula/dynmhs/internal/wire"
)

// linkInfo holds the family and index fields of the ifinfomsg fixed struct
// (§4.5 link handler); its type, flags and change fields are not decoded.
type linkInfo struct {
	Family uint8
	Index  int32
}

func parseLinkInfo(payload []byte) (linkInfo, bool) {
	if len(payload) < wire.SizeofIfinfomsg {
		return linkInfo{}, false
	}
	return linkInfo{
		Family: payload[0],
		Index:  int32(binary.NativeEndian.Uint32(payload[4:8])),
	}, true
}

// addrInfo is the decoded ifaddrmsg fixed struct plus the IFA_ADDRESS
// attribute value (§4.5 address handler).
type addrInfo struct {
	Family       uint8
	PrefixLength uint8
	Index        uint32
	Address      []byte
}

func parseAddrInfo(msg wire.Message) (addrInfo, bool) {
	if len(msg.Payload) < wire.SizeofIfaddrmsg {
		return addrInfo{}, false
	}
	p := msg.Payload
	info := addrInfo{
		Family:       p[0],
		PrefixLength: p[1],
		Index:        binary.NativeEndian.Uint32(p[4:8]),
	}

	attrs, err := wire.Attrs(wire.NewAttrIter(msg.Payload, wire.SizeofIfaddrmsg))
	if err != nil {
		return addrInfo{}, false
	}
	for _, a := range attrs {
		if a.Type == wire.IfaAddress {
			info.Address = a.Value
		}
	}
	if info.Address == nil {
		return addrInfo{}, false
	}
	return info, true
}

// routeInfo holds the rtmsg fields and attributes the route handler decodes
// (§4.5 route handler): family, dst_len, the table (rtmsg.table, overridden
// by RTA_TABLE), RTA_OIF, RTA_DST, RTA_GATEWAY and RTA_METRICS; rtm_scope
// is not decoded. Dst/Gateway/
// Metrics are carried through for diagnostic logging only — the mirror and
// delete actions themselves operate on the cloned raw message, never on
// these decoded values, so a route missing one of them is never a reason to
// discard the event.
type routeInfo struct {
	Family  uint8
	DstLen  uint8
	Table   uint32
	Oif     int32
	HasOif  bool
	Dst     []byte
	Gateway []byte
	Metrics []byte
}

func parseRouteInfo(msg wire.Message) (routeInfo, bool) {
	if len(msg.Payload) < wire.SizeofRtmsg {
		return routeInfo{}, false
	}
	p := msg.Payload
	info := routeInfo{
		Family: p[0],
		DstLen: p[1],
		Table:  uint32(p[4]), // rtmsg.Table, overridden below if RTA_TABLE present
	}

	attrs, err := wire.Attrs(wire.NewAttrIter(msg.Payload, wire.SizeofRtmsg))
	if err != nil {
		return routeInfo{}, false
	}
	for _, a := range attrs {
		switch a.Type {
		case wire.RtaTable:
			if len(a.Value) == 4 {
				info.Table = binary.NativeEndian.Uint32(a.Value)
			}
		case wire.RtaOif:
			if len(a.Value) == 4 {
				info.Oif = int32(binary.NativeEndian.Uint32(a.Value))
				info.HasOif = true
			}
		case wire.RtaDst:
			info.Dst = a.Value
		case wire.RtaGateway:
			info.Gateway = a.Value
		case wire.RtaMetrics:
			info.Metrics = a.Value
		}
	}
	return info, true
}

// ruleInfo is the decoded fib_rule_hdr fixed struct plus FRA_TABLE/FRA_PRIORITY
// (§4.5 rule handler).
type ruleInfo struct {
	Family      uint8
	Table       uint32
	HasPriority bool
	Priority    uint32
}

func parseRuleInfo(msg wire.Message) (ruleInfo, bool) {
	if len(msg.Payload) < wire.SizeofFibRuleHdr {
		return ruleInfo{}, false
	}
	p := msg.Payload
	info := ruleInfo{
		Family: p[0],
		Table:  uint32(p[4]), // fib_rule_hdr.table, overridden below if FRA_TABLE present
	}

	attrs, err := wire.Attrs(wire.NewAttrIter(msg.Payload, wire.SizeofFibRuleHdr))
	if err != nil {
		return ruleInfo{}, false
	}
	for _, a := range attrs {
		switch a.Type {
		case wire.FraTable:
			if len(a.Value) == 4 {
				info.Table = binary.NativeEndian.Uint32(a.Value)
			}
		case wire.FraPriority:
			if len(a.Value) == 4 {
				info.Priority = binary.NativeEndian.Uint32(a.Value)
				info.HasPriority = true
			}
		}
	}
	return info, true
}

// isLinkLocalV6 reports whether addr (16 bytes) falls in fe80::/10 (§4.5:
// link-local addresses never get a source-routing rule).
func isLinkLocalV6(addr []byte) bool {
	return len(addr) == 16 && addr[0] == 0xfe && addr[1]&0xc0 == 0x80
}
