package handlers

import (
	"encoding/binary"

	"github.com/simula/dynmhs/internal/rtlog"
	"github.com/simula/dynmhs/internal/wire"
)

// HandleRoute extracts { family, RTA_TABLE, RTA_OIF, ... } and, depending on
// mode, clones the inbound message into a derived request rather than
// re-encoding it attribute by attribute — preserving every attribute this
// code does not itself interpret (§4.5 route handler, §9 design notes).
func HandleRoute(ctx Context, msg wire.Message) []byte {
	if msg.Header.Type != wire.RtmNewRoute && msg.Header.Type != wire.RtmDelRoute {
		return nil
	}

	info, ok := parseRouteInfo(msg)
	if !ok {
		rtlog.Debugf("handlers: truncated route message, discarding")
		return nil
	}
	rtlog.Debugf("handlers: route family=%d dst_len=%d dst=%x gateway=%x table=%d metrics=%x",
		info.Family, info.DstLen, info.Dst, info.Gateway, info.Table, info.Metrics)

	switch ctx.Mode() {
	case ModeOperational:
		return mirrorMainTableRoute(ctx, msg, info)
	case ModeReset:
		return deleteCustomTableRoute(ctx, msg, info)
	default:
		return nil
	}
}

func mirrorMainTableRoute(ctx Context, msg wire.Message, info routeInfo) []byte {
	if info.Table != wire.RtTableMain || !info.HasOif {
		return nil
	}
	ifName, ok := ctx.ResolveIfName(info.Oif)
	if !ok {
		return nil
	}
	table, managed := ctx.TableFor(ifName)
	if !managed {
		return nil
	}

	clone := wire.CloneMessage(msg.Raw)
	if rewrote, err := wire.RewriteAttrValue(clone, wire.SizeofRtmsg, wire.RtaTable, encodeUint32(table)); err != nil || !rewrote {
		if err != nil {
			rtlog.Warnf("handlers: rewriting RTA_TABLE on mirrored route: %v", err)
		} else {
			rtlog.Debugf("handlers: main-table route for %s carries no RTA_TABLE attribute, skipping mirror", ifName)
		}
		return nil
	}

	flags := wire.FlagDeleteRequest
	if msg.Header.Type == wire.RtmNewRoute {
		flags = wire.FlagCreateRequest
	}
	wire.RewriteHeader(clone, msg.Header.Type, uint16(flags), ctx.NextSeq())

	rtlog.Infof("handlers: [%s] mirroring main-table route into table %d", ifName, table)
	return clone
}

func deleteCustomTableRoute(ctx Context, msg wire.Message, info routeInfo) []byte {
	if !ctx.IsCustomTable(info.Table) {
		return nil
	}

	clone := wire.CloneMessage(msg.Raw)
	wire.RewriteHeader(clone, wire.RtmDelRoute, uint16(wire.FlagDeleteRequest), ctx.NextSeq())

	rtlog.Infof("handlers: teardown: deleting route in custom table %d", info.Table)
	return clone
}

func encodeUint32(v uint32) []byte {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], v)
	return b[:]
}
