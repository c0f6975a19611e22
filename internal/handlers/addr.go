package handlers

import (
	"github.com/simula/dynmhs/internal/rtlog"
	"github.com/simula/dynmhs/internal/wire"
)

// HandleAddr extracts { family, prefix_length, ifa_index, IFA_ADDRESS } and,
// in Operational mode for a managed non-link-local address, builds a
// source-based policy rule request (§4.5 address handler). One rule per
// managed address, keyed by priority equal to the table id, keeps the rule
// priority space disjoint and stable across restarts.
func HandleAddr(ctx Context, msg wire.Message) []byte {
	if msg.Header.Type != wire.RtmNewAddr && msg.Header.Type != wire.RtmDelAddr {
		return nil
	}
	if ctx.Mode() != ModeOperational {
		return nil
	}

	info, ok := parseAddrInfo(msg)
	if !ok {
		rtlog.Debugf("handlers: truncated address message, discarding")
		return nil
	}

	if info.Family == wire.AfInet6 && isLinkLocalV6(info.Address) {
		return nil
	}

	ifName, ok := ctx.ResolveIfName(int32(info.Index))
	if !ok {
		rtlog.Debugf("handlers: address on unknown ifindex %d, discarding", info.Index)
		return nil
	}
	table, managed := ctx.TableFor(ifName)
	if !managed {
		return nil
	}

	srcLen := uint8(32)
	if info.Family == wire.AfInet6 {
		srcLen = 128
	}

	ruleType := uint16(wire.RtmNewRule)
	flags := wire.FlagCreateRequest
	if msg.Header.Type == wire.RtmDelAddr {
		ruleType = wire.RtmDelRule
		flags = wire.FlagDeleteRequest
	}

	req, err := buildRuleRequest(ctx.NextSeq(), ruleType, uint16(flags), info.Family, srcLen, info.Address, table)
	if err != nil {
		rtlog.Warnf("handlers: building rule request for %s: %v", ifName, err)
		return nil
	}

	rtlog.Infof("handlers: [%s] address %s table %d", ifName, ruleVerb(msg.Header.Type), table)
	return req
}

func ruleVerb(nlmsgType uint16) string {
	if nlmsgType == wire.RtmDelAddr {
		return "removed, dropping rule"
	}
	return "added, installing rule"
}

// buildRuleRequest encodes one FRA_SRC/FRA_PRIORITY/FRA_TABLE rule message
// with action FR_ACT_TO_TBL, per §4.5.
func buildRuleRequest(seq uint32, msgType, flags uint16, family uint8, srcLen uint8, src []byte, table uint32) ([]byte, error) {
	enc := wire.NewEncoder(512)
	enc.PutHeader(wire.Header{Type: msgType, Flags: flags, Seq: seq})

	hdr := make([]byte, wire.SizeofFibRuleHdr)
	hdr[0] = family
	hdr[2] = srcLen
	hdr[4] = 0 // table field left unset; FRA_TABLE carries the real (>255) id
	hdr[7] = wire.FrActToTbl
	if err := enc.PutFamily(hdr); err != nil {
		return nil, err
	}
	if err := enc.PutAttr(wire.FraSrc, src); err != nil {
		return nil, err
	}
	if err := enc.PutUint32Attr(wire.FraPriority, table); err != nil {
		return nil, err
	}
	if err := enc.PutUint32Attr(wire.FraTable, table); err != nil {
		return nil, err
	}
	return enc.Finish(), nil
}
