package handlers

import (
	"github.com/simula/dynmhs/internal/rtlog"
	"github.com/simula/dynmhs/internal/wire"
)

// HandleRule extracts { family, FRA_TABLE, FRA_PRIORITY }. In Reset mode,
// a rule targeting a custom table is cloned into a delete request (§4.5
// rule handler). Operational mode never acts on observed rules directly —
// rules are only ever created by this process's own address handler.
func HandleRule(ctx Context, msg wire.Message) []byte {
	if ctx.Mode() != ModeReset {
		return nil
	}
	if msg.Header.Type != wire.RtmNewRule && msg.Header.Type != wire.RtmDelRule {
		return nil
	}

	info, ok := parseRuleInfo(msg)
	if !ok {
		rtlog.Debugf("handlers: truncated rule message, discarding")
		return nil
	}
	if !ctx.IsCustomTable(info.Table) {
		return nil
	}

	clone := wire.CloneMessage(msg.Raw)
	wire.RewriteHeader(clone, wire.RtmDelRule, uint16(wire.FlagDeleteRequest), ctx.NextSeq())

	rtlog.Infof("handlers: teardown: deleting rule for table %d", info.Table)
	return clone
}
