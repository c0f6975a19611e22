package handlers

import "github.com/simula/dynmhs/internal/rtlog"

func logUnknownType(nlmsgType uint16) {
	rtlog.Debugf("handlers: discarding message of unknown type %d", nlmsgType)
}
