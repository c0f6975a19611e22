package wire

import "golang.org/x/sys/unix"

// Netlink message types the engine cares about, re-exported from
// golang.org/x/sys/unix under names that read naturally alongside Header
// and Message.
const (
	NlmsgError = unix.NLMSG_ERROR
	NlmsgDone  = unix.NLMSG_DONE

	RtmGetLink = unix.RTM_GETLINK
	RtmNewLink = unix.RTM_NEWLINK
	RtmDelLink = unix.RTM_DELLINK

	RtmGetAddr = unix.RTM_GETADDR
	RtmNewAddr = unix.RTM_NEWADDR
	RtmDelAddr = unix.RTM_DELADDR

	RtmGetRoute = unix.RTM_GETROUTE
	RtmNewRoute = unix.RTM_NEWROUTE
	RtmDelRoute = unix.RTM_DELROUTE

	RtmGetRule = unix.RTM_GETRULE
	RtmNewRule = unix.RTM_NEWRULE
	RtmDelRule = unix.RTM_DELRULE
)

// Request flag combinations used by the engine (§9).
const (
	FlagDumpRequest   = unix.NLM_F_REQUEST | unix.NLM_F_DUMP | unix.NLM_F_ACK
	FlagCreateRequest = unix.NLM_F_REQUEST | unix.NLM_F_CREATE | unix.NLM_F_EXCL | unix.NLM_F_ACK
	FlagDeleteRequest = unix.NLM_F_REQUEST | unix.NLM_F_ACK
)

// Family-specific fixed struct sizes, used as the familyStructSize argument
// to NewAttrIter and RewriteAttrValue.
const (
	SizeofIfinfomsg  = unix.SizeofIfInfomsg
	SizeofIfaddrmsg  = unix.SizeofIfAddrmsg
	SizeofRtmsg      = unix.SizeofRtMsg
	SizeofFibRuleHdr = 12 // struct fib_rule_hdr: family, dst_len, src_len, tos, table, res1, res2, action, flags — not exposed by x/sys/unix
)

// RtTableMain is the kernel's main routing table id (§3 invariant).
const RtTableMain = 254

// Address families the engine handles (§1 Non-goals: IPv4/IPv6 only).
const (
	AfUnspec = unix.AF_UNSPEC
	AfInet   = unix.AF_INET
	AfInet6  = unix.AF_INET6
)

// Attribute types of interest, grouped by family (§4.1 table). Every other
// attribute type the codec decodes is opaque and, where it appears in a
// cloned message, preserved byte-for-byte without ever being named here.
const (
	IflaIfname = unix.IFLA_IFNAME

	IfaAddress = unix.IFA_ADDRESS

	RtaDst     = unix.RTA_DST
	RtaGateway = unix.RTA_GATEWAY
	RtaTable   = unix.RTA_TABLE
	RtaOif     = unix.RTA_OIF
	RtaMetrics = unix.RTA_METRICS

	FraSrc      = unix.FRA_SRC
	FraPriority = unix.FRA_PRIORITY
	FraTable    = unix.FRA_TABLE

	FrActToTbl = unix.FR_ACT_TO_TBL
)
