package registry

// RequestKind enumerates every entry of the dispatcher's fixed table
// (spec §4.6, §6.3).
type RequestKind int

const (
	ReqInvalid RequestKind = iota
	ReqOpen
	ReqClose
	ReqEcho
	ReqNew
	ReqFind
	ReqGet
	ReqPrint
	ReqSet
	ReqType
	ReqName
	ReqLength
	ReqNotify
	ReqNotifyCancel
	ReqGetValidationRequest
	ReqSendValidationResponse
	ReqOpenPrintSession
	ReqClosePrintSession
	ReqGetFirst
	ReqGetNext
	ReqAlias
	ReqSetFlags
	ReqClearFlags
	ReqCalcResponse
	ReqGetFlags
	ReqGetInfo
	ReqGetAliases
	reqCount // sentinel: table size
)

func (k RequestKind) String() string {
	switch k {
	case ReqOpen:
		return "OPEN"
	case ReqClose:
		return "CLOSE"
	case ReqEcho:
		return "ECHO"
	case ReqNew:
		return "NEW"
	case ReqFind:
		return "FIND"
	case ReqGet:
		return "GET"
	case ReqPrint:
		return "PRINT"
	case ReqSet:
		return "SET"
	case ReqType:
		return "TYPE"
	case ReqName:
		return "NAME"
	case ReqLength:
		return "LENGTH"
	case ReqNotify:
		return "NOTIFY"
	case ReqNotifyCancel:
		return "NOTIFY_CANCEL"
	case ReqGetValidationRequest:
		return "GET_VALIDATION_REQUEST"
	case ReqSendValidationResponse:
		return "SEND_VALIDATION_RESPONSE"
	case ReqOpenPrintSession:
		return "OPEN_PRINT_SESSION"
	case ReqClosePrintSession:
		return "CLOSE_PRINT_SESSION"
	case ReqGetFirst:
		return "GET_FIRST"
	case ReqGetNext:
		return "GET_NEXT"
	case ReqAlias:
		return "ALIAS"
	case ReqSetFlags:
		return "SET_FLAGS"
	case ReqClearFlags:
		return "CLEAR_FLAGS"
	case ReqCalcResponse:
		return "CALC_RESPONSE"
	case ReqGetFlags:
		return "GET_FLAGS"
	case ReqGetInfo:
		return "GET_INFO"
	case ReqGetAliases:
		return "GET_ALIASES"
	default:
		return "INVALID"
	}
}

// Request is one dispatcher inbox entry (spec §6.3): a request kind plus
// whichever fields it needs, all carried inline rather than as an
// interface{} payload.
type Request struct {
	Kind RequestKind

	Name     string
	Instance int32
	GUID     string

	Handle Handle
	Value  Value

	NotifyKind NotifyKind
	MQTarget   string

	TxnID  uint64
	Result Code

	FlagBits Flags

	Search SearchParams
	CtxID  uint64

	AliasReq AliasRequest

	AliasBuf []Handle

	NewInfo VariableInfo
}
