package ecoledger

const (
	operationSubmit = "submit"
	operationReset  = "reset"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	errorOperationFactors = "factors"
	errorOperationReport  = "report"
	errorOperationExport  = "export"

	errorSubjectActivity = "activity"
	errorSubjectSnapshot = "snapshot"
	errorSubjectRecord   = "record"

	errorCodeUnknown = "unknown"
	errorCodeEmpty   = "empty"
	errorCodeDecode  = "decode"
	errorCodeEncode  = "encode"
)
