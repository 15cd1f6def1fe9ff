package importer

// Result classifies a finished import.
type Result string

const (
	ResultFail       Result = "FAIL"
	ResultOK         Result = "OK"
	ResultPartial    Result = "PARTIAL"
	ResultNothingNew Result = "NOTHING_NEW"
)

// Classify derives the result from the import counters.
//
//	imported  failed  result
//	0         0       NOTHING_NEW
//	>0        >0      PARTIAL
//	0         >0      FAIL
//	>0        0       OK
func Classify(imported, failed int) Result {
	switch {
	case imported == 0 && failed == 0:
		return ResultNothingNew
	case imported > 0 && failed > 0:
		return ResultPartial
	case failed > 0:
		return ResultFail
	default:
		return ResultOK
	}
}

// Report is the outcome of one import.
type Report struct {
	RunID    string
	Source   string
	Result   Result
	Imported int
	Failed   int
}
