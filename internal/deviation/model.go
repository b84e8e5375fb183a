package deviation

import "time"

// Classifications of a deviation record.
const (
	Positive = "positive"
	None     = "none"
	Negative = "negative"
)

// CodeComputation marks records whose comparison could not be computed.
const CodeComputation = "COMPUTATION_ERROR"

// Remarks written by the evaluator.
const (
	RemarkMissingSpec   = "产品参数库中未找到该参数"
	RemarkEmptyValue    = "产品参数值为空"
	RemarkManualConfirm = "招标要求未给出比较方式，需人工确认"
)

// Record compares one tender requirement with one product model's value.
type Record struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"companyId"`
	ProjectID      string    `json:"projectId"`
	ProductModel   string    `json:"productModel"`
	RequirementID  string    `json:"requirementId"`
	Seq            int       `json:"seq"`
	ParameterName  string    `json:"parameterName"`
	TenderValue    string    `json:"tenderValue"`
	OurValue       string    `json:"ourValue"`
	Classification string    `json:"classification"`
	Remark         string    `json:"remark"`
	RemarkEdited   bool      `json:"remarkEdited"`
	ErrorCode      string    `json:"errorCode,omitempty"`
	ComputedAt     time.Time `json:"computedAt"`
}

// Summary counts records by classification.
type Summary struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
	None     int `json:"none"`
	Negative int `json:"negative"`
	Errors   int `json:"errors"`
}

// Summarize counts records by classification. Errors are also negatives.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Classification {
		case Positive:
			s.Positive++
		case None:
			s.None++
		default:
			s.Negative++
		}
		if r.ErrorCode != "" {
			s.Errors++
		}
	}
	return s
}

// Result is an evaluated or stored deviation table.
type Result struct {
	ProjectID    string   `json:"projectId"`
	ProductModel string   `json:"productModel,omitempty"`
	Records      []Record `json:"records"`
	Summary      Summary  `json:"summary"`
}

// Label returns the Chinese label used in exported tables.
func Label(classification string) string {
	switch classification {
	case Positive:
		return "正偏离"
	case None:
		return "无偏离"
	default:
		return "负偏离"
	}
}
