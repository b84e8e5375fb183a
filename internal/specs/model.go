package specs

import "time"

// Entry is one parameter of a product model in the company catalog.
type Entry struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"companyId"`
	Category       string    `json:"category"`
	SubCategory    string    `json:"subCategory"`
	ProductModel   string    `json:"productModel"`
	ParameterName  string    `json:"parameterName"`
	ParameterValue string    `json:"parameterValue"`
	IsCoreParam    bool      `json:"isCoreParam"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Model summarises one product model of the catalog.
type Model struct {
	ProductModel   string `json:"productModel"`
	Category       string `json:"category"`
	SubCategory    string `json:"subCategory"`
	ParameterCount int    `json:"parameterCount"`
}

// ListFilter narrows List results.
type ListFilter struct {
	ProductModel string
	Category     string
	Query        string
	Limit        int
	Offset       int
}
