package templates

import "time"

// Template is a company's bid document template for one product type
// (CT, MRI, 超声 and so on). The file itself lives in the object store.
type Template struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"companyId"`
	Name            string    `json:"name"`
	TemplateType    string    `json:"templateType"`
	FileName        string    `json:"fileName"`
	MimeType        string    `json:"mimeType"`
	SizeBytes       int64     `json:"sizeBytes"`
	StorageProvider string    `json:"storageProvider"`
	StorageKey      string    `json:"-"`
	UploadedBy      string    `json:"uploadedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
