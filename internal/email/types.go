package email

// Email is one outgoing message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData is passed to templates as-is.
type TemplateData map[string]interface{}
