package assets

// Built-in asset names.
const (
	DefaultStyleName    = "chat"
	DefaultTemplateName = "page"
)
