package templates

import "errors"

var (
	ErrTemplateNotFound = errors.New("templates: template not found")
	ErrParse            = errors.New("templates: failed to parse template")
	ErrRender           = errors.New("templates: failed to render template")
)
