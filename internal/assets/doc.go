// Package assets provides the stylesheet and HTML template of the chat page
// that hosts formatted responses.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in page)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader the preview server uses when an asset path is
// configured. It tries the custom FilesystemLoader first, falling back to
// EmbeddedLoader if the asset is not found. This enables restyling the page
// without rebuilding.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # Page styles (built-in: chat.css)
//	└── templates/
//	    └── {name}.html          # html/template page (built-in: page.html)
//
// # Copy Triggers
//
// The page attaches a single click listener to the chat container and
// dispatches on the data-copy attribute of the clicked element: "code"
// copies the <pre> named by data-copy-target, "message" copies the enclosing
// message. Rendered fragments never carry inline handlers.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
