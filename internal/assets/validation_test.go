package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "built-in style", input: DefaultStyleName},
		{name: "built-in template", input: DefaultTemplateName},
		{name: "hyphen and underscore", input: "dark-chat_v2"},
		{name: "max length", input: strings.Repeat("a", maxAssetNameLength)},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", maxAssetNameLength+1), wantErr: true},
		{name: "separator", input: "themes/dark", wantErr: true},
		{name: "backslash", input: `themes\dark`, wantErr: true},
		{name: "traversal", input: "../page", wantErr: true},
		{name: "extension", input: "page.html", wantErr: true},
		{name: "hidden", input: ".page", wantErr: true},
		{name: "space", input: "my page", wantErr: true},
		{name: "null byte", input: "page\x00", wantErr: true},
		{name: "non-ascii", input: "página", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if tt.wantErr && !errors.Is(err, ErrInvalidAssetName) {
				t.Errorf("ValidateAssetName(%q) error = %v, want ErrInvalidAssetName", tt.input, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateAssetName(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

func TestValidateAssetName_NamesInput(t *testing.T) {
	t.Parallel()

	err := ValidateAssetName("../page")
	if err == nil || !strings.Contains(err.Error(), `"../page"`) {
		t.Errorf("ValidateAssetName() error = %v, want the rejected name quoted", err)
	}
}
