package cli

import "testing"

func TestMapResourceArg(t *testing.T) {
	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{arg: "products", want: "api/data-products"},
		{arg: "data-products", want: "api/data-products"},
		{arg: "domains", want: "api/data-domains"},
		{arg: "data-domains", want: "api/data-domains"},
		{arg: "teams", want: "api/teams"},
		{arg: "policies", want: "api/compliance/policies"},
		{arg: "compliance-policies", want: "api/compliance/policies"},
		{arg: "notifications", want: "api/notifications"},
		{arg: "catalogs", wantErr: true},
		{arg: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := mapResourceArg(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("mapResourceArg(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("mapResourceArg(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}
