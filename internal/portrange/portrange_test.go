package portrange

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    PortRange
		wantErr bool
	}{
		{in: "0", want: PortRange{0, 0}},
		{in: "0-1000", wantErr: true},
		{in: "1000-999", wantErr: true},
		{in: "100-200", want: PortRange{100, 200}},
		{in: "123", want: PortRange{123, 123}},
		{in: "65535", want: PortRange{65535, 65535}},
		{in: "65536", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "100-", wantErr: true},
		{in: "-100", wantErr: true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) = %+v, nil; want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestStringAndIsDefault(t *testing.T) {
	if (PortRange{}).String() != "0" {
		t.Errorf("zero value String() = %q, want 0", (PortRange{}).String())
	}
	if !(PortRange{}).IsDefault() {
		t.Error("zero value IsDefault() = false, want true")
	}
	r := PortRange{100, 200}
	if r.String() != "100-200" {
		t.Errorf("String() = %q, want 100-200", r.String())
	}
	if r.IsDefault() {
		t.Error("100-200 IsDefault() = true, want false")
	}
}
