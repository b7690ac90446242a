package client

import (
	"testing"

	"github.com/qcp-go/qcp/internal/transport"
)

func TestParseFileSpec(t *testing.T) {
	cases := []struct {
		in   string
		want FileSpec
	}{
		{in: "local/path/file.txt", want: FileSpec{Filename: "local/path/file.txt"}},
		{in: "host:path/file.txt", want: FileSpec{Host: "host", Filename: "path/file.txt"}},
		{in: "[::1]:path/file.txt", want: FileSpec{Host: "::1", Filename: "path/file.txt"}},
		{in: "C:\\windows\\path", want: FileSpec{Host: "C", Filename: "\\windows\\path"}},
		{in: "[malformed", want: FileSpec{Filename: "[malformed"}},
	}
	for _, tc := range cases {
		got := ParseFileSpec(tc.in)
		if got != tc.want {
			t.Errorf("ParseFileSpec(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestJobValidateExactlyOneRemote(t *testing.T) {
	cases := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{
			name:    "source remote, dest local",
			job:     Job{Source: FileSpec{Host: "h", Filename: "a"}, Destination: FileSpec{Filename: "b"}},
			wantErr: false,
		},
		{
			name:    "dest remote, source local",
			job:     Job{Source: FileSpec{Filename: "a"}, Destination: FileSpec{Host: "h", Filename: "b"}},
			wantErr: false,
		},
		{
			name:    "both local",
			job:     Job{Source: FileSpec{Filename: "a"}, Destination: FileSpec{Filename: "b"}},
			wantErr: true,
		},
		{
			name:    "both remote",
			job:     Job{Source: FileSpec{Host: "h1", Filename: "a"}, Destination: FileSpec{Host: "h2", Filename: "b"}},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		err := tc.job.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: Validate() = nil, want error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tc.name, err)
		}
	}
}

func TestJobModeAndIsGet(t *testing.T) {
	get := Job{Source: FileSpec{Host: "h", Filename: "a"}, Destination: FileSpec{Filename: "b"}}
	if !get.IsGet() {
		t.Error("job with remote source should be a GET")
	}
	if get.Mode() != transport.ModeRx {
		t.Errorf("GET job mode = %v, want ModeRx", get.Mode())
	}
	if get.RemoteHost() != "h" {
		t.Errorf("RemoteHost = %q, want h", get.RemoteHost())
	}

	put := Job{Source: FileSpec{Filename: "a"}, Destination: FileSpec{Host: "h", Filename: "b"}}
	if put.IsGet() {
		t.Error("job with remote destination should be a PUT")
	}
	if put.Mode() != transport.ModeTx {
		t.Errorf("PUT job mode = %v, want ModeTx", put.Mode())
	}
	if put.RemoteHost() != "h" {
		t.Errorf("RemoteHost = %q, want h", put.RemoteHost())
	}
}
