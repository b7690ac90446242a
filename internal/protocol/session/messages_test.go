package session

import (
	"bytes"
	"testing"
)

func TestCommandRoundTrip(t *testing.T) {
	cases := []Command{
		{Kind: CommandGet, Filename: "report.csv"},
		{Kind: CommandPut, Filename: "upload.bin"},
		{Kind: CommandGet, Filename: ""},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := WriteCommand(&buf, c); err != nil {
			t.Fatalf("WriteCommand(%+v): %v", c, err)
		}
		got, err := ReadCommand(&buf)
		if err != nil {
			t.Fatalf("ReadCommand(%+v): %v", c, err)
		}
		if got != c {
			t.Errorf("round trip = %+v, want %+v", got, c)
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	msg := "no such file"
	cases := []Response{
		OkResponse(),
		ErrResponse(StatusFileNotFound, msg),
		ErrResponse(StatusItIsADirectory, ""),
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := WriteResponse(&buf, c); err != nil {
			t.Fatalf("WriteResponse(%+v): %v", c, err)
		}
		got, err := ReadResponse(&buf)
		if err != nil {
			t.Fatalf("ReadResponse(%+v): %v", c, err)
		}
		if got.Status != c.Status {
			t.Errorf("Status = %v, want %v", got.Status, c.Status)
		}
		switch {
		case c.Message == nil && got.Message != nil:
			t.Errorf("Message = %v, want nil", *got.Message)
		case c.Message != nil && (got.Message == nil || *got.Message != *c.Message):
			t.Errorf("Message = %v, want %v", got.Message, *c.Message)
		}
	}
}

func TestFileHeaderRoundTrip(t *testing.T) {
	cases := []FileHeader{
		{Size: 0, Filename: "empty.txt"},
		{Size: 1048576, Filename: "a.bin"},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := WriteFileHeader(&buf, c); err != nil {
			t.Fatalf("WriteFileHeader: %v", err)
		}
		got, err := ReadFileHeader(&buf)
		if err != nil {
			t.Fatalf("ReadFileHeader: %v", err)
		}
		if got != c {
			t.Errorf("round trip = %+v, want %+v", got, c)
		}
	}
}

func TestFileTrailerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFileTrailer(&buf); err != nil {
		t.Fatalf("WriteFileTrailer: %v", err)
	}
	if _, err := ReadFileTrailer(&buf); err != nil {
		t.Fatalf("ReadFileTrailer: %v", err)
	}
}

func TestReadCommandUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	// Hand-forge a frame with an invalid kind byte to exercise the
	// decode-failure path (spec.md §4.1 "decode failure").
	if err := WriteCommand(&buf, Command{Kind: 99, Filename: "x"}); err != nil {
		t.Fatalf("WriteCommand: %v", err)
	}
	if _, err := ReadCommand(&buf); err == nil {
		t.Fatal("ReadCommand with unknown kind: want error, got nil")
	}
}

func TestResponseStatusStrings(t *testing.T) {
	want := map[Status]string{
		StatusOk:                    "Ok",
		StatusFileNotFound:          "FileNotFound",
		StatusIncorrectPermissions:  "IncorrectPermissions",
		StatusDirectoryDoesNotExist: "DirectoryDoesNotExist",
		StatusIoError:               "IoError",
		StatusItIsADirectory:        "ItIsADirectory",
	}
	for status, s := range want {
		if got := status.String(); got != s {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, s)
		}
	}
}
